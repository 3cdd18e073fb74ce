package broken

import "context"

//retrokit:service
type Items interface {
	//retrokit:GET items
	List(ctx context.Context) (Missing, error)
}
