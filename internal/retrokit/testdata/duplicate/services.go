package duplicate

import "context"

//retrokit:service name=shared
type First interface {
	//retrokit:GET first
	Get(ctx context.Context) (string, error)
}

//retrokit:service name=shared
type Second interface {
	//retrokit:GET second
	Get(ctx context.Context) (string, error)
}
