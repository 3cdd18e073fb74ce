package stale

import "context"

//retrokit:service
type Status interface {
	//retrokit:GET status
	Get(ctx context.Context) (string, error)
}
