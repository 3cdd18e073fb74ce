package api

import "context"

type User struct {
	Name string `json:"name"`
}

//retrokit:service
type Users interface {
	//retrokit:GET users/{name}
	Get(ctx context.Context, name string) (*User, error)

	//retrokit:PUT users/{name} body=user
	Put(ctx context.Context, name string, user User) error
}
