package invalid

import "context"

//retrokit:service
type BadService interface {
	NoDirective(ctx context.Context) error

	//retrokit:GET items/{id}
	MissingPlaceholder(ctx context.Context) error

	//retrokit:GET items
	TooManyResults(ctx context.Context) (string, int, error)

	//retrokit:POST items body=item
	UnknownBody(ctx context.Context, value string) error

	//retrokit:GET items
	LateContext(id int, ctx context.Context) error
}
