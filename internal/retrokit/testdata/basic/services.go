package basic

import "context"

// Repo is a repository resource.
//
//retrokit:service
type Repo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

//retrokit:service
type MyService interface {
	//retrokit:GET users/{user}/repos
	//retrokit:header Accept: application/json
	//retrokit:query page=p
	ListRepos(ctx context.Context, user string, page int, sort *string) ([]Repo, error)

	//retrokit:POST repos body=repo
	CreateRepo(ctx context.Context, repo *Repo) (*Repo, error)

	//retrokit:DELETE repos/{id}
	DeleteRepo(id int) error
}

// URLService keeps its name as is.
//
//retrokit:service name=urls
type URLService interface {
	//retrokit:GET ping
	Ping(_ context.Context) (string, error)
}

// NotAService has no directive.
type NotAService interface {
	Missing() error
}
