package retrokit

import (
	"go/ast"
	"slices"
	"testing"
)

func TestParseDirectives(t *testing.T) {
	t.Parallel()

	doc := &ast.CommentGroup{List: []*ast.Comment{
		{Text: "// GitHub is the GitHub API."},
		{Text: "//"},
		{Text: "//retrokit:service name=github"},
		{Text: "//retrokit:GET   users/{user}  "},
		{Text: "// retrokit:ignored because of the space"},
	}}

	got := parseDirectives(doc)
	want := []directive{
		{name: "service", args: "name=github"},
		{name: "GET", args: "users/{user}"},
	}

	if !slices.Equal(got, want) {
		t.Errorf("parseDirectives() = %+v, want %+v", got, want)
	}

	if got := parseDirectives(nil); got != nil {
		t.Errorf("parseDirectives(nil) = %+v, want nil", got)
	}
}

func TestParseServiceArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    string
		want    string
		wantErr bool
	}{
		{name: "empty", args: "", want: ""},
		{name: "name", args: "name=github", want: "github"},
		{name: "empty name", args: "name=", wantErr: true},
		{name: "unknown option", args: "scope=prototype", wantErr: true},
		{name: "bare word", args: "github", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseServiceArgs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseServiceArgs(%q) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseServiceArgs(%q) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

func TestParseRequestArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     string
		wantPath string
		wantBody string
		wantErr  bool
	}{
		{name: "path", args: "users/{user}", wantPath: "users/{user}"},
		{name: "body", args: "repos body=repo", wantPath: "repos", wantBody: "repo"},
		{name: "missing path", args: "", wantErr: true},
		{name: "empty body", args: "repos body=", wantErr: true},
		{name: "unknown option", args: "repos form=x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path, body, err := parseRequestArgs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseRequestArgs(%q) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if path != tt.wantPath || body != tt.wantBody {
				t.Errorf("parseRequestArgs(%q) = (%q, %q), want (%q, %q)", tt.args, path, body, tt.wantPath, tt.wantBody)
			}
		})
	}
}

func TestParseHeaderArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    string
		want    Header
		wantErr bool
	}{
		{name: "header", args: "Accept: application/json", want: Header{Key: "Accept", Value: "application/json"}},
		{name: "value with colon", args: "X-Time: 12:30", want: Header{Key: "X-Time", Value: "12:30"}},
		{name: "empty value", args: "X-Empty:", want: Header{Key: "X-Empty"}},
		{name: "no colon", args: "Accept application/json", wantErr: true},
		{name: "empty key", args: ": value", wantErr: true},
		{name: "space in key", args: "Bad Key: value", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseHeaderArgs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseHeaderArgs(%q) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseHeaderArgs(%q) = %+v, want %+v", tt.args, got, tt.want)
			}
		})
	}
}

func TestParseQueryArgs(t *testing.T) {
	t.Parallel()

	param, key, err := parseQueryArgs("page=p")
	if err != nil {
		t.Fatalf("parseQueryArgs() error = %v", err)
	}
	if param != "page" || key != "p" {
		t.Errorf("parseQueryArgs() = (%q, %q), want (page, p)", param, key)
	}

	for _, args := range []string{"", "page", "=p", "page="} {
		if _, _, err := parseQueryArgs(args); err == nil {
			t.Errorf("parseQueryArgs(%q) should fail", args)
		}
	}
}

func TestPathPlaceholders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		want    []string
		wantErr bool
	}{
		{path: "users", want: nil},
		{path: "users/{user}/repos/{repo}", want: []string{"user", "repo"}},
		{path: "/files/{name}.json", want: []string{"name"}},
		{path: "users/{}", wantErr: true},
		{path: "users/{user", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			got, err := pathPlaceholders(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("pathPlaceholders(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("pathPlaceholders(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
