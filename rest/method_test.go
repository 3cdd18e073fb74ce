package rest

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethod_ResolveURL(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("http://example.com/api/")
	require.NoError(t, err)

	tests := []struct {
		name    string
		path    string
		args    Args
		want    string
		wantErr bool
	}{
		{name: "relative", path: "users", want: "http://example.com/api/users"},
		{name: "absolute path replaces base path", path: "/users", want: "http://example.com/users"},
		{name: "empty path", path: "", want: "http://example.com/api/"},
		{
			name: "placeholders are escaped",
			path: "users/{user}/repos/{id}",
			args: Args{Path: map[string]any{"user": "a/b", "id": 3}},
			want: "http://example.com/api/users/a%2Fb/repos/3",
		},
		{
			name: "static query kept first",
			path: "search?sort=asc",
			args: Args{Query: []Pair{{Key: "q", Value: "go lang"}}},
			want: "http://example.com/api/search?sort=asc&q=go+lang",
		},
		{
			name: "query keeps declared order",
			path: "search",
			args: Args{Query: []Pair{{Key: "z", Value: 1}, {Key: "a", Value: []string{"x", "y"}}, {Key: "m&n", Value: "a=b"}}},
			want: "http://example.com/api/search?z=1&a=x&a=y&m%26n=a%3Db",
		},
		{
			name: "nil query values dropped",
			path: "search",
			args: Args{Query: []Pair{{Key: "q", Value: nil}}},
			want: "http://example.com/api/search",
		},
		{
			name: "dot inside segment",
			path: "files/{name}.json",
			args: Args{Path: map[string]any{"name": "."}},
			want: "http://example.com/api/files/..json",
		},
		{
			name: "escaped slash with dots",
			path: "users/{user}",
			args: Args{Path: map[string]any{"user": "a/.."}},
			want: "http://example.com/api/users/a%2F..",
		},
		{name: "missing placeholder", path: "users/{user}", wantErr: true},
		{name: "dot value", path: "users/{user}", args: Args{Path: map[string]any{"user": "."}}, wantErr: true},
		{name: "dot dot value", path: "users/{user}", args: Args{Path: map[string]any{"user": ".."}}, wantErr: true},
		{name: "dot dot from two values", path: "{a}{b}/x", args: Args{Path: map[string]any{"a": ".", "b": "."}}, wantErr: true},
		{name: "unterminated placeholder", path: "users/{user", args: Args{Path: map[string]any{"user": "x"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := &Method{Path: tt.path}
			got, err := m.resolveURL(base, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestExpandPath_DotSegments(t *testing.T) {
	t.Parallel()

	_, err := expandPath("users/{user}", map[string]any{"user": ".."})
	assert.ErrorIs(t, err, ErrInvalidPathParam)

	got, err := expandPath("../static/{file}", map[string]any{"file": "a.txt"})
	assert.ErrorIs(t, err, ErrInvalidPathParam)
	assert.Empty(t, got)

	got, err = expandPath("../static", nil)
	require.NoError(t, err)
	assert.Equal(t, "../static", got)
}

func TestQueryValues(t *testing.T) {
	t.Parallel()

	n := 5
	assert.Nil(t, queryValues(nil))
	assert.Nil(t, queryValues((*int)(nil)))
	assert.Equal(t, []string{"5"}, queryValues(&n))
	assert.Equal(t, []string{"1", "2"}, queryValues([]int{1, 2}))
	assert.Equal(t, []string{"true"}, queryValues(true))
}
