package retrokit

import (
	"go/token"
	"go/types"
	"testing"
)

func TestVarPool_Get(t *testing.T) {
	t.Parallel()

	ctxPkg := types.NewPackage("context", "context")
	ctxType := types.NewNamed(types.NewTypeName(token.NoPos, ctxPkg, "Context", nil), types.NewInterfaceType(nil, nil), nil)

	apiPkg := types.NewPackage("example.com/api", "api")
	repoType := types.NewNamed(types.NewTypeName(token.NoPos, apiPkg, "Repo", nil), types.NewStruct(nil, nil), nil)
	typeType := types.NewNamed(types.NewTypeName(token.NoPos, apiPkg, "Type", nil), types.Typ[types.String], nil)

	tests := []struct {
		name     string
		typeExpr types.Type
		expected string
	}{
		{name: "int", typeExpr: types.Typ[types.Int], expected: "num"},
		{name: "float64", typeExpr: types.Typ[types.Float64], expected: "num"},
		{name: "string", typeExpr: types.Typ[types.String], expected: "str"},
		{name: "bool", typeExpr: types.Typ[types.Bool], expected: "flag"},
		{name: "context", typeExpr: ctxType, expected: "ctx"},
		{name: "named", typeExpr: repoType, expected: "repo"},
		{name: "pointer", typeExpr: types.NewPointer(types.NewPointer(repoType)), expected: "repo"},
		{name: "keyword", typeExpr: typeType, expected: "typeValue"},
		{name: "slice", typeExpr: types.NewSlice(repoType), expected: "val"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pool := NewVarPool()
			if got := pool.Get(tt.typeExpr); got != tt.expected {
				t.Errorf("Get() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestVarPool_Name(t *testing.T) {
	t.Parallel()

	pool := NewVarPool()
	pool.Register("p")
	pool.Register("p0")
	pool.Register("_")
	pool.Register("")

	got := []string{pool.Name("p"), pool.Name("p"), pool.Name("out"), pool.Name("out"), pool.Name("func")}
	want := []string{"p1", "p2", "out", "out0", "funcValue"}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Name() #%d = %q, want %q", i, got[i], want[i])
		}
	}

	if pool.Contains("_") {
		t.Error("blank identifier should never be registered")
	}
	if !pool.Contains("p0") || !pool.Contains("out0") {
		t.Error("handed out and registered names should be reported")
	}
}
