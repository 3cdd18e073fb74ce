package retrokit

import (
	"fmt"
	"go/types"

	"github.com/mazrean/retrokit/internal/pkg/strings"
)

// VarPool hands out identifiers that do not collide with each other or with registered names.
type VarPool struct {
	vars map[string]int
}

func NewVarPool() *VarPool {
	return &VarPool{
		vars: make(map[string]int),
	}
}

// Register registers an existing name to prevent shadowing
func (p *VarPool) Register(name string) {
	if name == "" || name == "_" {
		return
	}
	// Set the count to at least 1 so the name won't be used without a suffix
	if count, ok := p.vars[name]; !ok || count == 0 {
		p.vars[name] = 1
	}
}

// Contains reports whether name has been handed out or registered.
func (p *VarPool) Contains(name string) bool {
	return p.vars[name] > 0
}

// Get returns a fresh identifier derived from t.
func (p *VarPool) Get(t types.Type) string {
	return p.Name(p.getBaseName(t))
}

// Name returns base, or base with a numeric suffix when base is taken.
func (p *VarPool) Name(base string) string {
	if goReservedKeywords[base] {
		base += "Value"
	}

	for {
		count := p.vars[base]
		p.vars[base] = count + 1

		if count == 0 {
			return base
		}

		// a suffixed name may itself have been registered
		name := fmt.Sprintf("%s%d", base, count-1)
		if p.vars[name] == 0 {
			p.vars[name] = 1
			return name
		}
	}
}

// getBaseName extracts a base name from a type
func (p *VarPool) getBaseName(t types.Type) string {
	for ptr, ok := t.(*types.Pointer); ok; ptr, ok = t.(*types.Pointer) {
		t = ptr.Elem()
	}

	switch t := t.(type) {
	case *types.Named:
		if obj := t.Obj(); obj != nil && obj.Pkg() != nil {
			if obj.Pkg().Path() == contextPkgPath && obj.Name() == contextTypeName {
				return "ctx"
			}
		}

		return strings.ToLowerCamel(t.Obj().Name())
	case *types.Basic:
		switch t.Kind() {
		case types.Int, types.Int8, types.Int16, types.Int32, types.Int64,
			types.Uint, types.Uint8, types.Uint16, types.Uint32, types.Uint64,
			types.Float32, types.Float64:
			return "num"
		case types.String:
			return "str"
		case types.Bool:
			return "flag"
		default:
			return strings.ToLowerCamel(t.Name())
		}
	default:
		return "val"
	}
}
