// Package retrokit provides REST client code generation functionality.
package retrokit

import (
	"go/token"
	"go/types"
)

// MetaData describes the package a Scan declaration lives in.
type MetaData struct {
	Package string
	PkgPath string
	Dir     string
	// Scope holds the names already declared by the package, excluding generated files.
	Scope []string
}

// ScanDirective represents a retrokit.Scan call.
type ScanDirective struct {
	FuncName string
	// Patterns are package patterns resolved relative to the declaring file.
	Patterns []string
	Pos      token.Position
}

// ServiceSpec represents an interface carrying the service directive.
type ServiceSpec struct {
	// Name is the registration name.
	Name     string
	TypeName string
	PkgPath  string
	Type     *types.Named
	Pos      token.Position
	Methods  []*MethodSpec
}

// QualifiedName returns the import path qualified type name.
func (s *ServiceSpec) QualifiedName() string {
	return s.PkgPath + "." + s.TypeName
}

// Header is a static request header.
type Header struct {
	Key   string
	Value string
}

// MethodSpec represents one interface method mapped to an HTTP request.
type MethodSpec struct {
	Name       string
	HTTPMethod string
	Path       string
	Headers    []Header
	Params     []*ParamSpec
	// Result is the non-error result type, nil for error-only methods.
	Result types.Type
	Pos    token.Position
}

// Body returns the body parameter, if any.
func (m *MethodSpec) Body() *ParamSpec {
	for _, p := range m.Params {
		if p.Kind == ParamBody {
			return p
		}
	}
	return nil
}

// Context returns the context parameter, if any.
func (m *MethodSpec) Context() *ParamSpec {
	if len(m.Params) > 0 && m.Params[0].Kind == ParamContext {
		return m.Params[0]
	}
	return nil
}

// ParamKind is how a parameter is bound to the request.
type ParamKind string

const (
	ParamContext ParamKind = "context"
	ParamPath    ParamKind = "path"
	ParamQuery   ParamKind = "query"
	ParamBody    ParamKind = "body"
)

// ParamSpec represents a method parameter.
type ParamSpec struct {
	// Name is the declared name, possibly empty for a context parameter.
	Name string
	Type types.Type
	Kind ParamKind
	// Key is the path placeholder or query key.
	Key string
}

// ScanResult pairs a Scan declaration with the services it found.
type ScanResult struct {
	Directive *ScanDirective
	Services  []*ServiceSpec
}
