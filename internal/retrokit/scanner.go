package retrokit

import (
	"cmp"
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"log/slog"
	"slices"

	"golang.org/x/tools/go/packages"

	"github.com/mazrean/retrokit/internal/pkg/strings"
)

var (
	// ErrInvalidService is returned for service interfaces that cannot be implemented.
	ErrInvalidService = errors.New("invalid service")

	// ErrDuplicateName is returned when two services share a registration name.
	ErrDuplicateName = errors.New("duplicate service name")

	// ErrLoadPackage is returned when a scanned package cannot be loaded or type-checked.
	ErrLoadPackage = errors.New("failed to load package")
)

// Scanner discovers service interfaces in packages.
type Scanner struct {
	fset *token.FileSet
}

// NewScanner creates a new scanner instance.
func NewScanner() *Scanner {
	return &Scanner{
		fset: token.NewFileSet(),
	}
}

// Scan loads patterns relative to dir and returns the service interfaces they declare, ordered
// by package and then by declaration.
func (s *Scanner) Scan(dir string, patterns ...string) ([]*ServiceSpec, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
			packages.NeedImports | packages.NeedTypes | packages.NeedTypesSizes |
			packages.NeedSyntax | packages.NeedTypesInfo,
		Fset: s.fset,
		Dir:  dir,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("%w %v: %w", ErrLoadPackage, patterns, err)
	}

	slices.SortFunc(pkgs, func(a, b *packages.Package) int {
		return cmp.Compare(a.PkgPath, b.PkgPath)
	})

	var (
		services []*ServiceSpec
		errs     []error
		seen     = map[string]bool{}
	)
	for _, pkg := range pkgs {
		if seen[pkg.PkgPath] {
			continue
		}
		seen[pkg.PkgPath] = true

		if err := loadError(pkg); err != nil {
			errs = append(errs, err)
			continue
		}

		if pkg.Types == nil || pkg.TypesInfo == nil {
			errs = append(errs, fmt.Errorf("%w %q: no type information", ErrLoadPackage, pkg.PkgPath))
			continue
		}

		found, err := s.scanPackage(pkg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		services = append(services, found...)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := checkDuplicateNames(services); err != nil {
		return nil, err
	}

	return services, nil
}

func (s *Scanner) scanPackage(pkg *packages.Package) ([]*ServiceSpec, error) {
	methodDocs := map[token.Pos]*ast.CommentGroup{}

	type candidate struct {
		spec *ast.TypeSpec
		dirs []directive
	}
	var candidates []candidate

	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			genDecl, ok := decl.(*ast.GenDecl)
			if !ok || genDecl.Tok != token.TYPE {
				continue
			}

			for _, spec := range genDecl.Specs {
				typeSpec, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}

				if iface, ok := typeSpec.Type.(*ast.InterfaceType); ok {
					collectMethodDocs(iface, methodDocs)
				}

				doc := typeSpec.Doc
				if doc == nil && len(genDecl.Specs) == 1 {
					doc = genDecl.Doc
				}

				for _, d := range parseDirectives(doc) {
					if d.name == serviceDirective {
						candidates = append(candidates, candidate{spec: typeSpec, dirs: []directive{d}})
						break
					}
				}
			}
		}
	}

	var (
		services []*ServiceSpec
		errs     []error
	)
	for _, c := range candidates {
		pos := s.fset.Position(c.spec.Pos())

		obj, ok := pkg.TypesInfo.Defs[c.spec.Name].(*types.TypeName)
		if !ok {
			continue
		}

		named, ok := obj.Type().(*types.Named)
		if !ok {
			slog.Warn("Skipping service directive on alias", "type", obj.Name(), "position", pos)
			continue
		}

		iface, ok := named.Underlying().(*types.Interface)
		if !ok {
			slog.Warn("Skipping service directive on non-interface type", "type", obj.Name(), "position", pos)
			continue
		}

		svc, err := s.buildService(named, iface, c.dirs[0], methodDocs, pos)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", pos, err))
			continue
		}

		services = append(services, svc)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return services, nil
}

func collectMethodDocs(iface *ast.InterfaceType, docs map[token.Pos]*ast.CommentGroup) {
	if iface.Methods == nil {
		return
	}

	for _, field := range iface.Methods.List {
		for _, name := range field.Names {
			docs[name.Pos()] = field.Doc
		}
	}
}

func (s *Scanner) buildService(named *types.Named, iface *types.Interface, d directive, methodDocs map[token.Pos]*ast.CommentGroup, pos token.Position) (*ServiceSpec, error) {
	typeName := named.Obj().Name()

	if named.TypeParams().Len() > 0 {
		return nil, fmt.Errorf("%w: %s: generic interfaces are not supported", ErrInvalidService, typeName)
	}

	if !iface.IsMethodSet() {
		return nil, fmt.Errorf("%w: %s: type constraints cannot be services", ErrInvalidService, typeName)
	}

	name, err := parseServiceArgs(d.args)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidService, typeName, err)
	}
	if name == "" {
		name = strings.BeanName(typeName)
	}

	svc := &ServiceSpec{
		Name:     name,
		TypeName: typeName,
		PkgPath:  named.Obj().Pkg().Path(),
		Type:     named,
		Pos:      pos,
	}

	var errs []error
	for method := range iface.Methods() {
		if !method.Exported() {
			errs = append(errs, fmt.Errorf("%w: %s.%s: unexported methods cannot be implemented outside the package", ErrInvalidService, typeName, method.Name()))
			continue
		}

		spec, err := s.buildMethod(method, methodDocs[method.Pos()])
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s.%s: %w", ErrInvalidService, typeName, method.Name(), err))
			continue
		}

		svc.Methods = append(svc.Methods, spec)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return svc, nil
}

func (s *Scanner) buildMethod(method *types.Func, doc *ast.CommentGroup) (*MethodSpec, error) {
	spec := &MethodSpec{
		Name: method.Name(),
		Pos:  s.fset.Position(method.Pos()),
	}

	var (
		body    string
		renames = map[string]string{}
	)
	for _, d := range parseDirectives(doc) {
		switch d.name {
		case headerDirective:
			h, err := parseHeaderArgs(d.args)
			if err != nil {
				return nil, err
			}
			spec.Headers = append(spec.Headers, h)
		case queryDirective:
			param, key, err := parseQueryArgs(d.args)
			if err != nil {
				return nil, err
			}
			renames[param] = key
		default:
			verb, ok := httpVerbs[d.name]
			if !ok {
				return nil, fmt.Errorf("unknown directive %q", directivePrefix+d.name)
			}
			if spec.HTTPMethod != "" {
				return nil, fmt.Errorf("multiple HTTP method directives (%s and %s)", spec.HTTPMethod, verb)
			}

			path, bodyParam, err := parseRequestArgs(d.args)
			if err != nil {
				return nil, err
			}
			spec.HTTPMethod, spec.Path, body = verb, path, bodyParam
		}
	}

	if spec.HTTPMethod == "" {
		return nil, errors.New("missing HTTP method directive")
	}

	sig := method.Signature()
	if sig.Variadic() {
		return nil, errors.New("variadic parameters are not supported")
	}

	result, err := resultType(sig.Results())
	if err != nil {
		return nil, err
	}
	spec.Result = result

	placeholders, err := pathPlaceholders(spec.Path)
	if err != nil {
		return nil, err
	}

	params := sig.Params()
	byName := make(map[string]*ParamSpec, params.Len())
	for i := range params.Len() {
		v := params.At(i)
		param := &ParamSpec{Name: v.Name(), Type: v.Type(), Kind: ParamQuery, Key: v.Name()}

		if isContext(v.Type()) {
			if i != 0 {
				return nil, errors.New("context.Context must be the first parameter")
			}
			param.Kind, param.Key = ParamContext, ""
			spec.Params = append(spec.Params, param)
			continue
		}

		if param.Name == "" || param.Name == "_" {
			return nil, fmt.Errorf("parameter %d must be named", i)
		}

		byName[param.Name] = param
		spec.Params = append(spec.Params, param)
	}

	if body != "" {
		param, ok := byName[body]
		if !ok {
			return nil, fmt.Errorf("body parameter %q does not exist", body)
		}
		if spec.HTTPMethod == "GET" || spec.HTTPMethod == "HEAD" {
			return nil, fmt.Errorf("%s requests cannot have a body", spec.HTTPMethod)
		}
		param.Kind, param.Key = ParamBody, ""
	}

	for _, placeholder := range placeholders {
		param, ok := byName[placeholder]
		if !ok {
			return nil, fmt.Errorf("path placeholder {%s} has no parameter", placeholder)
		}
		if param.Kind == ParamBody {
			return nil, fmt.Errorf("parameter %q is both the body and a path placeholder", placeholder)
		}
		param.Kind = ParamPath
	}

	for param, key := range renames {
		p, ok := byName[param]
		if !ok || p.Kind != ParamQuery {
			return nil, fmt.Errorf("query parameter %q does not exist", param)
		}
		p.Key = key
	}

	return spec, nil
}

func loadError(pkg *packages.Package) error {
	name := pkg.PkgPath
	if name == "" {
		name = pkg.ID
	}

	var errs []error
	for _, e := range pkg.Errors {
		// Generated files are rewritten after scanning, so a stale one must not block it.
		if isGeneratedPos(e.Pos) {
			slog.Debug("package error in generated file", "package", name, "error", e)
			continue
		}
		errs = append(errs, fmt.Errorf("%w %q: %s", ErrLoadPackage, name, e))
	}
	return errors.Join(errs...)
}

// resultType validates results and returns the non-error result, nil for error-only methods.
func resultType(results *types.Tuple) (types.Type, error) {
	errorType := types.Universe.Lookup("error").Type()

	switch {
	case results.Len() == 1 && types.Identical(results.At(0).Type(), errorType):
		return nil, nil
	case results.Len() == 2 && types.Identical(results.At(1).Type(), errorType):
		return results.At(0).Type(), nil
	default:
		return nil, errors.New("results must be (T, error) or error")
	}
}

func isContext(t types.Type) bool {
	named, ok := types.Unalias(t).(*types.Named)
	if !ok {
		return false
	}

	obj := named.Obj()
	return obj.Pkg() != nil && obj.Pkg().Path() == contextPkgPath && obj.Name() == contextTypeName
}

// checkDuplicateNames reports services sharing a registration name, naming both declarations.
func checkDuplicateNames(services []*ServiceSpec) error {
	byName := make(map[string]*ServiceSpec, len(services))

	var errs []error
	for _, svc := range services {
		if prev, ok := byName[svc.Name]; ok {
			errs = append(errs, fmt.Errorf("%w %q: %s (%s) and %s (%s)", ErrDuplicateName, svc.Name, prev.QualifiedName(), prev.Pos, svc.QualifiedName(), svc.Pos))
			continue
		}
		byName[svc.Name] = svc
	}

	return errors.Join(errs...)
}
