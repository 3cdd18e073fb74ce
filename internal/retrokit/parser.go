package retrokit

import (
	"errors"
	"fmt"
	"go/ast"
	"go/constant"
	"go/parser"
	"go/token"
	"go/types"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"
)

// ErrInvalidScan is returned for malformed retrokit.Scan declarations.
var ErrInvalidScan = errors.New("invalid scan declaration")

// Parser analyzes Go source code to find retrokit.Scan declarations.
type Parser struct {
	fset *token.FileSet
}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{
		fset: token.NewFileSet(),
	}
}

// ParseFile parses a Go file and extracts its scan declarations.
func (p *Parser) ParseFile(filename string) (*MetaData, []*ScanDirective, error) {
	if _, err := parser.ParseFile(p.fset, filename, nil, parser.SkipObjectResolution); err != nil {
		return nil, nil, fmt.Errorf("parse file %s: %w", filename, err)
	}

	pkg, err := p.loadPackage(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("load package: %w", err)
	}

	retrokitPkg, ok := pkg.Imports[retrokitPkgPath]
	if !ok || retrokitPkg == nil || retrokitPkg.Types == nil {
		slog.Warn("retrokit package is not imported", "filename", filename)
		return nil, nil, nil
	}

	scanObj := retrokitPkg.Types.Scope().Lookup("Scan")
	if scanObj == nil || scanObj.Type() == nil {
		slog.Warn("retrokit package is imported, but retrokit.Scan function is not found", "filename", filename)
		return nil, nil, nil
	}

	absFilename, err := filepath.Abs(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("get absolute filename: %w", err)
	}

	var targetFile *ast.File
	for i, f := range pkg.Syntax {
		if f != nil && i < len(pkg.CompiledGoFiles) {
			absGoFile, _ := filepath.Abs(pkg.CompiledGoFiles[i])
			if absGoFile == absFilename {
				targetFile = f
				break
			}
		}
	}
	if targetFile == nil {
		return nil, nil, errors.New("target file not found in package syntax")
	}

	dir := filepath.Dir(absFilename)
	metaData := &MetaData{
		Package: pkg.Name,
		PkgPath: pkg.PkgPath,
		Dir:     dir,
		Scope:   scopeNames(pkg, outputFileName(absFilename)),
	}

	scans, err := p.findScanDirectives(targetFile, pkg, scanObj.Type())
	if err != nil {
		return nil, nil, fmt.Errorf("find scan directives: %w", err)
	}

	return metaData, scans, nil
}

func (p *Parser) loadPackage(filename string) (*packages.Package, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
			packages.NeedImports | packages.NeedTypes | packages.NeedTypesSizes |
			packages.NeedSyntax | packages.NeedTypesInfo,
		Fset: p.fset,
		Dir:  filepath.Dir(filename),
	}

	pkgs, err := packages.Load(cfg, "file="+filename)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}

	// A stale generated file may not type check; keep going with what loaded.
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			slog.Debug("package error", "package", pkg.PkgPath, "error", e)
		}
	}

	absFilename, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("get absolute filename: %w", err)
	}

	for _, pkg := range pkgs {
		for _, goFile := range pkg.GoFiles {
			absGoFile, err := filepath.Abs(goFile)
			if err != nil {
				slog.Debug("failed to get absolute filename", "error", err, "filename", goFile)
				continue
			}

			if absGoFile == absFilename {
				if pkg.Types == nil || pkg.TypesInfo == nil {
					return nil, fmt.Errorf("package %s has no type information", pkg.PkgPath)
				}
				return pkg, nil
			}
		}
	}

	return nil, errors.New("file is not in a loadable package")
}

// scopeNames lists the package level names not declared by the generated file.
func scopeNames(pkg *packages.Package, generated string) []string {
	scope := pkg.Types.Scope()

	names := make([]string, 0, scope.Len())
	for _, name := range scope.Names() {
		obj := scope.Lookup(name)
		if pos := pkg.Fset.Position(obj.Pos()); pos.IsValid() {
			if abs, err := filepath.Abs(pos.Filename); err == nil && abs == generated {
				continue
			}
		}
		names = append(names, name)
	}

	return names
}

// findScanDirectives finds all retrokit.Scan calls in the file.
func (p *Parser) findScanDirectives(file *ast.File, pkg *packages.Package, scanType types.Type) ([]*ScanDirective, error) {
	var (
		scans []*ScanDirective
		errs  []error
	)

	ast.Inspect(file, func(n ast.Node) bool {
		callExpr, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}

		calleeType := pkg.TypesInfo.TypeOf(callExpr.Fun)
		if calleeType == nil || !types.Identical(calleeType, scanType) {
			return true
		}

		scan, err := p.parseScanCall(pkg, callExpr)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.fset.Position(callExpr.Pos()), err))
			return false
		}

		scans = append(scans, scan)
		return false
	})

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return scans, nil
}

// parseScanCall parses a retrokit.Scan call expression.
func (p *Parser) parseScanCall(pkg *packages.Package, call *ast.CallExpr) (*ScanDirective, error) {
	if len(call.Args) == 0 {
		return nil, fmt.Errorf("%w: retrokit.Scan requires a function name", ErrInvalidScan)
	}

	tv, ok := pkg.TypesInfo.Types[call.Args[0]]
	if !ok || tv.Value == nil || tv.Value.Kind() != constant.String {
		return nil, fmt.Errorf("%w: first argument is not a string literal", ErrInvalidScan)
	}

	funcName := constant.StringVal(tv.Value)
	if !token.IsIdentifier(funcName) {
		return nil, fmt.Errorf("%w: %q is not a valid function name", ErrInvalidScan, funcName)
	}

	scan := &ScanDirective{
		FuncName: funcName,
		Pos:      p.fset.Position(call.Pos()),
	}

	var sawValue, sawBasePackages bool
	for _, arg := range call.Args[1:] {
		optCall, ok := arg.(*ast.CallExpr)
		if !ok {
			return nil, fmt.Errorf("%w: scan options must be retrokit.Value, retrokit.BasePackages or retrokit.BasePackageOf calls", ErrInvalidScan)
		}

		fn, ident := calledFunc(pkg.TypesInfo, optCall.Fun)
		if fn == nil || fn.Pkg() == nil || fn.Pkg().Path() != retrokitPkgPath {
			return nil, fmt.Errorf("%w: scan options must be retrokit.Value, retrokit.BasePackages or retrokit.BasePackageOf calls", ErrInvalidScan)
		}

		switch fn.Name() {
		case "Value", "BasePackages":
			if fn.Name() == "Value" {
				sawValue = true
			} else {
				sawBasePackages = true
			}

			for _, pkgArg := range optCall.Args {
				tv, ok := pkg.TypesInfo.Types[pkgArg]
				if !ok || tv.Value == nil || tv.Value.Kind() != constant.String {
					return nil, fmt.Errorf("%w: retrokit.%s requires string literals", ErrInvalidScan, fn.Name())
				}
				scan.Patterns = append(scan.Patterns, constant.StringVal(tv.Value))
			}
		case "BasePackageOf":
			inst, ok := pkg.TypesInfo.Instances[ident]
			if !ok || inst.TypeArgs == nil || inst.TypeArgs.Len() != 1 {
				return nil, fmt.Errorf("%w: retrokit.BasePackageOf requires a type argument", ErrInvalidScan)
			}

			pkgPath, err := declaringPackage(inst.TypeArgs.At(0))
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidScan, err)
			}
			scan.Patterns = append(scan.Patterns, pkgPath)
		default:
			return nil, fmt.Errorf("%w: unknown scan option retrokit.%s", ErrInvalidScan, fn.Name())
		}
	}

	if sawValue && sawBasePackages {
		return nil, fmt.Errorf("%w: retrokit.Value and retrokit.BasePackages are mutually exclusive", ErrInvalidScan)
	}

	if len(scan.Patterns) == 0 {
		scan.Patterns = []string{pkg.PkgPath}
	}

	// "pkg" and "./pkg" select the same package; keep the first spelling.
	seen := make(map[string]bool, len(scan.Patterns))
	patterns := scan.Patterns[:0]
	for _, pattern := range scan.Patterns {
		key := strings.TrimSuffix(pattern, "/")
		if seen[key] {
			continue
		}
		seen[key] = true
		patterns = append(patterns, pattern)
	}
	scan.Patterns = patterns

	return scan, nil
}

// calledFunc resolves the function called by expr, unwrapping explicit instantiation.
func calledFunc(info *types.Info, expr ast.Expr) (*types.Func, *ast.Ident) {
	switch e := expr.(type) {
	case *ast.IndexExpr:
		return calledFunc(info, e.X)
	case *ast.IndexListExpr:
		return calledFunc(info, e.X)
	case *ast.SelectorExpr:
		fn, _ := info.Uses[e.Sel].(*types.Func)
		return fn, e.Sel
	case *ast.Ident:
		fn, _ := info.Uses[e].(*types.Func)
		return fn, e
	default:
		return nil, nil
	}
}

// declaringPackage returns the import path of the package declaring t.
func declaringPackage(t types.Type) (string, error) {
	for ptr, ok := t.(*types.Pointer); ok; ptr, ok = t.(*types.Pointer) {
		t = ptr.Elem()
	}

	named, ok := types.Unalias(t).(*types.Named)
	if !ok || named.Obj().Pkg() == nil {
		return "", fmt.Errorf("%s is not declared in a package", t)
	}

	return named.Obj().Pkg().Path(), nil
}
