package retrokit

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"go/types"
	"io"
	"maps"
	"slices"
	"text/template"

	"golang.org/x/tools/imports"

	"github.com/mazrean/retrokit/internal/pkg/strings"
)

// Local identifiers used by the templates. Imports never take these names.
var templateLocals = []string{"reg", "desc", "client", "err", "p", "out", "v", "ctx"}

var fileTemplate = template.Must(template.New("file").Parse(`// Code generated by retrokit. DO NOT EDIT.

package {{.Package}}

import (
{{- range .Imports}}
	{{if .Alias}}{{.Name}} {{end}}"{{.Path}}"
{{- end}}
)
{{range .Funcs}}
// {{.Name}} registers the service proxies discovered by retrokit.Scan with reg.
func {{.Name}}(reg *{{$.Retrokit}}.Registry) error {
	for _, desc := range []{{$.Retrokit}}.ServiceDescriptor{
	{{- range .Services}}
		{
			Name: {{printf "%q" .Name}},
			Type: {{$.Reflect}}.TypeFor[{{.Type}}](),
			New: func(client *{{$.Rest}}.Client) any {
				return &{{.Proxy}}{client: client}
			},
		},
	{{- end}}
	} {
		if err := reg.RegisterService(desc); err != nil {
			return err
		}
	}

	return nil
}
{{end}}
{{- range .Services}}
{{- $svc := .}}
{{- if .Methods}}
var (
{{- range .Methods}}
	{{.Var}} = &{{$.Rest}}.Method{
		Name:       {{printf "%q" .Label}},
		HTTPMethod: {{printf "%q" .HTTPMethod}},
		Path:       {{printf "%q" .Path}},
		{{- if .Headers}}
		Headers: []{{$.Rest}}.Pair{
		{{- range .Headers}}
			{Key: {{printf "%q" .Key}}, Value: {{printf "%q" .Value}}},
		{{- end}}
		},
		{{- end}}
		{{- if .Body}}
		HasBody: true,
		{{- end}}
		{{- if .Result}}
		Returns: {{$.Reflect}}.TypeFor[{{.Result}}](),
		{{- end}}
	}
{{- end}}
)
{{- end}}

// {{.Proxy}} implements {{.Type}} on top of a REST client.
type {{.Proxy}} struct {
	client *{{$.Rest}}.Client
}
{{range .Methods}}
func ({{.Receiver}} *{{$svc.Proxy}}) {{.Name}}({{.Params}}) {{.Results}} {
	{{if .Result}}{{.Out}}{{else}}_{{end}}, {{.Err}} := {{.Receiver}}.client.Invoke({{.Ctx}}, {{.Var}}, {{$.Rest}}.Args{
	{{- if or .PathArgs .QueryArgs .Body}}
		{{- if .PathArgs}}
		Path: map[string]any{
		{{- range .PathArgs}}
			{{printf "%q" .Key}}: {{.Value}},
		{{- end}}
		},
		{{- end}}
		{{- if .QueryArgs}}
		Query: []{{$.Rest}}.Pair{
		{{- range .QueryArgs}}
			{Key: {{printf "%q" .Key}}, Value: {{.Value}}},
		{{- end}}
		},
		{{- end}}
		{{- if .Body}}
		Body: {{.Body}},
		{{- end}}
	{{end}}})
	{{- if .Result}}
	{{.Val}}, _ := {{.Out}}.({{.Result}})

	return {{.Val}}, {{.Err}}
	{{- else}}

	return {{.Err}}
	{{- end}}
}
{{end}}
{{- end}}`))

type genFile struct {
	Package  string
	Imports  []genImport
	Funcs    []*genFunc
	Services []*genService

	Retrokit string
	Rest     string
	Reflect  string
}

type genImport struct {
	Name  string
	Path  string
	Alias bool
}

type genFunc struct {
	Name     string
	Services []*genService
}

type genService struct {
	Name    string
	Type    string
	Proxy   string
	Methods []*genMethod
}

type genMethod struct {
	Name       string
	Label      string
	Var        string
	HTTPMethod string
	Path       string
	Headers    []Header

	Receiver string
	Params   string
	Results  string
	Result   string
	Ctx      string
	Out      string
	Err      string
	Val      string

	PathArgs  []genArg
	QueryArgs []genArg
	Body      string
}

type genArg struct {
	Key   string
	Value string
}

// importSet assigns collision free names to the packages referenced by generated code.
type importSet struct {
	self     string
	reserved map[string]bool
	byPath   map[string]string
	byName   map[string]string
	aliased  map[string]bool
}

func newImportSet(self string, reserved ...[]string) *importSet {
	s := &importSet{
		self:     self,
		reserved: map[string]bool{},
		byPath:   map[string]string{},
		byName:   map[string]string{},
		aliased:  map[string]bool{},
	}
	for _, names := range reserved {
		for _, name := range names {
			s.reserved[name] = true
		}
	}

	return s
}

func (s *importSet) add(pkgPath, name string) string {
	if name, ok := s.byPath[pkgPath]; ok {
		return name
	}

	base := name
	for i := 2; s.reserved[name] || s.byName[name] != "" || goReservedKeywords[name]; i++ {
		name = fmt.Sprintf("%s%d", base, i)
	}

	s.byPath[pkgPath] = name
	s.byName[name] = pkgPath
	s.aliased[pkgPath] = name != base

	return name
}

func (s *importSet) qualifier(pkg *types.Package) string {
	if pkg.Path() == s.self {
		return ""
	}
	return s.add(pkg.Path(), pkg.Name())
}

func (s *importSet) has(name string) bool {
	return s.byName[name] != ""
}

func (s *importSet) list() []genImport {
	list := make([]genImport, 0, len(s.byPath))
	for _, p := range slices.Sorted(maps.Keys(s.byPath)) {
		list = append(list, genImport{Name: s.byPath[p], Path: p, Alias: s.aliased[p]})
	}
	return list
}

// Generate writes the register functions and service proxies for results to w.
func Generate(w io.Writer, filename string, metaData *MetaData, results []*ScanResult) error {
	file, err := buildFile(metaData, results)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, file); err != nil {
		return fmt.Errorf("execute template: %w", err)
	}

	src, err := imports.Process(filename, buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return fmt.Errorf("format generated code: %w\n%s", err, buf.String())
	}

	if _, err := w.Write(src); err != nil {
		return fmt.Errorf("write generated code: %w", err)
	}

	return nil
}

func buildFile(metaData *MetaData, results []*ScanResult) (*genFile, error) {
	top := NewVarPool()
	for _, name := range metaData.Scope {
		top.Register(name)
	}

	funcs := make([]*genFunc, 0, len(results))
	for _, result := range results {
		if top.Contains(result.Directive.FuncName) {
			return nil, fmt.Errorf("%s: function name %q is already declared", result.Directive.Pos, result.Directive.FuncName)
		}
		top.Register(result.Directive.FuncName)
		funcs = append(funcs, &genFunc{Name: result.Directive.FuncName})
	}

	// one proxy per interface, shared by every register function listing it
	var (
		specs   []*ServiceSpec
		byQName = map[string]*genService{}
	)
	for _, result := range results {
		for _, svc := range result.Services {
			if _, ok := byQName[svc.QualifiedName()]; ok {
				continue
			}
			if svc.PkgPath != metaData.PkgPath && !svc.Type.Obj().Exported() {
				return nil, fmt.Errorf("%s: %s is unexported and cannot be implemented from package %s", svc.Pos, svc.QualifiedName(), metaData.PkgPath)
			}

			gs := &genService{
				Name:  svc.Name,
				Proxy: top.Name(strings.ToLowerCamel(svc.TypeName) + "Proxy"),
			}
			for _, m := range svc.Methods {
				gs.Methods = append(gs.Methods, &genMethod{
					Var: top.Name(strings.ToLowerCamel(svc.TypeName) + m.Name + "Method"),
				})
			}

			byQName[svc.QualifiedName()] = gs
			specs = append(specs, svc)
		}
	}

	topNames := slices.Collect(maps.Keys(top.vars))
	imps := newImportSet(metaData.PkgPath, metaData.Scope, topNames, templateLocals)

	file := &genFile{
		Package:  metaData.Package,
		Retrokit: imps.add(retrokitPkgPath, retrokitPkgName),
	}
	if len(specs) > 0 {
		file.Rest = imps.add(restPkgPath, restPkgName)
		file.Reflect = imps.add(reflectPkgPath, reflectPkgPath)
	}

	var errs []error
	for _, svc := range specs {
		gs := byQName[svc.QualifiedName()]
		gs.Type = types.TypeString(svc.Type, imps.qualifier)

		for i, m := range svc.Methods {
			if err := fillMethod(gs.Methods[i], svc, m, imps, top); err != nil {
				errs = append(errs, err)
			}
		}

		file.Services = append(file.Services, gs)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	for i, result := range results {
		for _, svc := range result.Services {
			funcs[i].Services = append(funcs[i].Services, byQName[svc.QualifiedName()])
		}
	}
	file.Funcs = funcs

	slices.SortStableFunc(file.Services, func(a, b *genService) int {
		return cmp.Compare(a.Proxy, b.Proxy)
	})
	file.Imports = imps.list()

	return file, nil
}

func fillMethod(gm *genMethod, svc *ServiceSpec, m *MethodSpec, imps *importSet, top *VarPool) error {
	gm.Name = m.Name
	gm.Label = svc.TypeName + "." + m.Name
	gm.HTTPMethod = m.HTTPMethod
	gm.Path = m.Path
	gm.Headers = m.Headers

	// render every type first so that all imports are known before naming parameters
	paramTypes := make([]string, len(m.Params))
	for i, p := range m.Params {
		paramTypes[i] = types.TypeString(p.Type, imps.qualifier)
	}
	if m.Result != nil {
		gm.Result = types.TypeString(m.Result, imps.qualifier)
		gm.Results = "(" + gm.Result + ", error)"
	} else {
		gm.Results = "error"
	}
	if m.Context() == nil {
		gm.Ctx = imps.add(contextPkgPath, contextPkgPath) + ".Background()"
	}

	pool := NewVarPool()
	for _, p := range m.Params {
		pool.Register(p.Name)
	}

	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		name := p.Name
		switch {
		case name == "" || name == "_":
			name = pool.Get(p.Type)
		case imps.has(name) || top.Contains(name):
			name = pool.Name(name + "Arg")
		}
		params[i] = name + " " + paramTypes[i]

		switch p.Kind {
		case ParamContext:
			gm.Ctx = name
		case ParamPath:
			gm.PathArgs = append(gm.PathArgs, genArg{Key: p.Name, Value: name})
		case ParamQuery:
			gm.QueryArgs = append(gm.QueryArgs, genArg{Key: p.Key, Value: name})
		case ParamBody:
			gm.Body = name
		default:
			return fmt.Errorf("%s.%s: unknown parameter kind %q", svc.TypeName, m.Name, p.Kind)
		}
	}
	gm.Params = joinParams(params)

	gm.Receiver = pool.Name("p")
	gm.Out = pool.Name("out")
	gm.Err = pool.Name("err")
	gm.Val = pool.Name("v")

	return nil
}

func joinParams(params []string) string {
	var buf bytes.Buffer
	for i, p := range params {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(p)
	}
	return buf.String()
}
