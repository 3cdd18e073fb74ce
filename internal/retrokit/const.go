package retrokit

import "net/http"

const (
	retrokitPkgPath = "github.com/mazrean/retrokit"
	retrokitPkgName = "retrokit"
	restPkgPath     = "github.com/mazrean/retrokit/rest"
	restPkgName     = "rest"
	reflectPkgPath  = "reflect"
	contextPkgPath  = "context"
	contextTypeName = "Context"

	directivePrefix  = "//retrokit:"
	serviceDirective = "service"
	headerDirective  = "header"
	queryDirective   = "query"

	outputSuffix = "_gen"
)

// httpVerbs maps method directive names to HTTP methods.
var httpVerbs = map[string]string{
	"GET":     http.MethodGet,
	"HEAD":    http.MethodHead,
	"POST":    http.MethodPost,
	"PUT":     http.MethodPut,
	"PATCH":   http.MethodPatch,
	"DELETE":  http.MethodDelete,
	"OPTIONS": http.MethodOptions,
}

// goReservedKeywords contains Go reserved keywords that cannot be used as identifiers
var goReservedKeywords = map[string]bool{
	"break": true, "default": true, "func": true, "interface": true, "select": true,
	"case": true, "defer": true, "go": true, "map": true, "struct": true,
	"chan": true, "else": true, "goto": true, "package": true, "switch": true,
	"const": true, "fallthrough": true, "if": true, "range": true, "type": true,
	"continue": true, "for": true, "import": true, "return": true, "var": true,
}
