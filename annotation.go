// Package retrokit generates REST client implementations for annotated Go interfaces and wires
// them into a registry together with a configured HTTP client and REST client.
//
// Service interfaces are marked with a doc comment directive. The optional name overrides the
// registration name, which otherwise is the decapitalized interface name:
//
//	//retrokit:service name=github
//	type GitHub interface {
//		//retrokit:GET /users/{user}/repos
//		ListRepos(ctx context.Context, user string, page int) ([]Repo, error)
//
//		//retrokit:POST /user/repos body=repo
//		//retrokit:header Accept: application/vnd.github+json
//		CreateRepo(ctx context.Context, repo *Repo) (*Repo, error)
//	}
//
// Path placeholders bind parameters of the same name, body= names the body parameter and every
// other parameter except a leading context.Context becomes a query parameter. Query keys default
// to the parameter name and can be renamed with "//retrokit:query page=p".
//
// A Scan declaration selects the packages to search and names the generated register function:
//
//	//go:generate go tool retrokit $GOFILE
//	var _ = retrokit.Scan("RegisterServices", retrokit.BasePackages("example.com/app/api"))
package retrokit

// funcName is the name of a generated function.
type funcName string

// scanOption is a marker for the packages a Scan declaration searches.
type scanOption interface {
	scanOption()
}

type packagesOption struct {
	alias    bool
	packages []string
}

func (packagesOption) scanOption() {}

// Value is an alias for BasePackages allowing shorter declarations. Value and BasePackages are
// mutually exclusive.
func Value(packages ...string) packagesOption {
	return packagesOption{alias: true, packages: packages}
}

// BasePackages lists import paths or package patterns relative to the declaring file.
func BasePackages(packages ...string) packagesOption {
	return packagesOption{packages: packages}
}

type packageOfOption[T any] struct{}

func (packageOfOption[T]) scanOption() {}

// BasePackageOf selects the package declaring T, a type-safe alternative to BasePackages.
func BasePackageOf[T any]() packageOfOption[T] {
	return packageOfOption[T]{}
}

// Scan declares a service scan. The code generator searches the selected packages, or the
// declaring package when no option is given, for interfaces carrying the //retrokit:service
// directive and generates a function named name:
//
//	func RegisterServices(reg *retrokit.Registry) error
//
// The function registers one ServiceDescriptor per discovered interface.
func Scan(name funcName, opts ...scanOption) struct{} {
	// Analyzed by the code generator; generated code lives in *_gen.go files.
	return struct{}{}
}
