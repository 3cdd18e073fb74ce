package packages

import (
	"github.com/mazrean/retrokit"
	"github.com/mazrean/retrokit/internal/retrokit/testdata/packages/api"
)

var (
	_ = retrokit.Scan("RegisterByType", retrokit.BasePackageOf[api.Users]())
	_ = retrokit.Scan("RegisterByPath", retrokit.BasePackages("./api"))
	_ = retrokit.Scan("RegisterByValue", retrokit.Value("./api", "./api/"))
)
