package exclusive

import "github.com/mazrean/retrokit"

var _ = retrokit.Scan("RegisterServices", retrokit.Value("./a"), retrokit.BasePackages("./b"))
