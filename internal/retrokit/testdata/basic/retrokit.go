package basic

import "github.com/mazrean/retrokit"

//go:generate go tool retrokit $GOFILE
var _ = retrokit.Scan("RegisterServices")
