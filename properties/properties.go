// Package properties loads retrokit configuration from layered key-value sources and binds
// sections of it onto typed structs.
//
// Keys are written in dotted form (http.connection-timeout) in files and key-value stores and in
// upper snake form (HTTP_CONNECTION_TIMEOUT) in the environment. Both spellings address the same
// value.
package properties

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"
)

// ErrInvalid is wrapped by every error caused by a value that cannot be bound.
var ErrInvalid = errors.New("invalid configuration")

// Source provides raw configuration values.
type Source interface {
	Values(ctx context.Context) (map[string]string, error)
}

// Values is a resolved, read-only view over all configured sources.
type Values struct {
	entries map[string]string
}

// Resolve reads every source in order. Values from later sources override earlier ones.
func Resolve(ctx context.Context, sources ...Source) (Values, error) {
	entries := make(map[string]string)
	for i, src := range sources {
		vals, err := src.Values(ctx)
		if err != nil {
			return Values{}, fmt.Errorf("read source %d (%T): %w", i, src, err)
		}

		for k, v := range vals {
			entries[NormalizeKey(k)] = v
		}
	}

	return Values{entries: entries}, nil
}

// NewValues builds Values from a literal map.
func NewValues(m map[string]string) Values {
	entries := make(map[string]string, len(m))
	for k, v := range m {
		entries[NormalizeKey(k)] = v
	}
	return Values{entries: entries}
}

// Get returns the value stored under key in either spelling.
func (v Values) Get(key string) (string, bool) {
	val, ok := v.entries[NormalizeKey(key)]
	return val, ok
}

// Keys returns the normalized keys in sorted order.
func (v Values) Keys() []string {
	return slices.Sorted(maps.Keys(v.entries))
}

// Len returns the number of entries.
func (v Values) Len() int {
	return len(v.entries)
}

// Bind decodes the entries under section onto target, which must be a pointer to a struct whose
// fields carry `env` tags relative to the section. Fields without a matching entry keep their
// current value, so callers pre-populate defaults.
func (v Values) Bind(section string, target any) error {
	prefix := ""
	if section != "" {
		prefix = NormalizeKey(section) + "_"
	}

	entries := v.entries
	if entries == nil {
		// env falls back to the process environment for a nil map
		entries = map[string]string{}
	}

	err := env.ParseWithOptions(target, env.Options{
		Environment: entries,
		Prefix:      prefix,
	})
	if err != nil {
		return fmt.Errorf("%w: bind %q: %w", ErrInvalid, section, err)
	}

	return nil
}

// NormalizeKey converts a dotted or dashed key into its environment spelling.
func NormalizeKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.NewReplacer(".", "_", "-", "_", "/", "_").Replace(key)
	return strings.ToUpper(key)
}
