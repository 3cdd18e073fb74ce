package properties

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	clientv3 "go.etcd.io/etcd/client/v3"
	"gopkg.in/yaml.v3"
)

// DefaultEnvPrefix is the prefix used by Env when none is given.
const DefaultEnvPrefix = "RETROKIT_"

// Map is a literal Source.
type Map map[string]string

func (m Map) Values(context.Context) (map[string]string, error) {
	return m, nil
}

type envSource struct {
	prefix  string
	environ func() []string
}

// Env reads the process environment. Only variables starting with prefix are considered and the
// prefix is stripped, so RETROKIT_HTTP_READ_TIMEOUT becomes http.read-timeout.
func Env(prefix string) Source {
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	return &envSource{prefix: prefix, environ: os.Environ}
}

func (s *envSource) Values(context.Context) (map[string]string, error) {
	vals := make(map[string]string)
	for _, kv := range s.environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, s.prefix) {
			continue
		}
		vals[strings.TrimPrefix(k, s.prefix)] = v
	}
	return vals, nil
}

type fileSource struct {
	path   string
	decode func(data []byte, out *map[string]any) error
}

// TOMLFile reads a TOML document. Tables become dotted key prefixes.
func TOMLFile(path string) Source {
	return &fileSource{
		path: path,
		decode: func(data []byte, out *map[string]any) error {
			_, err := toml.Decode(string(data), out)
			return err
		},
	}
}

// YAMLFile reads a YAML document. Mappings become dotted key prefixes.
func YAMLFile(path string) Source {
	return &fileSource{
		path: path,
		decode: func(data []byte, out *map[string]any) error {
			return yaml.Unmarshal(data, out)
		},
	}
}

// File picks the decoder from the file extension.
func File(path string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOMLFile(path), nil
	case ".yaml", ".yml":
		return YAMLFile(path), nil
	default:
		return nil, fmt.Errorf("unsupported configuration file %s", path)
	}
}

func (s *fileSource) Values(context.Context) (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	doc := make(map[string]any)
	if err := s.decode(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrInvalid, s.path, err)
	}

	vals := make(map[string]string)
	flatten("", doc, vals)
	return vals, nil
}

func flatten(prefix string, node any, out map[string]string) {
	switch n := node.(type) {
	case map[string]any:
		for k, v := range n {
			flatten(joinKey(prefix, k), v, out)
		}
	case []any:
		parts := make([]string, 0, len(n))
		for _, v := range n {
			parts = append(parts, fmt.Sprint(v))
		}
		out[prefix] = strings.Join(parts, ",")
	case nil:
		out[prefix] = ""
	default:
		out[prefix] = fmt.Sprint(n)
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

type etcdSource struct {
	kv     clientv3.KV
	prefix string
}

// Etcd reads every key under prefix from an etcd cluster. Path separators below the prefix
// become key separators: /retrokit/http/read-timeout is http.read-timeout.
func Etcd(kv clientv3.KV, prefix string) Source {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &etcdSource{kv: kv, prefix: prefix}
}

func (s *etcdSource) Values(ctx context.Context) (map[string]string, error) {
	resp, err := s.kv.Get(ctx, s.prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("etcd get %s: %w", s.prefix, err)
	}

	vals := make(map[string]string, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		key := strings.TrimPrefix(string(kv.Key), s.prefix)
		if key == "" {
			continue
		}
		vals[strings.ReplaceAll(key, "/", ".")] = string(kv.Value)
	}
	return vals, nil
}
