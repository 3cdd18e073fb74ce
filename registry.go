package retrokit

import (
	"cmp"
	"crypto/tls"
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/mazrean/retrokit/httpclient"
	"github.com/mazrean/retrokit/properties"
	"github.com/mazrean/retrokit/rest"
)

// Well-known registry keys.
const (
	KeyHTTPProperties = "httpclient.Properties"
	KeyHTTPClient     = "httpclient.Client"
	KeyRESTProperties = "rest.Properties"
	KeyAPIClient      = "rest.Client"

	servicePrefix = "service:"
)

type options struct {
	values               properties.Values
	httpClient           *httpclient.Client
	apiClient            *rest.Client
	tlsConfig            *tls.Config
	interceptors         []httpclient.Interceptor
	callAdapterFactories []rest.CallAdapterFactory
	converterFactories   []rest.ConverterFactory
	logger               *slog.Logger
}

// Option configures a Registry.
type Option func(*options)

// WithValues sets the configuration values components are built from.
func WithValues(values properties.Values) Option {
	return func(o *options) {
		o.values = values
	}
}

// WithHTTPClient supplies the HTTP client. The registry never builds its own when one is given.
func WithHTTPClient(c *httpclient.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithAPIClient supplies the REST client. The registry never builds its own when one is given.
func WithAPIClient(c *rest.Client) Option {
	return func(o *options) {
		o.apiClient = c
	}
}

// WithTLSConfig sets the TLS configuration of the built HTTP client.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(o *options) {
		o.tlsConfig = cfg
	}
}

// WithInterceptors adds interceptors to the built HTTP client.
func WithInterceptors(interceptors ...httpclient.Interceptor) Option {
	return func(o *options) {
		o.interceptors = append(o.interceptors, interceptors...)
	}
}

// WithCallAdapterFactories adds call adapter factories to the built REST client.
func WithCallAdapterFactories(factories ...rest.CallAdapterFactory) Option {
	return func(o *options) {
		o.callAdapterFactories = append(o.callAdapterFactories, factories...)
	}
}

// WithConverterFactories adds converter factories to the built REST client. Scalars and JSON
// are used when none are given.
func WithConverterFactories(factories ...rest.ConverterFactory) Option {
	return func(o *options) {
		o.converterFactories = append(o.converterFactories, factories...)
	}
}

// WithLogger sets the logger of the registry and the components it builds.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Registry holds singleton components keyed by name. Each component is built at most once,
// on first request.
type Registry struct {
	opts options

	group     singleflight.Group
	mu        sync.RWMutex
	instances map[string]any

	servicesMu sync.RWMutex
	services   map[string]ServiceDescriptor

	instantiator *Instantiator
}

// New creates a Registry.
func New(opts ...Option) *Registry {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Registry{
		opts:      o,
		instances: map[string]any{},
		services:  map[string]ServiceDescriptor{},
	}
	if o.httpClient != nil {
		r.instances[KeyHTTPClient] = o.httpClient
	}
	if o.apiClient != nil {
		r.instances[KeyAPIClient] = o.apiClient
	}
	r.instantiator = NewInstantiator(r.APIClient)

	return r
}

// GetOrCreate returns the instance stored under key, building it with factory when absent.
// Concurrent callers for the same key share one factory call. A failed factory stores nothing.
func GetOrCreate[T any](r *Registry, key string, factory func() (T, error)) (T, error) {
	var zero T

	v, err := r.getOrCreate(key, func() (any, error) {
		return factory()
	})
	if err != nil {
		return zero, err
	}

	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q holds %T", ErrTypeMismatch, key, v)
	}

	return t, nil
}

// Provide stores v under key. It fails when key is already set.
func Provide[T any](r *Registry, key string, v T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.instances[key]; ok {
		return fmt.Errorf("%w: %q", ErrAlreadyExists, key)
	}
	r.instances[key] = v

	return nil
}

func (r *Registry) lookup(key string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.instances[key]
	return v, ok
}

func (r *Registry) getOrCreate(key string, factory func() (any, error)) (any, error) {
	if v, ok := r.lookup(key); ok {
		return v, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		if v, ok := r.lookup(key); ok {
			return v, nil
		}

		v, err := factory()
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		defer r.mu.Unlock()

		// a concurrent Provide wins over the built instance
		if existing, ok := r.instances[key]; ok {
			return existing, nil
		}
		r.instances[key] = v
		r.opts.logger.Debug("Created component", "key", key)

		return v, nil
	})

	return v, err
}

// HTTPProperties returns the HTTP client properties bound from the configuration values.
func (r *Registry) HTTPProperties() (httpclient.Properties, error) {
	return GetOrCreate(r, KeyHTTPProperties, func() (httpclient.Properties, error) {
		return httpclient.LoadProperties(r.opts.values)
	})
}

// RESTProperties returns the REST client properties bound from the configuration values.
func (r *Registry) RESTProperties() (rest.Properties, error) {
	return GetOrCreate(r, KeyRESTProperties, func() (rest.Properties, error) {
		return rest.LoadProperties(r.opts.values)
	})
}

// HTTPClient returns the HTTP client, building it from the "http" properties unless one was
// supplied.
func (r *Registry) HTTPClient() (*httpclient.Client, error) {
	return GetOrCreate(r, KeyHTTPClient, func() (*httpclient.Client, error) {
		props, err := r.HTTPProperties()
		if err != nil {
			return nil, fmt.Errorf("load http properties: %w", err)
		}

		return httpclient.New(
			props,
			httpclient.WithTLSConfig(r.opts.tlsConfig),
			httpclient.WithInterceptors(r.opts.interceptors...),
			httpclient.WithLogger(r.opts.logger),
		), nil
	})
}

// APIClient returns the REST client, building it from the "rest" properties and the HTTP
// client unless one was supplied.
func (r *Registry) APIClient() (*rest.Client, error) {
	return GetOrCreate(r, KeyAPIClient, func() (*rest.Client, error) {
		props, err := r.RESTProperties()
		if err != nil {
			return nil, fmt.Errorf("load rest properties: %w", err)
		}

		httpClient, err := r.HTTPClient()
		if err != nil {
			return nil, err
		}

		converters := r.opts.converterFactories
		if len(converters) == 0 {
			converters = []rest.ConverterFactory{rest.Scalars(), rest.JSON()}
		}

		return rest.NewClient(
			props,
			rest.WithHTTPClient(httpClient.Client),
			rest.WithCallAdapterFactories(r.opts.callAdapterFactories...),
			rest.WithConverterFactories(converters...),
			rest.WithLogger(r.opts.logger),
		)
	})
}

// Instantiator returns the instantiator building service proxies.
func (r *Registry) Instantiator() *Instantiator {
	return r.instantiator
}

// RegisterService adds a service descriptor. Registration names are unique.
func (r *Registry) RegisterService(desc ServiceDescriptor) error {
	if err := desc.validate(); err != nil {
		return err
	}

	r.servicesMu.Lock()
	defer r.servicesMu.Unlock()

	if existing, ok := r.services[desc.Name]; ok {
		return &ConflictError{Name: desc.Name, Existing: existing.Type, Duplicate: desc.Type}
	}
	r.services[desc.Name] = desc
	r.opts.logger.Debug("Registered service", "name", desc.Name, "type", typeName(desc.Type))

	return nil
}

// Services returns the registered descriptors sorted by name.
func (r *Registry) Services() []ServiceDescriptor {
	r.servicesMu.RLock()
	defer r.servicesMu.RUnlock()

	return slices.SortedFunc(maps.Values(r.services), func(a, b ServiceDescriptor) int {
		return cmp.Compare(a.Name, b.Name)
	})
}

// Service returns the proxy registered under name, instantiating it on first request.
func (r *Registry) Service(name string) (any, error) {
	r.servicesMu.RLock()
	desc, ok := r.services[name]
	r.servicesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrServiceNotFound, name)
	}

	return r.getOrCreate(servicePrefix+name, func() (any, error) {
		return r.instantiator.Instantiate(desc)
	})
}

// ResolveNamed returns the proxy registered under name as T.
func ResolveNamed[T any](r *Registry, name string) (T, error) {
	var zero T

	v, err := r.Service(name)
	if err != nil {
		return zero, err
	}

	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: service %q is %T", ErrTypeMismatch, name, v)
	}

	return t, nil
}

// Resolve returns the only proxy registered for the interface type T.
func Resolve[T any](r *Registry) (T, error) {
	var zero T

	typ := reflect.TypeFor[T]()

	var names []string
	for _, desc := range r.Services() {
		if desc.Type == typ {
			names = append(names, desc.Name)
		}
	}

	switch len(names) {
	case 0:
		return zero, fmt.Errorf("%w: %s", ErrServiceNotFound, typeName(typ))
	case 1:
		return ResolveNamed[T](r, names[0])
	default:
		return zero, fmt.Errorf("%w: %s is registered as %q", ErrAmbiguousService, typeName(typ), names)
	}
}
