// Package rest turns declared HTTP API methods into requests against a base URL.
//
// A Client is immutable once built and safe for concurrent use. Generated service proxies call
// Client.Invoke with a static Method description and the per-call Args.
package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"slices"

	"github.com/hashicorp/go-cleanhttp"
)

// Client is the configured REST client shared by every service proxy.
type Client struct {
	baseURL              *url.URL
	httpClient           *http.Client
	callAdapterFactories []CallAdapterFactory
	converterFactories   []ConverterFactory
	logger               *slog.Logger
}

type options struct {
	httpClient           *http.Client
	callAdapterFactories []CallAdapterFactory
	converterFactories   []ConverterFactory
	logger               *slog.Logger
}

// Option customizes NewClient.
type Option func(*options)

// WithHTTPClient sets the HTTP client used for every call.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithCallAdapterFactories appends call adapter factories. Earlier factories take priority.
func WithCallAdapterFactories(factories ...CallAdapterFactory) Option {
	return func(o *options) {
		o.callAdapterFactories = append(o.callAdapterFactories, factories...)
	}
}

// WithConverterFactories appends converter factories. Earlier factories take priority.
func WithConverterFactories(factories ...ConverterFactory) Option {
	return func(o *options) {
		o.converterFactories = append(o.converterFactories, factories...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// NewClient validates props and builds a Client. No network I/O happens here.
func NewClient(props Properties, opts ...Option) (*Client, error) {
	baseURL, err := ParseBaseURL(props.BaseURL)
	if err != nil {
		return nil, err
	}

	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = cleanhttp.DefaultPooledClient()
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     o.logger,
	}

	c.converterFactories = make([]ConverterFactory, 0, len(o.converterFactories)+1)
	c.converterFactories = append(c.converterFactories, builtInConverterFactory{})
	c.converterFactories = append(c.converterFactories, o.converterFactories...)

	c.callAdapterFactories = make([]CallAdapterFactory, 0, len(o.callAdapterFactories)+1)
	c.callAdapterFactories = append(c.callAdapterFactories, o.callAdapterFactories...)
	c.callAdapterFactories = append(c.callAdapterFactories, defaultCallAdapterFactory{})

	c.logger.Debug("Built REST client",
		"baseURL", c.BaseURL(),
		"callAdapterFactories", len(c.callAdapterFactories),
		"converterFactories", len(c.converterFactories),
	)

	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// HTTPClient returns the HTTP client used for calls.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// CallAdapterFactories returns the call adapter factories in priority order, including the
// default adapter appended by the client.
func (c *Client) CallAdapterFactories() []CallAdapterFactory {
	return slices.Clone(c.callAdapterFactories)
}

// ConverterFactories returns the converter factories in priority order, including the
// built-in converter placed first by the client.
func (c *Client) ConverterFactories() []ConverterFactory {
	return slices.Clone(c.converterFactories)
}

// Invoke performs m with args and adapts the outcome to m.Returns.
func (c *Client) Invoke(ctx context.Context, m *Method, args Args) (any, error) {
	adapter, err := c.CallAdapter(m.Returns)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Name, err)
	}

	call, err := c.NewCall(m, args, adapter.ResponseType())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Name, err)
	}

	out, err := adapter.Adapt(ctx, call)
	if err != nil {
		return out, err
	}

	// Generated proxies assert out to the declared result without checking.
	if m.Returns != nil && out != nil && !reflect.TypeOf(out).AssignableTo(m.Returns) {
		return nil, fmt.Errorf("%s: %w: got %T, want %v", m.Name, ErrUnexpectedResult, out, m.Returns)
	}

	return out, nil
}

// CallAdapter returns the first adapter able to produce returnType.
func (c *Client) CallAdapter(returnType reflect.Type) (CallAdapter, error) {
	for _, f := range c.callAdapterFactories {
		if adapter := f.Get(returnType); adapter != nil {
			return adapter, nil
		}
	}
	return nil, fmt.Errorf("%w for %v", ErrNoCallAdapter, returnType)
}

// ResponseBodyConverter returns the first converter able to decode t.
func (c *Client) ResponseBodyConverter(t reflect.Type) (ResponseBodyConverter, error) {
	for _, f := range c.converterFactories {
		if conv := f.ResponseBodyConverter(t); conv != nil {
			return conv, nil
		}
	}
	return nil, fmt.Errorf("%w for response type %v", ErrNoConverter, t)
}

// RequestBodyConverter returns the first converter able to encode t.
func (c *Client) RequestBodyConverter(t reflect.Type) (RequestBodyConverter, error) {
	for _, f := range c.converterFactories {
		if conv := f.RequestBodyConverter(t); conv != nil {
			return conv, nil
		}
	}
	return nil, fmt.Errorf("%w for request type %v", ErrNoConverter, t)
}
