// Package httpclient builds the shared *http.Client used by retrokit REST clients.
package httpclient

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

// Client is an *http.Client that remembers the configuration it was built from.
type Client struct {
	*http.Client

	connectTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	tlsConfig      *tls.Config
}

type options struct {
	tlsConfig    *tls.Config
	interceptors []Interceptor
	logger       *slog.Logger
}

// Option customizes New.
type Option func(*options)

// WithTLSConfig makes every TLS connection use cfg.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(o *options) {
		o.tlsConfig = cfg
	}
}

// WithInterceptors appends interceptors. The first interceptor sees the request first.
func WithInterceptors(interceptors ...Interceptor) Option {
	return func(o *options) {
		o.interceptors = append(o.interceptors, interceptors...)
	}
}

// WithLogger sets the logger used for construction messages.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New builds a Client from props. It performs no I/O.
func New(props Properties, opts ...Option) *Client {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{
		connectTimeout: millis(props.ConnectionTimeout),
		readTimeout:    millis(props.ReadTimeout),
		writeTimeout:   millis(props.WriteTimeout),
		tlsConfig:      o.tlsConfig,
	}

	transport := cleanhttp.DefaultPooledTransport()
	dialer := &net.Dialer{
		Timeout:   c.connectTimeout,
		KeepAlive: 30 * time.Second,
	}
	transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		return newDeadlineConn(conn, c.readTimeout, c.writeTimeout), nil
	}
	transport.TLSHandshakeTimeout = c.connectTimeout
	if o.tlsConfig != nil {
		transport.TLSClientConfig = o.tlsConfig.Clone()
	}

	var rt http.RoundTripper = transport
	for i := len(o.interceptors) - 1; i >= 0; i-- {
		rt = o.interceptors[i](rt)
	}

	c.Client = &http.Client{Transport: rt}

	o.logger.Debug("Built HTTP client",
		"connectTimeout", c.connectTimeout,
		"readTimeout", c.readTimeout,
		"writeTimeout", c.writeTimeout,
		"tls", o.tlsConfig != nil,
		"interceptors", len(o.interceptors),
	)

	return c
}

// ConnectTimeout bounds dialing and the TLS handshake.
func (c *Client) ConnectTimeout() time.Duration { return c.connectTimeout }

// ReadTimeout bounds every individual socket read.
func (c *Client) ReadTimeout() time.Duration { return c.readTimeout }

// WriteTimeout bounds every individual socket write.
func (c *Client) WriteTimeout() time.Duration { return c.writeTimeout }

// TLSConfig returns the TLS configuration passed to New, or nil.
func (c *Client) TLSConfig() *tls.Config { return c.tlsConfig }

// deadlineConn refreshes the socket deadline before each read and write.
type deadlineConn struct {
	net.Conn
	read  time.Duration
	write time.Duration
}

func newDeadlineConn(conn net.Conn, read, write time.Duration) net.Conn {
	if read == 0 && write == 0 {
		return conn
	}
	return &deadlineConn{Conn: conn, read: read, write: write}
}

func (c *deadlineConn) Read(b []byte) (int, error) {
	if c.read > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.read)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Read(b)
}

func (c *deadlineConn) Write(b []byte) (int, error) {
	if c.write > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.write)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Write(b)
}
