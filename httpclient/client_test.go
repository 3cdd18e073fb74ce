package httpclient

import (
	"context"
	"crypto/tls"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/mazrean/retrokit/properties"
)

func TestLoadProperties(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		values  map[string]string
		want    Properties
		wantErr bool
	}{
		{
			name:   "defaults",
			values: map[string]string{},
			want:   Properties{ConnectionTimeout: 10000, ReadTimeout: 10000, WriteTimeout: 10000},
		},
		{
			name: "custom",
			values: map[string]string{
				"http.connection-timeout": "500",
				"http.read-timeout":       "600",
				"http.write-timeout":      "700",
			},
			want: Properties{ConnectionTimeout: 500, ReadTimeout: 600, WriteTimeout: 700},
		},
		{
			name:    "non numeric",
			values:  map[string]string{"http.read-timeout": "ten"},
			wantErr: true,
		},
		{
			name:    "negative",
			values:  map[string]string{"http.write-timeout": "-1"},
			wantErr: true,
		},
		{
			name:   "largest duration",
			values: map[string]string{"http.read-timeout": "9223372036854"},
			want:   Properties{ConnectionTimeout: 10000, ReadTimeout: 9223372036854, WriteTimeout: 10000},
		},
		{
			name:    "overflows duration",
			values:  map[string]string{"http.connection-timeout": "9223372036855"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := LoadProperties(properties.NewValues(tt.values))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, properties.ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMillis_Saturates(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1500*time.Millisecond, millis(1500))
	over := maxTimeout + 1
	assert.Equal(t, time.Duration(math.MaxInt64), millis(uint(over)))
}

func TestNew_Timeouts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		props Properties
	}{
		{name: "default", props: DefaultProperties()},
		{name: "custom", props: Properties{ConnectionTimeout: 500, ReadTimeout: 600, WriteTimeout: 700}},
		{name: "disabled", props: Properties{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := New(tt.props)
			require.NotNil(t, c.Client)
			assert.Equal(t, int64(tt.props.ConnectionTimeout), c.ConnectTimeout().Milliseconds())
			assert.Equal(t, int64(tt.props.ReadTimeout), c.ReadTimeout().Milliseconds())
			assert.Equal(t, int64(tt.props.WriteTimeout), c.WriteTimeout().Milliseconds())
			assert.Nil(t, c.TLSConfig())
		})
	}
}

func TestNew_TLSConfig(t *testing.T) {
	t.Parallel()

	cfg := &tls.Config{MinVersion: tls.VersionTLS13}
	c := New(DefaultProperties(), WithTLSConfig(cfg))
	assert.Same(t, cfg, c.TLSConfig())

	transport := unwrapTransport(t, c)
	require.NotNil(t, transport.TLSClientConfig)
	assert.Equal(t, uint16(tls.VersionTLS13), transport.TLSClientConfig.MinVersion)
	assert.Equal(t, 10*time.Second, transport.TLSHandshakeTimeout)
}

func unwrapTransport(t *testing.T, c *Client) *http.Transport {
	t.Helper()

	transport, ok := c.Transport.(*http.Transport)
	require.True(t, ok, "transport is %T", c.Transport)
	return transport
}

func TestNew_RoundTrip(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Get("/hello", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "hello")
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c := New(Properties{ConnectionTimeout: 1000, ReadTimeout: 1000, WriteTimeout: 1000})
	resp, err := c.Get(srv.URL + "/hello")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}

func TestNew_ReadTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	c := New(Properties{ConnectionTimeout: 1000, ReadTimeout: 50, WriteTimeout: 1000})
	_, err := c.Get(srv.URL)
	require.Error(t, err)
}

func TestInterceptors_Order(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string) Interceptor {
		return func(next http.RoundTripper) http.RoundTripper {
			return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
				mu.Lock()
				order = append(order, name)
				mu.Unlock()
				return next.RoundTrip(req)
			})
		}
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	c := New(DefaultProperties(), WithInterceptors(record("a"), record("b")), WithInterceptors(record("c")))
	resp, err := c.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	var got []string
	next := RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		got = append(got, req.Header.Get("X-Request-Id"))
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	})
	rt := RequestID("")(next)

	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	_, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Empty(t, req.Header.Get("X-Request-Id"), "original request must not be mutated")

	req.Header.Set("X-Request-Id", "fixed")
	_, err = rt.RoundTrip(req)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Len(t, got[0], 36)
	assert.Equal(t, "fixed", got[1])
}

func TestRateLimit_ContextCancelled(t *testing.T) {
	t.Parallel()

	called := false
	next := RoundTripperFunc(func(*http.Request) (*http.Response, error) {
		called = true
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	})
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	rt := RateLimit(limiter)(next)

	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	_, err := rt.RoundTrip(req)
	require.NoError(t, err)
	require.True(t, called)

	called = false
	ctx, cancel := context.WithCancel(req.Context())
	cancel()
	_, err = rt.RoundTrip(req.WithContext(ctx))
	require.Error(t, err)
	assert.False(t, called)
}

func TestLogging_PassesThrough(t *testing.T) {
	t.Parallel()

	want := &http.Response{StatusCode: http.StatusTeapot, Body: http.NoBody}
	next := RoundTripperFunc(func(*http.Request) (*http.Response, error) {
		return want, nil
	})
	rt := Logging(slog.New(slog.DiscardHandler))(next)

	got, err := rt.RoundTrip(httptest.NewRequest(http.MethodGet, "http://example.com/", nil))
	require.NoError(t, err)
	assert.Same(t, want, got)
}
