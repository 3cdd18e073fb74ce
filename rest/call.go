package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"reflect"
)

// Call is one prepared invocation of a Method.
type Call struct {
	client       *Client
	method       *Method
	args         Args
	responseType reflect.Type
	decode       ResponseBodyConverter
	encode       RequestBodyConverter
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Request    *http.Request
}

// IsSuccessful reports whether the status code is in the 2xx range.
func (r *Response) IsSuccessful() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// NewCall prepares a call of m that decodes successful responses into responseType. A nil
// responseType discards the body. Converters are resolved here so that a missing converter fails
// before any request is sent.
func (c *Client) NewCall(m *Method, args Args, responseType reflect.Type) (*Call, error) {
	call := &Call{
		client:       c,
		method:       m,
		args:         args,
		responseType: responseType,
	}

	if m.HasBody {
		if isNil(args.Body) {
			return nil, ErrNilBody
		}

		encode, err := c.RequestBodyConverter(reflect.TypeOf(args.Body))
		if err != nil {
			return nil, err
		}
		call.encode = encode
	}

	if responseType != nil {
		decode, err := c.ResponseBodyConverter(responseType)
		if err != nil {
			return nil, err
		}
		call.decode = decode
	}

	return call, nil
}

// Method returns the method being called.
func (c *Call) Method() *Method {
	return c.method
}

// ResponseType returns the type successful responses are decoded into.
func (c *Call) ResponseType() reflect.Type {
	return c.responseType
}

// Request builds the HTTP request for the call.
func (c *Call) Request(ctx context.Context) (*http.Request, error) {
	u, err := c.method.resolveURL(c.client.baseURL, c.args)
	if err != nil {
		return nil, err
	}

	var (
		body        io.Reader
		contentType string
	)
	if c.encode != nil {
		rb, err := c.encode(c.args.Body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(rb.Data)
		contentType = rb.ContentType
	}

	req, err := http.NewRequestWithContext(ctx, c.method.HTTPMethod, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for _, h := range c.method.Headers {
		req.Header.Add(h.Key, fmt.Sprint(h.Value))
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}

	return req, nil
}

// Do sends the request and reads the whole response. Non-2xx responses are not errors here.
func (c *Call) Do(ctx context.Context) (*Response, error) {
	req, err := c.Request(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		Request:    req,
	}, nil
}

// Execute sends the request, fails with *HTTPError on non-2xx responses and decodes the body
// into the response type.
func (c *Call) Execute(ctx context.Context) (any, error) {
	resp, err := c.Do(ctx)
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccessful() {
		return nil, &HTTPError{
			Method:     resp.Request.Method,
			URL:        resp.Request.URL.String(),
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
		}
	}

	if c.decode == nil {
		return nil, nil
	}

	v, err := c.decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode %v: %w", c.responseType, err)
	}
	return v, nil
}
