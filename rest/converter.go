package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"google.golang.org/protobuf/proto"
	"gopkg.in/yaml.v3"
)

// RequestBody is an encoded request body. Passing a *RequestBody as the body argument sends it
// unchanged.
type RequestBody struct {
	ContentType string
	Data        []byte
}

// ResponseBodyConverter decodes a response body into a value of the type it was created for.
type ResponseBodyConverter func(body []byte) (any, error)

// RequestBodyConverter encodes a body argument.
type RequestBodyConverter func(v any) (*RequestBody, error)

// ConverterFactory creates converters for the types it supports and returns nil otherwise.
type ConverterFactory interface {
	ResponseBodyConverter(t reflect.Type) ResponseBodyConverter
	RequestBodyConverter(t reflect.Type) RequestBodyConverter
}

var (
	bytesType       = reflect.TypeFor[[]byte]()
	emptyType       = reflect.TypeFor[struct{}]()
	readerType      = reflect.TypeFor[io.Reader]()
	readCloserType  = reflect.TypeFor[io.ReadCloser]()
	requestBodyType = reflect.TypeFor[*RequestBody]()
	protoType       = reflect.TypeFor[proto.Message]()
)

// builtInConverterFactory handles raw bodies. The client always places it first.
type builtInConverterFactory struct{}

func (builtInConverterFactory) ResponseBodyConverter(t reflect.Type) ResponseBodyConverter {
	switch t {
	case bytesType:
		return func(body []byte) (any, error) { return body, nil }
	case readerType:
		return func(body []byte) (any, error) { return io.Reader(bytes.NewReader(body)), nil }
	case readCloserType:
		return func(body []byte) (any, error) { return io.NopCloser(bytes.NewReader(body)), nil }
	case emptyType:
		return func([]byte) (any, error) { return struct{}{}, nil }
	default:
		return nil
	}
}

func (builtInConverterFactory) RequestBodyConverter(t reflect.Type) RequestBodyConverter {
	switch {
	case t == requestBodyType:
		return func(v any) (*RequestBody, error) { return v.(*RequestBody), nil }
	case t == bytesType:
		return func(v any) (*RequestBody, error) {
			return &RequestBody{ContentType: "application/octet-stream", Data: v.([]byte)}, nil
		}
	case t.Implements(readerType):
		return func(v any) (*RequestBody, error) {
			data, err := io.ReadAll(v.(io.Reader))
			if err != nil {
				return nil, err
			}
			return &RequestBody{ContentType: "application/octet-stream", Data: data}, nil
		}
	default:
		return nil
	}
}

// codecConverterFactory converts any type with a marshal/unmarshal pair.
type codecConverterFactory struct {
	contentType string
	marshal     func(v any) ([]byte, error)
	unmarshal   func(data []byte, v any) error
}

func (f codecConverterFactory) ResponseBodyConverter(t reflect.Type) ResponseBodyConverter {
	return func(body []byte) (any, error) {
		ptr := reflect.New(t)
		if len(bytes.TrimSpace(body)) > 0 {
			if err := f.unmarshal(body, ptr.Interface()); err != nil {
				return nil, err
			}
		}
		return ptr.Elem().Interface(), nil
	}
}

func (f codecConverterFactory) RequestBodyConverter(reflect.Type) RequestBodyConverter {
	return func(v any) (*RequestBody, error) {
		data, err := f.marshal(v)
		if err != nil {
			return nil, err
		}
		return &RequestBody{ContentType: f.contentType, Data: data}, nil
	}
}

// JSON converts every type with encoding/json. It accepts all types, so register it after more
// specific factories.
func JSON() ConverterFactory {
	return codecConverterFactory{
		contentType: "application/json; charset=UTF-8",
		marshal:     json.Marshal,
		unmarshal:   json.Unmarshal,
	}
}

// YAML converts every type with yaml.v3. It accepts all types.
func YAML() ConverterFactory {
	return codecConverterFactory{
		contentType: "application/yaml; charset=UTF-8",
		marshal:     yaml.Marshal,
		unmarshal:   yaml.Unmarshal,
	}
}

type protobufConverterFactory struct{}

// Protobuf converts protocol buffer messages in binary wire format.
func Protobuf() ConverterFactory {
	return protobufConverterFactory{}
}

func (protobufConverterFactory) ResponseBodyConverter(t reflect.Type) ResponseBodyConverter {
	if t.Kind() != reflect.Pointer || !t.Implements(protoType) {
		return nil
	}

	return func(body []byte) (any, error) {
		msg := reflect.New(t.Elem()).Interface().(proto.Message)
		if err := proto.Unmarshal(body, msg); err != nil {
			return nil, err
		}
		return msg, nil
	}
}

func (protobufConverterFactory) RequestBodyConverter(t reflect.Type) RequestBodyConverter {
	if !t.Implements(protoType) {
		return nil
	}

	return func(v any) (*RequestBody, error) {
		data, err := proto.Marshal(v.(proto.Message))
		if err != nil {
			return nil, err
		}
		return &RequestBody{ContentType: "application/x-protobuf", Data: data}, nil
	}
}

type scalarsConverterFactory struct{}

// Scalars converts strings, booleans and numbers as text/plain.
func Scalars() ConverterFactory {
	return scalarsConverterFactory{}
}

func isScalar(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func (scalarsConverterFactory) ResponseBodyConverter(t reflect.Type) ResponseBodyConverter {
	if !isScalar(t) {
		return nil
	}

	return func(body []byte) (any, error) {
		s := string(body)
		if t.Kind() != reflect.String {
			s = strings.TrimSpace(s)
		}
		v := reflect.New(t).Elem()

		switch t.Kind() {
		case reflect.String:
			v.SetString(s)
		case reflect.Bool:
			b, err := strconv.ParseBool(s)
			if err != nil {
				return nil, err
			}
			v.SetBool(b)
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			n, err := strconv.ParseInt(s, 10, t.Bits())
			if err != nil {
				return nil, err
			}
			v.SetInt(n)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			n, err := strconv.ParseUint(s, 10, t.Bits())
			if err != nil {
				return nil, err
			}
			v.SetUint(n)
		case reflect.Float32, reflect.Float64:
			f, err := strconv.ParseFloat(s, t.Bits())
			if err != nil {
				return nil, err
			}
			v.SetFloat(f)
		}

		return v.Interface(), nil
	}
}

func (scalarsConverterFactory) RequestBodyConverter(t reflect.Type) RequestBodyConverter {
	if !isScalar(t) {
		return nil
	}

	return func(v any) (*RequestBody, error) {
		return &RequestBody{ContentType: "text/plain; charset=UTF-8", Data: fmt.Append(nil, v)}, nil
	}
}
