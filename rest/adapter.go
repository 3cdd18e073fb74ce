package rest

import (
	"context"
	"reflect"
)

// CallAdapter turns a Call into the value returned by a declared method.
type CallAdapter interface {
	// ResponseType is the type the response body is decoded into, or nil for none.
	ResponseType() reflect.Type
	Adapt(ctx context.Context, call *Call) (any, error)
}

// CallAdapterFactory returns an adapter for returnType, or nil when it does not handle it.
// returnType is nil for methods that only return an error.
type CallAdapterFactory interface {
	Get(returnType reflect.Type) CallAdapter
}

// CallAdapterFactoryFunc adapts a function to CallAdapterFactory.
type CallAdapterFactoryFunc func(returnType reflect.Type) CallAdapter

func (f CallAdapterFactoryFunc) Get(returnType reflect.Type) CallAdapter {
	return f(returnType)
}

type defaultCallAdapterFactory struct{}

func (defaultCallAdapterFactory) Get(returnType reflect.Type) CallAdapter {
	return executeAdapter{responseType: returnType}
}

type executeAdapter struct {
	responseType reflect.Type
}

func (a executeAdapter) ResponseType() reflect.Type {
	return a.responseType
}

func (a executeAdapter) Adapt(ctx context.Context, call *Call) (any, error) {
	return call.Execute(ctx)
}

var responseType = reflect.TypeFor[*Response]()

type responseAdapterFactory struct{}

// ResponseAdapter handles methods returning *Response. They receive the raw response whatever
// its status code.
func ResponseAdapter() CallAdapterFactory {
	return responseAdapterFactory{}
}

func (responseAdapterFactory) Get(returnType reflect.Type) CallAdapter {
	if returnType != responseType {
		return nil
	}
	return rawAdapter{}
}

type rawAdapter struct{}

func (rawAdapter) ResponseType() reflect.Type {
	return nil
}

func (rawAdapter) Adapt(ctx context.Context, call *Call) (any, error) {
	return call.Do(ctx)
}
