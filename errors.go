package retrokit

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrServiceNotFound is returned when no service is registered for a name or type.
	ErrServiceNotFound = errors.New("service not found")

	// ErrAmbiguousService is returned when several services implement the requested type.
	ErrAmbiguousService = errors.New("ambiguous service")

	// ErrInvalidDescriptor is returned when a ServiceDescriptor cannot be registered.
	ErrInvalidDescriptor = errors.New("invalid service descriptor")

	// ErrTypeMismatch is returned when a stored instance does not have the requested type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrAlreadyExists is returned when an instance is provided for a key that is already set.
	ErrAlreadyExists = errors.New("instance already exists")
)

// ConflictError is returned when two services claim the same registration name.
type ConflictError struct {
	Name      string
	Existing  reflect.Type
	Duplicate reflect.Type
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("service name %q is declared by both %s and %s", e.Name, typeName(e.Existing), typeName(e.Duplicate))
}

// InstantiationError is returned when a service proxy cannot be constructed.
type InstantiationError struct {
	Name string
	Type reflect.Type
	Err  error
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("instantiate service %q (%s): %v", e.Name, typeName(e.Type), e.Err)
}

func (e *InstantiationError) Unwrap() error {
	return e.Err
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
