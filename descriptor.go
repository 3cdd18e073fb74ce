package retrokit

import (
	"fmt"
	"reflect"

	"github.com/mazrean/retrokit/rest"
)

// ServiceDescriptor describes one discovered service interface.
type ServiceDescriptor struct {
	// Name is the registration name, unique within a Registry.
	Name string
	// Type is the interface type.
	Type reflect.Type
	// New builds a proxy implementing Type on top of client.
	New func(client *rest.Client) any
}

func (d ServiceDescriptor) validate() error {
	switch {
	case d.Name == "":
		return fmt.Errorf("%w: empty name for %s", ErrInvalidDescriptor, typeName(d.Type))
	case d.Type == nil:
		return fmt.Errorf("%w: %q has no type", ErrInvalidDescriptor, d.Name)
	case d.Type.Kind() != reflect.Interface:
		return fmt.Errorf("%w: %q: %s is not an interface", ErrInvalidDescriptor, d.Name, typeName(d.Type))
	case d.New == nil:
		return fmt.Errorf("%w: %q has no constructor", ErrInvalidDescriptor, d.Name)
	}
	return nil
}
