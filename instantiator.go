package retrokit

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/mazrean/retrokit/rest"
)

// State is the lifecycle state of an Instantiator.
type State int32

const (
	Uninitialized State = iota
	Resolving
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Resolving:
		return "resolving"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Instantiator builds service proxies. The REST client is resolved on first use and reused
// afterwards. A failed resolution leaves the Instantiator uninitialized so a later call retries.
type Instantiator struct {
	mu      sync.Mutex
	state   atomic.Int32
	resolve func() (*rest.Client, error)
	client  *rest.Client
}

// NewInstantiator returns an Instantiator resolving its REST client with resolve.
func NewInstantiator(resolve func() (*rest.Client, error)) *Instantiator {
	return &Instantiator{resolve: resolve}
}

// State reports the current lifecycle state.
func (in *Instantiator) State() State {
	return State(in.state.Load())
}

// Client returns the REST client, resolving it on first use.
func (in *Instantiator) Client() (*rest.Client, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.State() == Ready {
		return in.client, nil
	}

	in.state.Store(int32(Resolving))
	client, err := in.resolve()
	if err == nil && client == nil {
		err = errors.New("resolved a nil REST client")
	}
	if err != nil {
		in.state.Store(int32(Uninitialized))
		return nil, err
	}

	in.client = client
	in.state.Store(int32(Ready))

	return client, nil
}

// Instantiate builds the proxy described by desc.
func (in *Instantiator) Instantiate(desc ServiceDescriptor) (any, error) {
	if err := desc.validate(); err != nil {
		return nil, &InstantiationError{Name: desc.Name, Type: desc.Type, Err: err}
	}

	client, err := in.Client()
	if err != nil {
		return nil, &InstantiationError{Name: desc.Name, Type: desc.Type, Err: err}
	}

	v := desc.New(client)
	if v == nil || !reflect.TypeOf(v).Implements(desc.Type) {
		return nil, &InstantiationError{
			Name: desc.Name,
			Type: desc.Type,
			Err:  fmt.Errorf("%w: constructor returned %T", ErrTypeMismatch, v),
		}
	}

	return v, nil
}
