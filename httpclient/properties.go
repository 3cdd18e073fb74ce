package httpclient

import (
	"fmt"
	"math"
	"time"

	"github.com/mazrean/retrokit/properties"
)

// Section is the configuration section read by LoadProperties.
const Section = "http"

// Default timeouts in milliseconds.
const (
	DefaultConnectionTimeout uint = 10000
	DefaultReadTimeout       uint = 10000
	DefaultWriteTimeout      uint = 10000
)

// maxTimeout is the largest timeout in milliseconds representable as a time.Duration.
const maxTimeout uint64 = math.MaxInt64 / uint64(time.Millisecond)

// Properties holds the transport timeouts in milliseconds. Zero disables a timeout.
type Properties struct {
	ConnectionTimeout uint `env:"CONNECTION_TIMEOUT"`
	ReadTimeout       uint `env:"READ_TIMEOUT"`
	WriteTimeout      uint `env:"WRITE_TIMEOUT"`
}

// DefaultProperties returns the properties used when nothing is configured.
func DefaultProperties() Properties {
	return Properties{
		ConnectionTimeout: DefaultConnectionTimeout,
		ReadTimeout:       DefaultReadTimeout,
		WriteTimeout:      DefaultWriteTimeout,
	}
}

// LoadProperties binds the http section of vals on top of the defaults.
func LoadProperties(vals properties.Values) (Properties, error) {
	props := DefaultProperties()
	if err := vals.Bind(Section, &props); err != nil {
		return Properties{}, err
	}
	if err := props.Validate(); err != nil {
		return Properties{}, err
	}
	return props, nil
}

// Validate reports timeouts that do not fit in a time.Duration.
func (p Properties) Validate() error {
	for _, f := range []struct {
		key string
		ms  uint
	}{
		{"connection-timeout", p.ConnectionTimeout},
		{"read-timeout", p.ReadTimeout},
		{"write-timeout", p.WriteTimeout},
	} {
		if uint64(f.ms) > maxTimeout {
			return fmt.Errorf("%w: %s.%s %d exceeds %d", properties.ErrInvalid, Section, f.key, f.ms, maxTimeout)
		}
	}
	return nil
}

// millis saturates at the largest Duration for values Validate rejects.
func millis(ms uint) time.Duration {
	if uint64(ms) > maxTimeout {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ms) * time.Millisecond
}
