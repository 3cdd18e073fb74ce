package rest

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mazrean/retrokit/properties"
)

// Section is the configuration section read by LoadProperties.
const Section = "rest"

// BaseURLKey is the configuration key of the base URL.
const BaseURLKey = "rest.base-url"

// Properties configures a Client.
type Properties struct {
	BaseURL string `env:"BASE_URL"`
}

// LoadProperties binds the rest section of vals. A configured base URL is validated right away;
// a missing one is only reported when a Client is built.
func LoadProperties(vals properties.Values) (Properties, error) {
	var props Properties
	if err := vals.Bind(Section, &props); err != nil {
		return Properties{}, err
	}

	if props.BaseURL != "" {
		if err := props.Validate(); err != nil {
			return Properties{}, err
		}
	}

	return props, nil
}

// Validate reports whether the properties can build a Client.
func (p Properties) Validate() error {
	_, err := ParseBaseURL(p.BaseURL)
	return err
}

// ParseBaseURL parses raw as an absolute http or https URL whose path is a directory.
// "http://host" is accepted and normalized to "http://host/".
func ParseBaseURL(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &ConfigError{Key: BaseURLKey, Value: raw, Err: ErrMissingBaseURL}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, &ConfigError{Key: BaseURLKey, Value: raw, Err: err}
	}

	switch {
	case u.Scheme != "http" && u.Scheme != "https":
		return nil, &ConfigError{Key: BaseURLKey, Value: raw, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	case u.Host == "":
		return nil, &ConfigError{Key: BaseURLKey, Value: raw, Err: fmt.Errorf("missing host")}
	case u.Path == "":
		u.Path = "/"
	case !strings.HasSuffix(u.Path, "/"):
		return nil, &ConfigError{Key: BaseURLKey, Value: raw, Err: fmt.Errorf("path %q must end in /", u.Path)}
	}

	return u, nil
}
