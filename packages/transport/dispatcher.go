package transport

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/abdul-hamid-achik/easyhttp/packages/header"
)

// ErrInvalidURL is returned when a URL cannot be parsed or is not an
// absolute http(s) URL.
var ErrInvalidURL = errors.New("invalid URL")

// Prepared is an outgoing request together with its resolved options.
type Prepared struct {
	*http.Request
	Options header.Options
}

// Dispatcher sends a prepared request and returns the response for any
// status code. Errors are reserved for failures to get a response at all.
type Dispatcher interface {
	Dispatch(p *Prepared) (*http.Response, error)
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(p *Prepared) (*http.Response, error)

func (f DispatcherFunc) Dispatch(p *Prepared) (*http.Response, error) {
	return f(p)
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q (only http and https are allowed)", ErrInvalidURL, u.Scheme)
	}

	if u.Host == "" {
		return nil, fmt.Errorf("%w: %q has no host", ErrInvalidURL, rawURL)
	}

	return u, nil
}

// Open validates rawURL and creates a body-less request for method.
func Open(method, rawURL string) (*http.Request, error) {
	if _, err := ValidateURL(rawURL); err != nil {
		return nil, err
	}
	req, err := http.NewRequest(method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	return req, nil
}
