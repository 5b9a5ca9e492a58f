package http

import (
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/easyhttp/packages/transport"
)

var (
	// ErrInvalidURL marks a URL that cannot be requested. Nothing is changed
	// on the client when NewRequest or With return it.
	ErrInvalidURL = transport.ErrInvalidURL
	// ErrTransport wraps failures to get any response at all.
	ErrTransport = errors.New("transport failed")
	// ErrEncode wraps failures building the request body, such as a missing
	// multipart file or an unknown post encoding.
	ErrEncode = errors.New("encode request body")
	// ErrDecode wraps failures turning a response body into a result.
	ErrDecode = errors.New("decode response body")
	// ErrStatus is matched by every *StatusError.
	ErrStatus = errors.New("unexpected status")
)

// StatusError is returned by the result accessors for status codes of 400
// and above. The response is still recorded as the last response.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Status)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}
