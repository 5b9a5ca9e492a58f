package capture

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrCapture marks a malformed capture expression.
var ErrCapture = errors.New("invalid capture")

// Source says where a capture reads from.
type Source string

const (
	SourceBody   Source = "body"
	SourceHeader Source = "header"
	SourceStatus Source = "status"
)

// Capture names one value to extract.
type Capture struct {
	Name   string
	Source Source
	Path   string
}

// ParseCapture reads "name=source[:path]", for example "token=body:auth.token",
// "loc=header:Location" or "code=status".
func ParseCapture(expr string) (Capture, error) {
	name, rest, ok := strings.Cut(expr, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return Capture{}, fmt.Errorf("%w: %q: want name=source[:path]", ErrCapture, expr)
	}
	src, path, _ := strings.Cut(strings.TrimSpace(rest), ":")
	c := Capture{Name: name, Source: Source(strings.ToLower(src)), Path: path}
	switch c.Source {
	case SourceBody, SourceStatus:
	case SourceHeader:
		if path == "" {
			return Capture{}, fmt.Errorf("%w: %q: header capture needs a header name", ErrCapture, expr)
		}
	default:
		return Capture{}, fmt.Errorf("%w: %q: unknown source %q", ErrCapture, expr, src)
	}
	return c, nil
}

// Extractor reads captures from one response.
type Extractor struct {
	status int
	header http.Header
	body   []byte
	json   gjson.Result
}

// NewExtractor wraps resp and its already-read body. resp may be nil when
// only the body is known.
func NewExtractor(resp *http.Response, body []byte) *Extractor {
	e := &Extractor{body: body, header: http.Header{}}
	if resp != nil {
		e.status = resp.StatusCode
		e.header = resp.Header
	}
	if gjson.ValidBytes(body) {
		e.json = gjson.ParseBytes(body)
	}
	return e
}

// Extract returns the captured value and whether it was found.
func (e *Extractor) Extract(c Capture) (any, bool) {
	switch c.Source {
	case SourceStatus:
		return e.status, e.status != 0
	case SourceHeader:
		v := e.header.Get(c.Path)
		return v, v != ""
	case SourceBody:
		if !e.json.Exists() {
			if c.Path == "" {
				return string(e.body), true
			}
			return nil, false
		}
		if c.Path == "" {
			return e.json.Value(), true
		}
		r := e.json.Get(c.Path)
		return r.Value(), r.Exists()
	}
	return nil, false
}

// ExtractAll returns every capture that was found, keyed by name.
func (e *Extractor) ExtractAll(caps []Capture) map[string]any {
	out := make(map[string]any, len(caps))
	for _, c := range caps {
		if v, ok := e.Extract(c); ok {
			out[c.Name] = v
		}
	}
	return out
}

// Select evaluates a gjson path against body and returns the raw JSON of
// the match (strings unquoted).
func Select(body []byte, path string) (string, bool) {
	r := gjson.GetBytes(body, path)
	if !r.Exists() {
		return "", false
	}
	if r.Type == gjson.String {
		return r.Str, true
	}
	return r.Raw, true
}
