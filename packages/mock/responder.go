package mock

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/easyhttp/packages/builtin"
	"github.com/abdul-hamid-achik/easyhttp/packages/transport"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var placeholders = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// File is the on-disk route table.
type File struct {
	Routes []*Route `yaml:"routes" json:"routes"`
}

// Responder answers from a Router. It is safe for concurrent use once
// loaded.
type Responder struct {
	router *Router
	funcs  *builtin.Registry
	delay  time.Duration
	logger *zap.Logger
}

// Option configures a Responder.
type Option func(*Responder)

// WithDelay holds every answer back by d.
func WithDelay(d time.Duration) Option {
	return func(r *Responder) { r.delay = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Responder) { r.logger = l }
}

func NewResponder(opts ...Option) *Responder {
	r := &Responder{
		router: &Router{},
		funcs:  builtin.NewRegistry(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load reads a route table from path. JSON files parse as YAML.
func Load(path string, opts ...Option) (*Responder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading routes: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	r := NewResponder(opts...)
	for i, rt := range f.Routes {
		if err := r.Add(rt); err != nil {
			return nil, fmt.Errorf("route %d: %w", i, err)
		}
	}
	return r, nil
}

// Add registers rt. A zero status means 200.
func (r *Responder) Add(rt *Route) error {
	if rt.Path == "" {
		return fmt.Errorf("route %q has no path", rt.Name)
	}
	if rt.Status == 0 {
		rt.Status = http.StatusOK
	}
	return r.router.Add(rt)
}

// Routes returns the loaded routes.
func (r *Responder) Routes() []*Route {
	return r.router.Routes()
}

// answer is the resolved response for one request.
type answer struct {
	status int
	header http.Header
	body   string
}

func (r *Responder) answer(method, path string) answer {
	rt, params := r.router.Match(method, path)
	if rt == nil {
		r.logger.Debug("no mock route", zap.String("method", method), zap.String("path", path))
		return answer{
			status: http.StatusNotFound,
			header: http.Header{"Content-Type": {"text/plain; charset=utf-8"}},
			body:   fmt.Sprintf("no mock route for %s %s\n", method, path),
		}
	}

	h := make(http.Header, len(rt.Headers))
	for k, v := range rt.Headers {
		h.Set(k, v)
	}
	r.logger.Debug("mock route matched",
		zap.String("route", rt.Name),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", rt.Status))
	return answer{status: rt.Status, header: h, body: r.render(rt.Body, params)}
}

// render substitutes path parameters, then builtin calls. Anything else is
// left as written.
func (r *Responder) render(body string, params map[string]string) string {
	return placeholders.ReplaceAllStringFunc(body, func(m string) string {
		expr := strings.TrimSpace(m[2 : len(m)-2])
		if v, ok := params[expr]; ok {
			return v
		}
		if v, err := r.funcs.Call(expr); err == nil {
			return v
		}
		return m
	})
}

func (r *Responder) wait(ctx context.Context) error {
	if r.delay <= 0 {
		return nil
	}
	t := time.NewTimer(r.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("mock delay: %w", ctx.Err())
	}
}

// Dispatch answers p without touching the network. The request body is
// drained so streamed bodies finish.
func (r *Responder) Dispatch(p *transport.Prepared) (*http.Response, error) {
	req := p.Request
	if req.Body != nil {
		_, _ = io.Copy(io.Discard, req.Body)
		_ = req.Body.Close()
	}
	if err := r.wait(req.Context()); err != nil {
		return nil, err
	}

	a := r.answer(req.Method, req.URL.Path)
	return &http.Response{
		Status:        strconv.Itoa(a.status) + " " + http.StatusText(a.status),
		StatusCode:    a.status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        a.header,
		Body:          io.NopCloser(strings.NewReader(a.body)),
		ContentLength: int64(len(a.body)),
		Request:       req,
	}, nil
}

// ServeHTTP answers real connections.
func (r *Responder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if err := r.wait(req.Context()); err != nil {
		return
	}
	a := r.answer(req.Method, req.URL.Path)
	for k, vs := range a.header {
		w.Header()[k] = vs
	}
	w.WriteHeader(a.status)
	_, _ = io.WriteString(w, a.body)
}

var _ transport.Dispatcher = (*Responder)(nil)
