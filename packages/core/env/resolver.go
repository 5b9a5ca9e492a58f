package env

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/abdul-hamid-achik/easyhttp/packages/builtin"
	"go.uber.org/zap"
)

var placeholder = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Resolver substitutes placeholders. It is safe for concurrent use.
type Resolver struct {
	mu     sync.RWMutex
	vars   map[string]string
	funcs  *builtin.Registry
	lookup func(string) (string, bool)
	logger *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger reports unresolved placeholders at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithRegistry replaces the builtin function set.
func WithRegistry(reg *builtin.Registry) Option {
	return func(r *Resolver) { r.funcs = reg }
}

// WithLookup replaces os.LookupEnv for {{$NAME}} placeholders.
func WithLookup(fn func(string) (string, bool)) Option {
	return func(r *Resolver) { r.lookup = fn }
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		vars:   make(map[string]string),
		funcs:  builtin.NewRegistry(),
		lookup: os.LookupEnv,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Set stores a variable, formatting non-string values with %v.
func (r *Resolver) Set(name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vars[name] = stringify(value)
}

// SetAll stores every entry of vars. Later calls win.
func SetAll[V any](r *Resolver, vars map[string]V) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range vars {
		r.vars[k] = stringify(v)
	}
}

// Get returns a stored variable.
func (r *Resolver) Get(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vars[name]
	return v, ok
}

// Resolve replaces every placeholder it can.
func (r *Resolver) Resolve(input string) string {
	out, _ := r.expand(input)
	return out
}

// Unresolved lists the placeholders of input that Resolve would leave alone.
func (r *Resolver) Unresolved(input string) []string {
	_, missing := r.expand(input)
	return missing
}

func (r *Resolver) expand(input string) (string, []string) {
	var missing []string
	out := placeholder.ReplaceAllStringFunc(input, func(match string) string {
		expr := strings.TrimSpace(match[2 : len(match)-2])
		if v, ok := r.value(expr); ok {
			return v
		}
		missing = append(missing, expr)
		r.logger.Debug("unresolved placeholder", zap.String("expr", expr))
		return match
	})
	return out, missing
}

func (r *Resolver) value(expr string) (string, bool) {
	if name, ok := strings.CutPrefix(expr, "$"); ok {
		return r.lookup(name)
	}
	if strings.HasSuffix(expr, ")") {
		v, err := r.funcs.Call(expr)
		if err != nil {
			r.logger.Debug("builtin failed", zap.String("expr", expr), zap.Error(err))
			return "", false
		}
		return v, true
	}
	return r.Get(expr)
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
