package builtin

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotCall is returned for expressions that are not of the form name(args).
	ErrNotCall = errors.New("not a function call")
	// ErrUnknownFunction is returned for names nobody registered.
	ErrUnknownFunction = errors.New("unknown function")
)

// Func computes a placeholder value from its arguments.
type Func func(args []string) (string, error)

// Registry maps function names to implementations.
type Registry struct {
	funcs map[string]Func
}

// NewRegistry returns a registry with the standard functions.
func NewRegistry() *Registry {
	return &Registry{funcs: map[string]Func{
		"now":          constant(func() string { return time.Now().UTC().Format(time.RFC3339) }),
		"timestamp":    constant(func() string { return strconv.FormatInt(time.Now().Unix(), 10) }),
		"timestampMs":  constant(func() string { return strconv.FormatInt(time.Now().UnixMilli(), 10) }),
		"uuid":         constant(func() string { return uuid.NewString() }),
		"date":         date,
		"random":       random,
		"randomString": randomString,
		"base64":       unary(func(s string) (string, error) { return base64.StdEncoding.EncodeToString([]byte(s)), nil }),
		"base64Decode": unary(func(s string) (string, error) {
			b, err := base64.StdEncoding.DecodeString(s)
			return string(b), err
		}),
		"md5": unary(func(s string) (string, error) {
			sum := md5.Sum([]byte(s))
			return hex.EncodeToString(sum[:]), nil
		}),
		"sha256": unary(func(s string) (string, error) {
			sum := sha256.Sum256([]byte(s))
			return hex.EncodeToString(sum[:]), nil
		}),
		"urlEncode": unary(func(s string) (string, error) { return url.QueryEscape(s), nil }),
		"urlDecode": unary(url.QueryUnescape),
		"env":       unary(func(s string) (string, error) { return os.Getenv(s), nil }),
	}}
}

// Register adds or replaces fn under name.
func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = fn
}

// Names lists the registered functions in order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for n := range r.funcs {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

var callPattern = regexp.MustCompile(`^(\w+)\((.*)\)$`)

// Call evaluates an expression such as `random(1, 10)`.
func (r *Registry) Call(expr string) (string, error) {
	m := callPattern.FindStringSubmatch(strings.TrimSpace(expr))
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrNotCall, expr)
	}
	fn, ok := r.funcs[m[1]]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFunction, m[1])
	}
	out, err := fn(splitArgs(m[2]))
	if err != nil {
		return "", fmt.Errorf("%s(): %w", m[1], err)
	}
	return out, nil
}

// splitArgs separates comma separated arguments. Single or double quotes
// protect commas and are removed.
func splitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var (
		args  []string
		cur   strings.Builder
		quote rune
	)
	for _, ch := range s {
		switch {
		case quote != 0 && ch == quote:
			quote = 0
		case quote == 0 && (ch == '"' || ch == '\''):
			quote = ch
		case quote == 0 && ch == ',':
			args = append(args, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(ch)
		}
	}
	return append(args, strings.TrimSpace(cur.String()))
}

func constant(f func() string) Func {
	return func([]string) (string, error) { return f(), nil }
}

func unary(f func(string) (string, error)) Func {
	return func(args []string) (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("want 1 argument, got %d", len(args))
		}
		return f(args[0])
	}
}

func date(args []string) (string, error) {
	layout := "2006-01-02"
	if len(args) > 0 && args[0] != "" {
		layout = args[0]
	}
	return time.Now().UTC().Format(layout), nil
}

func random(args []string) (string, error) {
	lo, hi := 0, 100
	if len(args) == 2 {
		var err error
		if lo, err = strconv.Atoi(args[0]); err != nil {
			return "", fmt.Errorf("min: %w", err)
		}
		if hi, err = strconv.Atoi(args[1]); err != nil {
			return "", fmt.Errorf("max: %w", err)
		}
	} else if len(args) != 0 {
		return "", fmt.Errorf("want 0 or 2 arguments, got %d", len(args))
	}
	if hi < lo {
		return "", fmt.Errorf("max %d is below min %d", hi, lo)
	}
	return strconv.Itoa(lo + rand.IntN(hi-lo+1)), nil
}

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomString(args []string) (string, error) {
	n := 16
	if len(args) > 0 {
		var err error
		if n, err = strconv.Atoi(args[0]); err != nil || n < 0 {
			return "", fmt.Errorf("invalid length %q", args[0])
		}
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = alphanumeric[rand.IntN(len(alphanumeric))]
	}
	return string(b), nil
}
