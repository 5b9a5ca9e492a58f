// Package trace writes request and response summaries to a zap logger at a
// chosen level of detail.
package trace

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/easyhttp/packages/form"
)

// Level selects how much of an exchange is traced. Each level includes
// everything of the levels below it.
type Level int

const (
	None Level = iota
	Basic
	Header
	Body
)

var levelNames = map[Level]string{
	None:   "none",
	Basic:  "basic",
	Header: "header",
	Body:   "body",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel accepts the names printed by Level.String, case-insensitively.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return None, nil
	}
	for l, name := range levelNames {
		if name == s {
			return l, nil
		}
	}
	return None, fmt.Errorf("unknown log level %q (want none, basic, header or body)", s)
}

// Exchange is what is known about one request once it has been dispatched.
type Exchange struct {
	Method         string
	URL            string
	RequestHeader  http.Header
	Skipped        []string
	Params         []form.KeyValue
	Body           string
	Multipart      bool
	Status         int
	ResponseHeader http.Header
	Duration       time.Duration
	Err            error
}

type Tracer struct {
	logger *zap.Logger
}

// New returns a tracer writing to logger; a nil logger discards everything.
func New(logger *zap.Logger) *Tracer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracer{logger: logger}
}

// Logger returns the underlying logger.
func (t *Tracer) Logger() *zap.Logger {
	return t.logger
}

// TryRecord traces ex at level and reports whether it succeeded. It never
// panics; a failure while tracing only turns the result false.
func (t *Tracer) TryRecord(level Level, ex Exchange) (ok bool) {
	if t == nil || level <= None {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	t.record(level, ex)
	return true
}

func (t *Tracer) record(level Level, ex Exchange) {
	fields := []zap.Field{
		zap.String("method", ex.Method),
		zap.String("url", ex.URL),
	}
	if ex.Status != 0 {
		fields = append(fields, zap.Int("status", ex.Status))
	}
	fields = append(fields, zap.Duration("duration", ex.Duration))

	if level >= Header {
		fields = append(fields, zap.Any("request_headers", flatten(ex.RequestHeader)))
		if len(ex.Skipped) > 0 {
			fields = append(fields, zap.Strings("skipped_headers", ex.Skipped))
		}
		if ex.ResponseHeader != nil {
			fields = append(fields, zap.Any("response_headers", flatten(ex.ResponseHeader)))
		}
	}

	if level >= Body {
		if len(ex.Params) > 0 {
			fields = append(fields, zap.Strings("params", form.Lines(ex.Params)))
		}
		if ex.Body != "" {
			fields = append(fields, zap.String("body", ex.Body))
		}
		if ex.Multipart {
			fields = append(fields, zap.Bool("multipart", true))
		}
	}

	if ex.Err != nil {
		t.logger.Warn("request failed", append(fields, zap.Error(ex.Err))...)
		return
	}
	t.logger.Info("request", fields...)
}

func flatten(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if k == "Authorization" {
			out[k] = "[redacted]"
			continue
		}
		out[k] = strings.Join(v, ", ")
	}
	return out
}
