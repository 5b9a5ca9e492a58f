package record

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/abdul-hamid-achik/easyhttp/packages/transport"
	"go.uber.org/zap"
)

// DefaultMaxBody caps how much of each body is kept.
const DefaultMaxBody = 1 << 20

// DefaultSanitize lists headers whose values are never stored.
var DefaultSanitize = []string{"Authorization", "Proxy-Authorization", "Cookie", "X-Api-Key", "Api-Key"}

// Recording is one request and what came back.
type Recording struct {
	Time           time.Time         `json:"time"`
	Method         string            `json:"method"`
	URL            string            `json:"url"`
	Path           string            `json:"path"`
	RequestHeader  map[string]string `json:"requestHeader,omitempty"`
	RequestBody    string            `json:"requestBody,omitempty"`
	Streamed       bool              `json:"streamed,omitempty"`
	Status         int               `json:"status,omitempty"`
	ResponseHeader map[string]string `json:"responseHeader,omitempty"`
	ResponseBody   string            `json:"responseBody,omitempty"`
	BodyEncoding   string            `json:"bodyEncoding,omitempty"`
	Truncated      bool              `json:"truncated,omitempty"`
	Duration       time.Duration     `json:"duration"`
	Error          string            `json:"error,omitempty"`
}

// Recorder is a Dispatcher that records what it forwards. It is safe for
// concurrent use.
type Recorder struct {
	next     transport.Dispatcher
	exclude  []string
	sanitize []string
	dedupe   bool
	maxBody  int
	logger   *zap.Logger

	mu   sync.Mutex
	recs []Recording
	seen map[string]bool
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithExclude skips requests whose path contains any of fragments.
func WithExclude(fragments ...string) Option {
	return func(r *Recorder) { r.exclude = append(r.exclude, fragments...) }
}

// WithSanitize replaces the redacted header list.
func WithSanitize(headers ...string) Option {
	return func(r *Recorder) { r.sanitize = headers }
}

// WithDeduplicate keeps only the first exchange per method and path.
func WithDeduplicate(on bool) Option {
	return func(r *Recorder) { r.dedupe = on }
}

// WithMaxBody changes the per-body cap. The caller still sees full bodies.
func WithMaxBody(n int) Option {
	return func(r *Recorder) { r.maxBody = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Recorder) { r.logger = l }
}

// New records everything dispatched through next.
func New(next transport.Dispatcher, opts ...Option) *Recorder {
	r := &Recorder{
		next:     next,
		sanitize: DefaultSanitize,
		maxBody:  DefaultMaxBody,
		logger:   zap.NewNop(),
		seen:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dispatch forwards p and records the exchange. The response body is
// buffered and handed back unread.
func (r *Recorder) Dispatch(p *transport.Prepared) (*http.Response, error) {
	req := p.Request
	if r.excluded(req.URL.Path) {
		return r.next.Dispatch(p)
	}

	rec := Recording{
		Time:          time.Now(),
		Method:        req.Method,
		URL:           req.URL.String(),
		Path:          req.URL.Path,
		RequestHeader: r.redact(req.Header),
	}
	switch {
	case req.GetBody != nil:
		if body, err := req.GetBody(); err == nil {
			data, _ := io.ReadAll(io.LimitReader(body, int64(r.maxBody)))
			_ = body.Close()
			rec.RequestBody = string(data)
		}
	case req.Body != nil && req.Body != http.NoBody:
		rec.Streamed = true
	}

	resp, err := r.next.Dispatch(p)
	rec.Duration = time.Since(rec.Time)
	if err != nil {
		rec.Error = err.Error()
		r.add(rec)
		return nil, err
	}

	data, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(data))
	if readErr != nil {
		// Hand back what arrived along with the failure on the next read.
		resp.Body = io.NopCloser(io.MultiReader(bytes.NewReader(data), errReader{readErr}))
		rec.Error = readErr.Error()
	}

	rec.Status = resp.StatusCode
	rec.ResponseHeader = r.redact(resp.Header)
	if len(data) > r.maxBody {
		data, rec.Truncated = data[:r.maxBody], true
	}
	if utf8.Valid(data) {
		rec.ResponseBody = string(data)
	} else {
		rec.ResponseBody = base64.StdEncoding.EncodeToString(data)
		rec.BodyEncoding = "base64"
	}
	r.add(rec)
	return resp, nil
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

func (r *Recorder) add(rec Recording) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dedupe {
		key := rec.Method + " " + rec.Path
		if r.seen[key] {
			r.logger.Debug("duplicate not recorded", zap.String("key", key))
			return
		}
		r.seen[key] = true
	}
	r.recs = append(r.recs, rec)
	r.logger.Debug("recorded",
		zap.String("method", rec.Method),
		zap.String("url", rec.URL),
		zap.Int("status", rec.Status),
		zap.Duration("duration", rec.Duration))
}

func (r *Recorder) excluded(path string) bool {
	for _, frag := range r.exclude {
		if frag != "" && strings.Contains(path, frag) {
			return true
		}
	}
	return false
}

// redact flattens h to its first values. Sanitized headers become a
// {{NAME}} placeholder so replays can supply them as variables.
func (r *Recorder) redact(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, vs := range h {
		if len(vs) == 0 {
			continue
		}
		out[k] = vs[0]
		for _, s := range r.sanitize {
			if strings.EqualFold(k, s) {
				out[k] = "{{" + strings.ToUpper(strings.ReplaceAll(k, "-", "_")) + "}}"
				break
			}
		}
	}
	return out
}

// Recordings returns a copy of everything recorded so far.
func (r *Recorder) Recordings() []Recording {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Recording(nil), r.recs...)
}

// Clear forgets all recordings and deduplication state.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = nil
	r.seen = make(map[string]bool)
}

// JSON renders the recordings as an indented array.
func (r *Recorder) JSON() ([]byte, error) {
	recs := r.Recordings()
	if recs == nil {
		recs = []Recording{}
	}
	return json.MarshalIndent(recs, "", "  ")
}

// WriteFile writes JSON() to path, replacing it.
func (r *Recorder) WriteFile(path string) error {
	data, err := r.JSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing recordings: %w", err)
	}
	return nil
}

// ReadFile loads recordings written by WriteFile.
func ReadFile(path string) ([]Recording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading recordings: %w", err)
	}
	var recs []Recording
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("parsing recordings: %w", err)
	}
	return recs, nil
}

var _ transport.Dispatcher = (*Recorder)(nil)
