package output

import (
	"io"
	"net/http"
	"time"

	"github.com/abdul-hamid-achik/easyhttp/packages/assertions"
)

// Result is what the CLI knows about one finished exchange.
type Result struct {
	Method     string
	URL        string
	Proto      string
	Status     int
	StatusText string
	Header     http.Header
	Body       []byte
	Duration   time.Duration
	Captures   map[string]any
	SchemaErr  error
	SavedTo    string
	Written    int64
	HistoryID  string
	Checks     []*assertions.Result
}

// Formatter writes results somewhere.
type Formatter interface {
	Format(r *Result) error
}

// New returns a JSON formatter when asJSON is set and a console formatter
// otherwise, both writing to w.
func New(asJSON bool, w io.Writer, opts ...ConsoleOption) Formatter {
	if asJSON {
		return NewJSON(w)
	}
	return NewConsole(append([]ConsoleOption{WithWriter(w)}, opts...)...)
}
