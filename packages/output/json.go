package output

import (
	"encoding/json"
	"io"
	"unicode/utf8"

	"github.com/abdul-hamid-achik/easyhttp/packages/assertions"
)

// JSONFormatter writes one JSON document per result.
type JSONFormatter struct {
	w io.Writer
}

func NewJSON(w io.Writer) *JSONFormatter {
	return &JSONFormatter{w: w}
}

type jsonResult struct {
	Method     string               `json:"method"`
	URL        string               `json:"url"`
	Status     int                  `json:"status"`
	StatusText string               `json:"statusText"`
	Headers    map[string][]string  `json:"headers"`
	Body       any                  `json:"body,omitempty"`
	DurationMs int64                `json:"durationMs"`
	Captures   map[string]any       `json:"captures,omitempty"`
	SchemaErr  string               `json:"schemaError,omitempty"`
	SavedTo    string               `json:"savedTo,omitempty"`
	Written    int64                `json:"written,omitempty"`
	HistoryID  string               `json:"historyId,omitempty"`
	Checks     []*assertions.Result `json:"checks,omitempty"`
}

// Format encodes r. JSON bodies are embedded as values and text bodies as
// strings; binary bodies are left out.
func (f *JSONFormatter) Format(r *Result) error {
	doc := jsonResult{
		Method:     r.Method,
		URL:        r.URL,
		Status:     r.Status,
		StatusText: r.StatusText,
		Headers:    r.Header,
		DurationMs: r.Duration.Milliseconds(),
		Captures:   r.Captures,
		SavedTo:    r.SavedTo,
		Written:    r.Written,
		HistoryID:  r.HistoryID,
		Checks:     r.Checks,
	}
	if r.SchemaErr != nil {
		doc.SchemaErr = r.SchemaErr.Error()
	}
	switch {
	case len(r.Body) == 0:
	case json.Valid(r.Body):
		doc.Body = json.RawMessage(r.Body)
	case utf8.Valid(r.Body):
		doc.Body = string(r.Body)
	}

	enc := json.NewEncoder(f.w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
