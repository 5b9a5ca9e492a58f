package output

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/tidwall/gjson"
)

// Console prints results for people.
type Console struct {
	w       io.Writer
	verbose bool
	quiet   bool

	ok, redirect, clientErr, serverErr, key, dim, bold *color.Color
}

type ConsoleOption func(*Console)

func WithWriter(w io.Writer) ConsoleOption {
	return func(c *Console) { c.w = w }
}

// WithVerbose adds response headers.
func WithVerbose(v bool) ConsoleOption {
	return func(c *Console) { c.verbose = v }
}

// WithQuiet prints the body alone.
func WithQuiet(q bool) ConsoleOption {
	return func(c *Console) { c.quiet = q }
}

func WithNoColor(noColor bool) ConsoleOption {
	return func(c *Console) {
		if !noColor {
			return
		}
		for _, col := range []*color.Color{c.ok, c.redirect, c.clientErr, c.serverErr, c.key, c.dim, c.bold} {
			col.DisableColor()
		}
	}
}

func NewConsole(opts ...ConsoleOption) *Console {
	c := &Console{
		w:         os.Stdout,
		ok:        color.New(color.FgGreen, color.Bold),
		redirect:  color.New(color.FgCyan, color.Bold),
		clientErr: color.New(color.FgYellow, color.Bold),
		serverErr: color.New(color.FgRed, color.Bold),
		key:       color.New(color.FgCyan),
		dim:       color.New(color.Faint),
		bold:      color.New(color.Bold),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Console) statusColor(code int) *color.Color {
	switch {
	case code >= 500:
		return c.serverErr
	case code >= 400:
		return c.clientErr
	case code >= 300:
		return c.redirect
	default:
		return c.ok
	}
}

// Format prints r.
func (c *Console) Format(r *Result) error {
	if c.quiet {
		return c.body(r)
	}

	proto := r.Proto
	if proto == "" {
		proto = "HTTP/1.1"
	}
	status := r.StatusText
	if status == "" {
		status = strconv.Itoa(r.Status)
	}
	fmt.Fprintf(c.w, "%s %s\n", proto, c.statusColor(r.Status).Sprint(status))
	c.dim.Fprintf(c.w, "%s %s (%dms)\n", r.Method, r.URL, r.Duration.Milliseconds())

	if c.verbose {
		names := make([]string, 0, len(r.Header))
		for k := range r.Header {
			names = append(names, k)
		}
		slices.Sort(names)
		for _, k := range names {
			for _, v := range r.Header[k] {
				fmt.Fprintf(c.w, "%s: %s\n", c.key.Sprint(k), v)
			}
		}
	}

	fmt.Fprintln(c.w)
	if r.SavedTo != "" {
		fmt.Fprintf(c.w, "saved %d bytes to %s\n", r.Written, r.SavedTo)
	} else if err := c.body(r); err != nil {
		return err
	}

	if len(r.Captures) > 0 {
		fmt.Fprintln(c.w)
		c.bold.Fprintln(c.w, "Captures")
		names := make([]string, 0, len(r.Captures))
		for k := range r.Captures {
			names = append(names, k)
		}
		slices.Sort(names)
		for _, k := range names {
			fmt.Fprintf(c.w, "  %s = %s\n", c.key.Sprint(k), summarize(r.Captures[k], 100))
		}
	}

	if len(r.Checks) > 0 {
		fmt.Fprintln(c.w)
		c.bold.Fprintln(c.w, "Checks")
		for _, chk := range r.Checks {
			if chk.Passed {
				fmt.Fprintf(c.w, "  %s %s %s\n", c.ok.Sprint("✓"), chk.Subject, chk.Operator)
				continue
			}
			fmt.Fprintf(c.w, "  %s %s %s: %s\n", c.serverErr.Sprint("✗"), chk.Subject, chk.Operator, chk.Message)
		}
	}

	if r.SchemaErr != nil {
		fmt.Fprintf(c.w, "\n%s %v\n", c.serverErr.Sprint("schema:"), r.SchemaErr)
	}
	if r.HistoryID != "" {
		c.dim.Fprintf(c.w, "history %s\n", r.HistoryID)
	}
	return nil
}

// body prints the body, pretty printing JSON.
func (c *Console) body(r *Result) error {
	if len(r.Body) == 0 {
		return nil
	}
	out := r.Body
	if gjson.ValidBytes(out) {
		out = []byte(gjson.GetBytes(out, "@pretty").Raw)
	}
	if _, err := c.w.Write(out); err != nil {
		return err
	}
	if !strings.HasSuffix(string(out), "\n") {
		fmt.Fprintln(c.w)
	}
	return nil
}

func summarize(v any, max int) string {
	switch val := v.(type) {
	case []any:
		return fmt.Sprintf("[%d items]", len(val))
	case map[string]any:
		return fmt.Sprintf("{%d keys}", len(val))
	}
	s := fmt.Sprintf("%v", v)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
