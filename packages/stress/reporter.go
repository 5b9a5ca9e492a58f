package stress

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Reporter renders run headers, live progress and the final summary.
type Reporter struct {
	w        io.Writer
	progress bool
	verbose  bool

	title, ok, bad, warn, dim *color.Color
}

// ReporterOption configures a Reporter.
type ReporterOption func(*Reporter)

func WithWriter(w io.Writer) ReporterOption {
	return func(r *Reporter) { r.w = w }
}

// WithNoColor strips ANSI colors from everything the reporter prints.
func WithNoColor(noColor bool) ReporterOption {
	return func(r *Reporter) {
		if noColor {
			for _, c := range r.palette() {
				c.DisableColor()
			}
		}
	}
}

// WithProgress toggles the live progress line.
func WithProgress(on bool) ReporterOption {
	return func(r *Reporter) { r.progress = on }
}

// WithVerbose adds the per-target breakdown to the summary.
func WithVerbose(v bool) ReporterOption {
	return func(r *Reporter) { r.verbose = v }
}

// NewReporter writes to stdout with progress enabled.
func NewReporter(opts ...ReporterOption) *Reporter {
	r := &Reporter{
		w:        os.Stdout,
		progress: true,
		title:    color.New(color.Bold),
		ok:       color.New(color.FgGreen),
		bad:      color.New(color.FgRed),
		warn:     color.New(color.FgYellow),
		dim:      color.New(color.Faint),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reporter) palette() []*color.Color {
	return []*color.Color{r.title, r.ok, r.bad, r.warn, r.dim}
}

// Header announces a run.
func (r *Reporter) Header(cfg *Config, targets []*Target) {
	fmt.Fprintln(r.w)
	r.title.Fprintln(r.w, "easyhttp bench")
	for _, t := range targets {
		fmt.Fprintf(r.w, "  %s\n", t)
	}
	load := fmt.Sprintf("%s req/s", decimal(cfg.Rate))
	if cfg.Mode == VUMode {
		load = fmt.Sprintf("%d vus", cfg.VUs)
	}
	r.dim.Fprintf(r.w, "  %s for %s, at most %d in flight\n\n", load, cfg.Duration, cfg.MaxVUs)
}

// Progress overwrites the current terminal line with snap.
func (r *Reporter) Progress(snap Snapshot, total time.Duration) {
	if !r.progress {
		return
	}
	fmt.Fprintf(r.w, "\r\033[K  %s/%s  %s req  %.1f req/s  p95 %s  errors %s  active %d",
		roundDuration(snap.Elapsed), total, thousands(snap.Total), snap.RPS,
		latency(snap.P95), thousands(snap.Errors), snap.Active)
}

// ClearProgress erases the progress line.
func (r *Reporter) ClearProgress() {
	if r.progress {
		fmt.Fprint(r.w, "\r\033[K")
	}
}

// Summary prints res in human form.
func (r *Reporter) Summary(res *Result) {
	s := res.Summary

	fmt.Fprintln(r.w)
	r.title.Fprintln(r.w, "Summary")
	fmt.Fprintf(r.w, "  duration   %s\n", roundDuration(s.Duration))
	fmt.Fprintf(r.w, "  requests   %s (%.1f req/s)\n", thousands(s.Total), s.RPS)
	fmt.Fprintf(r.w, "  succeeded  %s\n", r.ok.Sprint(thousands(s.Success)))
	failed := thousands(s.Errors)
	if s.Errors > 0 {
		failed = r.bad.Sprint(failed)
	}
	fmt.Fprintf(r.w, "  failed     %s (%.2f%%)\n", failed, s.ErrorRate*100)
	if s.Timeouts > 0 {
		fmt.Fprintf(r.w, "  timeouts   %s\n", r.warn.Sprint(thousands(s.Timeouts)))
	}

	fmt.Fprintln(r.w)
	r.title.Fprintln(r.w, "Latency")
	fmt.Fprintf(r.w, "  p50 %s  p95 %s  p99 %s\n", latency(s.P50), latency(s.P95), latency(s.P99))
	fmt.Fprintf(r.w, "  min %s  mean %s  max %s  stddev %s\n",
		latency(s.Min), latency(s.Mean), latency(s.Max), latency(s.StdDev))

	if r.verbose && len(s.Targets) > 1 {
		fmt.Fprintln(r.w)
		r.title.Fprintln(r.w, "Targets")
		for name, ts := range s.Targets {
			fmt.Fprintf(r.w, "  %s\n    %s requests, %s failed, p50 %s p95 %s p99 %s\n",
				name, thousands(ts.Total), thousands(ts.Errors),
				latency(ts.P50), latency(ts.P95), latency(ts.P99))
		}
	}

	if len(res.Thresholds) > 0 {
		fmt.Fprintln(r.w)
		r.title.Fprintln(r.w, "Thresholds")
		for _, t := range res.Thresholds {
			mark := r.ok.Sprint("pass")
			if !t.Passed {
				mark = r.bad.Sprint("FAIL")
			}
			fmt.Fprintf(r.w, "  %s  %s %s (actual %s)\n", mark, t.Name, t.Expected, t.Actual)
		}
	}
	fmt.Fprintln(r.w)
}

type jsonLatency struct {
	P50    float64 `json:"p50"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

type jsonReport struct {
	Duration   string            `json:"duration"`
	Requests   int64             `json:"requests"`
	Success    int64             `json:"success"`
	Errors     int64             `json:"errors"`
	Timeouts   int64             `json:"timeouts"`
	RPS        float64           `json:"rps"`
	ErrorRate  float64           `json:"errorRate"`
	LatencyMs  jsonLatency       `json:"latencyMs"`
	Thresholds []ThresholdResult `json:"thresholds,omitempty"`
	Passed     bool              `json:"passed"`
}

// JSON writes res as an indented JSON document with latencies in
// milliseconds.
func (r *Reporter) JSON(res *Result) error {
	s := res.Summary
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{
		Duration:  s.Duration.String(),
		Requests:  s.Total,
		Success:   s.Success,
		Errors:    s.Errors,
		Timeouts:  s.Timeouts,
		RPS:       s.RPS,
		ErrorRate: s.ErrorRate,
		LatencyMs: jsonLatency{
			P50: ms(s.P50), P95: ms(s.P95), P99: ms(s.P99),
			Min: ms(s.Min), Max: ms(s.Max), Mean: ms(s.Mean), StdDev: ms(s.StdDev),
		},
		Thresholds: res.Thresholds,
		Passed:     res.Passed(),
	})
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func roundDuration(d time.Duration) time.Duration {
	if d < time.Second {
		return d.Round(time.Millisecond)
	}
	return d.Round(100 * time.Millisecond)
}

func latency(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%.1fms", ms(d))
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}

// thousands groups digits: 1234567 becomes "1,234,567".
func thousands(n int64) string {
	digits := strconv.FormatInt(n, 10)
	sign := ""
	if n < 0 {
		sign, digits = "-", digits[1:]
	}
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return sign + b.String()
}
