package stress

import (
	"context"
	"errors"
	"math"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Latencies are recorded in microseconds between 1µs and one minute.
const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
	sigFigs      = 3
)

type series struct {
	total, errors int64
	hist          *hdrhistogram.Histogram
}

func newSeries() *series {
	return &series{hist: hdrhistogram.New(minLatencyUs, maxLatencyUs, sigFigs)}
}

func (s *series) add(d time.Duration, failed bool) {
	s.total++
	if failed {
		s.errors++
	}
	us := min(max(d.Microseconds(), minLatencyUs), maxLatencyUs)
	_ = s.hist.RecordValue(us)
}

func (s *series) quantile(q float64) time.Duration {
	return time.Duration(s.hist.ValueAtQuantile(q)) * time.Microsecond
}

// Metrics aggregates request outcomes. It is safe for concurrent use.
type Metrics struct {
	mu       sync.Mutex
	all      *series
	timeouts int64
	byTarget map[string]*series

	active  atomic.Int32
	started time.Time
	stopped time.Time
}

// NewMetrics returns an empty collector.
func NewMetrics() *Metrics {
	return &Metrics{all: newSeries(), byTarget: make(map[string]*series)}
}

func (m *Metrics) Start() { m.started = time.Now() }
func (m *Metrics) Stop()  { m.stopped = time.Now() }

// Record adds one outcome. Timeouts count as errors too.
func (m *Metrics) Record(name string, d time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.all.add(d, err != nil)
	if isTimeout(err) {
		m.timeouts++
	}
	if name == "" {
		return
	}
	s, ok := m.byTarget[name]
	if !ok {
		s = newSeries()
		m.byTarget[name] = s
	}
	s.add(d, err != nil)
}

func (m *Metrics) vuStarted() { m.active.Add(1) }
func (m *Metrics) vuStopped() { m.active.Add(-1) }

// Snapshot is a point-in-time view used for progress display.
type Snapshot struct {
	Elapsed time.Duration
	Total   int64
	Errors  int64
	RPS     float64
	P50     time.Duration
	P95     time.Duration
	P99     time.Duration
	Active  int32
}

// Snapshot reports progress so far.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	elapsed := m.elapsed()
	return Snapshot{
		Elapsed: elapsed,
		Total:   m.all.total,
		Errors:  m.all.errors,
		RPS:     perSecond(m.all.total, elapsed),
		P50:     m.all.quantile(50),
		P95:     m.all.quantile(95),
		P99:     m.all.quantile(99),
		Active:  m.active.Load(),
	}
}

func (m *Metrics) elapsed() time.Duration {
	if m.stopped.IsZero() {
		return time.Since(m.started)
	}
	return m.stopped.Sub(m.started)
}

// TargetSummary is the per-target breakdown.
type TargetSummary struct {
	Total  int64         `json:"total"`
	Errors int64         `json:"errors"`
	P50    time.Duration `json:"p50"`
	P95    time.Duration `json:"p95"`
	P99    time.Duration `json:"p99"`
	Mean   time.Duration `json:"mean"`
}

// Summary is the final report of a run.
type Summary struct {
	Duration  time.Duration            `json:"duration"`
	Total     int64                    `json:"total"`
	Success   int64                    `json:"success"`
	Errors    int64                    `json:"errors"`
	Timeouts  int64                    `json:"timeouts"`
	RPS       float64                  `json:"rps"`
	ErrorRate float64                  `json:"errorRate"`
	P50       time.Duration            `json:"p50"`
	P95       time.Duration            `json:"p95"`
	P99       time.Duration            `json:"p99"`
	Min       time.Duration            `json:"min"`
	Max       time.Duration            `json:"max"`
	Mean      time.Duration            `json:"mean"`
	StdDev    time.Duration            `json:"stddev"`
	Targets   map[string]TargetSummary `json:"targets,omitempty"`
}

// Summary aggregates everything recorded.
func (m *Metrics) Summary() *Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	elapsed := m.elapsed()
	h := m.all.hist
	s := &Summary{
		Duration: elapsed,
		Total:    m.all.total,
		Success:  m.all.total - m.all.errors,
		Errors:   m.all.errors,
		Timeouts: m.timeouts,
		RPS:      perSecond(m.all.total, elapsed),
		P50:      m.all.quantile(50),
		P95:      m.all.quantile(95),
		P99:      m.all.quantile(99),
		Min:      time.Duration(h.Min()) * time.Microsecond,
		Max:      time.Duration(h.Max()) * time.Microsecond,
		Mean:     time.Duration(h.Mean()) * time.Microsecond,
		StdDev:   time.Duration(h.StdDev()) * time.Microsecond,
		Targets:  make(map[string]TargetSummary, len(m.byTarget)),
	}
	if s.Total > 0 {
		s.ErrorRate = float64(s.Errors) / float64(s.Total)
	}
	for name, ts := range m.byTarget {
		s.Targets[name] = TargetSummary{
			Total:  ts.total,
			Errors: ts.errors,
			P50:    ts.quantile(50),
			P95:    ts.quantile(95),
			P99:    ts.quantile(99),
			Mean:   time.Duration(ts.hist.Mean()) * time.Microsecond,
		}
	}
	return s
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func perSecond(n int64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / d.Seconds()
}

// Evaluate checks s against t, one result per configured limit.
func (t Thresholds) Evaluate(s *Summary) []ThresholdResult {
	var out []ThresholdResult
	latency := func(name string, limit, actual time.Duration) {
		if limit > 0 {
			out = append(out, ThresholdResult{name, actual <= limit, "<= " + limit.String(), actual.String()})
		}
	}
	latency("p50", t.P50, s.P50)
	latency("p95", t.P95, s.P95)
	latency("p99", t.P99, s.P99)
	latency("max", t.Max, s.Max)
	if t.ErrorRate > 0 {
		out = append(out, ThresholdResult{"errors", s.ErrorRate <= t.ErrorRate, "<= " + percent(t.ErrorRate), percent(s.ErrorRate)})
	}
	if t.MinRPS > 0 {
		out = append(out, ThresholdResult{"rps", s.RPS >= t.MinRPS, ">= " + decimal(t.MinRPS), decimal(s.RPS)})
	}
	return out
}

func percent(f float64) string { return decimal(f*100) + "%" }

func decimal(f float64) string {
	if f == math.Trunc(f) {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}
