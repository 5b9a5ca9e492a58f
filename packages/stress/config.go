// Package stress drives load against a single endpoint (or a weighted set of
// endpoints) using independent easyhttp sessions, collecting latency
// histograms and checking pass/fail thresholds.
package stress

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidConfig is returned by Validate and ParseThresholds.
var ErrInvalidConfig = errors.New("invalid stress config")

// Mode selects how load is generated.
type Mode int

const (
	// RateMode starts requests at a fixed rate regardless of response times.
	RateMode Mode = iota
	// VUMode runs a fixed number of looping virtual users.
	VUMode
)

func (m Mode) String() string {
	if m == VUMode {
		return "vu"
	}
	return "rate"
}

// Config controls a run.
type Config struct {
	Mode       Mode
	Duration   time.Duration
	Rate       float64 // requests per second in RateMode
	VUs        int     // virtual users in VUMode
	MaxVUs     int     // sessions available to RateMode, in flight at most
	ThinkTime  time.Duration
	RampUp     time.Duration
	Thresholds Thresholds
}

// DefaultConfig returns a 30 second, 10 req/s rate run.
func DefaultConfig() *Config {
	return &Config{
		Mode:     RateMode,
		Duration: 30 * time.Second,
		Rate:     10,
		MaxVUs:   100,
	}
}

// Validate reports the first problem with c.
func (c *Config) Validate() error {
	switch {
	case c.Duration <= 0:
		return fmt.Errorf("%w: duration must be positive", ErrInvalidConfig)
	case c.Mode == RateMode && c.Rate <= 0:
		return fmt.Errorf("%w: rate must be positive", ErrInvalidConfig)
	case c.Mode == VUMode && c.VUs <= 0:
		return fmt.Errorf("%w: vus must be positive", ErrInvalidConfig)
	case c.MaxVUs < 1:
		return fmt.Errorf("%w: max vus must be at least 1", ErrInvalidConfig)
	case c.RampUp < 0 || c.RampUp > c.Duration:
		return fmt.Errorf("%w: ramp-up must be between 0 and the duration", ErrInvalidConfig)
	case c.ThinkTime < 0:
		return fmt.Errorf("%w: think time cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// Thresholds are pass/fail limits evaluated after a run. Zero disables a limit.
type Thresholds struct {
	P50       time.Duration
	P95       time.Duration
	P99       time.Duration
	Max       time.Duration
	ErrorRate float64 // fraction, 0.01 is 1%
	MinRPS    float64
}

// Any reports whether at least one limit is set.
func (t Thresholds) Any() bool {
	return t.P50 > 0 || t.P95 > 0 || t.P99 > 0 || t.Max > 0 || t.ErrorRate > 0 || t.MinRPS > 0
}

// ThresholdResult is the outcome of one limit.
type ThresholdResult struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

var thresholdPattern = regexp.MustCompile(`^([A-Za-z0-9]+)\s*(<=|>=|<|>)\s*(.+)$`)

// ParseThresholds reads a comma separated list such as
// "p95<200ms,errors<1%,rps>50".
func ParseThresholds(s string) (Thresholds, error) {
	var t Thresholds
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		m := thresholdPattern.FindStringSubmatch(part)
		if m == nil {
			return t, fmt.Errorf("%w: threshold %q", ErrInvalidConfig, part)
		}
		if err := t.set(strings.ToLower(m[1]), m[2], strings.TrimSpace(m[3])); err != nil {
			return t, fmt.Errorf("%w: threshold %q: %v", ErrInvalidConfig, part, err)
		}
	}
	return t, nil
}

func (t *Thresholds) set(metric, op, value string) error {
	upper := op == "<" || op == "<="
	switch metric {
	case "p50", "p95", "p99", "max":
		if !upper {
			return errors.New("latency limits take < or <=")
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		switch metric {
		case "p50":
			t.P50 = d
		case "p95":
			t.P95 = d
		case "p99":
			t.P99 = d
		default:
			t.Max = d
		}
	case "errors", "errorrate":
		if !upper {
			return errors.New("error rate takes < or <=")
		}
		percent := strings.HasSuffix(value, "%")
		f, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
		if err != nil {
			return err
		}
		if percent {
			f /= 100
		}
		t.ErrorRate = f
	case "rps":
		if upper {
			return errors.New("rps takes > or >=")
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		t.MinRPS = f
	default:
		return fmt.Errorf("unknown metric %q", metric)
	}
	return nil
}
