package stress

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics()
	m.Start()

	m.Record("a", 10*time.Millisecond, nil)
	m.Record("a", 20*time.Millisecond, nil)
	m.Record("b", 30*time.Millisecond, nil)
	m.Record("a", 5*time.Millisecond, errors.New("boom"))
	m.Stop()

	s := m.Summary()
	assert.Equal(t, int64(4), s.Total)
	assert.Equal(t, int64(3), s.Success)
	assert.Equal(t, int64(1), s.Errors)
	assert.InDelta(t, 0.25, s.ErrorRate, 1e-9)
	assert.InDelta(t, float64(5*time.Millisecond), float64(s.Min), float64(50*time.Microsecond))
	assert.InDelta(t, float64(30*time.Millisecond), float64(s.Max), float64(50*time.Microsecond))

	require.Contains(t, s.Targets, "a")
	assert.Equal(t, int64(3), s.Targets["a"].Total)
	assert.Equal(t, int64(1), s.Targets["a"].Errors)
	assert.Equal(t, int64(1), s.Targets["b"].Total)
}

func TestMetricsTimeouts(t *testing.T) {
	m := NewMetrics()
	m.Start()

	m.Record("a", time.Millisecond, nil)
	m.Record("a", time.Second, fmt.Errorf("wrapped: %w", context.DeadlineExceeded))
	m.Stop()

	s := m.Summary()
	assert.Equal(t, int64(1), s.Timeouts)
	assert.Equal(t, int64(1), s.Errors)
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.Start()
	m.vuStarted()
	m.vuStarted()
	m.vuStopped()
	m.Record("", time.Millisecond, nil)

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.Total)
	assert.Equal(t, int32(1), snap.Active)
	assert.Positive(t, snap.Elapsed)
}

func TestThresholdsEvaluate(t *testing.T) {
	s := &Summary{
		P50:       10 * time.Millisecond,
		P95:       90 * time.Millisecond,
		P99:       300 * time.Millisecond,
		Max:       time.Second,
		ErrorRate: 0.02,
		RPS:       40,
	}
	th := Thresholds{
		P50:       20 * time.Millisecond,
		P95:       100 * time.Millisecond,
		P99:       200 * time.Millisecond,
		ErrorRate: 0.01,
		MinRPS:    30,
	}

	results := th.Evaluate(s)
	require.Len(t, results, 5)

	passed := map[string]bool{}
	for _, r := range results {
		passed[r.Name] = r.Passed
	}
	assert.Equal(t, map[string]bool{
		"p50":    true,
		"p95":    true,
		"p99":    false,
		"errors": false,
		"rps":    true,
	}, passed)

	assert.Equal(t, "2%", results[3].Actual)
	assert.Equal(t, "<= 1%", results[3].Expected)
}

func TestThresholdsEvaluate_NoneConfigured(t *testing.T) {
	assert.Empty(t, Thresholds{}.Evaluate(&Summary{}))
}
