package stress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerPick_Single(t *testing.T) {
	s := NewScheduler(DefaultConfig(), &Target{Name: "only"})

	for range 10 {
		got := s.Pick()
		require.NotNil(t, got)
		assert.Equal(t, "only", got.Name)
		assert.Equal(t, 1, got.Weight)
	}
}

func TestSchedulerPick_Empty(t *testing.T) {
	assert.Nil(t, NewScheduler(DefaultConfig()).Pick())
}

func TestSchedulerPick_Weighted(t *testing.T) {
	s := NewScheduler(DefaultConfig(),
		&Target{Name: "heavy", Weight: 90},
		&Target{Name: "light", Weight: 10},
	)

	counts := map[string]int{}
	const n = 10000
	for range n {
		counts[s.Pick().Name]++
	}

	assert.InDelta(t, 0.9, float64(counts["heavy"])/n, 0.05)
	assert.InDelta(t, 0.1, float64(counts["light"])/n, 0.05)
}

func TestSchedulerRateAt(t *testing.T) {
	cfg := &Config{Mode: RateMode, Duration: 20 * time.Second, Rate: 100, MaxVUs: 1, RampUp: 10 * time.Second}
	s := NewScheduler(cfg)

	assert.InDelta(t, 10, s.RateAt(0), 1e-9)
	assert.InDelta(t, 55, s.RateAt(5*time.Second), 1e-9)
	assert.InDelta(t, 100, s.RateAt(10*time.Second), 1e-9)
	assert.InDelta(t, 100, s.RateAt(15*time.Second), 1e-9)
}

func TestSchedulerVUsAt(t *testing.T) {
	cfg := &Config{Mode: VUMode, Duration: 20 * time.Second, VUs: 10, MaxVUs: 10, RampUp: 10 * time.Second}
	s := NewScheduler(cfg)

	assert.Equal(t, 1, s.VUsAt(0))
	assert.Equal(t, 5, s.VUsAt(5*time.Second))
	assert.Equal(t, 10, s.VUsAt(time.Minute))

	cfg.RampUp = 0
	assert.Equal(t, 10, s.VUsAt(0))
}

func TestSchedulerWait_VUModeDoesNotBlock(t *testing.T) {
	s := NewScheduler(&Config{Mode: VUMode, Duration: time.Second, VUs: 1, MaxVUs: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, s.Wait(ctx))
}

func TestSchedulerWait_HonoursContext(t *testing.T) {
	s := NewScheduler(&Config{Mode: RateMode, Duration: time.Second, Rate: 0.001, MaxVUs: 1})
	require.NoError(t, s.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, s.Wait(ctx))
}
