package stress

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Scheduler paces RateMode runs and picks targets by weight.
type Scheduler struct {
	cfg     *Config
	limiter *rate.Limiter

	mu      sync.Mutex
	targets []*Target
	total   int
	rng     *rand.Rand
}

// NewScheduler builds a scheduler for cfg. Targets with a weight below one
// count as one.
func NewScheduler(cfg *Config, targets ...*Target) *Scheduler {
	s := &Scheduler{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
	}
	if cfg.Mode == RateMode {
		burst := max(1, int(cfg.Rate/10))
		s.limiter = rate.NewLimiter(rate.Limit(s.RateAt(0)), burst)
	}
	for _, t := range targets {
		s.Add(t)
	}
	return s
}

// Add registers t.
func (s *Scheduler) Add(t *Target) {
	if t.Weight < 1 {
		t.Weight = 1
	}
	s.mu.Lock()
	s.targets = append(s.targets, t)
	s.total += t.Weight
	s.mu.Unlock()
}

// Len returns the number of targets.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.targets)
}

// Pick returns a target chosen by weight, or nil when none are registered.
func (s *Scheduler) Pick() *Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch len(s.targets) {
	case 0:
		return nil
	case 1:
		return s.targets[0]
	}
	n := s.rng.IntN(s.total)
	for _, t := range s.targets {
		if n < t.Weight {
			return t
		}
		n -= t.Weight
	}
	return s.targets[len(s.targets)-1]
}

// Wait blocks until the limiter admits another request. It returns
// immediately outside RateMode.
func (s *Scheduler) Wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

// RateAt is the target rate after elapsed, ramping linearly from 10% of
// the configured rate.
func (s *Scheduler) RateAt(elapsed time.Duration) float64 {
	if s.cfg.RampUp <= 0 || elapsed >= s.cfg.RampUp {
		return s.cfg.Rate
	}
	floor := s.cfg.Rate * 0.1
	return floor + (s.cfg.Rate-floor)*float64(elapsed)/float64(s.cfg.RampUp)
}

// VUsAt is the number of virtual users that should be running after
// elapsed. It never drops below one.
func (s *Scheduler) VUsAt(elapsed time.Duration) int {
	if s.cfg.RampUp <= 0 || elapsed >= s.cfg.RampUp {
		return s.cfg.VUs
	}
	return max(1, int(float64(s.cfg.VUs)*float64(elapsed)/float64(s.cfg.RampUp)))
}

// SetRate changes the limiter rate. Non-positive rates are ignored.
func (s *Scheduler) SetRate(r float64) {
	if s.limiter != nil && r > 0 {
		s.limiter.SetLimit(rate.Limit(r))
	}
}
