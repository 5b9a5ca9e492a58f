package stress

import (
	"context"
	"errors"
	"sync"
	"time"

	easyhttp "github.com/abdul-hamid-achik/easyhttp/packages/http"
	"github.com/abdul-hamid-achik/easyhttp/packages/transport"
	"go.uber.org/zap"
)

// ErrNoTargets is returned by Run when nothing was registered.
var ErrNoTargets = errors.New("no stress targets")

const (
	progressInterval = 500 * time.Millisecond
	rampInterval     = 100 * time.Millisecond
)

// SessionFactory returns a new independent client. A Client carries
// per-conversation state and is not safe for concurrent use, so every worker
// owns one.
type SessionFactory func() *easyhttp.Client

// SharedTransportSessions returns a factory whose clients share one
// connection pool.
func SharedTransportSessions(opts ...easyhttp.ClientOption) SessionFactory {
	nt := transport.NewNetTransport()
	return func() *easyhttp.Client {
		return easyhttp.New(append([]easyhttp.ClientOption{easyhttp.WithTransport(nt)}, opts...)...)
	}
}

// Runner executes one load run.
type Runner struct {
	cfg        *Config
	sched      *Scheduler
	metrics    *Metrics
	reporter   *Reporter
	newSession SessionFactory
	logger     *zap.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

func WithReporter(rep *Reporter) RunnerOption {
	return func(r *Runner) { r.reporter = rep }
}

func WithSessionFactory(f SessionFactory) RunnerOption {
	return func(r *Runner) { r.newSession = f }
}

func WithLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// NewRunner prepares a run of targets under cfg.
func NewRunner(cfg *Config, targets []*Target, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:     cfg,
		sched:   NewScheduler(cfg, targets...),
		metrics: NewMetrics(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.newSession == nil {
		r.newSession = SharedTransportSessions()
	}
	if r.reporter == nil {
		r.reporter = NewReporter()
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// Metrics exposes the live collector.
func (r *Runner) Metrics() *Metrics { return r.metrics }

// Result is the outcome of Run.
type Result struct {
	Summary    *Summary
	Thresholds []ThresholdResult
}

// Passed reports whether every threshold held.
func (res *Result) Passed() bool {
	for _, t := range res.Thresholds {
		if !t.Passed {
			return false
		}
	}
	return true
}

// Run generates load until cfg.Duration elapses or ctx is cancelled.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}
	if r.sched.Len() == 0 {
		return nil, ErrNoTargets
	}

	r.reporter.Header(r.cfg, r.sched.targets)
	r.logger.Debug("stress run started",
		zap.Stringer("mode", r.cfg.Mode),
		zap.Duration("duration", r.cfg.Duration),
		zap.Int("targets", r.sched.Len()))

	runCtx, cancel := context.WithTimeout(ctx, r.cfg.Duration)
	defer cancel()

	r.metrics.Start()
	done := make(chan struct{})
	var progress sync.WaitGroup
	progress.Add(1)
	go func() {
		defer progress.Done()
		r.progressLoop(done)
	}()

	if r.cfg.Mode == VUMode {
		r.runVUs(runCtx)
	} else {
		r.runRate(runCtx)
	}

	r.metrics.Stop()
	close(done)
	progress.Wait()
	r.reporter.ClearProgress()

	summary := r.metrics.Summary()
	res := &Result{Summary: summary, Thresholds: r.cfg.Thresholds.Evaluate(summary)}
	r.reporter.Summary(res)
	r.logger.Debug("stress run finished",
		zap.Int64("requests", summary.Total),
		zap.Int64("errors", summary.Errors),
		zap.Bool("passed", res.Passed()))
	return res, nil
}

// runRate starts requests at the scheduled rate. The session channel doubles
// as the in-flight limit.
func (r *Runner) runRate(ctx context.Context) {
	sessions := make(chan *easyhttp.Client, r.cfg.MaxVUs)
	for range r.cfg.MaxVUs {
		sessions <- r.newSession()
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	start := time.Now()
	for {
		if r.cfg.RampUp > 0 {
			r.sched.SetRate(r.sched.RateAt(time.Since(start)))
		}
		if err := r.sched.Wait(ctx); err != nil {
			return
		}

		var c *easyhttp.Client
		select {
		case c = <-sessions:
		case <-ctx.Done():
			return
		}

		t := r.sched.Pick()
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.metrics.vuStarted()
			r.hit(ctx, t, c)
			r.metrics.vuStopped()
			sessions <- c
		}()
	}
}

// runVUs keeps a pool of looping workers sized by the ramp-up schedule.
func (r *Runner) runVUs(ctx context.Context) {
	var (
		wg      sync.WaitGroup
		workers []context.CancelFunc
	)
	scale := func(n int) {
		n = min(n, r.cfg.MaxVUs)
		for len(workers) < n {
			wctx, stop := context.WithCancel(ctx)
			workers = append(workers, stop)
			wg.Add(1)
			go func() {
				defer wg.Done()
				r.vu(wctx)
			}()
		}
		for len(workers) > n {
			workers[len(workers)-1]()
			workers = workers[:len(workers)-1]
		}
	}

	start := time.Now()
	scale(r.sched.VUsAt(0))
	if r.cfg.RampUp > 0 {
		ticker := time.NewTicker(rampInterval)
	ramp:
		for {
			select {
			case <-ctx.Done():
				break ramp
			case <-ticker.C:
				scale(r.sched.VUsAt(time.Since(start)))
			}
		}
		ticker.Stop()
	}

	<-ctx.Done()
	wg.Wait()
	for _, stop := range workers {
		stop()
	}
}

func (r *Runner) vu(ctx context.Context) {
	r.metrics.vuStarted()
	defer r.metrics.vuStopped()

	c := r.newSession()
	for ctx.Err() == nil {
		r.hit(ctx, r.sched.Pick(), c)
		if r.cfg.ThinkTime <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(r.cfg.ThinkTime):
		}
	}
}

// hit runs t once and records it. Requests cut short by the end of the run
// are not recorded.
func (r *Runner) hit(ctx context.Context, t *Target, c *easyhttp.Client) {
	start := time.Now()
	err := t.Hit(ctx, c)
	if err != nil && ctx.Err() != nil {
		return
	}
	if err != nil {
		r.logger.Debug("stress request failed", zap.String("target", t.label()), zap.Error(err))
	}
	r.metrics.Record(t.label(), time.Since(start), err)
}

func (r *Runner) progressLoop(done <-chan struct{}) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			r.reporter.Progress(r.metrics.Snapshot(), r.cfg.Duration)
		}
	}
}
