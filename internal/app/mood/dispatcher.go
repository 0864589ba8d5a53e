package mood

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/PabloGalante/farum-wellness/internal/observability"
)

// Runner executes one scoring job. Runners swallow their own failures.
type Runner interface {
	Run(ctx context.Context, job Job)
}

// Dispatcher hands scoring jobs to a bounded set of goroutines. Submit never
// blocks: when every worker is busy the job is dropped.
type Dispatcher struct {
	runner  Runner
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	group  errgroup.Group
}

func NewDispatcher(runner Runner, workers int, timeout time.Duration) *Dispatcher {
	d := &Dispatcher{runner: runner, timeout: timeout}
	d.group.SetLimit(workers)
	return d
}

// Submit schedules job and reports whether it was accepted. The job keeps the
// values of ctx (request id, logger fields) but not its cancellation.
func (d *Dispatcher) Submit(ctx context.Context, job Job) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	log := observability.LoggerFromContext(ctx)
	if d.closed {
		log.Warn("mood job dropped: dispatcher closed")
		observability.MoodScoring.WithLabelValues("dropped").Inc()
		return false
	}

	base := context.WithoutCancel(ctx)
	accepted := d.group.TryGo(func() error {
		jobCtx, cancel := context.WithTimeout(base, d.timeout)
		defer cancel()
		d.runner.Run(jobCtx, job)
		return nil
	})
	if !accepted {
		log.Warn("mood job dropped: all workers busy")
		observability.MoodScoring.WithLabelValues("dropped").Inc()
	}
	return accepted
}

// Shutdown stops accepting jobs and waits for in-flight ones, or for ctx.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = d.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
