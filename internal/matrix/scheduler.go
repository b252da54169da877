package matrix

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Scheduler fans the plan's environments out onto a bounded pool and
// streams one Result per environment.
//
// Environments are embarrassingly parallel: the runner gives each one a
// private scratch directory and nothing is shared between them, so the
// concurrency bound exists only to keep dependency installation from
// exhausting the machine.
type Scheduler struct {
	runner      EnvRunner
	concurrency int64
	timeout     time.Duration
}

func NewScheduler(runner EnvRunner, concurrency int, timeout time.Duration) (*Scheduler, error) {
	if runner == nil {
		return nil, errors.New("runner is nil")
	}
	if concurrency <= 0 {
		return nil, fmt.Errorf("concurrency must be >= 1, got %d", concurrency)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be > 0, got %s", timeout)
	}
	return &Scheduler{runner: runner, concurrency: int64(concurrency), timeout: timeout}, nil
}

// Execute streams per-environment results.
//
// Channel semantics:
//   - Exactly one Result is sent per planned environment, in completion
//     order, even when the run is cancelled: in-flight environments are
//     terminated and reported as cancelled, and environments that never
//     started are reported as cancelled too. Already-completed results are
//     never dropped.
//   - Both channels are closed reliably. The error channel carries at most
//     one fatal error (a nil plan or cancellation of the whole run).
func (s *Scheduler) Execute(ctx context.Context, plan *Plan) (<-chan Result, <-chan error) {
	resultsCh := make(chan Result)
	errCh := make(chan error, 1)

	go func() {
		defer close(resultsCh)
		defer close(errCh)

		trySendErr := func(err error) {
			if err == nil {
				return
			}
			select {
			case errCh <- err:
			default:
			}
		}

		if ctx == nil {
			trySendErr(errors.New("context is nil"))
			return
		}
		if plan == nil || len(plan.Environments) == 0 {
			trySendErr(errors.New("matrix plan is empty"))
			return
		}

		sem := semaphore.NewWeighted(s.concurrency)
		var wg sync.WaitGroup

		for _, env := range plan.Environments {
			if err := sem.Acquire(ctx, 1); err != nil {
				// Run cancelled before this environment started.
				resultsCh <- Result{
					Env:      env.Name,
					Labels:   env.Labels,
					Advisory: env.Advisory,
					Outcome:  OutcomeCancelled,
					Reason:   "run cancelled before start",
				}
				continue
			}

			wg.Add(1)
			go func(env Environment) {
				defer wg.Done()
				defer sem.Release(1)

				envCtx, cancel := context.WithTimeout(ctx, s.timeout)
				defer cancel()

				// The runner owns outcome classification, including the
				// cancelled/timed-out distinction for interrupted runs.
				resultsCh <- s.runner.Run(envCtx, env)
			}(env)
		}

		wg.Wait()
		trySendErr(ctx.Err())
	}()

	return resultsCh, errCh
}
