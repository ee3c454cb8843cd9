// Package worker is a bounded, fixed-size goroutine pool for fanning out
// independent per-item work (dictionary ID translation, existence
// checks) across a large triple batch without spawning one goroutine
// per item.
//
// It deliberately omits dynamic autoscaling, a work-stealing deque, a
// rate limiter, or a deadlock detector: those earn their keep in a long
// search running under unpredictable, bursty goal evaluation load, but
// the reasoning core's batches are finite and their size is known up
// front, so a fixed worker count sized to the caller's concurrency
// budget is all a per-triple fan-out needs.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// ErrPoolClosed is returned by Submit once the pool has been closed.
var ErrPoolClosed = fmt.Errorf("worker: pool has been closed")

// Pool runs submitted tasks across a fixed number of long-lived
// goroutines.
type Pool struct {
	tasks        chan func()
	wg           sync.WaitGroup
	shutdownChan chan struct{}
	once         sync.Once
}

// New constructs a pool with size worker goroutines. A non-positive
// size defaults to runtime.NumCPU().
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{
		tasks:        make(chan func(), size*2),
		shutdownChan: make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for {
		select {
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			if task != nil {
				task()
			}
		case <-p.shutdownChan:
			return
		}
	}
}

// Submit enqueues task for execution, blocking until a worker can
// accept it, ctx is cancelled, or the pool is closed.
func (p *Pool) Submit(ctx context.Context, task func()) error {
	select {
	case <-p.shutdownChan:
		return ErrPoolClosed
	default:
	}
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.shutdownChan:
		return ErrPoolClosed
	}
}

// Close stops accepting new tasks and waits for every worker to drain
// its current task before returning. Safe to call more than once.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.shutdownChan)
		close(p.tasks)
		p.wg.Wait()
	})
}

// RunAll submits n independent tasks indexed 0..n-1, waits for all of
// them to finish, and aggregates every returned error with
// go-multierror rather than stopping at the first failure — the same
// aggregate-and-continue idiom the reasoning core's bulk-delete path
// uses for per-chunk errors. fn must be safe to call concurrently from
// up to the pool's worker count at once.
func (p *Pool) RunAll(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if n == 0 {
		return nil
	}

	var wg sync.WaitGroup
	errCh := make(chan error, n)

	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		task := func() {
			defer wg.Done()
			if err := fn(ctx, i); err != nil {
				errCh <- err
			}
		}
		if err := p.Submit(ctx, task); err != nil {
			wg.Done()
			errCh <- err
			continue
		}
	}

	wg.Wait()
	close(errCh)

	var errs *multierror.Error
	for err := range errCh {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}
