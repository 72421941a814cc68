package pathfind

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/jakecoffman/cp"
	"golang.org/x/sync/semaphore"
)

const DefaultSearchTimeout = 3 * time.Second

var (
	ErrCancelled = errors.New("pathfind: request cancelled")
	ErrClosed    = errors.New("pathfind: planner closed")
)

// RequesterID identifies whoever asked for a path. At most one search per
// requester is in flight.
type RequesterID uint64

type AsyncOptions struct {
	// Workers bounds the number of searches running at once. Zero means
	// runtime.NumCPU().
	Workers int
	// Timeout is used when Submit is called with a non-positive timeout.
	Timeout time.Duration
	Metrics *Metrics
}

// AsyncPlanner runs searches off the simulation tick. All searches share the
// immutable Grid; each borrows its own Planner, and with it its own Scratch.
type AsyncPlanner struct {
	grid     *Grid
	sem      *semaphore.Weighted
	planners sync.Pool
	metrics  *Metrics
	timeout  time.Duration

	base      context.Context
	cancelAll context.CancelCauseFunc
	wg        sync.WaitGroup

	mu       sync.Mutex
	closed   bool
	seq      uint64
	inflight map[RequesterID]*request
}

type request struct {
	seq    uint64
	cancel context.CancelCauseFunc
}

func NewAsyncPlanner(g *Grid, opts AsyncOptions) *AsyncPlanner {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultSearchTimeout
	}
	base, cancel := context.WithCancelCause(context.Background())
	a := &AsyncPlanner{
		grid:      g,
		sem:       semaphore.NewWeighted(int64(workers)),
		metrics:   opts.Metrics,
		timeout:   timeout,
		base:      base,
		cancelAll: cancel,
		inflight:  make(map[RequesterID]*request),
	}
	a.planners.New = func() any {
		return NewPlanner(g)
	}
	return a
}

func (a *AsyncPlanner) Grid() *Grid { return a.grid }

// Submit starts a search and returns a channel that receives exactly one
// Result. Any earlier search for the same requester is cancelled and its
// channel receives an empty result carrying ErrSuperseded. A search that
// outlives timeout is abandoned and reports context.DeadlineExceeded.
func (a *AsyncPlanner) Submit(requester RequesterID, start, target cp.Vector, timeout time.Duration) <-chan Result {
	out, _ := a.submit(requester, start, target, timeout)
	return out
}

// FindPath is the blocking form of Submit. It returns an empty slice on
// timeout, cancellation, or when there is no route.
func (a *AsyncPlanner) FindPath(ctx context.Context, requester RequesterID, start, target cp.Vector, timeout time.Duration) []cp.Vector {
	out, req := a.submit(requester, start, target, timeout)
	select {
	case res := <-out:
		return res.Waypoints
	case <-ctx.Done():
		if req != nil {
			a.cancelRequest(requester, req, ErrCancelled)
		}
		return nil
	}
}

// Cancel abandons the in-flight search for requester, if any.
func (a *AsyncPlanner) Cancel(requester RequesterID) {
	a.mu.Lock()
	req, ok := a.inflight[requester]
	if ok {
		delete(a.inflight, requester)
	}
	a.mu.Unlock()
	if ok {
		req.cancel(ErrCancelled)
	}
}

// Pending returns the number of searches submitted and not yet finished.
func (a *AsyncPlanner) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.inflight)
}

// Close cancels every search and waits for the workers to exit. The grid
// may be rebuilt once Close returns.
func (a *AsyncPlanner) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.inflight = make(map[RequesterID]*request)
	a.mu.Unlock()

	a.cancelAll(ErrClosed)
	a.wg.Wait()
}

func (a *AsyncPlanner) submit(requester RequesterID, start, target cp.Vector, timeout time.Duration) (<-chan Result, *request) {
	out := make(chan Result, 1)
	if timeout <= 0 {
		timeout = a.timeout
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		out <- Result{Err: ErrClosed}
		close(out)
		return out, nil
	}
	if prev, ok := a.inflight[requester]; ok {
		prev.cancel(ErrSuperseded)
	}
	ctx, cancel := context.WithCancelCause(a.base)
	a.seq++
	req := &request{seq: a.seq, cancel: cancel}
	a.inflight[requester] = req
	a.wg.Add(1)
	a.mu.Unlock()

	a.metrics.begin()
	go a.run(ctx, requester, req, start, target, timeout, out)
	return out, req
}

func (a *AsyncPlanner) run(ctx context.Context, requester RequesterID, req *request, start, target cp.Vector, timeout time.Duration, out chan<- Result) {
	defer a.wg.Done()

	began := time.Now()
	tctx, cancel := context.WithTimeout(ctx, timeout)
	res := a.search(tctx, start, target)

	// Work that was abandoned is never surfaced, even if it happened to
	// finish.
	if tctx.Err() != nil {
		res = Result{Expanded: res.Expanded, Err: abandonCause(ctx, tctx)}
	}
	cancel()

	a.finish(requester, req)
	a.metrics.observe(res, time.Since(began))
	out <- res
	close(out)
}

func (a *AsyncPlanner) search(ctx context.Context, start, target cp.Vector) Result {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return Result{Err: err}
	}
	defer a.sem.Release(1)

	p := a.planners.Get().(*Planner)
	defer a.planners.Put(p)
	return p.Search(ctx, start, target)
}

func (a *AsyncPlanner) finish(requester RequesterID, req *request) {
	a.mu.Lock()
	if cur, ok := a.inflight[requester]; ok && cur == req {
		delete(a.inflight, requester)
	}
	a.mu.Unlock()
	req.cancel(nil)
}

func (a *AsyncPlanner) cancelRequest(requester RequesterID, req *request, cause error) {
	a.mu.Lock()
	if cur, ok := a.inflight[requester]; ok && cur == req {
		delete(a.inflight, requester)
	}
	a.mu.Unlock()
	req.cancel(cause)
}

func abandonCause(outer, inner context.Context) error {
	if cause := context.Cause(outer); cause != nil {
		return cause
	}
	if errors.Is(inner.Err(), context.DeadlineExceeded) {
		return context.DeadlineExceeded
	}
	return inner.Err()
}
