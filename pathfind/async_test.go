package pathfind

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/prometheus/client_golang/prometheus"
)

func recv(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for search result")
	}
	return Result{}
}

// holdWorkers occupies every worker slot so submitted searches queue up.
func holdWorkers(t *testing.T, a *AsyncPlanner, n int64) func() {
	t.Helper()
	if err := a.sem.Acquire(context.Background(), n); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	return func() { a.sem.Release(n) }
}

func TestAsyncMatchesSynchronousSearch(t *testing.T) {
	g := mustGrid(t, 20, 1, circleQuery(cp.Vector{X: 10, Y: 10}, 3))
	a := NewAsyncPlanner(g, AsyncOptions{Workers: 2})
	defer a.Close()

	start, target := cp.Vector{X: 2.5, Y: 10.5}, cp.Vector{X: 18.5, Y: 10.5}
	want := NewPlanner(g).FindPath(start, target)

	res := recv(t, a.Submit(1, start, target, time.Second))
	if res.Err != nil {
		t.Fatalf("err %v", res.Err)
	}
	if !reflect.DeepEqual(res.Waypoints, want) {
		t.Fatalf("async path differs from sync path")
	}

	got := a.FindPath(context.Background(), 2, start, target, time.Second)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("blocking path differs from sync path")
	}
	if a.Pending() != 0 {
		t.Fatalf("pending %d after completion", a.Pending())
	}
}

func TestAsyncSupersedesPerRequester(t *testing.T) {
	g := mustGrid(t, 20, 1, freeQuery())
	a := NewAsyncPlanner(g, AsyncOptions{Workers: 1})
	defer a.Close()

	release := holdWorkers(t, a, 1)
	first := a.Submit(7, cp.Vector{X: 0, Y: 0}, cp.Vector{X: 5, Y: 5}, time.Second)
	other := a.Submit(8, cp.Vector{X: 0, Y: 0}, cp.Vector{X: 3, Y: 0}, time.Second)
	second := a.Submit(7, cp.Vector{X: 0, Y: 0}, cp.Vector{X: 9, Y: 9}, time.Second)

	res := recv(t, first)
	if res.Found() || !errors.Is(res.Err, ErrSuperseded) {
		t.Fatalf("first search: %d waypoints, err %v", len(res.Waypoints), res.Err)
	}
	release()

	res = recv(t, second)
	if len(res.Waypoints) != 9 {
		t.Fatalf("second search: %d waypoints, err %v", len(res.Waypoints), res.Err)
	}
	if res = recv(t, other); len(res.Waypoints) != 3 {
		t.Fatalf("other requester affected: %d waypoints, err %v", len(res.Waypoints), res.Err)
	}
}

func TestAsyncTimeoutReportsNoPath(t *testing.T) {
	g := mustGrid(t, 20, 1, freeQuery())
	a := NewAsyncPlanner(g, AsyncOptions{Workers: 1})
	defer a.Close()

	release := holdWorkers(t, a, 1)
	defer release()

	res := recv(t, a.Submit(1, cp.Vector{X: 0, Y: 0}, cp.Vector{X: 9, Y: 9}, 20*time.Millisecond))
	if res.Found() || !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Fatalf("got %d waypoints, err %v", len(res.Waypoints), res.Err)
	}
	if Outcome(res) != OutcomeTimeout {
		t.Fatalf("outcome %q", Outcome(res))
	}
}

func TestAsyncCancelAndClose(t *testing.T) {
	g := mustGrid(t, 20, 1, freeQuery())
	a := NewAsyncPlanner(g, AsyncOptions{Workers: 1})

	release := holdWorkers(t, a, 1)
	defer release()

	cancelled := a.Submit(1, cp.Vector{X: 0, Y: 0}, cp.Vector{X: 9, Y: 9}, time.Second)
	a.Cancel(1)
	if res := recv(t, cancelled); !errors.Is(res.Err, ErrCancelled) {
		t.Fatalf("cancelled search err %v", res.Err)
	}

	pending := a.Submit(2, cp.Vector{X: 0, Y: 0}, cp.Vector{X: 9, Y: 9}, time.Second)
	a.Close()
	if res := recv(t, pending); !errors.Is(res.Err, ErrClosed) {
		t.Fatalf("pending search err %v", res.Err)
	}

	if res := recv(t, a.Submit(3, cp.Vector{}, cp.Vector{X: 1, Y: 1}, time.Second)); !errors.Is(res.Err, ErrClosed) {
		t.Fatalf("submit after close err %v", res.Err)
	}
	a.Close()
}

func TestAsyncFindPathContextCancel(t *testing.T) {
	g := mustGrid(t, 20, 1, freeQuery())
	a := NewAsyncPlanner(g, AsyncOptions{Workers: 1})
	defer a.Close()

	release := holdWorkers(t, a, 1)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if got := a.FindPath(ctx, 1, cp.Vector{}, cp.Vector{X: 9, Y: 9}, time.Second); len(got) != 0 {
		t.Fatalf("expected empty path, got %d waypoints", len(got))
	}
}

func TestMetricsCountOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	g := mustGrid(t, 9, 1, freeQuery())
	a := NewAsyncPlanner(g, AsyncOptions{Workers: 1, Metrics: m})
	defer a.Close()

	recv(t, a.Submit(1, cp.Vector{}, cp.Vector{X: 3, Y: 4}, time.Second))
	recv(t, a.Submit(1, cp.Vector{}, cp.Vector{X: 30, Y: 4}, time.Second))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "tugnav_pathfind_searches_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == "outcome" {
					counts[lp.GetValue()] = metric.GetCounter().GetValue()
				}
			}
		}
	}
	if counts[OutcomeFound] != 1 || counts[OutcomeOutOfBounds] != 1 {
		t.Fatalf("outcome counts %v", counts)
	}
}
