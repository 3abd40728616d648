package marketdata

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGroupCoalescesConcurrentCallers(t *testing.T) {
	g := NewGroup()
	var invocations int32
	release := make(chan struct{})

	const callers = 16
	var wg sync.WaitGroup
	results := make([]any, callers)
	joins := make([]bool, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, joined, err := g.Do(context.Background(), liveKey(), func(context.Context) (any, error) {
				atomic.AddInt32(&invocations, 1)
				<-release
				return "ticks", nil
			})
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
			}
			results[i] = v
			joins[i] = joined
		}(i)
	}

	// Let all callers attach before the fetch completes.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&invocations); got != 1 {
		t.Fatalf("expected a single invocation, got %d", got)
	}
	joinedCount := 0
	for i := 0; i < callers; i++ {
		if results[i] != "ticks" {
			t.Errorf("caller %d result = %v", i, results[i])
		}
		if joins[i] {
			joinedCount++
		}
	}
	if joinedCount != callers-1 {
		t.Errorf("expected %d joiners, got %d", callers-1, joinedCount)
	}
}

func TestGroupSharesFailure(t *testing.T) {
	g := NewGroup()
	boom := errors.New("upstream down")
	release := make(chan struct{})

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = g.Do(context.Background(), summaryKey(), func(context.Context) (any, error) {
				<-release
				return nil, boom
			})
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		if !errors.Is(err, boom) {
			t.Errorf("caller %d: expected shared failure, got %v", i, err)
		}
	}
}

func TestGroupCallerCancellationDetaches(t *testing.T) {
	g := NewGroup()
	release := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, _, err := g.Do(ctx, liveKey(), func(fctx context.Context) (any, error) {
			<-release
			// The fetch context must outlive the caller.
			if fctx.Err() != nil {
				t.Errorf("fetch context cancelled with the caller")
			}
			return "late", nil
		})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	// A second caller still gets the in-flight result.
	got := make(chan any, 1)
	go func() {
		v, _, err := g.Do(context.Background(), liveKey(), func(context.Context) (any, error) {
			return "fresh", nil
		})
		if err != nil {
			t.Errorf("second caller: %v", err)
		}
		got <- v
	}()
	close(release)
	v := <-got
	if v != "late" && v != "fresh" {
		t.Fatalf("unexpected result %v", v)
	}
}

func TestGroupSlotReleasedAfterCompletion(t *testing.T) {
	g := NewGroup()
	var invocations int32
	fn := func(context.Context) (any, error) {
		atomic.AddInt32(&invocations, 1)
		return "v", nil
	}

	if _, _, err := g.Do(context.Background(), liveKey(), fn); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, _, err := g.Do(context.Background(), liveKey(), fn); err != nil {
		t.Fatalf("second: %v", err)
	}
	if got := atomic.LoadInt32(&invocations); got != 2 {
		t.Fatalf("sequential calls must each fetch, got %d invocations", got)
	}
}

func TestGroupIndependentKeys(t *testing.T) {
	g := NewGroup()
	var invocations int32
	release := make(chan struct{})
	fn := func(context.Context) (any, error) {
		atomic.AddInt32(&invocations, 1)
		<-release
		return "v", nil
	}

	var wg sync.WaitGroup
	for _, key := range []Key{liveKey(), summaryKey(), detailKey("NABIL")} {
		wg.Add(1)
		go func(k Key) {
			defer wg.Done()
			_, _, _ = g.Do(context.Background(), k, fn)
		}(key)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&invocations); got != 3 {
		t.Fatalf("distinct keys must not coalesce, got %d invocations", got)
	}
}
