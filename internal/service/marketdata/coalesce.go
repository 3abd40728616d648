package marketdata

import (
	"context"
	"sync"
)

type call struct {
	done chan struct{}
	val  any
	err  error
}

// Group coalesces concurrent refreshes of the same key into a single
// upstream fetch. The first caller for a key becomes the leader and
// runs fn; callers arriving while it runs join and receive the same
// result.
type Group struct {
	mu    sync.Mutex
	calls map[Key]*call
}

func NewGroup() *Group {
	return &Group{calls: make(map[Key]*call)}
}

// Do returns fn's result for key, running fn at most once across all
// concurrent callers. joined reports whether this caller attached to a
// fetch already in flight.
//
// A caller whose ctx is cancelled detaches and gets ctx.Err(); the
// fetch itself keeps running so the remaining waiters still get a
// result. A request arriving after the fetch completes starts a new one.
func (g *Group) Do(ctx context.Context, key Key, fn func(ctx context.Context) (any, error)) (val any, joined bool, err error) {
	g.mu.Lock()
	if c, ok := g.calls[key]; ok {
		g.mu.Unlock()
		return wait(ctx, c, true)
	}

	c := &call{done: make(chan struct{})}
	g.calls[key] = c
	g.mu.Unlock()

	go func() {
		// The fetch must survive the leader's cancellation just like
		// any other caller's.
		c.val, c.err = fn(context.WithoutCancel(ctx))

		g.mu.Lock()
		delete(g.calls, key)
		g.mu.Unlock()

		close(c.done)
	}()

	return wait(ctx, c, false)
}

func wait(ctx context.Context, c *call, joined bool) (any, bool, error) {
	select {
	case <-c.done:
		return c.val, joined, c.err
	case <-ctx.Done():
		return nil, joined, ctx.Err()
	}
}
