package chat

import (
	"context"
	"sync"
)

// Request is the handle of one in-flight completion: a unique,
// monotonically increasing ID plus the means to cancel it.
type Request struct {
	ID     uint64
	cancel context.CancelFunc
}

// Tracker owns the single in-flight request. Results are matched against
// the active ID so late arrivals from superseded requests can be dropped.
type Tracker struct {
	mu     sync.Mutex
	seq    uint64
	active uint64
	cancel context.CancelFunc
}

// Bind makes cancel the current handle under a fresh ID. Any previous
// handle is replaced without being invoked.
func (t *Tracker) Bind(cancel context.CancelFunc) Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	t.active = t.seq
	t.cancel = cancel
	return Request{ID: t.seq, cancel: cancel}
}

// Begin derives a cancellable context from ctx and binds its cancel func.
func (t *Tracker) Begin(ctx context.Context) (context.Context, Request) {
	ctx, cancel := context.WithCancel(ctx)
	return ctx, t.Bind(cancel)
}

// Cancel invokes the current handle, if any, and forgets it. The request
// stays active, so its cancellation result is still delivered. Calling
// Cancel again is a no-op. It reports whether a handle was invoked.
func (t *Tracker) Cancel() bool {
	t.mu.Lock()
	cancel := t.cancel
	t.cancel = nil
	t.mu.Unlock()

	if cancel == nil {
		return false
	}
	cancel()
	return true
}

// Invalidate retires the active ID without cancelling anything. Results
// tagged with an earlier ID are stale from here on.
func (t *Tracker) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	t.active = t.seq
}

// Current reports whether id belongs to the active request.
func (t *Tracker) Current(id uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return id != 0 && id == t.active
}

// Release drops the handle of a finished request and frees its context.
// It does nothing when id is no longer active.
func (t *Tracker) Release(req Request) {
	t.mu.Lock()
	if req.ID == t.active {
		t.cancel = nil
	}
	t.mu.Unlock()

	if req.cancel != nil {
		req.cancel()
	}
}
