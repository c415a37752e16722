package chat

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openclack/clack/internal/stream"
)

// DefaultReopenDelay is how long a close transition gets to visually
// complete before the panel reopens on a different thread. Tunable; not
// correctness-critical.
const DefaultReopenDelay = 300 * time.Millisecond

// ThreadState is the thread panel state. Empty ids mean "none". Previous
// only exists to support the fast re-open path: reopening the thread you
// just closed skips the close animation.
type ThreadState struct {
	Visible  bool
	Current  string
	Previous string
}

// ThreadCoordinator owns which thread is open, independent of the
// conversation selector. Switching threads while one is open forces a
// close/reopen cycle so the panel re-renders cleanly instead of mutating
// content underneath itself.
type ThreadCoordinator struct {
	mu      sync.Mutex
	state   *stream.Value[ThreadState]
	pending *time.Timer
	log     *zap.SugaredLogger

	// ReopenDelay is the close-to-reopen gap for thread switches.
	ReopenDelay time.Duration
}

// NewThreadCoordinator creates a coordinator in the closed state.
func NewThreadCoordinator(log *zap.SugaredLogger) *ThreadCoordinator {
	return &ThreadCoordinator{
		state:       stream.New(ThreadState{}),
		log:         log,
		ReopenDelay: DefaultReopenDelay,
	}
}

// State returns the live thread state stream.
func (t *ThreadCoordinator) State() *stream.Value[ThreadState] { return t.state }

// Open opens the thread panel on the given message id.
func (t *ThreadCoordinator) Open(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancelPending()
	st := t.state.Get()

	switch {
	case !st.Visible && id == st.Previous && id != "":
		// Fast re-open: the thread that was just closed comes straight back.
		st.Current = id
		st.Visible = true
		t.state.Set(st)

	case st.Visible && st.Current != id:
		// Switching threads while open: close now, reopen after the delay.
		// A rapid follow-up Open or Close cancels the stale reopen.
		closed := applyClose(st)
		t.state.Set(closed)
		var timer *time.Timer
		timer = time.AfterFunc(t.ReopenDelay, func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if t.pending != timer {
				// Cancelled or replaced between firing and acquiring the
				// lock; only the live timer may apply its reopen.
				return
			}
			t.pending = nil
			next := t.state.Get()
			next.Current = id
			next.Visible = true
			t.state.Set(next)
		})
		t.pending = timer

	default:
		st.Current = id
		st.Visible = true
		t.state.Set(st)
	}
}

// Close closes the thread panel. Whenever visibility transitions to false
// the outgoing thread id moves to Previous.
func (t *ThreadCoordinator) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancelPending()
	st := t.state.Get()
	if !st.Visible {
		return
	}
	t.state.Set(applyClose(st))
}

// Stop cancels any pending reopen. Call on teardown.
func (t *ThreadCoordinator) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelPending()
}

func (t *ThreadCoordinator) cancelPending() {
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}

func applyClose(st ThreadState) ThreadState {
	st.Previous = st.Current
	st.Current = ""
	st.Visible = false
	return st
}
