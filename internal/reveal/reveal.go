// Package reveal scrolls a target message into view once it exists in the
// rendered output, with bounded retries and a temporary highlight.
package reveal

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults for the orchestrator's tunables.
const (
	DefaultPollInterval      = 50 * time.Millisecond
	DefaultMaxAttempts       = 40
	DefaultHeaderOffset      = 4
	DefaultHighlightDuration = 1500 * time.Millisecond
	DefaultAutoScrollGrace   = 500 * time.Millisecond
)

// View is the rendered output the orchestrator drives. Implementations
// must tolerate ids that are not (yet) rendered.
type View interface {
	// Has reports whether the message is present inside the container.
	Has(containerID, messageID string) bool
	// ScrollTo scrolls the container so the message sits offset rows below
	// the top edge.
	ScrollTo(containerID, messageID string, offset int)
	// SetHighlight toggles the highlight state of a message.
	SetHighlight(messageID string, on bool)
	// SetAutoScroll toggles follow-the-tail scrolling.
	SetAutoScroll(on bool)
}

// WaitUntil polls predicate every interval until it returns true, the
// attempt budget is exhausted, or ctx is cancelled. The first check is
// immediate. Returns true only on predicate success; the ticker is always
// torn down.
func WaitUntil(ctx context.Context, predicate func() bool, interval time.Duration, maxAttempts int) bool {
	if predicate() {
		return true
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempt := 1; attempt < maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if predicate() {
				return true
			}
		}
	}
	return false
}

// Orchestrator reveals messages in a View. A new Reveal cancels the
// highlight and auto-scroll timers of the previous one so rapid
// navigation never leaves two timers racing.
type Orchestrator struct {
	view View
	log  *zap.SugaredLogger

	PollInterval      time.Duration
	MaxAttempts       int
	HeaderOffset      int
	HighlightDuration time.Duration
	AutoScrollGrace   time.Duration

	mu             sync.Mutex
	highlightTimer *time.Timer
	graceTimer     *time.Timer
	highlighted    string
}

// NewOrchestrator creates an orchestrator with default tunables.
func NewOrchestrator(view View, log *zap.SugaredLogger) *Orchestrator {
	return &Orchestrator{
		view:              view,
		log:               log,
		PollInterval:      DefaultPollInterval,
		MaxAttempts:       DefaultMaxAttempts,
		HeaderOffset:      DefaultHeaderOffset,
		HighlightDuration: DefaultHighlightDuration,
		AutoScrollGrace:   DefaultAutoScrollGrace,
	}
}

// Reveal waits for the message to appear in the container, scrolls to it,
// and highlights it temporarily. Auto-scroll is suspended for the
// duration plus a grace delay. Returns false if the target never rendered
// within the attempt budget; the view is left with auto-scroll re-enabled.
func (o *Orchestrator) Reveal(ctx context.Context, messageID, containerID string) bool {
	o.cancelTimers()
	o.view.SetAutoScroll(false)

	found := WaitUntil(ctx, func() bool {
		return o.view.Has(containerID, messageID)
	}, o.PollInterval, o.MaxAttempts)

	if !found {
		o.log.Warnw("reveal target never rendered",
			"message", messageID, "container", containerID, "attempts", o.MaxAttempts)
		o.view.SetAutoScroll(true)
		return false
	}

	o.view.ScrollTo(containerID, messageID, o.HeaderOffset)
	o.view.SetHighlight(messageID, true)

	o.mu.Lock()
	o.highlighted = messageID
	o.highlightTimer = time.AfterFunc(o.HighlightDuration, func() {
		o.mu.Lock()
		current := o.highlighted
		o.highlighted = ""
		o.mu.Unlock()
		if current != "" {
			o.view.SetHighlight(current, false)
		}
	})
	o.graceTimer = time.AfterFunc(o.HighlightDuration+o.AutoScrollGrace, func() {
		o.view.SetAutoScroll(true)
	})
	o.mu.Unlock()

	return true
}

// Stop cancels outstanding timers and clears any live highlight. Call on
// teardown or before starting a new reveal.
func (o *Orchestrator) Stop() {
	o.cancelTimers()
}

func (o *Orchestrator) cancelTimers() {
	o.mu.Lock()
	if o.highlightTimer != nil {
		o.highlightTimer.Stop()
		o.highlightTimer = nil
	}
	if o.graceTimer != nil {
		o.graceTimer.Stop()
		o.graceTimer = nil
	}
	stale := o.highlighted
	o.highlighted = ""
	o.mu.Unlock()

	if stale != "" {
		o.view.SetHighlight(stale, false)
	}
}
