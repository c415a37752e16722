package ui

import "sync"

// RenderState is the live record of what the view actually rendered last
// frame. The reveal orchestrator polls it from its own goroutine, so it is
// the one piece of UI state behind a lock.
type RenderState struct {
	mu         sync.RWMutex
	rendered   map[string]map[string]bool // container -> message ids
	highlights map[string]bool
	autoScroll bool

	scrollTarget string
	scrollOffset int
	hasTarget    bool
}

// NewRenderState creates an empty render state with auto-scroll on.
func NewRenderState() *RenderState {
	return &RenderState{
		rendered:   map[string]map[string]bool{},
		highlights: map[string]bool{},
		autoScroll: true,
	}
}

// BeginFrame clears the rendered set for a container before a re-render.
func (r *RenderState) BeginFrame(containerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rendered[containerID] = map[string]bool{}
}

// Mark records that a message was rendered inside a container.
func (r *RenderState) Mark(containerID, messageID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.rendered[containerID]
	if ids == nil {
		ids = map[string]bool{}
		r.rendered[containerID] = ids
	}
	ids[messageID] = true
}

// Has reports whether the message was rendered in the container.
func (r *RenderState) Has(containerID, messageID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rendered[containerID][messageID]
}

// ScrollTo records a scroll request for the model to apply on its next
// update.
func (r *RenderState) ScrollTo(_, messageID string, offset int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scrollTarget = messageID
	r.scrollOffset = offset
	r.hasTarget = true
}

// TakeScrollTarget returns and clears the pending scroll request.
func (r *RenderState) TakeScrollTarget() (messageID string, offset int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hasTarget {
		return "", 0, false
	}
	r.hasTarget = false
	return r.scrollTarget, r.scrollOffset, true
}

// SetHighlight toggles a message's highlight state.
func (r *RenderState) SetHighlight(messageID string, on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if on {
		r.highlights[messageID] = true
	} else {
		delete(r.highlights, messageID)
	}
}

// Highlighted reports whether a message is currently highlighted.
func (r *RenderState) Highlighted(messageID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.highlights[messageID]
}

// SetAutoScroll toggles follow-the-tail scrolling.
func (r *RenderState) SetAutoScroll(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.autoScroll = on
}

// AutoScroll reports whether the list should follow new messages.
func (r *RenderState) AutoScroll() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.autoScroll
}
