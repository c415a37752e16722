// Package stream provides a minimal latest-value-wins observable.
//
// A Value holds the most recent snapshot of some state and replays it to
// every new subscriber before delivering further updates. Cancellation is
// explicit: Subscribe returns a cancel func, and a cancelled subscriber
// never sees another update.
package stream

import "sync"

// Value is a behavior-subject style observable holding a current value.
type Value[T any] struct {
	mu      sync.Mutex
	current T
	subs    map[int]func(T)
	nextID  int
}

// New creates a Value seeded with the given initial snapshot.
func New[T any](initial T) *Value[T] {
	return &Value[T]{
		current: initial,
		subs:    make(map[int]func(T)),
	}
}

// Get returns the current snapshot.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Set stores a new snapshot and delivers it to all subscribers.
func (v *Value[T]) Set(next T) {
	v.mu.Lock()
	v.current = next
	subs := make([]func(T), 0, len(v.subs))
	for _, fn := range v.subs {
		subs = append(subs, fn)
	}
	v.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}

// SetIfChanged stores and publishes next only when eq reports it differs
// from the current snapshot. Returns true if a publish happened.
func (v *Value[T]) SetIfChanged(next T, eq func(a, b T) bool) bool {
	v.mu.Lock()
	if eq(v.current, next) {
		v.mu.Unlock()
		return false
	}
	v.mu.Unlock()
	v.Set(next)
	return true
}

// Subscribe registers fn and immediately invokes it with the current
// snapshot. The returned cancel func removes the subscription; calling it
// more than once is harmless.
func (v *Value[T]) Subscribe(fn func(T)) (cancel func()) {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.subs[id] = fn
	current := v.current
	v.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.subs, id)
			v.mu.Unlock()
		})
	}
}

// SubscriberCount returns the number of live subscriptions.
func (v *Value[T]) SubscriberCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.subs)
}
