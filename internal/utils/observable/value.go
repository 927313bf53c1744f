package observable

import (
	"sort"
	"sync"
)

// Value is a process-wide observable cell. Subscribers are notified synchronously,
// in subscription order, after every Set or Update. Notifications are serialized so
// every subscriber sees values in the order they were written.
//
// A subscriber must not write to the same Value from inside its callback.
type Value[T any] struct {
	mu          sync.RWMutex
	publishMu   sync.Mutex
	value       T
	nextID      uint64
	subscribers map[uint64]func(T)
}

// New creates a Value holding initial.
func New[T any](initial T) *Value[T] {
	return &Value[T]{
		value:       initial,
		subscribers: make(map[uint64]func(T)),
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// Set replaces the value and notifies subscribers.
func (v *Value[T]) Set(next T) {
	v.publishMu.Lock()
	defer v.publishMu.Unlock()

	v.mu.Lock()
	v.value = next
	subs := v.snapshotLocked()
	v.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}

// Update applies fn to the current value atomically, stores and publishes the result.
func (v *Value[T]) Update(fn func(T) T) T {
	v.publishMu.Lock()
	defer v.publishMu.Unlock()

	v.mu.Lock()
	next := fn(v.value)
	v.value = next
	subs := v.snapshotLocked()
	v.mu.Unlock()

	for _, sub := range subs {
		sub(next)
	}
	return next
}

// Subscribe registers fn and returns the function that removes it. Calling the
// returned function more than once is a no-op.
func (v *Value[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.subscribers[id] = fn
	v.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.subscribers, id)
			v.mu.Unlock()
		})
	}
}

// Subscribers reports how many callbacks are registered.
func (v *Value[T]) Subscribers() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.subscribers)
}

func (v *Value[T]) snapshotLocked() []func(T) {
	ids := make([]uint64, 0, len(v.subscribers))
	for id := range v.subscribers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	subs := make([]func(T), 0, len(ids))
	for _, id := range ids {
		subs = append(subs, v.subscribers[id])
	}
	return subs
}
