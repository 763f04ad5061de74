package engine

import "sync"

// Mailbox holds at most one value. Put overwrites, Take empties.
type Mailbox[T any] struct {
	mu   sync.Mutex
	val  T
	full bool
}

func (m *Mailbox[T]) Put(v T) {
	m.mu.Lock()
	m.val, m.full = v, true
	m.mu.Unlock()
}

// Take returns the held value and empties the mailbox. Concurrent callers
// never receive the same value twice.
func (m *Mailbox[T]) Take() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	if !m.full {
		return zero, false
	}
	v := m.val
	m.val, m.full = zero, false
	return v, true
}

func (m *Mailbox[T]) Clear() {
	m.Take()
}
