package processor

import (
	"sync"
	"time"
)

const (
	// WaitTimeout is the maximum time a client can wait for notifications
	WaitTimeout = 25 * time.Second

	// WaitChannelBuffer size for notification channels
	WaitChannelBuffer = 1
)

// WaitRegistry manages long-polling clients waiting for the game to change
type WaitRegistry struct {
	mu      sync.Mutex
	waiters []*WaitRequest
	timeout time.Duration
	closed  bool
}

// WaitRequest represents a single client waiting for game updates
type WaitRequest struct {
	GameID    string        // Game the client last saw
	MoveCount int           // Last known move count
	Notify    chan struct{} // Buffered channel for notifications
	Timer     *time.Timer   // Timeout timer
	done      bool
}

// NewWaitRegistry creates a registry whose waits end after timeout
func NewWaitRegistry(timeout time.Duration) *WaitRegistry {
	if timeout <= 0 {
		timeout = WaitTimeout
	}
	return &WaitRegistry{timeout: timeout}
}

// RegisterWait returns a channel that receives once the game is no longer
// gameID at moveCount or the wait times out, and is closed on shutdown.
// The caller must call release when it stops waiting.
func (w *WaitRegistry) RegisterWait(gameID string, moveCount int) (notify <-chan struct{}, release func()) {
	req := &WaitRequest{
		GameID:    gameID,
		MoveCount: moveCount,
		Notify:    make(chan struct{}, WaitChannelBuffer),
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		close(req.Notify)
		return req.Notify, func() {}
	}

	req.Timer = time.AfterFunc(w.timeout, func() {
		w.mu.Lock()
		w.wakeLocked(req)
		w.mu.Unlock()
	})
	w.waiters = append(w.waiters, req)

	return req.Notify, func() {
		w.mu.Lock()
		w.wakeLocked(req)
		w.mu.Unlock()
	}
}

// Notify wakes every waiter that last saw a different game or move count
func (w *WaitRegistry) Notify(gameID string, moveCount int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, req := range append([]*WaitRequest(nil), w.waiters...) {
		if req.GameID != gameID || req.MoveCount != moveCount {
			w.wakeLocked(req)
		}
	}
}

// Count returns the number of clients currently waiting
func (w *WaitRegistry) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.waiters)
}

// Shutdown releases every waiter; later registrations return at once
func (w *WaitRegistry) Shutdown() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.closed = true
	for _, req := range w.waiters {
		req.done = true
		req.Timer.Stop()
		close(req.Notify)
	}
	w.waiters = nil
}

// wakeLocked signals req once and drops it from the registry
func (w *WaitRegistry) wakeLocked(req *WaitRequest) {
	if req.done {
		return
	}
	req.done = true
	req.Timer.Stop()

	for i, waiter := range w.waiters {
		if waiter == req {
			w.waiters = append(w.waiters[:i], w.waiters[i+1:]...)
			break
		}
	}

	select {
	case req.Notify <- struct{}{}:
	default:
	}
}
