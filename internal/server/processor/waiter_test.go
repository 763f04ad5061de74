package processor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func received(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	case <-time.After(100 * time.Millisecond):
		return false
	}
}

func TestWaitRegistry_NotifyOnChange(t *testing.T) {
	w := NewWaitRegistry(time.Minute)
	notify, release := w.RegisterWait("g1", 2)
	defer release()
	assert.Equal(t, 1, w.Count())

	w.Notify("g1", 2)
	assert.False(t, received(notify), "same game and move count")

	w.Notify("g1", 3)
	assert.True(t, received(notify))
	assert.Equal(t, 0, w.Count())
}

func TestWaitRegistry_NewGameWakes(t *testing.T) {
	w := NewWaitRegistry(time.Minute)
	notify, release := w.RegisterWait("g1", 0)
	defer release()

	w.Notify("g2", 0)
	assert.True(t, received(notify))
}

func TestWaitRegistry_Timeout(t *testing.T) {
	w := NewWaitRegistry(20 * time.Millisecond)
	notify, release := w.RegisterWait("g1", 0)
	defer release()

	assert.True(t, received(notify))
	assert.Equal(t, 0, w.Count())
}

func TestWaitRegistry_Release(t *testing.T) {
	w := NewWaitRegistry(time.Minute)
	_, release := w.RegisterWait("g1", 0)
	release()
	release()
	assert.Equal(t, 0, w.Count())
}

func TestWaitRegistry_Shutdown(t *testing.T) {
	w := NewWaitRegistry(time.Minute)
	notify, release := w.RegisterWait("g1", 0)
	defer release()

	w.Shutdown()
	_, open := <-notify
	assert.False(t, open)

	late, _ := w.RegisterWait("g1", 0)
	_, open = <-late
	assert.False(t, open)
}
