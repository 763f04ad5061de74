package game

import (
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chess3d/internal/server/core"
	"chess3d/internal/server/rules"
)

type fakeKV struct {
	mu      sync.Mutex
	data    map[string]string
	failSet bool
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string)}
}

func (f *fakeKV) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeKV) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSet {
		return errors.New("disk full")
	}
	f.data[key] = value
	return nil
}

func (f *fakeKV) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func newHolder(t *testing.T, kv KV) *Holder {
	t.Helper()
	h, err := NewHolder(kv, rules.New(), zerolog.Nop())
	require.NoError(t, err)
	return h
}

func apply(t *testing.T, h *Holder, from, to string) core.GameState {
	t.Helper()
	res, err := rules.New().TryMove(h.Current().FEN, core.Move{From: from, To: to})
	require.NoError(t, err)
	return h.Commit(res)
}

func TestNewHolder_StartsFresh(t *testing.T) {
	kv := newFakeKV()
	h := newHolder(t, kv)

	st := h.Current()
	assert.Equal(t, rules.StartingFEN, st.FEN)
	assert.Equal(t, core.ColorWhite, st.Turn)
	assert.Empty(t, st.History)
	assert.NotEmpty(t, st.GameID)
	assert.False(t, st.Started())

	_, ok, _ := kv.Get(StorageKey)
	assert.False(t, ok, "nothing is saved until a move is made")
}

func TestNewHolder_RestoresSavedPosition(t *testing.T) {
	kv := newFakeKV()
	saved := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"
	require.NoError(t, kv.Set(StorageKey, saved))

	st := newHolder(t, kv).Current()
	assert.Equal(t, saved, st.FEN)
	assert.Equal(t, core.ColorBlack, st.Turn)
	assert.Empty(t, st.History)
	assert.Nil(t, st.LastMove)
}

func TestNewHolder_CorruptSavedPosition(t *testing.T) {
	kv := newFakeKV()
	require.NoError(t, kv.Set(StorageKey, "not a position"))

	st := newHolder(t, kv).Current()
	assert.Equal(t, rules.StartingFEN, st.FEN)

	_, ok, _ := kv.Get(StorageKey)
	assert.False(t, ok)
}

func TestCommit_AppendsAndPersists(t *testing.T) {
	kv := newFakeKV()
	h := newHolder(t, kv)
	id := h.Current().GameID

	st := apply(t, h, "e2", "e4")
	assert.Equal(t, []string{"e4"}, st.History)
	assert.Equal(t, core.ColorBlack, st.Turn)
	assert.Equal(t, id, st.GameID)
	require.NotNil(t, st.LastMove)
	assert.Equal(t, "e2e4", st.LastMove.UCI)

	st = apply(t, h, "e7", "e5")
	assert.Equal(t, []string{"e4", "e5"}, st.History)

	saved, ok, err := kv.Get(StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, st.FEN, saved)
}

func TestCommit_StoreFailureIsNotFatal(t *testing.T) {
	kv := newFakeKV()
	kv.failSet = true
	h := newHolder(t, kv)

	st := apply(t, h, "d2", "d4")
	assert.Len(t, st.History, 1)
	assert.Equal(t, st.FEN, h.Current().FEN)
}

func TestCurrent_ReturnsCopy(t *testing.T) {
	h := newHolder(t, newFakeKV())
	apply(t, h, "e2", "e4")

	st := h.Current()
	st.History[0] = "tampered"
	st.LastMove.SAN = "tampered"

	again := h.Current()
	assert.Equal(t, "e4", again.History[0])
	assert.Equal(t, "e4", again.LastMove.SAN)
}

func TestReset(t *testing.T) {
	kv := newFakeKV()
	h := newHolder(t, kv)
	before := h.Current().GameID
	apply(t, h, "e2", "e4")

	st := h.Reset()
	assert.Equal(t, rules.StartingFEN, st.FEN)
	assert.Empty(t, st.History)
	assert.Nil(t, st.LastMove)
	assert.NotEqual(t, before, st.GameID)

	_, ok, _ := kv.Get(StorageKey)
	assert.False(t, ok)
}
