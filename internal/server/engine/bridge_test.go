package engine

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chess3d/internal/server/core"
)

type fakeChannel struct {
	mu      sync.Mutex
	sent    []string
	handler func(string)
	failOn  string
	closed  bool
}

func (f *fakeChannel) Send(cmd string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != "" && cmd == f.failOn {
		return errors.New("broken pipe")
	}
	f.sent = append(f.sent, cmd)
	return nil
}

func (f *fakeChannel) OnMessage(fn func(string)) {
	f.mu.Lock()
	f.handler = fn
	f.mu.Unlock()
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeChannel) emit(line string) {
	f.mu.Lock()
	fn := f.handler
	f.mu.Unlock()
	fn(line)
}

func (f *fakeChannel) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func TestNewBridge_Handshake(t *testing.T) {
	ch := &fakeChannel{}
	b := NewBridge(ch, zerolog.Nop())

	assert.Equal(t, []string{"uci", "isready"}, ch.commands())
	assert.True(t, b.Enabled())
	assert.False(t, b.Ready())

	ch.emit("id name Stockfish")
	assert.False(t, b.Ready())
	ch.emit("uciok")
	assert.True(t, b.Ready())
}

func TestRequestMove_SendsSearch(t *testing.T) {
	ch := &fakeChannel{}
	b := NewBridge(ch, zerolog.Nop())
	fen := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"

	require.NoError(t, b.RequestMove(fen, 3))
	assert.True(t, b.Thinking())

	want := []string{"uci", "isready", "ucinewgame", "position fen " + fen, "go movetime 900"}
	if diff := cmp.Diff(want, ch.commands()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestRequestMove_SendFailureClearsThinking(t *testing.T) {
	ch := &fakeChannel{failOn: "ucinewgame"}
	b := NewBridge(ch, zerolog.Nop())

	require.Error(t, b.RequestMove("8/8/8/8/8/8/8/K6k w - - 0 1", 0))
	assert.False(t, b.Thinking())
}

func TestBestMove_Published(t *testing.T) {
	ch := &fakeChannel{}
	b := NewBridge(ch, zerolog.Nop())
	require.NoError(t, b.RequestMove("4k3/4P3/8/8/8/8/8/4K3 w - - 0 1", 0))

	ch.emit("info depth 10 score cp 900")
	assert.True(t, b.Thinking())
	ch.emit("bestmove e7e8q ponder e8e7")
	assert.False(t, b.Thinking())

	select {
	case <-b.Published():
	case <-time.After(time.Second):
		t.Fatal("no publish notification")
	}

	mv, ok := b.Take()
	require.True(t, ok)
	assert.Equal(t, core.Move{From: "e7", To: "e8", Promotion: "q"}, mv)

	_, ok = b.Take()
	assert.False(t, ok, "a reply is consumed once")
}

func TestBestMove_None(t *testing.T) {
	ch := &fakeChannel{}
	b := NewBridge(ch, zerolog.Nop())
	require.NoError(t, b.RequestMove("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", 1))

	ch.emit("bestmove (none)")
	assert.False(t, b.Thinking())

	_, ok := b.Take()
	assert.False(t, ok)
	select {
	case <-b.Published():
		t.Fatal("unexpected publish")
	default:
	}
}

func TestRequestMove_DropsStaleReply(t *testing.T) {
	ch := &fakeChannel{}
	b := NewBridge(ch, zerolog.Nop())

	ch.emit("bestmove e2e4")
	require.NoError(t, b.RequestMove("8/8/8/8/8/8/8/K6k w - - 0 1", 0))

	_, ok := b.Take()
	assert.False(t, ok)
}

func TestDisabledBridge(t *testing.T) {
	b := NewBridge(nil, zerolog.Nop())

	assert.False(t, b.Enabled())
	require.NoError(t, b.RequestMove("8/8/8/8/8/8/8/K6k w - - 0 1", 5))
	assert.False(t, b.Thinking())
	assert.False(t, b.Ready())
	require.NoError(t, b.Close())
}

func TestClose(t *testing.T) {
	ch := &fakeChannel{}
	b := NewBridge(ch, zerolog.Nop())
	require.NoError(t, b.Close())
	assert.True(t, ch.closed)
}

func TestParseBestMove(t *testing.T) {
	tests := []struct {
		line string
		want core.Move
		ok   bool
	}{
		{"bestmove e2e4", core.Move{From: "e2", To: "e4"}, true},
		{"bestmove e7e8q", core.Move{From: "e7", To: "e8", Promotion: "q"}, true},
		{"bestmove a2a1n ponder b1a1", core.Move{From: "a2", To: "a1", Promotion: "n"}, true},
		{"bestmove (none)", core.Move{}, false},
		{"bestmove", core.Move{}, false},
		{"bestmove e2", core.Move{}, false},
		{"bestmove e7e8k", core.Move{}, false},
		{"bestmove i2i4", core.Move{}, false},
		{"info depth 1 pv e2e4", core.Move{}, false},
		{"", core.Move{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := ParseBestMove(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMoveTime(t *testing.T) {
	assert.Equal(t, 300*time.Millisecond, MoveTime(0))
	assert.Equal(t, 700*time.Millisecond, MoveTime(2))
	assert.Equal(t, 1300*time.Millisecond, MoveTime(5))
	assert.Equal(t, 1300*time.Millisecond, MoveTime(9))
	assert.Equal(t, 300*time.Millisecond, MoveTime(-1))
}

func TestMailbox(t *testing.T) {
	var m Mailbox[int]
	_, ok := m.Take()
	assert.False(t, ok)

	m.Put(1)
	m.Put(2)
	v, ok := m.Take()
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	m.Put(3)
	m.Clear()
	_, ok = m.Take()
	assert.False(t, ok)
}

func TestBestMove_SupersededSearchIgnored(t *testing.T) {
	ch := &fakeChannel{}
	b := NewBridge(ch, zerolog.Nop())

	require.NoError(t, b.RequestMove("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", 0))
	require.NoError(t, b.RequestMove("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1", 0))

	ch.emit("bestmove d2d4")
	assert.True(t, b.Thinking(), "second search still running")
	_, ok := b.Take()
	assert.False(t, ok)

	ch.emit("bestmove e7e5")
	assert.False(t, b.Thinking())
	mv, ok := b.Take()
	require.True(t, ok)
	assert.Equal(t, core.Move{From: "e7", To: "e5"}, mv)
}
