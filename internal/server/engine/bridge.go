// Package engine talks to an external UCI chess engine and turns its
// replies into moves.
package engine

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"chess3d/internal/server/core"
)

// Bridge drives one engine over a Channel. Each RequestMove moves it from
// idle to thinking; the next bestmove line moves it back and, when it
// names a move, leaves that move in the mailbox for Take.
//
// A Bridge built on a nil Channel is disabled: requests are ignored and
// it never thinks.
type Bridge struct {
	ch  Channel
	log zerolog.Logger

	mu          sync.Mutex
	thinking    bool
	ready       bool
	outstanding int // searches started but not yet answered

	box       Mailbox[core.Move]
	published chan struct{}
}

// NewBridge registers the reply handler on ch and starts the UCI handshake
func NewBridge(ch Channel, logger zerolog.Logger) *Bridge {
	b := &Bridge{
		ch:        ch,
		log:       logger.With().Str("component", "engine").Logger(),
		published: make(chan struct{}, 1),
	}
	if ch == nil {
		b.log.Warn().Msg("no engine available, computer moves disabled")
		return b
	}

	ch.OnMessage(b.handle)
	for _, cmd := range []string{"uci", "isready"} {
		if err := ch.Send(cmd); err != nil {
			b.log.Error().Err(err).Msg("engine handshake failed")
			break
		}
	}
	return b
}

// RequestMove asks the engine for a move in fen, searching for the time
// the difficulty allows. Any reply not yet taken is discarded, as is the
// answer to any search this request supersedes.
func (b *Bridge) RequestMove(fen string, d core.Difficulty) error {
	if b.ch == nil {
		return nil
	}

	b.mu.Lock()
	b.thinking = true
	b.mu.Unlock()
	b.box.Clear()

	for _, cmd := range []string{"ucinewgame", "position fen " + fen} {
		if err := b.ch.Send(cmd); err != nil {
			b.abort()
			return err
		}
	}

	movetime := MoveTime(d).Milliseconds()
	b.mu.Lock()
	b.outstanding++
	b.mu.Unlock()
	if err := b.ch.Send(fmt.Sprintf("go movetime %d", movetime)); err != nil {
		b.mu.Lock()
		b.outstanding--
		b.mu.Unlock()
		b.abort()
		return err
	}

	b.log.Debug().Str("fen", fen).Int64("movetime", movetime).Msg("move requested")
	return nil
}

// abort clears thinking unless an earlier search is still running
func (b *Bridge) abort() {
	b.mu.Lock()
	b.thinking = b.outstanding > 0
	b.mu.Unlock()
}

func (b *Bridge) handle(line string) {
	switch {
	case line == "uciok" || line == "readyok":
		b.mu.Lock()
		first := !b.ready
		b.ready = true
		b.mu.Unlock()
		if first {
			b.log.Info().Msg("engine ready")
		}

	case strings.HasPrefix(line, "bestmove"):
		b.mu.Lock()
		if b.outstanding > 0 {
			b.outstanding--
		}
		stale := b.outstanding > 0
		if !stale {
			b.thinking = false
		}
		b.mu.Unlock()

		if stale {
			b.log.Debug().Str("line", line).Msg("dropping reply to superseded search")
			return
		}

		mv, ok := ParseBestMove(line)
		if !ok {
			b.log.Info().Str("line", line).Msg("engine returned no move")
			return
		}
		b.box.Put(mv)
		b.log.Debug().Str("move", mv.UCI()).Msg("engine replied")
		select {
		case b.published <- struct{}{}:
		default:
		}
	}
}

// Take consumes the published move, if any
func (b *Bridge) Take() (core.Move, bool) {
	return b.box.Take()
}

// Discard drops any published move that has not been taken
func (b *Bridge) Discard() {
	b.box.Clear()
}

// Published signals that a move may be waiting in the mailbox
func (b *Bridge) Published() <-chan struct{} {
	return b.published
}

func (b *Bridge) Thinking() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.thinking
}

// Ready reports whether the engine has answered the handshake
func (b *Bridge) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready
}

func (b *Bridge) Enabled() bool {
	return b.ch != nil
}

// Close terminates the engine
func (b *Bridge) Close() error {
	if b.ch == nil {
		return nil
	}
	return b.ch.Close()
}
