// Package game holds the authoritative game state and keeps the saved
// position in sync with it.
package game

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chess3d/internal/server/core"
	"chess3d/internal/server/rules"
)

// StorageKey is the key the current position is saved under
const StorageKey = "3d-chess-game-state"

// KV is durable client-local storage. Implementations need not be
// transactional; the holder treats every call as best-effort.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// Holder owns the current GameState. The state is replaced as a whole on
// every change and handed out as a copy, so readers never see a partial
// update.
type Holder struct {
	mu    sync.RWMutex
	store KV
	gw    *rules.Gateway
	log   zerolog.Logger
	start core.Position
	state core.GameState
}

// NewHolder restores the saved position from store, or starts a new game
// when nothing usable is saved
func NewHolder(store KV, gw *rules.Gateway, logger zerolog.Logger) (*Holder, error) {
	h := &Holder{
		store: store,
		gw:    gw,
		log:   logger.With().Str("component", "game").Logger(),
	}

	start, err := gw.Describe(rules.StartingFEN)
	if err != nil {
		return nil, fmt.Errorf("failed to load starting position: %w", err)
	}
	h.start = start

	fen := rules.StartingFEN
	saved, ok, err := store.Get(StorageKey)
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to read saved position")
	} else if ok {
		fen = saved
	}

	pos := start
	if ok {
		if pos, err = gw.Describe(fen); err != nil {
			h.log.Warn().Err(err).Str("fen", fen).Msg("discarding unreadable saved position")
			if err = store.Delete(StorageKey); err != nil {
				h.log.Warn().Err(err).Msg("failed to clear saved position")
			}
			pos = start
		} else {
			h.log.Info().Str("fen", pos.FEN).Msg("restored saved position")
		}
	}

	h.state = newState(pos)
	return h, nil
}

// Current returns a snapshot of the game
func (h *Holder) Current() core.GameState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state.Clone()
}

// Reset starts a new game from the initial position and clears the saved
// position
func (h *Holder) Reset() core.GameState {
	h.mu.Lock()
	h.state = newState(h.start)
	snapshot := h.state.Clone()
	h.mu.Unlock()

	if err := h.store.Delete(StorageKey); err != nil {
		h.log.Warn().Err(err).Msg("failed to clear saved position")
	}
	h.log.Info().Str("gameId", snapshot.GameID).Msg("new game")
	return snapshot
}

// Commit replaces the state with the position a gateway result produced
// and appends the move to the history
func (h *Holder) Commit(res *rules.Result) core.GameState {
	h.mu.Lock()
	move := res.Move
	next := core.GameState{
		Position: res.Position,
		GameID:   h.state.GameID,
		LastMove: &move,
		History:  append(append([]string(nil), h.state.History...), move.SAN),
	}
	h.state = next
	snapshot := next.Clone()
	h.mu.Unlock()

	if err := h.store.Set(StorageKey, snapshot.FEN); err != nil {
		h.log.Warn().Err(err).Msg("failed to save position")
	}
	return snapshot
}

func newState(pos core.Position) core.GameState {
	return core.GameState{
		Position: pos,
		GameID:   uuid.New().String(),
		History:  []string{},
	}
}
