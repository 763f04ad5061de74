package processor

import (
	"fmt"
	"time"

	"chess3d/internal/server/core"
)

// DefaultEngineDelay is the pause between a human move and the engine
// request, so the move animation is seen before the computer replies
const DefaultEngineDelay = 500 * time.Millisecond

// turnKey identifies one turn of one game
func turnKey(st core.GameState) string {
	return fmt.Sprintf("%s:%d", st.GameID, len(st.History))
}

// computerToMoveLocked reports whether st is waiting on the engine
func (p *Processor) computerToMoveLocked(st core.GameState) bool {
	return p.mode == core.ModeComputer && st.Turn == p.cfg.ComputerColor && !st.GameOver
}

// scheduleLocked brings the delayed engine request in line with st: it
// cancels a request scheduled for any other turn and schedules one for st
// if the computer is to move and this turn has not been requested yet.
func (p *Processor) scheduleLocked(st core.GameState) {
	key := turnKey(st)
	want := p.computerToMoveLocked(st) && p.requestedKey != key

	if p.timer != nil && (!want || p.scheduledKey != key) {
		p.timer.Stop()
		p.timer = nil
		p.scheduledKey = ""
	}
	if !want || p.timer != nil {
		return
	}

	p.scheduledKey = key
	p.timer = time.AfterFunc(p.cfg.EngineDelay, func() {
		p.fire(key)
	})
	p.log.Debug().Str("turn", key).Dur("delay", p.cfg.EngineDelay).Msg("engine request scheduled")
}

// fire sends the engine request for the turn key, unless the game has
// moved on since it was scheduled
func (p *Processor) fire(key string) {
	p.mu.Lock()
	st := p.holder.Current()
	if p.scheduledKey != key || turnKey(st) != key || !p.computerToMoveLocked(st) {
		p.mu.Unlock()
		return
	}
	p.timer = nil
	p.scheduledKey = ""
	p.requestedKey = key
	p.requests++
	difficulty := p.difficulty
	p.mu.Unlock()

	if err := p.bridge.RequestMove(st.FEN, difficulty); err != nil {
		p.log.Error().Err(err).Str("turn", key).Msg("engine request failed")
	}
}

// stopTimerLocked cancels any scheduled engine request
func (p *Processor) stopTimerLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.scheduledKey = ""
}
