// Package processor runs the turn loop: it validates human moves, holds
// pending promotions and settings, and drives the engine on the
// computer's turns.
package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chess3d/internal/server/core"
	"chess3d/internal/server/engine"
	"chess3d/internal/server/game"
	"chess3d/internal/server/rules"
	"chess3d/internal/server/storage"
	"chess3d/internal/server/view"
)

// Archive records games and moves for later review. Implementations must
// not block.
type Archive interface {
	RecordNewGame(record storage.GameRecord)
	RecordMove(record storage.MoveRecord)
	RecordResult(gameID, result string)
}

// Config holds the processor settings fixed at startup
type Config struct {
	ComputerColor core.Color
	EngineDelay   time.Duration
	WaitTimeout   time.Duration
	Mode          core.Mode
	Difficulty    core.Difficulty
}

// Processor handles command execution and coordinates the game holder,
// the rules gateway and the engine bridge
type Processor struct {
	holder  *game.Holder
	gw      *rules.Gateway
	bridge  *engine.Bridge
	archive Archive
	waiter  *WaitRegistry
	log     zerolog.Logger
	cfg     Config

	mu           sync.Mutex
	mode         core.Mode
	difficulty   core.Difficulty
	pending      *core.Move
	timer        *time.Timer
	scheduledKey string
	requestedKey string
	requests     int
	archivedGame string
}

// New creates a processor. archive may be nil.
func New(holder *game.Holder, gw *rules.Gateway, bridge *engine.Bridge, archive Archive, cfg Config, logger zerolog.Logger) *Processor {
	if cfg.ComputerColor == 0 {
		cfg.ComputerColor = core.ColorBlack
	}
	if cfg.EngineDelay <= 0 {
		cfg.EngineDelay = DefaultEngineDelay
	}
	if !cfg.Mode.Valid() {
		cfg.Mode = core.ModeComputer
	}
	if !cfg.Difficulty.Valid() {
		cfg.Difficulty = core.DefaultDifficulty
	}

	return &Processor{
		holder:     holder,
		gw:         gw,
		bridge:     bridge,
		archive:    archive,
		waiter:     NewWaitRegistry(cfg.WaitTimeout),
		log:        logger.With().Str("component", "processor").Logger(),
		cfg:        cfg,
		mode:       cfg.Mode,
		difficulty: cfg.Difficulty,
	}
}

func (p *Processor) Execute(cmd Command) ProcessorResponse {
	switch cmd.Type {
	case CmdGetGame:
		return p.handleGetGame()
	case CmdMakeMove:
		return p.handleMakeMove(cmd)
	case CmdPromote:
		return p.handlePromote(cmd)
	case CmdCancelPromotion:
		return p.handleCancelPromotion()
	case CmdReset:
		return p.handleReset()
	case CmdConfigure:
		return p.handleConfigure(cmd)
	case CmdGetTargets:
		return p.handleGetTargets(cmd)
	case CmdGetBoard:
		return p.handleGetBoard()
	case CmdGetScene:
		return p.handleGetScene()
	default:
		return p.errorResponse("unknown command", core.ErrInvalidRequest)
	}
}

// Run applies engine replies until ctx is done. It also schedules the
// engine for a restored position that leaves the computer to move.
func (p *Processor) Run(ctx context.Context) error {
	p.mu.Lock()
	p.scheduleLocked(p.holder.Current())
	p.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			p.stopTimerLocked()
			p.mu.Unlock()
			return ctx.Err()
		case <-p.bridge.Published():
			p.applyEngineMove()
		}
	}
}

// applyEngineMove consumes the published reply and plays it if it still
// answers the current turn
func (p *Processor) applyEngineMove() {
	mv, ok := p.bridge.Take()
	if !ok {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	st := p.holder.Current()
	if !p.computerToMoveLocked(st) || p.requestedKey != turnKey(st) {
		p.log.Debug().Str("move", mv.UCI()).Msg("discarding engine reply for a different turn")
		return
	}

	res, err := p.gw.TryMove(st.FEN, mv)
	if err != nil {
		p.log.Warn().Err(err).Str("move", mv.UCI()).Str("fen", st.FEN).Msg("engine move rejected")
		return
	}
	next := p.commitLocked(st, res)
	p.log.Info().Str("move", res.Move.SAN).Int("ply", len(next.History)).Msg("computer moved")
}

func (p *Processor) handleGetGame() ProcessorResponse {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gameResponseLocked(p.holder.Current())
}

// handleMakeMove processes human moves
func (p *Processor) handleMakeMove(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.MoveRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	mv := core.Move{
		From: strings.ToLower(strings.TrimSpace(args.From)),
		To:   strings.ToLower(strings.TrimSpace(args.To)),
	}
	if !rules.ValidSquare(mv.From) || !rules.ValidSquare(mv.To) {
		return p.errorResponse("invalid square", core.ErrInvalidSquare)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending != nil {
		return p.errorResponse("choose a promotion piece or cancel first", core.ErrPromotionPending)
	}

	st := p.holder.Current()
	if st.GameOver {
		return p.errorResponse("game is over", core.ErrInvalidMove)
	}
	if p.mode == core.ModeComputer && (st.Turn == p.cfg.ComputerColor || p.bridge.Thinking()) {
		return p.errorResponse("not human player's turn", core.ErrNotHumanTurn)
	}

	res, err := p.gw.TryMove(st.FEN, mv)
	if err != nil {
		if errors.Is(err, rules.ErrIllegalMove) && rules.IsBackRank(mv.To) {
			p.pending = &mv
			p.log.Debug().Str("move", mv.UCI()).Msg("promotion choice required")
			resp := p.gameResponseLocked(st)
			resp.Pending = true
			return resp
		}
		return p.errorResponse(fmt.Sprintf("illegal move %s", mv), core.ErrInvalidMove)
	}

	return p.gameResponseLocked(p.commitLocked(st, res))
}

// handlePromote completes the pending move with the chosen piece. The
// pending move is dropped whether or not the promotion is legal.
func (p *Processor) handlePromote(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.PromotionRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}
	piece := strings.ToLower(args.Piece)
	if !rules.IsPromotionPiece(piece) {
		return p.errorResponse("promotion piece must be one of q, r, b, n", core.ErrInvalidRequest)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending == nil {
		return p.errorResponse("no promotion pending", core.ErrNoPendingPromotion)
	}
	mv := *p.pending
	mv.Promotion = piece
	p.pending = nil

	st := p.holder.Current()
	res, err := p.gw.TryMove(st.FEN, mv)
	if err != nil {
		return p.errorResponse(fmt.Sprintf("illegal move %s", mv), core.ErrInvalidMove)
	}

	return p.gameResponseLocked(p.commitLocked(st, res))
}

func (p *Processor) handleCancelPromotion() ProcessorResponse {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending == nil {
		return p.errorResponse("no promotion pending", core.ErrNoPendingPromotion)
	}
	p.pending = nil
	return p.gameResponseLocked(p.holder.Current())
}

// handleReset starts a new game with the current settings
func (p *Processor) handleReset() ProcessorResponse {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopTimerLocked()
	p.pending = nil
	p.requestedKey = ""
	p.bridge.Discard()

	next := p.holder.Reset()
	p.scheduleLocked(next)
	p.waiter.Notify(next.GameID, len(next.History))

	return p.gameResponseLocked(next)
}

// handleConfigure changes mode and difficulty. Both are frozen once the
// game has a move; re-sending the current values is accepted.
func (p *Processor) handleConfigure(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.SettingsRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	mode := args.Mode
	if mode == "" {
		mode = p.mode
	}
	difficulty := p.difficulty
	if args.Difficulty != nil {
		difficulty = *args.Difficulty
	}
	if !mode.Valid() {
		return p.errorResponse(fmt.Sprintf("unknown mode %q", mode), core.ErrInvalidRequest)
	}
	if !difficulty.Valid() {
		return p.errorResponse(
			fmt.Sprintf("difficulty must be between %d and %d", core.MinDifficulty, core.MaxDifficulty),
			core.ErrInvalidRequest)
	}

	st := p.holder.Current()
	if st.Started() && (mode != p.mode || difficulty != p.difficulty) {
		return p.errorResponse("settings are locked once the game has started, reset to change", core.ErrSettingsLocked)
	}

	if mode != p.mode || difficulty != p.difficulty {
		p.log.Info().Str("mode", string(mode)).Int("difficulty", int(difficulty)).Msg("settings changed")
	}
	p.mode = mode
	p.difficulty = difficulty
	p.scheduleLocked(st)

	return p.gameResponseLocked(st)
}

func (p *Processor) handleGetTargets(cmd Command) ProcessorResponse {
	square, _ := cmd.Args.(string)
	square = strings.ToLower(square)
	if !rules.ValidSquare(square) {
		return p.errorResponse(fmt.Sprintf("invalid square %q", square), core.ErrInvalidSquare)
	}

	targets, err := p.gw.LegalTargets(p.holder.Current().FEN, square)
	if err != nil {
		return p.errorResponse(err.Error(), core.ErrInternalError)
	}

	return ProcessorResponse{
		Success: true,
		Data: core.TargetsResponse{
			Square:  square,
			Targets: targets,
		},
	}
}

// handleGetBoard returns the board grid and its ASCII rendering
func (p *Processor) handleGetBoard() ProcessorResponse {
	st := p.holder.Current()
	grid, err := p.gw.Board(st.FEN)
	if err != nil {
		return p.errorResponse("error parsing FEN", core.ErrInternalError)
	}

	return ProcessorResponse{
		Success: true,
		Data:    view.Board(st.FEN, grid),
	}
}

// handleGetScene returns the 3D scene with the last move animated
func (p *Processor) handleGetScene() ProcessorResponse {
	st := p.holder.Current()
	grid, err := p.gw.Board(st.FEN)
	if err != nil {
		return p.errorResponse("error parsing FEN", core.ErrInternalError)
	}

	return ProcessorResponse{
		Success: true,
		Data:    view.BuildScene(st.FEN, grid, st.LastMove),
	}
}

// commitLocked stores an accepted move, archives it, schedules the engine
// if it is now the computer's turn and wakes long-poll waiters
func (p *Processor) commitLocked(prev core.GameState, res *rules.Result) core.GameState {
	next := p.holder.Commit(res)
	p.archiveLocked(prev, next)
	p.scheduleLocked(next)
	p.waiter.Notify(next.GameID, len(next.History))
	return next
}

func (p *Processor) archiveLocked(prev, next core.GameState) {
	if p.archive == nil || next.LastMove == nil {
		return
	}

	now := time.Now().UTC()
	if p.archivedGame != next.GameID {
		p.archive.RecordNewGame(storage.GameRecord{
			GameID:        next.GameID,
			InitialFEN:    prev.FEN,
			Mode:          string(p.mode),
			Difficulty:    int(p.difficulty),
			ComputerColor: p.cfg.ComputerColor.String(),
			StartTimeUTC:  now,
		})
		p.archivedGame = next.GameID
	}

	p.archive.RecordMove(storage.MoveRecord{
		GameID:       next.GameID,
		MoveNumber:   len(next.History),
		MoveUCI:      next.LastMove.UCI,
		MoveSAN:      next.LastMove.SAN,
		FENAfterMove: next.FEN,
		PlayerColor:  next.LastMove.Color.String(),
		MoveTimeUTC:  now,
	})

	if next.GameOver {
		p.archive.RecordResult(next.GameID, Result(next))
	}
}

// Result returns the PGN result of a finished game, or "*"
func Result(st core.GameState) string {
	switch {
	case st.Checkmate && st.Turn == core.ColorBlack:
		return "1-0"
	case st.Checkmate:
		return "0-1"
	case st.Draw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

// gameResponseLocked builds the standard game response
func (p *Processor) gameResponseLocked(st core.GameState) ProcessorResponse {
	// A search left over from computer mode is not shown in two-player games
	thinking := p.mode == core.ModeComputer && p.bridge.Thinking()
	resp := core.GameResponse{
		GameState:     st,
		Mode:          p.mode,
		Difficulty:    p.difficulty,
		ComputerColor: p.cfg.ComputerColor.String(),
		Thinking:      thinking,
		Status:        view.Status(st, thinking),
		Controls:      view.Controls(p.mode, p.difficulty, st.Started()),
	}
	if p.pending != nil {
		pending := *p.pending
		resp.PromotionPending = &pending
		resp.PromotionChoices = view.PromotionChoices()
	}

	return ProcessorResponse{
		Success: true,
		Pending: p.pending != nil,
		Data:    resp,
	}
}

// errorResponse creates error response
func (p *Processor) errorResponse(message, code string) ProcessorResponse {
	return ProcessorResponse{
		Success: false,
		Error: &core.ErrorResponse{
			Error: message,
			Code:  code,
		},
	}
}

// MoveCount returns the game ID and the number of moves played, for
// long-poll clients
func (p *Processor) MoveCount() (gameID string, moves int) {
	st := p.holder.Current()
	return st.GameID, len(st.History)
}

// RegisterWait registers a long-poll client; see WaitRegistry.RegisterWait.
// The client is checked against the current game under the processor lock,
// so one that fell behind before registering is woken at once.
func (p *Processor) RegisterWait(gameID string, moveCount int) (<-chan struct{}, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	notify, release := p.waiter.RegisterWait(gameID, moveCount)
	if st := p.holder.Current(); st.GameID != gameID || len(st.History) != moveCount {
		release()
	}
	return notify, release
}

// EngineStatus reports the engine as "disabled", "starting" or "ready"
func (p *Processor) EngineStatus() string {
	switch {
	case !p.bridge.Enabled():
		return "disabled"
	case p.bridge.Ready():
		return "ready"
	default:
		return "starting"
	}
}

// Requests returns how many engine requests have been sent
func (p *Processor) Requests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests
}

// Close stops scheduling and releases long-poll clients
func (p *Processor) Close() error {
	p.mu.Lock()
	p.stopTimerLocked()
	p.pending = nil
	p.mu.Unlock()

	p.waiter.Shutdown()
	return nil
}
