package processor

import (
	"chess3d/internal/server/core"
)

// CommandType defines the type of command being executed
type CommandType int

const (
	CmdGetGame CommandType = iota
	CmdMakeMove
	CmdPromote
	CmdCancelPromotion
	CmdReset
	CmdConfigure
	CmdGetTargets
	CmdGetBoard
	CmdGetScene
)

// Command is a unified structure for all processor operations
type Command struct {
	Type CommandType
	Args any // Command-specific arguments
}

// ProcessorResponse wraps the response with metadata
type ProcessorResponse struct {
	Success bool                `json:"success"`
	Pending bool                `json:"pending,omitempty"` // promotion choice outstanding
	Data    any                 `json:"data,omitempty"`
	Error   *core.ErrorResponse `json:"error,omitempty"`
}

func NewGetGameCommand() Command {
	return Command{Type: CmdGetGame}
}

func NewMakeMoveCommand(req core.MoveRequest) Command {
	return Command{
		Type: CmdMakeMove,
		Args: req,
	}
}

func NewPromoteCommand(req core.PromotionRequest) Command {
	return Command{
		Type: CmdPromote,
		Args: req,
	}
}

func NewCancelPromotionCommand() Command {
	return Command{Type: CmdCancelPromotion}
}

func NewResetCommand() Command {
	return Command{Type: CmdReset}
}

func NewConfigureCommand(req core.SettingsRequest) Command {
	return Command{
		Type: CmdConfigure,
		Args: req,
	}
}

func NewGetTargetsCommand(square string) Command {
	return Command{
		Type: CmdGetTargets,
		Args: square,
	}
}

func NewGetBoardCommand() Command {
	return Command{Type: CmdGetBoard}
}

func NewGetSceneCommand() Command {
	return Command{Type: CmdGetScene}
}
