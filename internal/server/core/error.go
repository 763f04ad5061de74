package core

// Error codes
const (
	ErrGameNotFound       = "GAME_NOT_FOUND"
	ErrInvalidMove        = "INVALID_MOVE"
	ErrNotHumanTurn       = "NOT_HUMAN_TURN"
	ErrPromotionPending   = "PROMOTION_PENDING"
	ErrNoPendingPromotion = "NO_PENDING_PROMOTION"
	ErrSettingsLocked     = "SETTINGS_LOCKED"
	ErrInvalidSquare      = "INVALID_SQUARE"
	ErrRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	ErrInvalidContent     = "INVALID_CONTENT_TYPE"
	ErrInvalidRequest     = "INVALID_REQUEST"
	ErrInternalError      = "INTERNAL_ERROR"
)
