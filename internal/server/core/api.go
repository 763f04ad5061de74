package core

// Request types

type MoveRequest struct {
	From string `json:"from" validate:"required,len=2"`
	To   string `json:"to" validate:"required,len=2"`
}

type PromotionRequest struct {
	Piece string `json:"piece" validate:"required,oneof=q r b n"`
}

type SettingsRequest struct {
	Mode       Mode        `json:"mode,omitempty" validate:"omitempty,oneof=computer human"`
	Difficulty *Difficulty `json:"difficulty,omitempty" validate:"omitempty,min=0,max=5"`
}

// Response types

type GameResponse struct {
	GameState
	Mode             Mode          `json:"mode"`
	Difficulty       Difficulty    `json:"difficulty"`
	ComputerColor    string        `json:"computerColor"`
	Thinking         bool          `json:"thinking"`
	PromotionPending *Move         `json:"promotionPending,omitempty"`
	PromotionChoices []PieceChoice `json:"promotionChoices,omitempty"`
	Status           StatusView    `json:"status"`
	Controls         ControlsView  `json:"controls"`
}

type PieceChoice struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type StatusView struct {
	MoveInfo string `json:"moveInfo"`
	Turn     string `json:"turn"`
	Alert    string `json:"alert,omitempty"`
}

type ModeOption struct {
	Mode     Mode   `json:"mode"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
	Disabled bool   `json:"disabled"`
}

type ControlsView struct {
	WhiteLabel        string       `json:"whiteLabel"`
	BlackLabel        string       `json:"blackLabel"`
	Modes             []ModeOption `json:"modes"`
	Locked            bool         `json:"locked"`
	LockHint          string       `json:"lockHint,omitempty"`
	ShowDifficulty    bool         `json:"showDifficulty"`
	DifficultyEnabled bool         `json:"difficultyEnabled"`
	Difficulty        Difficulty   `json:"difficulty"`
	MinDifficulty     Difficulty   `json:"minDifficulty"`
	MaxDifficulty     Difficulty   `json:"maxDifficulty"`
}

type TargetsResponse struct {
	Square  string   `json:"square"`
	Targets []string `json:"targets"`
}

type SquareInfo struct {
	Square string `json:"square"`
	Piece  string `json:"piece,omitempty"` // "p","n",... empty for no piece
	Color  string `json:"color,omitempty"` // "w" or "b"
	Dark   bool   `json:"dark"`
}

type BoardResponse struct {
	FEN     string         `json:"fen"`
	Board   string         `json:"board"` // ASCII representation
	Squares [][]SquareInfo `json:"squares"`
}

type ScenePiece struct {
	Type        string      `json:"type"`
	Color       string      `json:"color"`
	Square      string      `json:"square"`
	Position    [3]float64  `json:"position"`
	AnimateFrom *[3]float64 `json:"animateFrom,omitempty"`
}

type SceneResponse struct {
	FEN        string       `json:"fen"`
	Pieces     []ScenePiece `json:"pieces"`
	DurationMs int64        `json:"durationMs"`
	Easing     string       `json:"easing"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
