package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chess3d/internal/server/core"
	"chess3d/internal/server/engine"
	"chess3d/internal/server/game"
	"chess3d/internal/server/processor"
	"chess3d/internal/server/rules"
	"chess3d/internal/server/service"
	"chess3d/internal/server/storage"
)

type testServer struct {
	app  *fiber.App
	proc *processor.Processor
}

// newTestServer builds an app on an in-memory store with no engine, in
// two-player mode unless fen leaves the default
func newTestServer(t *testing.T, fen string, mode core.Mode) *testServer {
	t.Helper()
	logger := zerolog.Nop()

	kv := storage.NewMemoryStore()
	if fen != "" {
		require.NoError(t, kv.Set(game.StorageKey, fen))
	}
	gw := rules.New()
	holder, err := game.NewHolder(kv, gw, logger)
	require.NoError(t, err)

	bridge := engine.NewBridge(nil, logger)
	proc := processor.New(holder, gw, bridge, nil, processor.Config{
		Mode:        mode,
		WaitTimeout: 200 * time.Millisecond,
	}, logger)
	svc := service.New(proc, bridge, nil, logger)
	t.Cleanup(func() { _ = proc.Close() })

	return &testServer{app: NewFiberApp(proc, svc, true), proc: proc}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.app.Test(req, 2000)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decodeGame(t *testing.T, data []byte) core.GameResponse {
	t.Helper()
	var g core.GameResponse
	require.NoError(t, json.Unmarshal(data, &g), string(data))
	return g
}

func decodeError(t *testing.T, data []byte) core.ErrorResponse {
	t.Helper()
	var e core.ErrorResponse
	require.NoError(t, json.Unmarshal(data, &e), string(data))
	return e
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "", core.ModeHuman)

	for _, path := range []string{"/health", "/api/v1/health"} {
		status, data := s.do(t, fiber.MethodGet, path, nil)
		require.Equal(t, fiber.StatusOK, status)

		var body map[string]any
		require.NoError(t, json.Unmarshal(data, &body))
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "disabled", body["storage"])
		assert.Equal(t, "disabled", body["engine"])
	}
}

func TestGetGame(t *testing.T) {
	s := newTestServer(t, "", core.ModeHuman)

	status, data := s.do(t, fiber.MethodGet, "/api/v1/game", nil)
	require.Equal(t, fiber.StatusOK, status)

	g := decodeGame(t, data)
	assert.Equal(t, rules.StartingFEN, g.FEN)
	assert.Equal(t, core.ColorWhite, g.Turn)
	assert.Empty(t, g.History)
	assert.NotEmpty(t, g.GameID)
	assert.Equal(t, core.ModeHuman, g.Mode)
}

func TestMakeMove(t *testing.T) {
	s := newTestServer(t, "", core.ModeHuman)

	status, data := s.do(t, fiber.MethodPost, "/api/v1/game/moves", core.MoveRequest{From: "e2", To: "e4"})
	require.Equal(t, fiber.StatusOK, status, string(data))

	g := decodeGame(t, data)
	assert.Equal(t, core.ColorBlack, g.Turn)
	assert.Equal(t, []string{"e4"}, g.History)
	require.NotNil(t, g.LastMove)
	assert.Equal(t, "e2", g.LastMove.From)
}

func TestMakeMove_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"illegal", core.MoveRequest{From: "e2", To: "e5"}, fiber.StatusBadRequest, core.ErrInvalidMove},
		{"bad square", core.MoveRequest{From: "z9", To: "e4"}, fiber.StatusBadRequest, core.ErrInvalidSquare},
		{"missing field", map[string]string{"from": "e2"}, fiber.StatusBadRequest, core.ErrInvalidRequest},
		{"wrong length", core.MoveRequest{From: "e22", To: "e4"}, fiber.StatusBadRequest, core.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, "", core.ModeHuman)
			status, data := s.do(t, fiber.MethodPost, "/api/v1/game/moves", tt.body)
			assert.Equal(t, tt.status, status, string(data))
			assert.Equal(t, tt.code, decodeError(t, data).Code)
		})
	}
}

func TestContentType(t *testing.T) {
	s := newTestServer(t, "", core.ModeHuman)

	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/game/moves", bytes.NewBufferString("from=e2&to=e4"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := s.app.Test(req, 2000)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestPromotion(t *testing.T) {
	s := newTestServer(t, "4k3/P7/8/8/8/8/8/4K3 w - - 0 1", core.ModeHuman)

	status, data := s.do(t, fiber.MethodPost, "/api/v1/game/moves", core.MoveRequest{From: "a7", To: "a8"})
	require.Equal(t, fiber.StatusAccepted, status, string(data))
	g := decodeGame(t, data)
	require.NotNil(t, g.PromotionPending)
	assert.Equal(t, "a8", g.PromotionPending.To)
	assert.Len(t, g.PromotionChoices, 4)

	// Another move waits for the choice
	status, data = s.do(t, fiber.MethodPost, "/api/v1/game/moves", core.MoveRequest{From: "e1", To: "e2"})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, core.ErrPromotionPending, decodeError(t, data).Code)

	status, data = s.do(t, fiber.MethodPost, "/api/v1/game/promotion", core.PromotionRequest{Piece: "q"})
	require.Equal(t, fiber.StatusOK, status, string(data))
	g = decodeGame(t, data)
	assert.Nil(t, g.PromotionPending)
	assert.True(t, strings.HasPrefix(g.FEN, "Q3k3/8/8/8/8/8/8/4K3 b"), g.FEN)
	assert.Equal(t, "a8=Q+", g.History[0])
}

func TestPromotion_Cancel(t *testing.T) {
	s := newTestServer(t, "4k3/P7/8/8/8/8/8/4K3 w - - 0 1", core.ModeHuman)

	status, _ := s.do(t, fiber.MethodDelete, "/api/v1/game/promotion", nil)
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = s.do(t, fiber.MethodPost, "/api/v1/game/moves", core.MoveRequest{From: "a7", To: "a8"})
	require.Equal(t, fiber.StatusAccepted, status)

	status, data := s.do(t, fiber.MethodDelete, "/api/v1/game/promotion", nil)
	require.Equal(t, fiber.StatusOK, status, string(data))
	g := decodeGame(t, data)
	assert.Nil(t, g.PromotionPending)
	assert.Empty(t, g.History)

	status, data = s.do(t, fiber.MethodPost, "/api/v1/game/promotion", core.PromotionRequest{Piece: "k"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, core.ErrInvalidRequest, decodeError(t, data).Code)
}

func TestSettings(t *testing.T) {
	s := newTestServer(t, "", core.ModeHuman)

	d := core.Difficulty(4)
	status, data := s.do(t, fiber.MethodPut, "/api/v1/game/settings", core.SettingsRequest{Mode: core.ModeHuman, Difficulty: &d})
	require.Equal(t, fiber.StatusOK, status, string(data))
	assert.Equal(t, core.Difficulty(4), decodeGame(t, data).Difficulty)

	bad := core.Difficulty(9)
	status, _ = s.do(t, fiber.MethodPut, "/api/v1/game/settings", core.SettingsRequest{Difficulty: &bad})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = s.do(t, fiber.MethodPost, "/api/v1/game/moves", core.MoveRequest{From: "e2", To: "e4"})
	require.Equal(t, fiber.StatusOK, status)

	status, data = s.do(t, fiber.MethodPut, "/api/v1/game/settings", core.SettingsRequest{Mode: core.ModeComputer})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, core.ErrSettingsLocked, decodeError(t, data).Code)
}

func TestReset(t *testing.T) {
	s := newTestServer(t, "", core.ModeHuman)

	_, data := s.do(t, fiber.MethodGet, "/api/v1/game", nil)
	before := decodeGame(t, data).GameID

	status, _ := s.do(t, fiber.MethodPost, "/api/v1/game/moves", core.MoveRequest{From: "g1", To: "f3"})
	require.Equal(t, fiber.StatusOK, status)

	status, data = s.do(t, fiber.MethodPost, "/api/v1/game/reset", nil)
	require.Equal(t, fiber.StatusOK, status, string(data))
	g := decodeGame(t, data)
	assert.NotEqual(t, before, g.GameID)
	assert.Equal(t, rules.StartingFEN, g.FEN)
	assert.Empty(t, g.History)
}

func TestTargetsBoardScene(t *testing.T) {
	s := newTestServer(t, "", core.ModeHuman)

	status, data := s.do(t, fiber.MethodGet, "/api/v1/game/targets/g1", nil)
	require.Equal(t, fiber.StatusOK, status)
	var targets core.TargetsResponse
	require.NoError(t, json.Unmarshal(data, &targets))
	assert.ElementsMatch(t, []string{"f3", "h3"}, targets.Targets)

	status, _ = s.do(t, fiber.MethodGet, "/api/v1/game/targets/x0", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, data = s.do(t, fiber.MethodGet, "/api/v1/game/board", nil)
	require.Equal(t, fiber.StatusOK, status)
	var board core.BoardResponse
	require.NoError(t, json.Unmarshal(data, &board))
	assert.Len(t, board.Squares, 8)
	assert.Contains(t, board.Board, "r n b q k b n r")

	status, data = s.do(t, fiber.MethodGet, "/api/v1/game/scene", nil)
	require.Equal(t, fiber.StatusOK, status)
	var scene core.SceneResponse
	require.NoError(t, json.Unmarshal(data, &scene))
	assert.Len(t, scene.Pieces, 32)
}

func TestGetGame_LongPoll(t *testing.T) {
	s := newTestServer(t, "", core.ModeHuman)

	// A stale count answers at once
	start := time.Now()
	status, _ := s.do(t, fiber.MethodGet, "/api/v1/game?wait=true&moveCount=5", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Less(t, time.Since(start), 150*time.Millisecond)

	// An up to date client is released by the next move
	go func() {
		time.Sleep(50 * time.Millisecond)
		s.proc.Execute(processor.NewMakeMoveCommand(core.MoveRequest{From: "d2", To: "d4"}))
	}()
	status, data := s.do(t, fiber.MethodGet, "/api/v1/game?wait=true&moveCount=0", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []string{"d4"}, decodeGame(t, data).History)

	// With no change the wait times out and returns the same game
	status, data = s.do(t, fiber.MethodGet, "/api/v1/game?wait=true&moveCount=1", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decodeGame(t, data).History, 1)
}
