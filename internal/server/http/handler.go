package http

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"chess3d/internal/server/core"
	"chess3d/internal/server/processor"
	"chess3d/internal/server/service"
)

const rateLimitRate = 10 // req/sec

// HTTPHandler handles HTTP requests and routes them to the processor
type HTTPHandler struct {
	proc *processor.Processor
	svc  *service.Service
}

func NewHTTPHandler(proc *processor.Processor, svc *service.Service) *HTTPHandler {
	return &HTTPHandler{proc: proc, svc: svc}
}

func NewFiberApp(proc *processor.Processor, svc *service.Service, devMode bool) *fiber.App {
	h := NewHTTPHandler(proc, svc)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Health check (no rate limit)
	app.Get("/health", h.Health)

	api := app.Group("/api/v1")
	api.Get("/health", h.Health)

	maxReq := rateLimitRate
	if devMode {
		maxReq = rateLimitRate * 2
	}
	api.Use(limiter.New(limiter.Config{
		Max:        maxReq,
		Expiration: 1 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			if xff := c.Get("X-Forwarded-For"); xff != "" {
				if idx := strings.Index(xff, ","); idx != -1 {
					return strings.TrimSpace(xff[:idx])
				}
				return xff
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.ErrRateLimitExceeded,
				Details: fmt.Sprintf("%d requests per second allowed", maxReq),
			})
		},
	}))

	api.Use(contentTypeValidator)
	api.Use(validationMiddleware)

	api.Get("/game", h.GetGame)
	api.Post("/game/moves", h.MakeMove)
	api.Post("/game/promotion", h.Promote)
	api.Delete("/game/promotion", h.CancelPromotion)
	api.Post("/game/reset", h.Reset)
	api.Put("/game/settings", h.Configure)
	api.Get("/game/targets/:square", h.GetTargets)
	api.Get("/game/board", h.GetBoard)
	api.Get("/game/scene", h.GetScene)

	return app
}

// contentTypeValidator ensures POST and PUT requests have application/json
func contentTypeValidator(c *fiber.Ctx) error {
	method := c.Method()
	if method == fiber.MethodPost || method == fiber.MethodPut {
		contentType := c.Get("Content-Type")
		if contentType != "" && !strings.HasPrefix(contentType, fiber.MIMEApplicationJSON) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(core.ErrorResponse{
				Error:   "unsupported media type",
				Code:    core.ErrInvalidContent,
				Details: "Content-Type must be application/json",
			})
		}
	}
	return c.Next()
}

// customErrorHandler provides consistent error responses
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	response := core.ErrorResponse{
		Error: "internal server error",
		Code:  core.ErrInternalError,
	}

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		response.Error = e.Message

		switch code {
		case fiber.StatusNotFound:
			response.Code = core.ErrGameNotFound
		case fiber.StatusBadRequest, fiber.StatusMethodNotAllowed:
			response.Code = core.ErrInvalidRequest
		case fiber.StatusTooManyRequests:
			response.Code = core.ErrRateLimitExceeded
		}
	}

	return c.Status(code).JSON(response)
}

// statusFor maps processor error codes to HTTP status codes
func statusFor(e *core.ErrorResponse) int {
	if e == nil {
		return fiber.StatusInternalServerError
	}
	switch e.Code {
	case core.ErrNotHumanTurn, core.ErrPromotionPending, core.ErrNoPendingPromotion, core.ErrSettingsLocked:
		return fiber.StatusConflict
	case core.ErrGameNotFound:
		return fiber.StatusNotFound
	case core.ErrInternalError:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusBadRequest
	}
}

// respond writes a processor response
func respond(c *fiber.Ctx, resp processor.ProcessorResponse) error {
	if !resp.Success {
		return c.Status(statusFor(resp.Error)).JSON(resp.Error)
	}
	if resp.Pending {
		return c.Status(fiber.StatusAccepted).JSON(resp.Data)
	}
	return c.JSON(resp.Data)
}

// Health check endpoint with storage and engine status
func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"time":    time.Now().Unix(),
		"storage": h.svc.GetStorageHealth(),
		"engine":  h.svc.GetEngineHealth(),
	})
}

// GetGame returns the game. With wait=true it holds the request until the
// game differs from the client's gameId and moveCount, or the wait times out.
func (h *HTTPHandler) GetGame(c *fiber.Ctx) error {
	if c.Query("wait", "false") != "true" {
		return respond(c, h.proc.Execute(processor.NewGetGameCommand()))
	}

	moveCount, err := strconv.Atoi(c.Query("moveCount", "-1"))
	if err != nil {
		moveCount = -1
	}
	currentID, currentCount := h.proc.MoveCount()
	gameID := c.Query("gameId", currentID)

	// Already behind, answer at once
	if gameID != currentID || moveCount != currentCount {
		return respond(c, h.proc.Execute(processor.NewGetGameCommand()))
	}

	notify, release := h.proc.RegisterWait(gameID, moveCount)
	defer release()

	<-notify
	return respond(c, h.proc.Execute(processor.NewGetGameCommand()))
}

// MakeMove submits a human move
func (h *HTTPHandler) MakeMove(c *fiber.Ctx) error {
	req, ok := validatedBody[core.MoveRequest](c)
	if !ok {
		return validationBypass(c)
	}
	return respond(c, h.proc.Execute(processor.NewMakeMoveCommand(req)))
}

// Promote completes a pending promotion
func (h *HTTPHandler) Promote(c *fiber.Ctx) error {
	req, ok := validatedBody[core.PromotionRequest](c)
	if !ok {
		return validationBypass(c)
	}
	return respond(c, h.proc.Execute(processor.NewPromoteCommand(req)))
}

// CancelPromotion drops a pending promotion
func (h *HTTPHandler) CancelPromotion(c *fiber.Ctx) error {
	return respond(c, h.proc.Execute(processor.NewCancelPromotionCommand()))
}

// Reset starts a new game
func (h *HTTPHandler) Reset(c *fiber.Ctx) error {
	return respond(c, h.proc.Execute(processor.NewResetCommand()))
}

// Configure changes mode and difficulty
func (h *HTTPHandler) Configure(c *fiber.Ctx) error {
	req, ok := validatedBody[core.SettingsRequest](c)
	if !ok {
		return validationBypass(c)
	}
	return respond(c, h.proc.Execute(processor.NewConfigureCommand(req)))
}

// GetTargets lists the legal destinations of the piece on a square
func (h *HTTPHandler) GetTargets(c *fiber.Ctx) error {
	return respond(c, h.proc.Execute(processor.NewGetTargetsCommand(c.Params("square"))))
}

// GetBoard returns the board as ASCII and as a square grid
func (h *HTTPHandler) GetBoard(c *fiber.Ctx) error {
	return respond(c, h.proc.Execute(processor.NewGetBoardCommand()))
}

// GetScene returns the 3D scene layout
func (h *HTTPHandler) GetScene(c *fiber.Ctx) error {
	return respond(c, h.proc.Execute(processor.NewGetSceneCommand()))
}
