// Package main implements the chess server: the game API, the engine
// process, and the optional web UI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"chess3d/cmd/chess-server/cli"
	"chess3d/internal/server/config"
	"chess3d/internal/server/engine"
	"chess3d/internal/server/game"
	"chess3d/internal/server/http"
	"chess3d/internal/server/processor"
	"chess3d/internal/server/rules"
	"chess3d/internal/server/service"
	"chess3d/internal/server/storage"
	"chess3d/internal/server/webserver"
)

const (
	gracefulShutdownTimeout = time.Second * 5
)

func main() {
	// Database admin commands
	if len(os.Args) > 1 && os.Args[1] == "db" {
		if err := cli.Run(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "CLI error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := config.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := config.Parse(os.Args[0], os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	logger := config.NewLogger(cfg.LogLevel, os.Stderr)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func run(cfg config.Config, logger zerolog.Logger) error {
	if cfg.PIDPath != "" {
		pid, err := acquirePIDFile(cfg.PIDPath, cfg.PIDLock)
		if err != nil {
			return fmt.Errorf("failed to manage PID file: %w", err)
		}
		defer pid.release()
		logger.Info().Str("path", cfg.PIDPath).Bool("lock", cfg.PIDLock).Msg("PID file created")
	}

	// 1. Storage: SQLite by default, memory when the path is explicitly empty
	var (
		store   *storage.Store
		kv      game.KV
		archive processor.Archive
	)
	if cfg.StoragePath != "" {
		logger.Info().Str("path", cfg.StoragePath).Msg("initializing persistent storage")
		var err error
		if store, err = storage.NewStore(cfg.StoragePath, cfg.Dev, logger); err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		if err = store.InitDB(); err != nil {
			store.Close()
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
		kv, archive = store, store
	} else {
		logger.Info().Msg("persistent storage disabled, game state will not survive a restart")
		kv = storage.NewMemoryStore()
	}

	// 2. Game state and rules
	gw := rules.New()
	holder, err := game.NewHolder(kv, gw, logger)
	if err != nil {
		return err
	}

	// 3. Engine; the game stays playable in two-player mode without one
	var ch engine.Channel
	if p, err := engine.StartProcess(cfg.EnginePath, logger); err != nil {
		logger.Error().Err(err).Str("path", cfg.EnginePath).Msg("engine unavailable, computer moves disabled")
	} else {
		ch = p
	}
	bridge := engine.NewBridge(ch, logger)

	// 4. Orchestrator
	proc := processor.New(holder, gw, bridge, archive, processor.Config{
		ComputerColor: cfg.ComputerColor,
		EngineDelay:   cfg.EngineDelay,
		Mode:          cfg.Mode,
		Difficulty:    cfg.Difficulty,
	}, logger)

	runCtx, stopRun := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		_ = proc.Run(runCtx)
	}()

	svc := service.New(proc, bridge, store, logger)

	// 5. API server
	app := http.NewFiberApp(proc, svc, cfg.Dev)
	apiAddr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	apiErr := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", "http://"+apiAddr).
			Str("endpoints", fmt.Sprintf("http://%s/api/v1/game", apiAddr)).
			Bool("dev", cfg.Dev).
			Str("engine", cfg.EnginePath).
			Msg("chess API server starting")
		apiErr <- app.Listen(apiAddr)
	}()

	// 6. Web UI server (optional)
	var webErr <-chan error
	if cfg.Serve {
		apiURL := fmt.Sprintf("http://%s", apiAddr)
		webApp, errCh := webserver.Start(cfg.WebHost, cfg.WebPort, apiURL)
		webErr = errCh
		if webApp != nil {
			defer webApp.Shutdown()
		}
		logger.Info().
			Str("addr", fmt.Sprintf("http://%s:%d", cfg.WebHost, cfg.WebPort)).
			Str("api", apiURL).
			Msg("web UI server starting")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-apiErr:
		logger.Error().Err(err).Msg("API server stopped")
	case err := <-webErr:
		logger.Error().Err(err).Msg("web UI server stopped")
	}

	logger.Info().Msg("shutting down servers")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer shutdownCancel()

	// Waiters are released first so long polls do not hold the server open
	if err := proc.Close(); err != nil {
		logger.Warn().Err(err).Msg("processor close error")
	}
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("server forced to shutdown")
	}

	stopRun()
	<-runDone

	if err := svc.Shutdown(gracefulShutdownTimeout); err != nil {
		logger.Warn().Err(err).Msg("service shutdown error")
	}

	logger.Info().Msg("servers exited")
	return nil
}
