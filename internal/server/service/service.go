// Package service owns the long-lived resources behind the API and shuts
// them down in order.
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"chess3d/internal/server/engine"
	"chess3d/internal/server/processor"
	"chess3d/internal/server/storage"
)

// Service coordinates the processor, the engine and storage
type Service struct {
	proc   *processor.Processor
	bridge *engine.Bridge
	store  *storage.Store
	log    zerolog.Logger
}

// New creates a service. store is nil when persistence is disabled.
func New(proc *processor.Processor, bridge *engine.Bridge, store *storage.Store, logger zerolog.Logger) *Service {
	return &Service{
		proc:   proc,
		bridge: bridge,
		store:  store,
		log:    logger.With().Str("component", "service").Logger(),
	}
}

// GetStorageHealth returns the storage component status
func (s *Service) GetStorageHealth() string {
	if s.store == nil {
		return "disabled"
	}
	if s.store.IsHealthy() {
		return "ok"
	}
	return "degraded"
}

// GetEngineHealth returns the engine component status
func (s *Service) GetEngineHealth() string {
	return s.proc.EngineStatus()
}

// Shutdown releases waiters, stops the engine and flushes storage
func (s *Service) Shutdown(timeout time.Duration) error {
	var errs []error

	if err := s.proc.Close(); err != nil {
		errs = append(errs, fmt.Errorf("processor: %w", err))
	}

	done := make(chan error, 1)
	go func() {
		done <- s.bridge.Close()
	}()
	select {
	case err := <-done:
		if err != nil {
			errs = append(errs, fmt.Errorf("engine: %w", err))
		}
	case <-time.After(timeout):
		errs = append(errs, errors.New("engine: shutdown timeout exceeded"))
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	s.log.Info().Msg("shutdown complete")
	return nil
}
