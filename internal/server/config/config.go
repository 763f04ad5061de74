// Package config resolves server settings from flags, environment variables
// and an optional .env file, in that order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"chess3d/internal/server/core"
	"chess3d/internal/server/engine"
	"chess3d/internal/server/processor"
)

// DefaultStoragePath is the SQLite file the saved game lives in unless
// overridden; an empty path runs without persistence
const DefaultStoragePath = "chess.db"

// Config holds the resolved server settings
type Config struct {
	APIHost string
	APIPort int
	Dev     bool

	StoragePath string
	PIDPath     string
	PIDLock     bool

	EnginePath    string
	EngineDelay   time.Duration
	ComputerColor core.Color
	Mode          core.Mode
	Difficulty    core.Difficulty

	Serve   bool
	WebHost string
	WebPort int

	LogLevel string
}

// LoadEnv reads the .env files; a missing file is not an error
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Parse resolves flags from args with defaults taken from the environment
func Parse(name string, args []string) (Config, error) {
	var (
		cfg        Config
		color      string
		mode       string
		difficulty int
	)

	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.StringVar(&cfg.APIHost, "api-host", getEnv("CHESS_API_HOST", "localhost"), "API server host")
	flags.IntVar(&cfg.APIPort, "api-port", getEnvInt("CHESS_API_PORT", 8080), "API server port")
	flags.BoolVar(&cfg.Dev, "dev", getEnvBool("CHESS_DEV", false), "Development mode (relaxed rate limits)")
	flags.StringVar(&cfg.StoragePath, "storage-path", lookupEnv("CHESS_STORAGE_PATH", DefaultStoragePath), "Path to SQLite database file (empty disables persistence)")
	flags.StringVar(&cfg.PIDPath, "pid", getEnv("CHESS_PID", ""), "Optional path to write PID file")
	flags.BoolVar(&cfg.PIDLock, "pid-lock", false, "Lock PID file to allow only one instance (requires -pid)")

	flags.StringVar(&cfg.EnginePath, "engine-path", getEnv("CHESS_ENGINE_PATH", engine.DefaultPath), "UCI engine executable")
	flags.DurationVar(&cfg.EngineDelay, "engine-delay", getEnvDuration("CHESS_ENGINE_DELAY", processor.DefaultEngineDelay), "Pause before the computer replies")
	flags.StringVar(&color, "computer-color", getEnv("CHESS_COMPUTER_COLOR", "black"), "Color the computer plays (white|black)")
	flags.StringVar(&mode, "mode", getEnv("CHESS_MODE", string(core.ModeComputer)), "Initial mode (computer|human)")
	flags.IntVar(&difficulty, "difficulty", getEnvInt("CHESS_DIFFICULTY", int(core.DefaultDifficulty)), "Initial difficulty (0-5)")

	flags.BoolVar(&cfg.Serve, "serve", getEnvBool("CHESS_SERVE", false), "Enable web UI server")
	flags.StringVar(&cfg.WebHost, "web-host", getEnv("CHESS_WEB_HOST", "localhost"), "Web UI server host")
	flags.IntVar(&cfg.WebPort, "web-port", getEnvInt("CHESS_WEB_PORT", 9090), "Web UI server port")

	flags.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level (debug|info|warn|error)")

	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	var err error
	if cfg.ComputerColor, err = core.ParseColor(strings.ToLower(color)); err != nil {
		return Config{}, fmt.Errorf("computer-color: %w", err)
	}
	cfg.Mode = core.Mode(strings.ToLower(mode))
	if !cfg.Mode.Valid() {
		return Config{}, fmt.Errorf("mode: unknown mode %q", mode)
	}
	cfg.Difficulty = core.Difficulty(difficulty)
	if !cfg.Difficulty.Valid() {
		return Config{}, fmt.Errorf("difficulty must be between %d and %d", core.MinDifficulty, core.MaxDifficulty)
	}
	if cfg.PIDLock && cfg.PIDPath == "" {
		return Config{}, errors.New("-pid-lock flag requires the -pid flag to be set")
	}
	if _, err = zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("log-level: %w", err)
	}

	return cfg, nil
}

// NewLogger sets the global level and returns the root logger. Output is
// human readable when w is a terminal.
func NewLogger(level string, w io.Writer) zerolog.Logger {
	if lvl, err := zerolog.ParseLevel(level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		w = zerolog.ConsoleWriter{Out: f, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// lookupEnv is getEnv for settings where an empty value is meaningful
func lookupEnv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return v
	}
	return def
}

func getEnvBool(k string, def bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(k)); err == nil {
		return v
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return v
	}
	return def
}
