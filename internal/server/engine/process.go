package engine

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPath is the engine binary looked up in PATH when none is configured
const DefaultPath = "stockfish"

// Channel is a line-oriented, fire-and-forget link to a UCI engine. Replies
// carry no correlation to the command that caused them, so callers keep at
// most one search in flight.
type Channel interface {
	Send(cmd string) error
	// OnMessage registers the handler for every line the engine writes.
	// Lines read before registration are dropped.
	OnMessage(fn func(line string))
	Close() error
}

// Process is a Channel over an engine subprocess's stdin and stdout
type Process struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	log   zerolog.Logger

	writeMu sync.Mutex

	handlerMu sync.RWMutex
	handler   func(string)

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// StartProcess launches the engine binary at path
func StartProcess(path string, logger zerolog.Logger) (*Process, error) {
	if path == "" {
		path = DefaultPath
	}
	cmd := exec.Command(path)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	if err = cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start engine %q: %w", path, err)
	}

	p := &Process{
		cmd:   cmd,
		stdin: stdin,
		log:   logger.With().Str("component", "engine-process").Logger(),
		done:  make(chan struct{}),
	}
	go p.readLoop(stdout)

	p.log.Info().Str("path", path).Int("pid", cmd.Process.Pid).Msg("engine started")
	return p, nil
}

func (p *Process) readLoop(r io.Reader) {
	defer close(p.done)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		p.handlerMu.RLock()
		fn := p.handler
		p.handlerMu.RUnlock()
		if fn != nil {
			fn(line)
		}
	}
	if err := scanner.Err(); err != nil {
		p.log.Warn().Err(err).Msg("engine output closed with error")
		return
	}
	p.log.Debug().Msg("engine output closed")
}

func (p *Process) Send(cmd string) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if _, err := fmt.Fprintln(p.stdin, cmd); err != nil {
		return fmt.Errorf("engine write %q: %w", cmd, err)
	}
	p.log.Trace().Str("cmd", cmd).Msg("sent")
	return nil
}

func (p *Process) OnMessage(fn func(line string)) {
	p.handlerMu.Lock()
	p.handler = fn
	p.handlerMu.Unlock()
}

// Close asks the engine to quit and kills it if it has not exited shortly
// after
func (p *Process) Close() error {
	p.closeOnce.Do(func() {
		_ = p.Send("quit")
		p.stdin.Close()

		exited := make(chan error, 1)
		go func() {
			exited <- p.cmd.Wait()
		}()

		select {
		case <-exited:
		case <-time.After(500 * time.Millisecond):
			p.closeErr = p.cmd.Process.Kill()
			<-exited
		}
		p.log.Info().Msg("engine stopped")
	})
	return p.closeErr
}
