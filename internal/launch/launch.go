// Package launch starts a downloaded game and waits for it to exit.
package launch

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/blackwell-systems/vertexctl/internal/catalog"
	"github.com/blackwell-systems/vertexctl/internal/events"
	"github.com/blackwell-systems/vertexctl/internal/logging"
)

// CommandFunc builds the command for an executable path.
type CommandFunc func(ctx context.Context, path string) *exec.Cmd

// DefaultCommand runs the executable with no arguments from its own directory.
func DefaultCommand(ctx context.Context, path string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, path)
	cmd.Dir = filepath.Dir(path)
	return cmd
}

// Launcher runs game processes.
type Launcher struct {
	catalog *catalog.Shared
	sink    events.Sink
	log     hclog.Logger
	command CommandFunc

	mu      sync.Mutex
	running map[uint8]int
}

// New creates a Launcher.
func New(c *catalog.Shared, sink events.Sink, logger hclog.Logger) *Launcher {
	return &Launcher{
		catalog: c,
		sink:    events.OrNop(sink),
		log:     logging.OrNull(logger).Named("launch"),
		command: DefaultCommand,
		running: make(map[uint8]int),
	}
}

// WithCommand replaces the command builder.
func (l *Launcher) WithCommand(fn CommandFunc) *Launcher {
	l.command = fn
	return l
}

// Running reports how many processes of game id are alive.
func (l *Launcher) Running(id uint8) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running[id]
}

// Launch starts game id and blocks until it exits. A non-zero exit is a
// normal termination and is returned as the exit code, not an error.
func (l *Launcher) Launch(ctx context.Context, id uint8) (int, error) {
	path, err := l.catalog.ArchivePath(id)
	if err != nil {
		return 0, err
	}
	if _, err := os.Stat(path); err != nil {
		return 0, catalog.GameError(catalog.KindLaunchFailed, id, "locating executable", err)
	}

	cmd := l.command(ctx, path)
	log := l.log.With("game_id", id)
	log.Info("starting game", "path", path)
	if err := cmd.Start(); err != nil {
		return 0, catalog.GameError(catalog.KindLaunchFailed, id, "starting process", err)
	}

	l.track(id, 1)
	defer l.track(id, -1)

	code := 0
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return 0, catalog.GameError(catalog.KindLaunchFailed, id, "waiting for process", err)
		}
		code = exitErr.ExitCode()
	}
	log.Info("game exited", "code", code)
	l.sink.ProcessTerminated(id, code)
	return code, nil
}

func (l *Launcher) track(id uint8, delta int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.running[id] += delta
	if l.running[id] <= 0 {
		delete(l.running, id)
	}
}
