package launch_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/blackwell-systems/vertexctl/internal/catalog"
	"github.com/blackwell-systems/vertexctl/internal/events"
	"github.com/blackwell-systems/vertexctl/internal/launch"
)

type terminations struct {
	events.Nop
	mu    sync.Mutex
	codes map[uint8]int
}

func (t *terminations) ProcessTerminated(id uint8, code int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.codes == nil {
		t.codes = map[uint8]int{}
	}
	t.codes[id] = code
}

func script(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), "run.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func sharedWith(path string) *catalog.Shared {
	s := catalog.NewShared()
	g := catalog.Game{ID: 1, Title: "Game"}
	g.Archive.Link.LocalPath = path
	s.Put(g)
	return s
}

func TestLaunch_ReportsExitCode(t *testing.T) {
	sink := &terminations{}
	l := launch.New(sharedWith(script(t, "exit 3")), sink, nil)

	code, err := l.Launch(context.Background(), 1)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if code != 3 {
		t.Errorf("code = %d, want 3", code)
	}
	if sink.codes[1] != 3 {
		t.Errorf("termination event code = %d", sink.codes[1])
	}
	if l.Running(1) != 0 {
		t.Error("running count should drop to zero after exit")
	}
}

func TestLaunch_RunsFromExecutableDir(t *testing.T) {
	path := script(t, `pwd > cwd.txt`)
	l := launch.New(sharedWith(path), nil, nil)
	if _, err := l.Launch(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(path), "cwd.txt")); err != nil {
		t.Errorf("process did not run in its own directory: %v", err)
	}
}

func TestLaunch_UnknownGame(t *testing.T) {
	l := launch.New(catalog.NewShared(), nil, nil)
	_, err := l.Launch(context.Background(), 5)
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("err = %v, want NotFound", err)
	}
}

func TestLaunch_NotDownloaded(t *testing.T) {
	l := launch.New(sharedWith(""), nil, nil)
	_, err := l.Launch(context.Background(), 1)
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("err = %v, want NotFound", err)
	}
}

func TestLaunch_MissingFile(t *testing.T) {
	l := launch.New(sharedWith(filepath.Join(t.TempDir(), "gone")), nil, nil)
	_, err := l.Launch(context.Background(), 1)
	if !errors.Is(err, catalog.ErrLaunchFailed) {
		t.Errorf("err = %v, want LaunchFailed", err)
	}
}

func TestLaunch_StartFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-executable")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := launch.New(sharedWith(path), nil, nil).WithCommand(func(ctx context.Context, _ string) *exec.Cmd {
		return exec.CommandContext(ctx, filepath.Join(t.TempDir(), "no-such-binary"))
	})
	_, err := l.Launch(context.Background(), 1)
	if !errors.Is(err, catalog.ErrLaunchFailed) {
		t.Errorf("err = %v, want LaunchFailed", err)
	}
}
