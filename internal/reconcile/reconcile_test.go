package reconcile_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/blackwell-systems/vertexctl/internal/cache"
	"github.com/blackwell-systems/vertexctl/internal/catalog"
	"github.com/blackwell-systems/vertexctl/internal/reconcile"
)

type fakeFetcher struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (f *fakeFetcher) Get(_ context.Context, url, _ string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	if f.fail[url] {
		return nil, errors.New("connection refused")
	}
	return []byte("data:" + url), nil
}

func remoteGame(rev uint64) catalog.Game {
	return catalog.Game{
		ID:              1,
		Title:           "Star Runner",
		Version:         "1.0",
		Platforms:       []string{"linux"},
		Tags:            []string{"arcade"},
		BackgroundImage: catalog.Link{URL: "https://cdn/bg.png", Name: "bg.png", Revision: rev},
		NavigationIcon:  catalog.Link{URL: "https://cdn/icon.png", Name: "icon.png", Revision: rev},
		Archive: catalog.Archive{
			Link:             catalog.Link{URL: "https://cdn/game.zip", Name: "game.zip", Revision: rev},
			NeedExtract:      true,
			PathToExecutable: "run",
		},
	}
}

func TestReconcile_FreshInstall(t *testing.T) {
	f := &fakeFetcher{}
	c := cache.New(t.TempDir())
	r := reconcile.New(f, c, nil)

	g, needsArchive, err := r.Reconcile(context.Background(), nil, remoteGame(1))
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !needsArchive || !g.Archive.NeedUpdate {
		t.Error("archive should need update on a fresh install")
	}
	if g.Archive.Link.LocalPath != "" {
		t.Error("archive must not be fetched during reconciliation")
	}
	if g.BackgroundImage.LocalPath == "" || g.NavigationIcon.LocalPath == "" {
		t.Fatalf("images not materialized: %+v %+v", g.BackgroundImage, g.NavigationIcon)
	}
	for _, call := range f.calls {
		if call == "https://cdn/game.zip" {
			t.Error("archive URL was requested")
		}
	}
	data, _ := os.ReadFile(g.NavigationIcon.LocalPath)
	if string(data) != "data:https://cdn/icon.png" {
		t.Errorf("icon content = %q", data)
	}
	if filepath.Base(filepath.Dir(g.NavigationIcon.LocalPath)) != "starrunner" {
		t.Errorf("icon stored outside the game folder: %s", g.NavigationIcon.LocalPath)
	}
}

func TestReconcile_StaleIconReplaced(t *testing.T) {
	f := &fakeFetcher{}
	c := cache.New(t.TempDir())
	r := reconcile.New(f, c, nil)

	local, _, err := r.Reconcile(context.Background(), nil, remoteGame(1))
	if err != nil {
		t.Fatal(err)
	}
	oldIcon := local.NavigationIcon.LocalPath
	if err := os.Rename(oldIcon, oldIcon+".old"); err != nil {
		t.Fatal(err)
	}
	_ = os.WriteFile(oldIcon, []byte("stale"), 0o644)
	local.NavigationIcon.LocalPath = oldIcon + ".old"

	remote := remoteGame(1)
	remote.NavigationIcon.Revision = 2
	remote.NavigationIcon.URL = "https://cdn/icon-v2.png"

	got, _, err := r.Reconcile(context.Background(), &local, remote)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(oldIcon + ".old"); !os.IsNotExist(err) {
		t.Error("stale icon file should be deleted")
	}
	if got.NavigationIcon.Revision != 2 || got.NavigationIcon.LocalPath == "" {
		t.Errorf("icon = %+v", got.NavigationIcon)
	}
	data, _ := os.ReadFile(got.NavigationIcon.LocalPath)
	if string(data) != "data:https://cdn/icon-v2.png" {
		t.Errorf("icon content = %q", data)
	}
	if got.BackgroundImage.LocalPath != local.BackgroundImage.LocalPath {
		t.Error("background with equal revision should be untouched")
	}
}

func TestReconcile_EqualRevisionKeepsURL(t *testing.T) {
	c := cache.New(t.TempDir())

	local := remoteGame(3)
	local.BackgroundImage.LocalPath = "/kept/bg.png"
	local.NavigationIcon.LocalPath = "/kept/icon.png"
	local.Archive.Link.LocalPath = "/kept/run"

	remote := remoteGame(3)
	remote.BackgroundImage.URL = "https://elsewhere/bg.png"
	remote.Title = "Star Runner DX"

	f := &fakeFetcher{}
	r := reconcile.New(f, c, nil)
	got, needs, err := r.Reconcile(context.Background(), &local, remote)
	if err != nil {
		t.Fatal(err)
	}
	if needs || got.Archive.NeedUpdate {
		t.Error("archive at current revision should not need update")
	}
	if got.BackgroundImage.URL != "https://cdn/bg.png" || got.BackgroundImage.LocalPath != "/kept/bg.png" {
		t.Errorf("background changed on equal revision: %+v", got.BackgroundImage)
	}
	if got.Title != "Star Runner DX" {
		t.Errorf("descriptive fields must follow remote, title = %q", got.Title)
	}
	if len(f.calls) != 0 {
		t.Errorf("no fetch expected, got %v", f.calls)
	}
}

func TestReconcile_ArchiveBumpFlagsOnly(t *testing.T) {
	dir := t.TempDir()
	c := cache.New(dir)
	f := &fakeFetcher{}
	r := reconcile.New(f, c, nil)

	exe := filepath.Join(dir, "starrunner", "run")
	_ = os.MkdirAll(filepath.Dir(exe), 0o755)
	_ = os.WriteFile(exe, []byte("bin"), 0o755)

	local := remoteGame(1)
	local.BackgroundImage.LocalPath = "/kept/bg.png"
	local.NavigationIcon.LocalPath = "/kept/icon.png"
	local.Archive.Link.LocalPath = exe

	remote := remoteGame(1)
	remote.Archive.Link.Revision = 2
	remote.Archive.PathToExecutable = "bin/run"

	got, needs, err := r.Reconcile(context.Background(), &local, remote)
	if err != nil {
		t.Fatal(err)
	}
	if !needs || !got.Archive.NeedUpdate || got.Archive.Link.LocalPath != "" {
		t.Errorf("archive = %+v", got.Archive)
	}
	if got.Archive.PathToExecutable != "bin/run" {
		t.Errorf("archive flags should follow the adopted revision")
	}
	if len(f.calls) != 0 {
		t.Errorf("archive bump must not fetch anything, got %v", f.calls)
	}
	if _, err := os.Stat(exe); !os.IsNotExist(err) {
		t.Error("stale archive path should be deleted")
	}
}

func TestReconcile_FetchFailureKeepsPartialEntry(t *testing.T) {
	f := &fakeFetcher{fail: map[string]bool{"https://cdn/bg.png": true}}
	r := reconcile.New(f, cache.New(t.TempDir()), nil)

	g, _, err := r.Reconcile(context.Background(), nil, remoteGame(1))
	if !errors.Is(err, catalog.ErrTransfer) {
		t.Fatalf("err = %v, want transfer error", err)
	}
	if g.BackgroundImage.LocalPath != "" {
		t.Error("failed link must stay unmaterialized")
	}
	if g.NavigationIcon.LocalPath == "" {
		t.Error("icon should still be fetched when the background fails")
	}
	if g.Title != "Star Runner" || g.ID != 1 {
		t.Errorf("partial entry lost fields: %+v", g)
	}
}
