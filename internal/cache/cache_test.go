package cache_test

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/blackwell-systems/vertexctl/internal/cache"
)

func TestPath_Layout(t *testing.T) {
	m := cache.New("/base")
	got := m.Path("starrunner", "icon.png")
	want := filepath.Join("/base", "starrunner", "icon.png")
	if got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestPath_StripsDirectoriesFromName(t *testing.T) {
	m := cache.New("/base")
	got := m.Path("game", "../../etc/passwd")
	want := filepath.Join("/base", "game", "passwd")
	if got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestExists_False(t *testing.T) {
	m := cache.New("/no/such/base")
	if m.Exists(m.Path("game", "file.png")) {
		t.Error("Exists() should be false for missing file")
	}
}

func TestStore_Writes(t *testing.T) {
	dir := t.TempDir()
	m := cache.New(dir)

	path, err := m.Store("game", "bg.png", strings.NewReader("pixels"))
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if path != m.Path("game", "bg.png") {
		t.Errorf("Store returned %q", path)
	}
	if !m.Exists(path) {
		t.Error("Exists() false after successful Store")
	}
	got, _ := os.ReadFile(path)
	if string(got) != "pixels" {
		t.Errorf("content = %q", got)
	}
	if leftovers, _ := filepath.Glob(path + ".*.tmp"); len(leftovers) != 0 {
		t.Errorf("temp files left after Store: %v", leftovers)
	}
}

func TestStore_ConcurrentWritersSameName(t *testing.T) {
	m := cache.New(t.TempDir())

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := strings.Repeat(strconv.Itoa(i), 64<<10)
			if _, err := m.Store("starrunner", "icon.png", strings.NewReader(body)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Store: %v", err)
	}

	got, err := os.ReadFile(m.Path("starrunner", "icon.png"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 64<<10 || strings.Count(string(got), string(got[:1])) != len(got) {
		t.Error("stored file mixes content from several writers")
	}
	if leftovers, _ := filepath.Glob(filepath.Join(m.Dir("starrunner"), "*.tmp")); len(leftovers) != 0 {
		t.Errorf("temp files left: %v", leftovers)
	}
}

func TestStore_Overwrites(t *testing.T) {
	m := cache.New(t.TempDir())
	_, _ = m.Store("g", "f", strings.NewReader("old"))
	path, err := m.Store("g", "f", strings.NewReader("new"))
	if err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "new" {
		t.Errorf("content = %q, want new", got)
	}
}

func TestStoreFile_Mode(t *testing.T) {
	m := cache.New(t.TempDir())
	path, err := m.StoreFile("g", "run.sh", strings.NewReader("#!/bin/sh\n"), 0o755)
	if err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm()&0o100 == 0 {
		t.Errorf("mode = %v, want executable", fi.Mode())
	}
}

func TestRemove_MissingIsNotError(t *testing.T) {
	m := cache.New(t.TempDir())
	if err := m.Remove(m.Path("g", "nothing")); err != nil {
		t.Errorf("Remove(missing) = %v", err)
	}
	if err := m.Remove(""); err != nil {
		t.Errorf("Remove(\"\") = %v", err)
	}
}

func TestRemove_Deletes(t *testing.T) {
	m := cache.New(t.TempDir())
	path, _ := m.Store("g", "f", strings.NewReader("x"))
	if err := m.Remove(path); err != nil {
		t.Fatal(err)
	}
	if m.Exists(path) {
		t.Error("file still exists after Remove")
	}
}

func TestEnsureDir(t *testing.T) {
	dir := t.TempDir()
	m := cache.New(dir)
	if err := m.EnsureDir("nested"); err != nil {
		t.Errorf("EnsureDir: %v", err)
	}
	fi, err := os.Stat(m.Dir("nested"))
	if err != nil || !fi.IsDir() {
		t.Errorf("Dir not created: %v", err)
	}
}
