package cache

import (
	"errors"
	"os"
	"path/filepath"
)

// Manager handles the on-disk layout of materialized game resources.
type Manager struct {
	baseDir string
}

// New creates a cache Manager rooted at baseDir.
func New(baseDir string) *Manager {
	return &Manager{baseDir: baseDir}
}

// BaseDir returns the root directory.
func (m *Manager) BaseDir() string { return m.baseDir }

// Dir returns the directory that holds one game's files.
// Layout: <baseDir>/<folder>
func (m *Manager) Dir(folder string) string {
	return filepath.Join(m.baseDir, folder)
}

// Path returns the full path for a resource file of a game.
// Layout: <baseDir>/<folder>/<name>
func (m *Manager) Path(folder, name string) string {
	return filepath.Join(m.baseDir, folder, filepath.Base(name))
}

// EnsureDir creates the game directory and its parents.
func (m *Manager) EnsureDir(folder string) error {
	return os.MkdirAll(m.Dir(folder), 0755)
}

// Exists reports whether a file exists at path.
func (m *Manager) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Remove deletes the file at path. A missing file is not an error.
func (m *Manager) Remove(path string) error {
	if path == "" {
		return nil
	}
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
