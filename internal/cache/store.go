package cache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store writes r to the resource path for the given game folder and file
// name. The data lands in a temp file first and is renamed into place, so a
// failed write never leaves a truncated resource behind.
// Returns the final file path.
func (m *Manager) Store(folder, name string, r io.Reader) (string, error) {
	if err := m.EnsureDir(folder); err != nil {
		return "", fmt.Errorf("create game dir: %w", err)
	}

	destPath := m.Path(folder, name)

	// Two titles can map to one folder; each writer needs its own temp file.
	f, err := os.CreateTemp(filepath.Dir(destPath), filepath.Base(destPath)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := f.Name()

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("writing resource: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}
	return destPath, nil
}

// StoreFile is Store with a file mode applied after the rename. Used for raw
// (non-extracted) archives, which may be the executable itself.
func (m *Manager) StoreFile(folder, name string, r io.Reader, mode os.FileMode) (string, error) {
	path, err := m.Store(folder, name, r)
	if err != nil {
		return "", err
	}
	if err := os.Chmod(path, mode); err != nil {
		return "", fmt.Errorf("chmod %s: %w", path, err)
	}
	return path, nil
}
