// Package store persists the catalog document: the last remote catalog as
// received, and the local catalog with materialized paths.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/blackwell-systems/vertexctl/internal/catalog"
)

const (
	keyRemote = "remote_games"
	keyLocal  = "local_games"
)

// Store is a JSON document on disk with two top-level keys. Every save is a
// read-modify-write of the whole document followed by an atomic replace.
type Store struct {
	path string
	mu   sync.Mutex
}

// Open returns a Store backed by path. The file is created on first save.
func Open(path string) *Store {
	return &Store{path: path}
}

// Path returns the document location.
func (s *Store) Path() string { return s.path }

// LoadLocal returns the local catalog. A missing file, a missing key, or a
// null value yields an empty map. Corruption is returned as an error.
func (s *Store) LoadLocal() (map[uint8]catalog.Game, error) {
	s.mu.Lock()
	doc, err := s.read()
	s.mu.Unlock()
	if err != nil {
		return map[uint8]catalog.Game{}, err
	}

	raw, ok := doc[keyLocal]
	if !ok || isNull(raw) {
		return map[uint8]catalog.Game{}, nil
	}
	var entries map[string]catalog.Game
	if err := json.Unmarshal(raw, &entries); err != nil {
		return map[uint8]catalog.Game{}, catalog.NewError(catalog.KindStoreAccess, "decoding local catalog", err)
	}

	out := make(map[uint8]catalog.Game, len(entries))
	for key, g := range entries {
		id, err := strconv.ParseUint(key, 10, 8)
		if err != nil {
			return map[uint8]catalog.Game{}, catalog.NewError(catalog.KindStoreAccess, "decoding local catalog",
				fmt.Errorf("invalid game key %q", key))
		}
		g.ID = uint8(id)
		out[g.ID] = g
	}
	return out, nil
}

// LoadRemote returns the stored remote catalog, or nil when none was saved.
func (s *Store) LoadRemote() (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	raw, ok := doc[keyRemote]
	if !ok || isNull(raw) {
		return nil, nil
	}
	return raw, nil
}

// SaveRemote stores the remote catalog as received. Bytes that are not valid
// JSON are kept as a JSON string so they can still be inspected.
func (s *Store) SaveRemote(raw []byte) error {
	var value json.RawMessage
	if json.Valid(raw) {
		value = append(json.RawMessage(nil), raw...)
	} else {
		quoted, err := json.Marshal(string(raw))
		if err != nil {
			return catalog.NewError(catalog.KindStoreAccess, "encoding remote catalog", err)
		}
		value = quoted
	}
	return s.set(keyRemote, value)
}

// SaveLocal replaces the local catalog.
func (s *Store) SaveLocal(games map[uint8]catalog.Game) error {
	entries := make(map[string]catalog.Game, len(games))
	for id, g := range games {
		entries[strconv.Itoa(int(id))] = g
	}
	value, err := json.Marshal(entries)
	if err != nil {
		return catalog.NewError(catalog.KindStoreAccess, "encoding local catalog", err)
	}
	return s.set(keyLocal, value)
}

func (s *Store) set(key string, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		// A corrupt document is replaced rather than blocking every save.
		doc = map[string]json.RawMessage{}
	}
	doc[key] = value

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return catalog.NewError(catalog.KindStoreAccess, "encoding store", err)
	}
	if err := writeAtomic(s.path, data); err != nil {
		return catalog.NewError(catalog.KindStoreAccess, "writing store", err)
	}
	return nil
}

func (s *Store) read() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, catalog.NewError(catalog.KindStoreAccess, "reading store", err)
	}
	if len(data) == 0 {
		return map[string]json.RawMessage{}, nil
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, catalog.NewError(catalog.KindStoreAccess, "decoding store", err)
	}
	if doc == nil {
		doc = map[string]json.RawMessage{}
	}
	return doc, nil
}

// writeAtomic writes data to a temp file beside path, syncs it and renames
// it into place so readers never observe a partial document.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	f, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
