package store_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/blackwell-systems/vertexctl/internal/catalog"
	"github.com/blackwell-systems/vertexctl/internal/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	return store.Open(filepath.Join(t.TempDir(), "vertex_store.json"))
}

func TestLoadLocal_MissingFile(t *testing.T) {
	s := newStore(t)
	games, err := s.LoadLocal()
	if err != nil {
		t.Fatalf("LoadLocal: %v", err)
	}
	if len(games) != 0 {
		t.Errorf("expected empty catalog, got %d", len(games))
	}
}

func TestLoadLocal_NullKey(t *testing.T) {
	s := newStore(t)
	if err := os.WriteFile(s.Path(), []byte(`{"local_games": null}`), 0o644); err != nil {
		t.Fatal(err)
	}
	games, err := s.LoadLocal()
	if err != nil || len(games) != 0 {
		t.Errorf("LoadLocal = %v, %v; want empty, nil", games, err)
	}
}

func TestLoadLocal_Corrupt(t *testing.T) {
	s := newStore(t)
	if err := os.WriteFile(s.Path(), []byte(`{"local_games": [1,2`), 0o644); err != nil {
		t.Fatal(err)
	}
	games, err := s.LoadLocal()
	if !errors.Is(err, catalog.ErrStoreAccess) {
		t.Errorf("err = %v, want store access error", err)
	}
	if games == nil || len(games) != 0 {
		t.Errorf("corrupt store should still yield an empty map, got %v", games)
	}
}

func TestLoadLocal_BadKey(t *testing.T) {
	s := newStore(t)
	if err := os.WriteFile(s.Path(), []byte(`{"local_games": {"999": {"title": "x"}}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadLocal(); !errors.Is(err, catalog.ErrStoreAccess) {
		t.Errorf("err = %v, want store access error", err)
	}
}

func TestSaveLocal_RoundTrip(t *testing.T) {
	s := newStore(t)
	g := catalog.Game{ID: 7, Title: "Seven", Platforms: []string{"linux"}, Tags: []string{}}
	g.Archive.Link = catalog.Link{URL: "u", Name: "a.zip", Revision: 3, LocalPath: "/games/seven/run"}

	if err := s.SaveLocal(map[uint8]catalog.Game{7: g}); err != nil {
		t.Fatalf("SaveLocal: %v", err)
	}
	games, err := s.LoadLocal()
	if err != nil {
		t.Fatalf("LoadLocal: %v", err)
	}
	got, ok := games[7]
	if !ok {
		t.Fatal("game 7 missing after round trip")
	}
	if got.Archive.Link.LocalPath != "/games/seven/run" || got.Archive.Link.Revision != 3 {
		t.Errorf("archive = %+v", got.Archive.Link)
	}

	data, _ := os.ReadFile(s.Path())
	var doc map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("document is not an object of objects: %v", err)
	}
	if _, ok := doc["local_games"]["7"]; !ok {
		t.Errorf("local_games should be keyed by decimal id: %s", data)
	}
}

func TestSaves_PreserveOtherKey(t *testing.T) {
	s := newStore(t)
	if err := s.SaveRemote([]byte(`{"games": []}`)); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveLocal(map[uint8]catalog.Game{1: {ID: 1}}); err != nil {
		t.Fatal(err)
	}
	raw, err := s.LoadRemote()
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) == "" {
		t.Fatal("remote catalog lost after SaveLocal")
	}
	var doc struct {
		Games []any `json:"games"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Errorf("remote catalog should stay a JSON value: %v", err)
	}
}

func TestSaveRemote_InvalidBytesKeptAsString(t *testing.T) {
	s := newStore(t)
	if err := s.SaveRemote([]byte("<html>oops</html>")); err != nil {
		t.Fatal(err)
	}
	raw, err := s.LoadRemote()
	if err != nil {
		t.Fatal(err)
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil || str != "<html>oops</html>" {
		t.Errorf("LoadRemote = %s, want quoted original", raw)
	}
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	s := newStore(t)
	for i := 0; i < 3; i++ {
		if err := s.SaveLocal(map[uint8]catalog.Game{}); err != nil {
			t.Fatal(err)
		}
	}
	entries, _ := os.ReadDir(filepath.Dir(s.Path()))
	if len(entries) != 1 {
		t.Errorf("expected only the store file, found %d entries", len(entries))
	}
}

func TestSave_UnwritableDir(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	s := store.Open(filepath.Join(blocker, "vertex_store.json"))
	err := s.SaveLocal(map[uint8]catalog.Game{})
	if catalog.KindOf(err) != catalog.KindStoreAccess {
		t.Errorf("KindOf = %q, want StoreAccessError", catalog.KindOf(err))
	}
}
