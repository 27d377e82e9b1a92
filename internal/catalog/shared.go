package catalog

import (
	"sort"
	"sync"
)

// Shared is the process-wide catalog: id -> Game behind a reader/writer lock.
// Callers hold the lock only for in-memory work; network and disk I/O happen
// between a locked lookup and a locked commit.
//
// The in-flight download set lives under the same lock so that
// check-and-insert is atomic with respect to catalog reads.
type Shared struct {
	mu       sync.RWMutex
	games    map[uint8]Game
	inFlight map[uint8]struct{}
}

// NewShared returns an empty catalog.
func NewShared() *Shared {
	return &Shared{
		games:    make(map[uint8]Game),
		inFlight: make(map[uint8]struct{}),
	}
}

// Get returns a copy of the game with the given id.
func (s *Shared) Get(id uint8) (Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[id]
	if !ok {
		return Game{}, false
	}
	return g.Clone(), true
}

// List returns every game ordered by descending weight, then ascending id.
func (s *Shared) List() []Game {
	s.mu.RLock()
	out := make([]Game, 0, len(s.games))
	for _, g := range s.games {
		out = append(out, g.Clone())
	}
	s.mu.RUnlock()

	SortByWeight(out)
	return out
}

// Len returns the number of games.
func (s *Shared) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

// Put inserts or replaces a game.
func (s *Shared) Put(g Game) {
	s.mu.Lock()
	s.games[g.ID] = g.Clone()
	s.mu.Unlock()
}

// Merge stores g and returns a copy of what was stored. When an entry with
// the same id exists, fn runs first and may carry state from cur into next.
// fn runs under the write lock and must not block on I/O.
func (s *Shared) Merge(g Game, fn func(cur Game, next *Game)) Game {
	next := g.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.games[g.ID]; ok && fn != nil {
		fn(cur, &next)
	}
	s.games[g.ID] = next
	return next.Clone()
}

// ReplaceAll swaps the whole mapping in one critical section.
func (s *Shared) ReplaceAll(games map[uint8]Game) {
	next := make(map[uint8]Game, len(games))
	for id, g := range games {
		next[id] = g.Clone()
	}
	s.mu.Lock()
	s.games = next
	s.mu.Unlock()
}

// Update runs fn on the stored game under the write lock. fn must not block
// on I/O. If fn returns an error the game is left unchanged.
func (s *Shared) Update(id uint8, fn func(*Game) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return GameError(KindNotFound, id, "updating catalog", nil)
	}
	g = g.Clone()
	if err := fn(&g); err != nil {
		return err
	}
	s.games[id] = g
	return nil
}

// Snapshot returns a copy of the whole mapping, suitable for persistence.
func (s *Shared) Snapshot() map[uint8]Game {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uint8]Game, len(s.games))
	for id, g := range s.games {
		out[id] = g.Clone()
	}
	return out
}

// ArchivePath returns the materialized executable path for a game.
func (s *Shared) ArchivePath(id uint8) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[id]
	if !ok {
		return "", GameError(KindNotFound, id, "looking up game", nil)
	}
	if g.Archive.Link.LocalPath == "" {
		return "", GameError(KindNotFound, id, "looking up game", errNotDownloaded)
	}
	return g.Archive.Link.LocalPath, nil
}

// BeginDownload marks id as having an active download session. A second
// call for the same id before EndDownload fails with DownloadInProgress.
func (s *Shared) BeginDownload(id uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[id]; busy {
		return GameError(KindDownloadInProgress, id, "starting download", nil)
	}
	s.inFlight[id] = struct{}{}
	return nil
}

// EndDownload clears the in-flight marker for id.
func (s *Shared) EndDownload(id uint8) {
	s.mu.Lock()
	delete(s.inFlight, id)
	s.mu.Unlock()
}

// InFlight reports whether id has an active download session.
func (s *Shared) InFlight(id uint8) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, busy := s.inFlight[id]
	return busy
}

// SortByWeight orders games by descending weight, ties broken by id.
func SortByWeight(games []Game) {
	sort.SliceStable(games, func(i, j int) bool {
		if games[i].Weight != games[j].Weight {
			return games[i].Weight > games[j].Weight
		}
		return games[i].ID < games[j].ID
	})
}
