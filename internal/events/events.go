// Package events carries lifecycle and progress events to whatever is
// presenting them: a terminal, a log, or websocket clients.
package events

import (
	"fmt"

	"github.com/blackwell-systems/vertexctl/internal/catalog"
)

// Event names. These are part of the external compatibility surface.
const (
	NameInitialized       = "app_initialized"
	NameDownloadProgress  = "download_progress"
	NameCatalogUpdated    = "game_list_updated"
	NameProcessTerminated = "game_process_terminated"
	NameNotification      = "notification"
)

// DownloadProgressName returns the per-game progress event name.
func DownloadProgressName(id uint8) string {
	return fmt.Sprintf("%s_%d", NameDownloadProgress, id)
}

// ProcessTerminatedName returns the per-game termination event name.
func ProcessTerminatedName(id uint8) string {
	return fmt.Sprintf("%s_%d", NameProcessTerminated, id)
}

// Progress is one download progress snapshot.
type Progress struct {
	GameID        uint8  `json:"game_id"`
	FileSize      uint64 `json:"file_size"`
	Downloaded    uint64 `json:"downloaded"`
	Percentage    string `json:"percentage"`
	Speed         string `json:"speed"`
	RemainingTime string `json:"remaining_time"`
	Step          string `json:"steps"`
}

// Termination reports a finished game process.
type Termination struct {
	GameID   uint8 `json:"game_id"`
	ExitCode int   `json:"exit_code"`
}

// Notification is a user-facing message.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Sink receives events. Implementations must be safe for concurrent use and
// must not block for long: they are called from download and launch paths.
type Sink interface {
	Initialized()
	DownloadProgress(p Progress)
	CatalogUpdated(games []catalog.Game)
	ProcessTerminated(gameID uint8, exitCode int)
	Notify(title, body string)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Initialized()                  {}
func (Nop) DownloadProgress(Progress)     {}
func (Nop) CatalogUpdated([]catalog.Game) {}
func (Nop) ProcessTerminated(uint8, int)  {}
func (Nop) Notify(string, string)         {}

// OrNop returns s, or Nop when s is nil.
func OrNop(s Sink) Sink {
	if s == nil {
		return Nop{}
	}
	return s
}

type multi []Sink

// Multi fans every event out to each non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multi) Initialized() {
	for _, s := range m {
		s.Initialized()
	}
}

func (m multi) DownloadProgress(p Progress) {
	for _, s := range m {
		s.DownloadProgress(p)
	}
}

func (m multi) CatalogUpdated(games []catalog.Game) {
	for _, s := range m {
		s.CatalogUpdated(games)
	}
}

func (m multi) ProcessTerminated(gameID uint8, exitCode int) {
	for _, s := range m {
		s.ProcessTerminated(gameID, exitCode)
	}
}

func (m multi) Notify(title, body string) {
	for _, s := range m {
		s.Notify(title, body)
	}
}
