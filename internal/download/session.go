// Package download drives one archive download from request to a
// materialized, launchable game.
package download

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/blackwell-systems/vertexctl/internal/events"
)

// Step is a download phase. Phases only move forward.
type Step int

const (
	Starting Step = iota
	Downloading
	Extracting
	Cleaning
	Complete
)

var stepNames = [...]string{"Starting", "Downloading", "Extracting", "Cleaning", "Complete"}

func (s Step) String() string {
	if s < Starting || s > Complete {
		return fmt.Sprintf("Step(%d)", int(s))
	}
	return stepNames[s]
}

// MarshalText renders the step by name.
func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ErrTransition is returned for an out-of-order phase change.
var ErrTransition = errors.New("invalid download step transition")

// Session is the ephemeral state of one download.
type Session struct {
	GameID     uint8
	FileSize   uint64
	Downloaded uint64
	Started    time.Time

	extract bool
	step    Step
}

// NewSession starts a session in the Starting step. extract tells whether the
// Extracting and Cleaning steps will run.
func NewSession(id uint8, extract bool) *Session {
	return &Session{GameID: id, extract: extract, step: Starting}
}

// Step returns the current phase.
func (s *Session) Step() Step { return s.step }

// Advance moves to next. Steps cannot be skipped or revisited, except that
// a session without extraction goes from Downloading straight to Complete.
func (s *Session) Advance(next Step) error {
	ok := false
	switch {
	case s.step == Downloading && next == Complete:
		ok = !s.extract
	case s.step == Downloading && next == Extracting:
		ok = s.extract
	case next == s.step+1 && next <= Complete:
		ok = true
	}
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrTransition, s.step, next)
	}
	s.step = next
	return nil
}

// Snapshot computes the externally visible progress at now.
func (s *Session) Snapshot(now time.Time) events.Progress {
	return events.Progress{
		GameID:        s.GameID,
		FileSize:      s.FileSize,
		Downloaded:    s.Downloaded,
		Percentage:    fmt.Sprintf("%.2f%%", s.percentage()),
		Speed:         fmt.Sprintf("%.2f MB/s", s.bytesPerSecond(now)/1024/1024),
		RemainingTime: FormatRemaining(s.remainingSeconds(now)),
		Step:          s.step.String(),
	}
}

func (s *Session) percentage() float64 {
	if s.FileSize == 0 {
		return 0
	}
	return float64(s.Downloaded) / float64(s.FileSize) * 100
}

func (s *Session) bytesPerSecond(now time.Time) float64 {
	if s.Started.IsZero() {
		return 0
	}
	elapsed := now.Sub(s.Started).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(s.Downloaded) / elapsed
}

func (s *Session) remainingSeconds(now time.Time) float64 {
	left := float64(s.FileSize - min(s.Downloaded, s.FileSize))
	if left == 0 && s.FileSize > 0 {
		return 0
	}
	speed := s.bytesPerSecond(now)
	if speed == 0 {
		return math.Inf(1)
	}
	return left / speed
}

// FormatRemaining renders seconds as "Hh Mmin", "Nmin(s)" or "Ss". An
// unknown duration renders as "N/A".
func FormatRemaining(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "N/A"
	}
	switch {
	case seconds > 3600:
		h := math.Floor(seconds / 3600)
		m := math.Floor(math.Mod(seconds, 3600) / 60)
		return fmt.Sprintf("%dh %dmin", int64(h), int64(m))
	case seconds > 60:
		return fmt.Sprintf("%dmin(s)", int64(seconds/60))
	default:
		return fmt.Sprintf("%ds", int64(seconds))
	}
}
