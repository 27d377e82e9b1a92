package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a request-level failure.
type Kind string

const (
	KindIO                 Kind = "IoError"
	KindTransfer           Kind = "TransferError"
	KindExtraction         Kind = "ExtractionError"
	KindSchema             Kind = "SchemaError"
	KindNotFound           Kind = "NotFound"
	KindDownloadInProgress Kind = "DownloadInProgress"
	KindLaunchFailed       Kind = "LaunchFailed"
	KindStoreAccess        Kind = "StoreAccessError"
)

// Sentinels for errors.Is matching against a Kind.
var (
	ErrIO                 = errors.New("i/o error")
	ErrTransfer           = errors.New("transfer error")
	ErrExtraction         = errors.New("extraction error")
	ErrSchema             = errors.New("schema error")
	ErrNotFound           = errors.New("not found")
	ErrDownloadInProgress = errors.New("download already in progress")
	ErrLaunchFailed       = errors.New("launch failed")
	ErrStoreAccess        = errors.New("store access error")
)

var errNotDownloaded = errors.New("archive has not been downloaded")

var sentinels = map[Kind]error{
	KindIO:                 ErrIO,
	KindTransfer:           ErrTransfer,
	KindExtraction:         ErrExtraction,
	KindSchema:             ErrSchema,
	KindNotFound:           ErrNotFound,
	KindDownloadInProgress: ErrDownloadInProgress,
	KindLaunchFailed:       ErrLaunchFailed,
	KindStoreAccess:        ErrStoreAccess,
}

// Error is the typed error returned by catalog requests (get, download, launch).
// GameID is only meaningful when HasGame is set.
type Error struct {
	Kind    Kind
	GameID  uint8
	HasGame bool
	Phase   string
	Err     error
}

// NewError builds an Error that is not tied to a game.
func NewError(kind Kind, phase string, err error) *Error {
	return &Error{Kind: kind, Phase: phase, Err: err}
}

// GameError builds an Error for the given game id.
func GameError(kind Kind, id uint8, phase string, err error) *Error {
	return &Error{Kind: kind, GameID: id, HasGame: true, Phase: phase, Err: err}
}

// Error returns a short message suitable for direct display, e.g.
// "game 3: downloading: transfer error: unexpected status 404".
func (e *Error) Error() string {
	var b strings.Builder
	if e.HasGame {
		fmt.Fprintf(&b, "game %d: ", e.GameID)
	}
	if e.Phase != "" {
		b.WriteString(e.Phase)
		b.WriteString(": ")
	}
	b.WriteString(sentinels[e.Kind].Error())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// MarshalJSON renders the error as {"kind", "game_id", "message"}.
func (e *Error) MarshalJSON() ([]byte, error) {
	out := struct {
		Kind    Kind   `json:"kind"`
		GameID  *uint8 `json:"game_id,omitempty"`
		Message string `json:"message"`
	}{Kind: e.Kind, Message: e.Error()}
	if e.HasGame {
		id := e.GameID
		out.GameID = &id
	}
	return json.Marshal(out)
}

// KindOf returns the Kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	var se *SchemaError
	if errors.As(err, &se) {
		return KindSchema
	}
	for kind, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return ""
}

// AsError converts any error into an *Error, defaulting to IoError.
func AsError(err error) *Error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	kind := KindOf(err)
	if kind == "" {
		kind = KindIO
	}
	return &Error{Kind: kind, Err: err}
}

// SchemaError collects every field-level problem found while validating a
// catalog document or a single game record.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid game record: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid game record (%d problems): %s",
		len(e.Problems), strings.Join(e.Problems, "; "))
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }
