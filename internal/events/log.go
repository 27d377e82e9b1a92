package events

import (
	"github.com/hashicorp/go-hclog"

	"github.com/blackwell-systems/vertexctl/internal/catalog"
	"github.com/blackwell-systems/vertexctl/internal/logging"
)

type logSink struct {
	log hclog.Logger
}

// Log returns a Sink that writes every event to logger. Progress goes to
// debug; lifecycle events go to info.
func Log(logger hclog.Logger) Sink {
	return logSink{log: logging.OrNull(logger).Named("events")}
}

func (l logSink) Initialized() {
	l.log.Info(NameInitialized)
}

func (l logSink) DownloadProgress(p Progress) {
	l.log.Debug(DownloadProgressName(p.GameID),
		"step", p.Step, "downloaded", p.Downloaded, "file_size", p.FileSize,
		"percentage", p.Percentage, "speed", p.Speed, "remaining", p.RemainingTime)
}

func (l logSink) CatalogUpdated(games []catalog.Game) {
	l.log.Info(NameCatalogUpdated, "games", len(games))
}

func (l logSink) ProcessTerminated(gameID uint8, exitCode int) {
	l.log.Info(ProcessTerminatedName(gameID), "exit_code", exitCode)
}

func (l logSink) Notify(title, body string) {
	l.log.Info(NameNotification, "title", title, "body", body)
}
