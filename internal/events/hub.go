package events

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/juju/pubsub/v2"

	"github.com/blackwell-systems/vertexctl/internal/catalog"
	"github.com/blackwell-systems/vertexctl/internal/logging"
)

// Message is one published event as seen by a subscriber.
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Hub publishes every event on a topic named after the event. Subscribers
// are called asynchronously, in publish order per subscriber.
type Hub struct {
	hub *pubsub.SimpleHub
}

// NewHub creates a Hub.
func NewHub(logger hclog.Logger) *Hub {
	return &Hub{
		hub: pubsub.NewSimpleHub(&pubsub.SimpleHubConfig{
			Logger: hubLogger{logging.OrNull(logger).Named("hub")},
		}),
	}
}

// Subscribe calls fn for every event. The returned func unsubscribes.
func (h *Hub) Subscribe(fn func(Message)) func() {
	return h.hub.SubscribeMatch(matchAll, func(topic string, data interface{}) {
		fn(Message{Event: topic, Payload: data})
	})
}

// SubscribePrefix calls fn for events whose name starts with prefix, such
// as every download_progress_<id>.
func (h *Hub) SubscribePrefix(prefix string, fn func(Message)) func() {
	return h.hub.SubscribeMatch(func(topic string) bool {
		return strings.HasPrefix(topic, prefix)
	}, func(topic string, data interface{}) {
		fn(Message{Event: topic, Payload: data})
	})
}

func (h *Hub) publish(topic string, data interface{}) {
	_ = h.hub.Publish(topic, data)
}

func (h *Hub) Initialized() {
	h.publish(NameInitialized, nil)
}

func (h *Hub) DownloadProgress(p Progress) {
	h.publish(DownloadProgressName(p.GameID), p)
}

func (h *Hub) CatalogUpdated(games []catalog.Game) {
	h.publish(NameCatalogUpdated, games)
}

func (h *Hub) ProcessTerminated(gameID uint8, exitCode int) {
	h.publish(ProcessTerminatedName(gameID), Termination{GameID: gameID, ExitCode: exitCode})
}

func (h *Hub) Notify(title, body string) {
	h.publish(NameNotification, Notification{Title: title, Body: body})
}

func matchAll(string) bool { return true }

// hubLogger adapts hclog to the printf-style logger pubsub expects.
type hubLogger struct {
	log hclog.Logger
}

func (l hubLogger) Errorf(format string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(format, args...))
}

func (l hubLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn(fmt.Sprintf(format, args...))
}

func (l hubLogger) Infof(format string, args ...interface{}) {
	l.log.Info(fmt.Sprintf(format, args...))
}

func (l hubLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

func (l hubLogger) Tracef(format string, args ...interface{}) {
	l.log.Trace(fmt.Sprintf(format, args...))
}
