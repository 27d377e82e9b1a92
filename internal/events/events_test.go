package events_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/blackwell-systems/vertexctl/internal/catalog"
	"github.com/blackwell-systems/vertexctl/internal/events"
	"github.com/blackwell-systems/vertexctl/internal/logging"
)

type recorder struct {
	mu    sync.Mutex
	names []string
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	r.names = append(r.names, name)
	r.mu.Unlock()
}

func (r *recorder) Initialized() { r.add(events.NameInitialized) }
func (r *recorder) DownloadProgress(p events.Progress) {
	r.add(events.DownloadProgressName(p.GameID))
}
func (r *recorder) CatalogUpdated([]catalog.Game) { r.add(events.NameCatalogUpdated) }
func (r *recorder) ProcessTerminated(id uint8, _ int) {
	r.add(events.ProcessTerminatedName(id))
}
func (r *recorder) Notify(string, string) { r.add(events.NameNotification) }

func TestNames(t *testing.T) {
	if got := events.DownloadProgressName(3); got != "download_progress_3" {
		t.Errorf("DownloadProgressName = %q", got)
	}
	if got := events.ProcessTerminatedName(12); got != "game_process_terminated_12" {
		t.Errorf("ProcessTerminatedName = %q", got)
	}
}

func TestProgressJSON(t *testing.T) {
	data, err := json.Marshal(events.Progress{GameID: 1, FileSize: 10, Downloaded: 5,
		Percentage: "50.00%", Speed: "1.00 MB/s", RemainingTime: "5s", Step: "Downloading"})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"game_id":1,"file_size":10,"downloaded":5,"percentage":"50.00%","speed":"1.00 MB/s","remaining_time":"5s","steps":"Downloading"}`
	if string(data) != want {
		t.Errorf("JSON = %s\nwant  %s", data, want)
	}
}

func TestMulti_FansOutAndSkipsNil(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	s := events.Multi(a, nil, b)
	s.Initialized()
	s.DownloadProgress(events.Progress{GameID: 2})
	s.ProcessTerminated(2, 0)

	for _, r := range []*recorder{a, b} {
		if len(r.names) != 3 || r.names[1] != "download_progress_2" {
			t.Errorf("recorded %v", r.names)
		}
	}
}

func TestOrNop(t *testing.T) {
	events.OrNop(nil).Notify("t", "b")
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	l := logging.New("vertexctl", logging.Options{Level: "info"}, &buf)
	s := events.Log(l)
	s.ProcessTerminated(4, 1)
	if !strings.Contains(buf.String(), "game_process_terminated_4") {
		t.Errorf("log = %q", buf.String())
	}
}

func TestHub_DeliversInOrder(t *testing.T) {
	hub := events.NewHub(nil)

	got := make(chan events.Message, 10)
	unsub := hub.Subscribe(func(m events.Message) { got <- m })
	defer unsub()

	hub.Initialized()
	hub.DownloadProgress(events.Progress{GameID: 5, Step: "Starting"})
	hub.ProcessTerminated(5, 7)

	want := []string{"app_initialized", "download_progress_5", "game_process_terminated_5"}
	for i, name := range want {
		select {
		case m := <-got:
			if m.Event != name {
				t.Fatalf("event %d = %q, want %q", i, m.Event, name)
			}
			if name == "game_process_terminated_5" {
				term, ok := m.Payload.(events.Termination)
				if !ok || term.ExitCode != 7 {
					t.Errorf("payload = %#v", m.Payload)
				}
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %q", name)
		}
	}
}

func TestHub_SubscribePrefix(t *testing.T) {
	hub := events.NewHub(nil)
	got := make(chan string, 10)
	unsub := hub.SubscribePrefix(events.NameDownloadProgress, func(m events.Message) { got <- m.Event })
	defer unsub()

	hub.Initialized()
	hub.DownloadProgress(events.Progress{GameID: 9})

	select {
	case name := <-got:
		if name != "download_progress_9" {
			t.Errorf("got %q", name)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
}
