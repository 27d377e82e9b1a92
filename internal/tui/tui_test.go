package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	xansi "github.com/charmbracelet/x/ansi"

	"github.com/blackwell-systems/vertexctl/internal/catalog"
	"github.com/blackwell-systems/vertexctl/internal/events"
)

func TestGameItemStatus(t *testing.T) {
	g := catalog.Game{ID: 1, Title: "Star Runner"}
	g.Archive.NeedUpdate = true
	if got := (GameItem{Game: g}).Status(); got != "download" {
		t.Errorf("Status = %q, want download", got)
	}
	g.Archive.NeedUpdate = false
	g.Archive.Link.LocalPath = "/games/starrunner/run"
	if got := (GameItem{Game: g}).Status(); got != "installed" {
		t.Errorf("Status = %q, want installed", got)
	}
}

func TestGameItemFilterValue(t *testing.T) {
	item := GameItem{Game: catalog.Game{Title: "Moon Base", Tags: []string{"puzzle"}, Platforms: []string{"linux"}}}
	fv := item.FilterValue()
	for _, want := range []string{"Moon Base", "puzzle", "linux"} {
		if !strings.Contains(fv, want) {
			t.Errorf("FilterValue %q missing %q", fv, want)
		}
	}
}

func TestRenderGameLineTruncates(t *testing.T) {
	item := GameItem{Game: catalog.Game{ID: 7, Title: strings.Repeat("Long Title ", 20)}}
	line := renderGameLine(item, 40, false)
	if w := xansi.StringWidth(line); w > 40 {
		t.Errorf("line width = %d, want <= 40: %q", w, line)
	}
	if !strings.Contains(xansi.Strip(line), "…") {
		t.Errorf("expected ellipsis in %q", line)
	}
}

func TestProgressSinkDropsIntermediateWhenFull(t *testing.T) {
	s := NewProgressSink()
	for i := 0; i < 100; i++ {
		s.DownloadProgress(events.Progress{Step: "Downloading", FileSize: 1000, Downloaded: uint64(i)})
	}
	if n := len(s.Updates()); n != cap(s.ch) {
		t.Errorf("buffered %d, want %d", n, cap(s.ch))
	}
}

func TestProgressSinkDeliversFinalSnapshots(t *testing.T) {
	s := NewProgressSink()
	for i := 0; i < 100; i++ {
		s.DownloadProgress(events.Progress{Step: "Downloading", FileSize: 1000, Downloaded: uint64(i)})
	}

	sent := make(chan struct{})
	go func() {
		defer close(sent)
		s.DownloadProgress(events.Progress{Step: "Downloading", FileSize: 1000, Downloaded: 1000})
		s.DownloadProgress(events.Progress{Step: "Complete", FileSize: 1000, Downloaded: 1000})
	}()

	var got []events.Progress
	timeout := time.After(5 * time.Second)
	for len(got) < cap(s.ch)+2 {
		select {
		case p := <-s.Updates():
			got = append(got, p)
		case <-timeout:
			t.Fatalf("received %d snapshots, want %d", len(got), cap(s.ch)+2)
		}
	}
	<-sent

	full, complete := got[len(got)-2], got[len(got)-1]
	if full.Downloaded != 1000 || full.Step != "Downloading" {
		t.Errorf("second to last = %+v, want the 100%% snapshot", full)
	}
	if complete.Step != "Complete" {
		t.Errorf("last = %+v, want Complete", complete)
	}
}

func TestProgressSinkCloseUnblocks(t *testing.T) {
	s := NewProgressSink()
	for i := 0; i < cap(s.ch); i++ {
		s.DownloadProgress(events.Progress{Step: "Downloading", FileSize: 1000, Downloaded: uint64(i)})
	}

	sent := make(chan struct{})
	go func() {
		defer close(sent)
		s.DownloadProgress(events.Progress{Step: "Complete", FileSize: 1000, Downloaded: 1000})
	}()
	s.Close()
	s.Close()

	select {
	case <-sent:
	case <-time.After(5 * time.Second):
		t.Fatal("send blocked after Close")
	}
}

func TestWaitForUpdatePrefersPendingSnapshot(t *testing.T) {
	updates := make(chan events.Progress, 1)
	finished := make(chan struct{})
	updates <- events.Progress{Step: "Complete"}
	close(finished)

	msg := waitForUpdate(updates, finished)()
	if p, ok := msg.(progressMsg); !ok || p.Step != "Complete" {
		t.Fatalf("msg = %#v, want the pending snapshot", msg)
	}
	if _, ok := waitForUpdate(updates, finished)().(doneMsg); !ok {
		t.Error("expected doneMsg once drained")
	}
}

func TestProgressModelUpdate(t *testing.T) {
	finished := make(chan struct{})
	m := progressModel{
		progress: progress.New(),
		label:    "Star Runner",
		finished: finished,
		updates:  make(chan events.Progress),
	}

	next, _ := m.Update(progressMsg(events.Progress{FileSize: 200, Downloaded: 50, Percentage: "25.00%", Step: "Downloading"}))
	m = next.(progressModel)
	if got := m.fraction(); got != 0.25 {
		t.Errorf("fraction = %v, want 0.25", got)
	}
	if view := m.View(); !strings.Contains(view, "Downloading") || !strings.Contains(view, "25.00%") {
		t.Errorf("view = %q", view)
	}

	next, cmd := m.Update(doneMsg{})
	m = next.(progressModel)
	if !m.done || cmd == nil {
		t.Fatal("done message did not finish the model")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected quit command")
	}
	if m.View() != "" {
		t.Error("finished model should render nothing")
	}
}

func TestProgressModelCtrlCCancels(t *testing.T) {
	cancelled := false
	m := progressModel{cancel: func() { cancelled = true }}
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !next.(progressModel).cancelled || !cancelled {
		t.Error("ctrl+c did not cancel the download")
	}
}
