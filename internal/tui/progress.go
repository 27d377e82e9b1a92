package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/blackwell-systems/vertexctl/internal/events"
)

// ErrCancelled is returned when the user aborts a download with Ctrl+C.
var ErrCancelled = errors.New("cancelled by user")

// ProgressSink forwards download snapshots into a channel. Other events
// are ignored. It expects a single producer, the download goroutine.
type ProgressSink struct {
	events.Nop
	ch       chan events.Progress
	closed   chan struct{}
	once     sync.Once
	lastStep string
}

// NewProgressSink creates a sink with a small buffer.
func NewProgressSink() *ProgressSink {
	return &ProgressSink{
		ch:     make(chan events.Progress, 16),
		closed: make(chan struct{}),
	}
}

// DownloadProgress implements events.Sink. Intermediate Downloading
// snapshots are dropped when the buffer is full. A step change or a
// finished transfer waits for room until the sink is closed.
func (s *ProgressSink) DownloadProgress(p events.Progress) {
	milestone := p.Step != s.lastStep || (p.FileSize > 0 && p.Downloaded == p.FileSize)
	s.lastStep = p.Step
	if !milestone {
		select {
		case s.ch <- p:
		default:
		}
		return
	}
	select {
	case s.ch <- p:
	case <-s.closed:
	}
}

// Close stops blocking sends once nobody reads Updates. Safe to call more
// than once.
func (s *ProgressSink) Close() {
	s.once.Do(func() { close(s.closed) })
}

// Updates returns the snapshot channel.
func (s *ProgressSink) Updates() <-chan events.Progress { return s.ch }

// progressMsg carries one snapshot
type progressMsg events.Progress

// doneMsg is sent when the download returns
type doneMsg struct{}

// tickMsg is sent periodically to refresh the UI
type tickMsg time.Time

// progressModel is the Bubble Tea model for a running download
type progressModel struct {
	progress  progress.Model
	label     string
	current   events.Progress
	done      bool
	cancelled bool
	cancel    context.CancelFunc
	updates   <-chan events.Progress
	finished  <-chan struct{}
}

func (m progressModel) Init() tea.Cmd {
	return tea.Batch(tickCmd(), waitForUpdate(m.updates, m.finished))
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForUpdate(updates <-chan events.Progress, finished <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case p := <-updates:
			return progressMsg(p)
		case <-finished:
			// Snapshots sent before the download returned come first.
			select {
			case p := <-updates:
				return progressMsg(p)
			default:
				return doneMsg{}
			}
		}
	}
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancelled = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case tickMsg:
		if m.done {
			return m, tea.Quit
		}
		return m, tickCmd()

	case progressMsg:
		m.current = events.Progress(msg)
		return m, waitForUpdate(m.updates, m.finished)

	case doneMsg:
		m.done = true
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		return m, nil
	}

	return m, nil
}

// fraction is the completed share of the archive in [0, 1].
func (m progressModel) fraction() float64 {
	if m.current.FileSize == 0 {
		return 0
	}
	f := float64(m.current.Downloaded) / float64(m.current.FileSize)
	if f > 1 {
		return 1
	}
	return f
}

func (m progressModel) View() string {
	if m.done {
		return ""
	}

	step := m.current.Step
	if step == "" {
		step = "Starting"
	}
	detail := fmt.Sprintf("%s / %s  (%s)",
		humanize.IBytes(m.current.Downloaded),
		humanize.IBytes(m.current.FileSize),
		m.current.Percentage,
	)
	if m.current.Speed != "" {
		detail += "  " + m.current.Speed
	}
	if m.current.RemainingTime != "" {
		detail += "  ETA " + m.current.RemainingTime
	}

	return fmt.Sprintf(
		"%s  %s\n%s\n%s\n",
		m.label,
		StyleTag.Render("["+step+"]"),
		m.progress.ViewAs(m.fraction()),
		StyleHelp.Render(detail),
	)
}

// RunDownload shows a progress bar while run executes. run receives a
// context that is cancelled on Ctrl+C and a sink to report progress to.
func RunDownload(ctx context.Context, label string, run func(ctx context.Context, sink events.Sink) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sink := NewProgressSink()
	finished := make(chan struct{})
	var runErr error
	go func() {
		defer close(finished)
		runErr = run(ctx, sink)
	}()

	m := progressModel{
		progress: progress.New(progress.WithDefaultGradient()),
		label:    label,
		cancel:   cancel,
		updates:  sink.Updates(),
		finished: finished,
	}

	finalModel, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()

	// run must observe cancellation before its error is read.
	cancel()
	sink.Close()
	<-finished

	if fm, ok := finalModel.(progressModel); ok && fm.cancelled {
		return ErrCancelled
	}
	if runErr != nil {
		return runErr
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
