// Package picker provides the list-selection model shared by full-screen
// pickers.
package picker

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SelectHandler is called when an item is selected.
// Return true to quit the picker, false to continue.
type SelectHandler func(selectedItem list.Item) bool

// Config configures a base picker.
type Config struct {
	List list.Model

	QuitKeys   key.Binding
	SelectKeys key.Binding

	OnSelect SelectHandler

	BorderStyle lipgloss.Style
	ShowBorder  bool
}

// Base handles quitting, selection and resizing for a list picker.
type Base struct {
	config   Config
	list     list.Model
	quitting bool
	err      error
}

// New creates a new base picker.
func New(cfg Config) *Base {
	return &Base{
		config: cfg,
		list:   cfg.List,
	}
}

// IsQuitting returns whether the picker is quitting.
func (b *Base) IsQuitting() bool {
	return b.quitting
}

// Error returns any error that occurred.
func (b *Base) Error() error {
	return b.err
}

// Update handles standard picker updates.
func (b *Base) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Keys belong to the filter input while filtering.
		if b.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, b.config.QuitKeys):
			b.err = fmt.Errorf("canceled by user")
			b.quitting = true
			return tea.Quit

		case key.Matches(msg, b.config.SelectKeys):
			if b.config.OnSelect != nil {
				if item := b.list.SelectedItem(); item != nil && b.config.OnSelect(item) {
					b.quitting = true
					return tea.Quit
				}
			}
		}

	case tea.WindowSizeMsg:
		if b.config.ShowBorder {
			h, v := b.config.BorderStyle.GetFrameSize()
			b.list.SetSize(msg.Width-h, msg.Height-v)
		} else {
			b.list.SetSize(msg.Width, msg.Height)
		}
	}

	var cmd tea.Cmd
	b.list, cmd = b.list.Update(msg)
	return cmd
}

// View renders the picker.
func (b *Base) View() string {
	if b.quitting {
		return ""
	}
	view := b.list.View()
	if b.config.ShowBorder {
		return b.config.BorderStyle.Render(view)
	}
	return view
}

// SelectedItem returns the currently selected item.
func (b *Base) SelectedItem() list.Item {
	return b.list.SelectedItem()
}
