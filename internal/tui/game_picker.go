package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/blackwell-systems/vertexctl/internal/catalog"
	"github.com/blackwell-systems/vertexctl/internal/tui/delegate"
	"github.com/blackwell-systems/vertexctl/internal/tui/picker"
)

type gamePickerModel struct {
	base     *picker.Base
	selected *GameItem
}

func (m gamePickerModel) Init() tea.Cmd {
	return nil
}

func (m gamePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.base.Update(msg)

	if m.base.IsQuitting() && m.base.Error() == nil {
		if item, ok := m.base.SelectedItem().(GameItem); ok {
			m.selected = &item
		}
	}

	return m, cmd
}

func (m gamePickerModel) View() string {
	return m.base.View()
}

// RunGamePicker launches an interactive game picker and returns the chosen
// game, or an error if the user cancelled.
func RunGamePicker(games []catalog.Game, title string) (catalog.Game, error) {
	if len(games) == 0 {
		return catalog.Game{}, fmt.Errorf("no games to display")
	}

	l := list.New(GameItems(games), delegate.New(renderGamePickerItem), 0, 0)
	if title == "" {
		title = "Select a game"
	}
	l.Title = title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = StyleHeader
	l.Styles.PaginationStyle = StyleHelp
	l.Styles.HelpStyle = StyleHelp

	keys := NewPickerKeys()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Select}
	}

	base := picker.New(picker.Config{
		List:        l,
		QuitKeys:    keys.Quit,
		SelectKeys:  keys.Select,
		ShowBorder:  true,
		BorderStyle: StyleBorder,
		OnSelect: func(list.Item) bool {
			return true
		},
	})

	p := tea.NewProgram(gamePickerModel{base: base}, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return catalog.Game{}, fmt.Errorf("running TUI: %w", err)
	}

	fm, ok := finalModel.(gamePickerModel)
	if ok && fm.selected != nil {
		return fm.selected.Game, nil
	}
	if ok && fm.base.Error() != nil {
		return catalog.Game{}, fm.base.Error()
	}
	return catalog.Game{}, fmt.Errorf("canceled")
}
