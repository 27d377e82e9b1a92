package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	xansi "github.com/charmbracelet/x/ansi"

	"github.com/blackwell-systems/vertexctl/internal/catalog"
)

// GameItem is one catalog entry in a list.
type GameItem struct {
	Game catalog.Game
}

// FilterValue returns a string used for filtering in the list
func (g GameItem) FilterValue() string {
	return strings.Join([]string{
		g.Game.Title,
		g.Game.Subtitle,
		strings.Join(g.Game.Tags, " "),
		strings.Join(g.Game.Platforms, " "),
	}, " ")
}

// Status is "installed" when the current archive revision is on disk and
// "download" otherwise.
func (g GameItem) Status() string {
	if g.Game.Downloaded() {
		return "installed"
	}
	return "download"
}

// GameItems wraps games as list items.
func GameItems(games []catalog.Game) []list.Item {
	items := make([]list.Item, len(games))
	for i, g := range games {
		items[i] = GameItem{Game: g}
	}
	return items
}

// renderGameLine renders one row: id, title, platforms and install state,
// truncated to width.
func renderGameLine(g GameItem, width int, selected bool) string {
	const prefixWidth = 2
	idStr := fmt.Sprintf("%3d", g.Game.ID)

	var mark string
	switch g.Status() {
	case "installed":
		mark = StyleInstalled.Render(" ✓")
	case "download":
		mark = StylePending.Render(" ↓")
	}
	platforms := ""
	if len(g.Game.Platforms) > 0 {
		platforms = " " + StyleTag.Render("["+strings.Join(g.Game.Platforms, ",")+"]")
	}

	avail := width - prefixWidth - len(idStr) - 1 - xansi.StringWidth(platforms) - xansi.StringWidth(mark)
	if avail < 8 {
		avail = 8
	}
	title := xansi.Truncate(g.Game.Title, avail, "…")

	if selected {
		return StyleHighlight.Render("› "+idStr+" "+title) + platforms + mark
	}
	return "  " + StyleNormal.Render(idStr) + " " + title + platforms + mark
}

func renderGamePickerItem(w io.Writer, m list.Model, index int, item list.Item) {
	g, ok := item.(GameItem)
	if !ok {
		return
	}
	_, _ = fmt.Fprint(w, renderGameLine(g, m.Width(), index == m.Index()))
}
