package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/vertexctl/internal/catalog"
)

type listResult struct {
	ID         uint8    `json:"id"`
	Title      string   `json:"title"`
	Version    string   `json:"version,omitempty"`
	Platforms  []string `json:"platform"`
	Tags       []string `json:"tags"`
	Installed  bool     `json:"installed"`
	NeedUpdate bool     `json:"need_update"`
}

func newListCmd() *cobra.Command {
	var (
		f       catalog.Filter
		jsonOut bool
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List games in the catalog",
		Long: `List games ordered by catalog weight.

Examples:
  vertexctl list
  vertexctl list --platform linux --tag arcade
  vertexctl list --search runner --json
  vertexctl list --offline`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEngine()
			if _, err := loadCatalog(cmd.Context(), e, offline); err != nil {
				return err
			}
			games := f.Apply(e.GetGameList())
			if jsonOut {
				return writeListJSON(os.Stdout, games)
			}
			writeListText(os.Stdout, games)
			return nil
		},
	}

	cmd.Flags().StringVar(&f.Tag, "tag", "", "Filter by tag")
	cmd.Flags().StringVar(&f.Platform, "platform", "", "Filter by platform")
	cmd.Flags().StringVar(&f.Search, "search", "", "Match title, subtitle or tags")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use the stored catalog without contacting the remote")

	return cmd
}

func writeListJSON(w io.Writer, games []catalog.Game) error {
	results := make([]listResult, 0, len(games))
	for _, g := range games {
		results = append(results, listResult{
			ID:         g.ID,
			Title:      g.Title,
			Version:    g.Version,
			Platforms:  g.Platforms,
			Tags:       g.Tags,
			Installed:  g.Downloaded(),
			NeedUpdate: g.Archive.NeedUpdate,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func writeListText(w io.Writer, games []catalog.Game) {
	if len(games) == 0 {
		_, _ = fmt.Fprintln(w, "No games found.")
		return
	}
	for _, g := range games {
		mark := ""
		if g.Downloaded() {
			mark = color.GreenString(" ✓")
		} else if g.Archive.NeedUpdate {
			mark = color.YellowString(" ↓")
		}
		tags := ""
		if len(g.Tags) > 0 {
			tags = " " + color.CyanString("["+strings.Join(g.Tags, ",")+"]")
		}
		_, _ = fmt.Fprintf(w, "  %3d  %s%s%s\n", g.ID, g.Title, tags, mark)
	}
	_, _ = fmt.Fprintf(w, "\n%d game(s)\n", len(games))
}
