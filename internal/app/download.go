package app

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/vertexctl/internal/catalog"
	"github.com/blackwell-systems/vertexctl/internal/download"
	"github.com/blackwell-systems/vertexctl/internal/engine"
	"github.com/blackwell-systems/vertexctl/internal/events"
	"github.com/blackwell-systems/vertexctl/internal/tui"
	"github.com/blackwell-systems/vertexctl/internal/util"
)

func newDownloadCmd() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download and install a game's archive",
		Long: `Download the archive of a game, extract it into the game's folder and
record the executable path.

Downloading a game that is already installed at its current revision
fetches it again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := util.ParseGameID(args[0])
			if err != nil {
				return err
			}
			e := newEngine()
			if _, err := loadCatalog(cmd.Context(), e, offline); err != nil {
				return err
			}
			g, err := e.GetGame(id)
			if err != nil {
				return err
			}
			return runDownload(cmd, e, g)
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Use the stored catalog instead of syncing first")
	return cmd
}

// runDownload downloads g with a progress bar in a terminal, or step lines
// otherwise.
func runDownload(cmd *cobra.Command, e *engine.Engine, g catalog.Game) error {
	label := fmt.Sprintf("Downloading %s", g.Title)

	var installed catalog.Game
	fetch := func(ctx context.Context, sink events.Sink) error {
		var err error
		installed, err = e.DownloadWith(ctx, g.ID, sink)
		return err
	}

	var err error
	if tui.ShouldUseTUI(cmd) {
		err = tui.RunDownload(cmd.Context(), label, fetch)
	} else {
		fmt.Printf("%s …\n", label)
		err = fetch(cmd.Context(), &stepPrinter{})
	}
	if err != nil {
		return err
	}
	ok("%s", download.CompleteMessage(g.Title))
	fmt.Printf("  %s %s\n", color.CyanString("executable:"), installed.Archive.Link.LocalPath)
	return nil
}

// stepPrinter prints one line per download step.
type stepPrinter struct {
	events.Nop
	last string
}

func (p *stepPrinter) DownloadProgress(pr events.Progress) {
	if pr.Step == p.last {
		return
	}
	p.last = pr.Step
	switch pr.Step {
	case download.Downloading.String():
		fmt.Printf("  %s %s\n", color.CyanString(pr.Step), humanBytes(pr.FileSize))
	default:
		fmt.Printf("  %s\n", color.CyanString(pr.Step))
	}
}
