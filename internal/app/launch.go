package app

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/vertexctl/internal/catalog"
	"github.com/blackwell-systems/vertexctl/internal/tui"
	"github.com/blackwell-systems/vertexctl/internal/util"
)

type launchOptions struct {
	download bool
	offline  bool
}

func newLaunchCmd() *cobra.Command {
	var opts launchOptions

	cmd := &cobra.Command{
		Use:   "launch [id]",
		Short: "Start an installed game and wait for it to exit",
		Long: `Start a game's executable from its folder and wait for it to exit.

Without an id, an interactive picker is shown in a terminal.

Examples:
  vertexctl launch 3
  vertexctl launch 3 --download
  vertexctl launch --offline`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !tui.ShouldUseTUI(cmd) {
				return fmt.Errorf("game id required (or run in a terminal to pick one)")
			}
			return runLaunch(cmd.Context(), cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.download, "download", false, "Download the game first if it is not installed")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "Use the stored catalog instead of syncing first")
	return cmd
}

func runLaunch(ctx context.Context, cmd *cobra.Command, args []string, opts launchOptions) error {
	e := newEngine()
	if _, err := loadCatalog(ctx, e, opts.offline); err != nil {
		return err
	}

	var g catalog.Game
	if len(args) == 1 {
		id, err := util.ParseGameID(args[0])
		if err != nil {
			return err
		}
		if g, err = e.GetGame(id); err != nil {
			return err
		}
	} else {
		var err error
		if g, err = tui.RunGamePicker(e.GetGameList(), "Select a game to play"); err != nil {
			return err
		}
	}

	if !g.Downloaded() {
		if !opts.download {
			return fmt.Errorf("%s is not installed; run 'vertexctl download %d' or pass --download", g.Title, g.ID)
		}
		if err := runDownload(cmd, e, g); err != nil {
			return err
		}
	}

	header("Launching %s", g.Title)
	code, err := e.Launch(ctx, g.ID)
	if err != nil {
		return err
	}
	if code != 0 {
		warn("%s exited with code %d", g.Title, code)
		return nil
	}
	fmt.Println(color.GreenString("✓"), g.Title, "exited")
	return nil
}
