package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/blackwell-systems/vertexctl/internal/catalog"
	"github.com/blackwell-systems/vertexctl/internal/util"
)

func newInfoCmd() *cobra.Command {
	var (
		format  string
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "info <id>",
		Short: "Show catalog metadata and install status for a game",
		Args:  cobra.ExactArgs(1),
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
			return writeInfo(os.Stdout, g, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "Output format: json or yaml")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use the stored catalog without contacting the remote")
	return cmd
}

func writeInfo(w io.Writer, g catalog.Game, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(g)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(g); err != nil {
			return err
		}
		return enc.Close()
	case "":
	default:
		return fmt.Errorf("unknown format %q (use json or yaml)", format)
	}

	_, _ = fmt.Fprintln(w, color.CyanString(fmt.Sprintf("Game %d: %s", g.ID, g.Title)))
	field := func(label, value string) {
		if value != "" {
			_, _ = fmt.Fprintf(w, "  %-14s %s\n", color.CyanString(label+":"), value)
		}
	}
	field("subtitle", g.Subtitle)
	field("version", g.Version)
	field("platform", strings.Join(g.Platforms, ", "))
	field("tags", strings.Join(g.Tags, ", "))
	field("folder", g.FolderName())
	field("revision", fmt.Sprintf("%d", g.Archive.Link.Revision))

	status := color.RedString("not installed")
	switch {
	case g.Downloaded():
		status = color.GreenString("installed") + "  " + g.Archive.Link.LocalPath
	case g.Archive.NeedUpdate:
		status = color.YellowString("download available")
	}
	field("status", status)
	if g.Description != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", g.Description)
	}
	return nil
}
