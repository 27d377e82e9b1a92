package app

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the local library with the remote catalog",
		Long: `Fetch the remote catalog and bring the local library up to date.

New or updated background images and icons are downloaded. Games whose
archive has a newer revision are marked for download; run
'vertexctl download <id>' to fetch them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEngine()
			sum, err := loadCatalog(cmd.Context(), e, false)
			if err != nil {
				return err
			}

			ok("%d game(s) in library", sum.Games)
			if sum.Skipped > 0 {
				warn("%d invalid catalog record(s) skipped", sum.Skipped)
			}
			if sum.ImageFailures > 0 {
				warn("%d game(s) have images that could not be fetched; they will be retried on the next sync", sum.ImageFailures)
			}
			if n := len(sum.NeedsUpdate); n > 0 {
				fmt.Printf("%s %d game(s) ready to download:", color.YellowString("↓"), n)
				for _, id := range sum.NeedsUpdate {
					fmt.Printf(" %d", id)
				}
				fmt.Println()
			}
			return nil
		},
	}
}
