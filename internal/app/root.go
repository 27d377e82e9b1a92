package app

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/vertexctl/internal/config"
	"github.com/blackwell-systems/vertexctl/internal/engine"
	"github.com/blackwell-systems/vertexctl/internal/events"
	"github.com/blackwell-systems/vertexctl/internal/logging"
	"github.com/blackwell-systems/vertexctl/internal/tui"
	"github.com/blackwell-systems/vertexctl/internal/util"
)

var (
	cfg    *config.Config
	logger hclog.Logger

	appVersion = "dev"

	flagNoColor       bool
	flagNoInteractive bool
	flagVerbose       bool
	flagConfig        string
)

var rootCmd = &cobra.Command{
	Use:   "vertexctl",
	Short: "Browse, download and launch games from a remote catalog",
	Long: `vertexctl keeps a local game library in sync with a remote JSON catalog.

Catalog images are fetched automatically. Game archives are only downloaded
when you ask for them, then extracted into the data directory.

Run 'vertexctl' with no arguments in a terminal to pick a game to play.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tui.ShouldUseTUI(cmd) {
			return runLaunch(cmd.Context(), cmd, nil, launchOptions{download: true})
		}
		return cmd.Help()
	},
}

// SetVersion records the build version reported by `vertexctl version`.
func SetVersion(v string) {
	if v != "" {
		appVersion = v
	}
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagNoInteractive, "no-interactive", false, "Disable interactive TUI mode")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/vertexctl/config.yml)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		util.InitColor(flagNoColor)

		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger = logging.New("vertexctl", logging.Options{
			Level: logging.Level(cfg.Log.Level, flagVerbose),
			JSON:  cfg.Log.JSON,
		}, os.Stderr)
		return nil
	}

	rootCmd.AddCommand(
		newSyncCmd(),
		newListCmd(),
		newInfoCmd(),
		newDownloadCmd(),
		newLaunchCmd(),
		newServeCmd(),
		newConfigCmd(),
		newVersionCmd(),
		newCompletionCmd(),
	)
}

// newEngine builds an engine from the loaded config. Events go to the log
// plus any extra sinks.
func newEngine(extra ...events.Sink) *engine.Engine {
	sinks := append([]events.Sink{events.Log(logger)}, extra...)
	return engine.New(engine.OptionsFromConfig(cfg, appVersion), engine.Deps{
		Sink:   events.Multi(sinks...),
		Logger: logger,
	})
}
