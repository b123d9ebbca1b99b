package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/basilkensington1-hash/kiin-content-sub002/internal/history"
	"github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/config"
	kiinerrors "github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/errors"
	"github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/logging"
)

var (
	cfgFile string
	verbose bool
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "kiin",
	Short: "kiin - content factory for short vertical videos",
	Long: `kiin turns JSON content packs into short branded vertical videos.

A generation plans the section timeline, renders the frames, narrates
the script and assembles the final file with ffmpeg.

Commands:
  generate - one video from one content item
  batch    - many videos across a worker pool
  list     - content types and pack items
  voices   - configured voice profiles
  history  - recent generation ledger
  doctor   - environment checks
  publish  - upload a finished video to YouTube`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./configs/kiin.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug output with error details")
}

// loadConfig resolves the --config flag against the default locations
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	return config.LoadFromEnv()
}

// newLogger builds the CLI logger from the config; --verbose and
// --debug lower the level regardless of what the config says.
func newLogger(cfg *config.Config) *logging.Logger {
	log := logging.New()

	if level, err := logging.ParseLevel(cfg.General.LogLevel); err == nil {
		log = log.WithLevel(level)
	}
	if format, err := logging.ParseFormat(cfg.General.LogFormat); err == nil {
		log = log.WithFormat(format)
	}
	if verbose {
		log = log.WithLevel(logging.LevelDebug)
	}
	if debug {
		log = log.WithLevel(logging.LevelTrace)
	}
	return log
}

// openHistory opens the ledger when enabled. A broken ledger degrades
// to a warning; generation must not depend on it.
func openHistory(cfg *config.Config, log *logging.Logger) *history.Store {
	if !cfg.History.Enabled {
		return nil
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		log.WarnWithErr("history ledger unavailable, continuing without it", err)
		return nil
	}
	return store
}

// signalContext cancels on Ctrl-C or SIGTERM so in-flight encoder and
// TTS processes are stopped instead of orphaned.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printError(err error) {
	var kerr *kiinerrors.Error
	if !errors.As(err, &kerr) {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		return
	}

	fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("error [%s]: %s", kerr.Code(), kerr.Error())))
	if debug {
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, kerr.String())
		for _, f := range kerr.Stack() {
			fmt.Fprintf(os.Stderr, "  %s\n      %s:%d\n", f.Function, f.File, f.Line)
		}
	}
}
