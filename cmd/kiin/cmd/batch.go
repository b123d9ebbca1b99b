package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/basilkensington1-hash/kiin-content-sub002/internal/pipeline"
	kiinerrors "github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/errors"
)

var (
	batchType         string
	batchCount        int
	batchAll          bool
	batchCategory     string
	batchConcurrency  int
	batchAllowRepeats bool
	batchAllowSilent  bool
	batchVoice        string
	batchKeepTemp     bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Generate many videos across a worker pool",
	Long: `Generates a batch of videos from one content type. One failed item
never stops the others; the command reports a tally and exits non-zero
when anything failed.

Examples:
  kiin batch --type tips --count 5
  kiin batch --type myths --all
  kiin batch --type tips --count 20 --concurrency 4 --allow-repeats`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&batchType, "type", "", "content type to generate")
	batchCmd.Flags().IntVar(&batchCount, "count", 0, "number of videos to generate")
	batchCmd.Flags().BoolVar(&batchAll, "all", false, "generate every item in the pack")
	batchCmd.Flags().StringVar(&batchCategory, "category", "", "restrict selection to a category")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "parallel workers (default: CPU count, capped)")
	batchCmd.Flags().BoolVar(&batchAllowRepeats, "allow-repeats", false, "sample with repetition when the pack is small")
	batchCmd.Flags().BoolVar(&batchAllowSilent, "allow-silent", false, "fall back to silent tracks when narration fails")
	batchCmd.Flags().StringVar(&batchVoice, "voice", "", "voice profile to narrate with")
	batchCmd.Flags().BoolVar(&batchKeepTemp, "keep-temp", false, "keep the run temp directories")
	batchCmd.MarkFlagRequired("type")
}

func runBatch(cmd *cobra.Command, args []string) error {
	if batchAll == (batchCount > 0) {
		return kiinerrors.New("pass exactly one of --count or --all").
			WithCode(kiinerrors.CodeInvalidInput)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if batchVoice != "" {
		profile, err := cfg.VoiceProfile(batchVoice)
		if err != nil {
			return err
		}
		cfg.Voice = profile
	}
	if batchKeepTemp {
		cfg.General.KeepTemp = true
	}

	log := newLogger(cfg)
	store := openHistory(cfg, log)
	if store != nil {
		defer store.Close()
	}

	ctx, cancel := signalContext()
	defer cancel()

	summary, runErr := pipeline.NewBatch(cfg, store, log).Run(ctx, pipeline.BatchRequest{
		Type:         batchType,
		Count:        batchCount,
		All:          batchAll,
		Category:     batchCategory,
		AllowRepeats: batchAllowRepeats,
		AllowSilent:  batchAllowSilent,
		Concurrency:  batchConcurrency,
	})
	if runErr != nil && len(summary.Results) == 0 {
		return runErr
	}

	fmt.Println()
	var firstErr error
	for _, res := range summary.Results {
		if res.State == pipeline.StateDone {
			fmt.Printf("  %s item %-4d %s\n", statusIcon(true), res.ItemID, res.OutputPath)
			continue
		}
		if firstErr == nil {
			firstErr = res.Err
		}
		fmt.Printf("  %s item %-4d failed at %s: %v\n", statusIcon(false), res.ItemID, res.FailedStage, res.Err)
	}

	fmt.Println()
	fmt.Printf("Done: %d  Failed: %d  Skipped: %d\n", summary.Done, summary.Failed, summary.Skipped)

	if runErr != nil {
		return runErr
	}
	if summary.Failed > 0 {
		return kiinerrors.New(fmt.Sprintf("%d of %d generations failed", summary.Failed, len(summary.Results))).
			WithCode(kiinerrors.GetCode(firstErr))
	}
	return nil
}
