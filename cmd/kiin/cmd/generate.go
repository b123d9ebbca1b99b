package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/basilkensington1-hash/kiin-content-sub002/internal/pipeline"
	kiinerrors "github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/errors"
)

var (
	generateType        string
	generateID          int
	generateRandom      bool
	generateCategory    string
	generateOutput      string
	generateVoice       string
	generateAllowSilent bool
	generateKeepTemp    bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one video from a content item",
	Long: `Generates one video from one content item.

Examples:
  kiin generate --type tips --id 3
  kiin generate --type myths --random --category sleep
  kiin generate --type tips --id 3 --voice calm --output five-tips.mp4`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&generateType, "type", "", "content type to generate")
	generateCmd.Flags().IntVar(&generateID, "id", 0, "item id to generate")
	generateCmd.Flags().BoolVar(&generateRandom, "random", false, "pick a random item")
	generateCmd.Flags().StringVar(&generateCategory, "category", "", "restrict --random to a category")
	generateCmd.Flags().StringVar(&generateOutput, "output", "", "output file path (default: output dir)")
	generateCmd.Flags().StringVar(&generateVoice, "voice", "", "voice profile to narrate with")
	generateCmd.Flags().BoolVar(&generateAllowSilent, "allow-silent", false, "fall back to a silent track when narration fails")
	generateCmd.Flags().BoolVar(&generateKeepTemp, "keep-temp", false, "keep the run temp directory for inspection")
	generateCmd.MarkFlagRequired("type")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if !generateRandom && !cmd.Flags().Changed("id") {
		return kiinerrors.New("pass --id or --random to pick an item").
			WithCode(kiinerrors.CodeInvalidInput)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if generateVoice != "" {
		profile, err := cfg.VoiceProfile(generateVoice)
		if err != nil {
			return err
		}
		cfg.Voice = profile
	}
	if generateKeepTemp {
		cfg.General.KeepTemp = true
	}

	log := newLogger(cfg)
	store := openHistory(cfg, log)
	if store != nil {
		defer store.Close()
	}

	gen, err := pipeline.New(cfg, store, log)
	if err != nil {
		return err
	}
	defer gen.Close()

	ctx, cancel := signalContext()
	defer cancel()

	res, err := gen.Generate(ctx, pipeline.Request{
		Type:        generateType,
		ItemID:      generateID,
		Random:      generateRandom,
		Category:    generateCategory,
		OutputPath:  generateOutput,
		AllowSilent: generateAllowSilent,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s %s\n", statusIcon(true), res.OutputPath)
	fmt.Printf("    item %d (%s), %.1fs video, %.1fs narration by %s, took %s\n",
		res.ItemID, res.Category, res.Measured, res.Narration, res.Voice,
		res.Elapsed.Round(time.Millisecond))
	return nil
}
