package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/basilkensington1-hash/kiin-content-sub002/internal/doctor"
	"github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/config"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List configured voice profiles",
	Long: `Lists the configured voice profiles and whether each one can
synthesize right now. The first profile is the default; others are
selected with --voice on generate and batch.`,
	RunE: runVoices,
}

func init() {
	rootCmd.AddCommand(voicesCmd)
}

func runVoices(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fmt.Println(renderHeader("Voice profiles"))
	fmt.Println()

	profiles := cfg.VoiceProfiles()
	for i, v := range profiles {
		result := doctor.VoiceCheck(v).Check(ctx)
		name := v.Name
		if i == 0 {
			name += " (default)"
		}
		fmt.Printf("  %s %-20s %-9s %s\n", iconFor(result.Status), name, v.Engine, result.Message)
		if target := voiceTarget(v); target != "" {
			fmt.Printf("      %s\n", mutedStyle.Render(target))
		}
	}

	fmt.Println()
	fmt.Printf("Total: %d profile(s)\n", len(profiles))
	return nil
}

// voiceTarget names what the profile synthesizes with, for the detail line
func voiceTarget(v config.VoiceConfig) string {
	switch v.Engine {
	case "piper":
		parts := []string{}
		if v.Model != "" {
			parts = append(parts, "model "+v.Model)
		}
		if v.LengthScale != 0 && v.LengthScale != 1.0 {
			parts = append(parts, fmt.Sprintf("pace %.2f", v.LengthScale))
		}
		return strings.Join(parts, ", ")
	case "command":
		if v.Model != "" {
			return "voice " + v.Model
		}
	case "http":
		return v.URL
	}
	return ""
}
