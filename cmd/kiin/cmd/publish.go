package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/basilkensington1-hash/kiin-content-sub002/internal/publish"
)

var (
	publishFile        string
	publishTitle       string
	publishDescription string
	publishTags        []string
	publishPrivacy     string
	publishCategory    string
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload a finished video to YouTube",
	Long: `Uploads a finished video through the YouTube Data API. Nothing is
ever uploaded implicitly; this command is the only path.

Credentials come from KIIN_YT_CLIENT_ID, KIIN_YT_CLIENT_SECRET and
KIIN_YT_REFRESH_TOKEN (a .env file next to the binary works).

Examples:
  kiin publish --file output/tips_003_a1b2c3d4.mp4 --title "Five tips for better meetings"
  kiin publish --file out.mp4 --title "..." --privacy unlisted --tags shorts,tips`,
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)

	publishCmd.Flags().StringVar(&publishFile, "file", "", "video file to upload")
	publishCmd.Flags().StringVar(&publishTitle, "title", "", "video title")
	publishCmd.Flags().StringVar(&publishDescription, "description", "", "video description")
	publishCmd.Flags().StringSliceVar(&publishTags, "tags", nil, "comma-separated tags")
	publishCmd.Flags().StringVar(&publishPrivacy, "privacy", "", "privacy status: private, unlisted or public (default: config)")
	publishCmd.Flags().StringVar(&publishCategory, "category", "", "YouTube category id (default: config)")
	publishCmd.MarkFlagRequired("file")
	publishCmd.MarkFlagRequired("title")
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	ctx, cancel := signalContext()
	defer cancel()

	id, url, err := publish.New(cfg.Publish, log).Upload(ctx, publishFile, publish.Metadata{
		Title:       publishTitle,
		Description: publishDescription,
		Tags:        publishTags,
		CategoryID:  publishCategory,
		Privacy:     publishPrivacy,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s uploaded: %s\n", statusIcon(true), url)
	fmt.Printf("    video id: %s\n", id)
	return nil
}
