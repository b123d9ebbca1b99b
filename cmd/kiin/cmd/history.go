package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/basilkensington1-hash/kiin-content-sub002/internal/history"
	"github.com/basilkensington1-hash/kiin-content-sub002/internal/textx"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent generations from the ledger",
	Long: `Shows the most recent generation attempts recorded in the history
ledger, newest first, with an overall tally.`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of entries to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		fmt.Println("History ledger is disabled (history.enabled = false).")
		return nil
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	entries, err := store.Recent(ctx, historyLimit)
	if err != nil {
		return err
	}
	tally, err := store.Tally(ctx)
	if err != nil {
		return err
	}

	fmt.Println(renderHeader("Recent generations"))
	fmt.Println()

	if len(entries) == 0 {
		fmt.Println("No generations recorded yet.")
		return nil
	}

	fmt.Printf("%-17s %-12s %-5s %-7s %-7s %s\n", "WHEN", "TYPE", "ITEM", "LENGTH", "STATUS", "OUTPUT")
	fmt.Println(strings.Repeat("-", 86))

	for _, e := range entries {
		status := okStyle.Render(fmt.Sprintf("%-7s", e.Status))
		detail := e.OutputPath
		if e.Status == history.StatusFailed {
			status = errorStyle.Render(fmt.Sprintf("%-7s", e.Status))
			detail = e.Stage + ": " + e.Error
		}
		fmt.Printf("%-17s %-12s %-5d %-7s %s %s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			e.ContentType, e.ContentID,
			fmt.Sprintf("%.1fs", e.DurationSec),
			status,
			textx.Truncate(detail, 44, "..."))
	}

	fmt.Println()
	fmt.Printf("Total: %d  Done: %d  Failed: %d\n", tally.Total, tally.Done, tally.Failed)
	return nil
}
