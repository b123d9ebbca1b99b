package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/basilkensington1-hash/kiin-content-sub002/internal/doctor"
	kiinerrors "github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/errors"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the environment for missing pieces",
	Long: `Checks everything a generation needs: encoder binaries, voice
engines, fonts, content packs, directories and the history ledger.
Exits non-zero when any check fails.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	reg := doctor.NewRegistry(cfg.General.Name)
	doctor.RegisterConfigChecks(reg, cfg, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Println(renderHeader("Environment checks"))
	fmt.Println()

	report := reg.Run(ctx)
	for _, res := range report.Results {
		fmt.Printf("  %s %-16s %s\n", iconFor(res.Status), res.Name, res.Message)
	}

	fmt.Println()
	ok, warn, fail := report.Counts()
	fmt.Printf("%d ok, %d warning(s), %d failure(s)\n", ok, warn, fail)

	if report.Status == doctor.StatusFail {
		return kiinerrors.New(fmt.Sprintf("%d of %d checks failed", fail, len(report.Results))).
			WithCode(kiinerrors.CodeConfig)
	}
	return nil
}
