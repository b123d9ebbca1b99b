package integration

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/basilkensington1-hash/kiin-content-sub002/internal/assemble"
	"github.com/basilkensington1-hash/kiin-content-sub002/internal/history"
	"github.com/basilkensington1-hash/kiin-content-sub002/internal/pipeline"
)

// TestGenerate_EndToEnd drives one tip through the full toolchain:
// plan, render, narrate (silent engine), reconcile, assemble, verify.
func TestGenerate_EndToEnd(t *testing.T) {
	requireTools(t, "ffmpeg", "ffprobe")
	cfg := testConfig(t)

	ctx, cancel := context.WithTimeout(context.Background(), testDeadline)
	defer cancel()

	gen, err := pipeline.New(cfg, nil, testLogger())
	requireNoError(t, err, "building pipeline")
	defer gen.Close()

	res, err := gen.Generate(ctx, pipeline.Request{Type: "tips", ItemID: 1})
	requireNoError(t, err, "Generate failed")

	if res.State != pipeline.StateDone {
		t.Fatalf("State = %s, want %s", res.State, pipeline.StateDone)
	}
	if res.Voice != "silent" {
		t.Errorf("Voice = %q, want silent", res.Voice)
	}
	if res.Narration <= 0 {
		t.Errorf("Narration = %v, want > 0", res.Narration)
	}
	if drift := math.Abs(res.Measured - res.Planned); drift > assemble.DurationTolerance {
		t.Errorf("measured %.2fs drifts %.2fs from planned %.2fs", res.Measured, drift, res.Planned)
	}
	requireFile(t, res.OutputPath)

	// Default naming puts outputs under the configured output dir
	if filepath.Dir(res.OutputPath) != filepath.Clean(cfg.General.OutputDir) {
		t.Errorf("OutputPath %s not in output dir %s", res.OutputPath, cfg.General.OutputDir)
	}

	// The scoped temp dir is removed unless keep_temp is set
	tmp := filepath.Join(cfg.General.DataDir, "tmp", "run-"+res.RunID)
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Errorf("run temp dir %s was not cleaned up", tmp)
	}
}

// TestGenerate_TransitionAndCrossfade exercises the myth layout: a
// fixed transition slide between hook and body, and crossfaded joints.
func TestGenerate_TransitionAndCrossfade(t *testing.T) {
	requireTools(t, "ffmpeg", "ffprobe")
	cfg := testConfig(t)

	ctx, cancel := context.WithTimeout(context.Background(), testDeadline)
	defer cancel()

	gen, err := pipeline.New(cfg, nil, testLogger())
	requireNoError(t, err, "building pipeline")
	defer gen.Close()

	out := filepath.Join(cfg.General.OutputDir, "myth.mp4")
	res, err := gen.Generate(ctx, pipeline.Request{Type: "myths", ItemID: 1, OutputPath: out})
	requireNoError(t, err, "Generate failed")

	if res.OutputPath != out {
		t.Errorf("OutputPath = %s, want %s", res.OutputPath, out)
	}
	if drift := math.Abs(res.Measured - res.Planned); drift > assemble.DurationTolerance {
		t.Errorf("measured %.2fs drifts %.2fs from planned %.2fs", res.Measured, drift, res.Planned)
	}
	requireFile(t, out)
}

// TestGenerate_RecordsHistory checks the ledger sees both outcomes:
// a finished run and an init failure for an unknown item.
func TestGenerate_RecordsHistory(t *testing.T) {
	requireTools(t, "ffmpeg", "ffprobe")
	cfg := testConfig(t)

	ctx, cancel := context.WithTimeout(context.Background(), testDeadline)
	defer cancel()

	store, err := history.Open(cfg.History.Path)
	requireNoError(t, err, "opening history")
	defer store.Close()

	gen, err := pipeline.New(cfg, store, testLogger())
	requireNoError(t, err, "building pipeline")
	defer gen.Close()

	res, err := gen.Generate(ctx, pipeline.Request{Type: "tips", ItemID: 2})
	requireNoError(t, err, "Generate failed")

	if _, err := gen.Generate(ctx, pipeline.Request{Type: "tips", ItemID: 99}); err == nil {
		t.Fatal("Generate(99) should fail for an unknown item")
	}

	entries, err := store.Recent(ctx, 10)
	requireNoError(t, err, "reading history")
	if len(entries) != 2 {
		t.Fatalf("history has %d entries, want 2", len(entries))
	}

	// Most recent first: the failed attempt, then the finished run
	if entries[0].Status != history.StatusFailed {
		t.Errorf("entries[0].Status = %q, want failed", entries[0].Status)
	}
	if entries[0].Stage != "init" {
		t.Errorf("entries[0].Stage = %q, want init", entries[0].Stage)
	}
	if entries[1].Status != history.StatusDone {
		t.Errorf("entries[1].Status = %q, want done", entries[1].Status)
	}
	if entries[1].RunID != res.RunID {
		t.Errorf("entries[1].RunID = %q, want %q", entries[1].RunID, res.RunID)
	}
	if entries[1].OutputPath != res.OutputPath {
		t.Errorf("entries[1].OutputPath = %q, want %q", entries[1].OutputPath, res.OutputPath)
	}

	tally, err := store.Tally(ctx)
	requireNoError(t, err, "tallying history")
	if tally.Done != 1 || tally.Failed != 1 {
		t.Errorf("tally = %+v, want 1 done / 1 failed", tally)
	}
}

// TestBatch_EndToEnd generates every myth across two workers
func TestBatch_EndToEnd(t *testing.T) {
	requireTools(t, "ffmpeg", "ffprobe")
	cfg := testConfig(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*testDeadline)
	defer cancel()

	summary, err := pipeline.NewBatch(cfg, nil, testLogger()).Run(ctx, pipeline.BatchRequest{
		Type:        "myths",
		All:         true,
		Concurrency: 2,
	})
	requireNoError(t, err, "batch run")

	if summary.Done != 2 || summary.Failed != 0 || summary.Skipped != 0 {
		t.Fatalf("summary = %d done / %d failed / %d skipped, want 2/0/0",
			summary.Done, summary.Failed, summary.Skipped)
	}
	for _, res := range summary.Results {
		if res.State != pipeline.StateDone {
			t.Errorf("item %d state = %s (stage %s): %v", res.ItemID, res.State, res.FailedStage, res.Err)
			continue
		}
		requireFile(t, res.OutputPath)
	}
}
