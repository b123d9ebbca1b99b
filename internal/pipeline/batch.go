package pipeline

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/basilkensington1-hash/kiin-content-sub002/internal/content"
	"github.com/basilkensington1-hash/kiin-content-sub002/internal/history"
	"github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/config"
	kiinerrors "github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/errors"
	"github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/logging"
)

// BatchRequest describes one batch run. Count and All are mutually
// exclusive; All generates every pack item, optionally restricted to
// a category.
type BatchRequest struct {
	Type         string
	Count        int
	All          bool
	Category     string
	AllowRepeats bool
	AllowSilent  bool
	Concurrency  int
}

// BatchSummary tallies a finished batch. Skipped counts items never
// scheduled because the run was cancelled first.
type BatchSummary struct {
	Results []Result
	Done    int
	Failed  int
	Skipped int
}

// Batch fans generations out over a bounded worker pool. One failed
// item never stops the others; the summary carries the tally.
type Batch struct {
	cfg   *config.Config
	log   *logging.Logger
	rng   *rand.Rand
	packs *content.PackCache

	// newGenerator builds one pipeline per worker; tests swap it
	newGenerator func() (batchGenerator, error)
}

type batchGenerator interface {
	Generate(ctx context.Context, req Request) (Result, error)
	Close() error
}

// NewBatch creates a batch runner backed by real Generators. All
// workers share one pack cache so the pack is read once per batch.
func NewBatch(cfg *config.Config, store *history.Store, log *logging.Logger) *Batch {
	if log == nil {
		log = logging.New()
	}
	cache := content.NewPackCache()
	return &Batch{
		cfg:   cfg,
		log:   log.WithName("batch"),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		packs: cache,
		newGenerator: func() (batchGenerator, error) {
			gen, err := New(cfg, store, log)
			if err != nil {
				return nil, err
			}
			return gen.WithPackCache(cache), nil
		},
	}
}

// Run selects the batch items, generates them across the worker pool
// and returns the tally. A cancelled context stops scheduling new
// items; in-flight generations see the cancellation themselves. The
// returned error reports the cancellation, never an item failure.
func (b *Batch) Run(ctx context.Context, req BatchRequest) (BatchSummary, error) {
	tc, err := b.cfg.Type(req.Type)
	if err != nil {
		return BatchSummary{}, err
	}
	pack, err := b.packs.Load(tc.Name, tc.Pack, packFields(tc))
	if err != nil {
		return BatchSummary{}, err
	}
	items, err := b.selectItems(pack, req)
	if err != nil {
		return BatchSummary{}, err
	}

	workers := req.Concurrency
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	b.log.Info("batch started",
		logging.String("type", req.Type),
		logging.Int("items", len(items)),
		logging.Int("workers", workers))

	jobs := make(chan Request)
	results := make(chan Result, len(items))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.work(ctx, jobs, results)
		}()
	}

	scheduled := 0
schedule:
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		r := Request{
			Type:        req.Type,
			ItemID:      item.ID,
			AllowSilent: req.AllowSilent,
		}
		select {
		case <-ctx.Done():
			break schedule
		case jobs <- r:
			scheduled++
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	summary := BatchSummary{Skipped: len(items) - scheduled}
	for res := range results {
		summary.Results = append(summary.Results, res)
		if res.State == StateDone {
			summary.Done++
		} else {
			summary.Failed++
		}
	}

	b.log.Info("batch finished",
		logging.Int("done", summary.Done),
		logging.Int("failed", summary.Failed),
		logging.Int("skipped", summary.Skipped))
	return summary, ctx.Err()
}

// work owns one Generator for its lifetime. When the pipeline cannot
// even be constructed, every job handed to this worker still yields a
// failed result so the tally stays complete.
func (b *Batch) work(ctx context.Context, jobs <-chan Request, results chan<- Result) {
	gen, err := b.newGenerator()
	if err != nil {
		b.log.WarnWithErr("batch worker failed to start", err)
		for job := range jobs {
			results <- Result{
				State:       StateFailed,
				FailedStage: stageInit,
				Type:        job.Type,
				ItemID:      job.ItemID,
				Err:         err,
			}
		}
		return
	}
	defer gen.Close()

	for job := range jobs {
		res, _ := gen.Generate(ctx, job)
		results <- res
	}
}

func (b *Batch) selectItems(pack *content.Pack, req BatchRequest) ([]content.Item, error) {
	if req.All {
		pool := pack.Items()
		if req.Category != "" {
			pool = pack.ByCategory(req.Category)
		}
		if len(pool) == 0 {
			return nil, kiinerrors.New("no items to generate").
				WithCode(kiinerrors.CodeNotFound).
				WithDetail("type", pack.TypeName()).
				WithDetail("category", req.Category)
		}
		return pool, nil
	}

	n := req.Count
	if n < 1 {
		n = 1
	}
	return pack.Sample(b.rng, n, req.Category, req.AllowRepeats)
}
