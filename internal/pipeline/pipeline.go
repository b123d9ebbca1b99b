// Package pipeline drives one content item through the full toolchain:
// plan the section timeline, render the frames, synthesize and measure
// the narration, reconcile the timeline, assemble and verify the final
// file. Every run works inside its own scoped temp directory, removed
// on all exit paths unless the operator asks to keep it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/basilkensington1-hash/kiin-content-sub002/internal/assemble"
	"github.com/basilkensington1-hash/kiin-content-sub002/internal/content"
	"github.com/basilkensington1-hash/kiin-content-sub002/internal/encoder"
	"github.com/basilkensington1-hash/kiin-content-sub002/internal/history"
	"github.com/basilkensington1-hash/kiin-content-sub002/internal/narrate"
	"github.com/basilkensington1-hash/kiin-content-sub002/internal/plan"
	"github.com/basilkensington1-hash/kiin-content-sub002/internal/render"
	"github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/config"
	kiinerrors "github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/errors"
	"github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/logging"
)

// State is the generation lifecycle position
type State string

const (
	StateInit      State = "init"
	StatePlanned   State = "planned"
	StateRendered  State = "rendered"
	StateNarrated  State = "narrated"
	StateAssembled State = "assembled"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// Stage names recorded on errors and in the history ledger
const (
	stageInit     = "init"
	stagePlan     = "plan"
	stageRender   = "render"
	stageNarrate  = "narrate"
	stageAssemble = "assemble"
)

// Request selects one item to turn into a video
type Request struct {
	Type        string
	ItemID      int
	Random      bool
	Category    string
	OutputPath  string
	AllowSilent bool
}

// Result reports one finished or failed generation. Err is set
// whenever State is StateFailed so batch runs can report per-item
// failures after the fact.
type Result struct {
	RunID       string
	State       State
	FailedStage string
	Type        string
	ItemID      int
	Category    string
	OutputPath  string
	Planned     float64
	Measured    float64
	Narration   float64
	Voice       string
	Elapsed     time.Duration
	Err         error
}

// Component seams; the real types satisfy them and tests inject fakes.
type frameRenderer interface {
	RenderPlan(p plan.Plan, style render.Style) []render.Frame
}

type synthesizer interface {
	Synthesize(ctx context.Context, p plan.Plan, dir string) (narrate.Narration, error)
	Close() error
}

type clipAssembler interface {
	Assemble(ctx context.Context, job assemble.Job) (assemble.Output, error)
}

type silencer interface {
	SilentTrack(ctx context.Context, seconds float64, sampleRate int, out string) error
}

type ledger interface {
	Record(ctx context.Context, e history.Entry) error
}

// Generator runs single generations. It is not safe for concurrent
// use: the renderer holds font faces and the item picker holds a
// rand.Rand. Batches create one Generator per worker and share the
// pack cache between them.
type Generator struct {
	cfg      *config.Config
	renderer frameRenderer
	synth    synthesizer
	asm      clipAssembler
	silence  silencer
	store    ledger
	log      *logging.Logger
	rng      *rand.Rand
	packs    *content.PackCache
}

// New wires a Generator from configuration. The store may be nil when
// the history ledger is disabled. Callers own Close.
func New(cfg *config.Config, store *history.Store, log *logging.Logger) (*Generator, error) {
	if log == nil {
		log = logging.New()
	}

	enc := encoder.New(cfg.Encoder, log.WithName("encoder"))

	engine, err := narrate.NewEngine(cfg.Voice, log.WithName("narrate"))
	if err != nil {
		return nil, err
	}

	g := &Generator{
		cfg:      cfg,
		renderer: render.New(cfg.Brand, log.WithName("render")),
		synth:    narrate.New(engine, enc, cfg.Voice.Timeout.Duration, log),
		asm:      assemble.New(enc, log),
		silence:  enc,
		log:      log.WithName("pipeline"),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		packs:    content.NewPackCache(),
	}
	if store != nil {
		g.store = store
	}
	return g, nil
}

// WithPackCache substitutes the pack cache; batches share one across
// their workers.
func (g *Generator) WithPackCache(cache *content.PackCache) *Generator {
	g.packs = cache
	return g
}

// Close releases the narration engine
func (g *Generator) Close() error {
	return g.synth.Close()
}

// Generate drives one item through the state machine. The returned
// Result is populated as far as the run got, Failed included.
func (g *Generator) Generate(ctx context.Context, req Request) (Result, error) {
	started := time.Now()
	res := Result{RunID: uuid.New().String(), State: StateInit, Type: req.Type}
	log := g.log.WithRun(res.RunID)

	tc, err := g.cfg.Type(req.Type)
	if err != nil {
		return g.fail(ctx, log, res, started, stageInit, err)
	}

	item, err := g.pickItem(tc, req)
	if err != nil {
		return g.fail(ctx, log, res, started, stageInit, err)
	}
	res.ItemID = item.ID
	res.Category = item.Category
	log.Info("generation started",
		logging.String("type", tc.Name),
		logging.Int("item", item.ID),
		logging.String("category", item.Category))

	tmp := filepath.Join(g.cfg.General.DataDir, "tmp", "run-"+res.RunID)
	if err := os.MkdirAll(tmp, 0o755); err != nil {
		err = kiinerrors.Wrap(err, "creating run temp dir").
			WithCode(kiinerrors.CodeInternal).
			WithDetail("path", tmp)
		return g.fail(ctx, log, res, started, stageInit, err)
	}
	defer g.cleanup(log, tmp)

	p, err := plan.Build(item, plan.Spec{
		Timing: plan.Timing{
			Hook:       tc.Timing.Hook,
			Transition: tc.Timing.Transition,
			Body:       tc.Timing.Body,
			Closing:    tc.Timing.Closing,
		},
		TransitionText: tc.TransitionText,
	})
	if err != nil {
		return g.fail(ctx, log, res, started, stagePlan, err)
	}
	res.State = StatePlanned
	res.Planned = p.Total()
	log.Debug("timeline planned",
		logging.Int("sections", len(p.Sections)),
		logging.Float64("total_sec", p.Total()))

	style, err := render.NewStyle(palette(tc))
	if err != nil {
		return g.fail(ctx, log, res, started, stageRender, err)
	}
	frames := g.renderer.RenderPlan(p, style)
	res.State = StateRendered

	narration, err := g.narrate(ctx, log, p, tmp, req.AllowSilent || g.cfg.Voice.AllowSilent)
	if err != nil {
		return g.fail(ctx, log, res, started, stageNarrate, err)
	}
	res.Narration = narration.Duration
	res.Voice = narration.Voice

	p = g.reconcile(log, p, narration)
	res.Planned = p.Total()
	res.State = StateNarrated

	outPath := req.OutputPath
	if outPath == "" {
		outPath = g.defaultOutputPath(tc, item, res.RunID)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		err = kiinerrors.Wrap(err, "creating output dir").
			WithCode(kiinerrors.CodeInternal).
			WithDetail("path", outPath)
		return g.fail(ctx, log, res, started, stageAssemble, err)
	}

	out, err := g.asm.Assemble(ctx, assemble.Job{
		Plan:       p,
		Frames:     frames,
		Narration:  narration.Path,
		OutputPath: outPath,
		WorkDir:    tmp,
		FPS:        g.cfg.Brand.FPS,
		Width:      g.cfg.Brand.Width,
		Height:     g.cfg.Brand.Height,
		Crossfade:  tc.Crossfade,
	})
	if err != nil {
		return g.fail(ctx, log, res, started, stageAssemble, err)
	}
	res.State = StateAssembled
	res.OutputPath = out.Path
	res.Measured = out.Duration

	res.State = StateDone
	res.Elapsed = time.Since(started)
	g.record(ctx, res, "", nil)

	log.Info("video generated",
		logging.String("output", out.Path),
		logging.Float64("duration_sec", out.Duration),
		logging.Duration("elapsed", res.Elapsed))
	return res, nil
}

// fail marks the result, decorates the error with the failing stage,
// records the attempt and logs it once.
func (g *Generator) fail(ctx context.Context, log *logging.Logger, res Result, started time.Time, stage string, err error) (Result, error) {
	res.State = StateFailed
	res.FailedStage = stage
	res.Elapsed = time.Since(started)

	var kerr *kiinerrors.Error
	if !errors.As(err, &kerr) {
		kerr = kiinerrors.Wrap(err, "generation failed")
	}
	kerr = kerr.WithStage(stage)
	res.Err = kerr

	g.record(ctx, res, stage, kerr)
	log.LogError(kerr)
	return res, kerr
}

func (g *Generator) record(ctx context.Context, res Result, stage string, genErr error) {
	if g.store == nil {
		return
	}

	entry := history.Entry{
		RunID:        res.RunID,
		ContentType:  res.Type,
		ContentID:    res.ItemID,
		Category:     res.Category,
		OutputPath:   res.OutputPath,
		DurationSec:  res.Measured,
		PlannedSec:   res.Planned,
		NarrationSec: res.Narration,
		Status:       history.StatusDone,
		Stage:        stage,
	}
	if genErr != nil {
		entry.Status = history.StatusFailed
		entry.Error = genErr.Error()
	}

	// Recording must survive a cancelled run
	if err := g.store.Record(context.WithoutCancel(ctx), entry); err != nil {
		g.log.WarnWithErr("recording history entry failed", err)
	}
}

func (g *Generator) pickItem(tc *config.TypeConfig, req Request) (content.Item, error) {
	pack, err := g.pack(tc)
	if err != nil {
		return content.Item{}, err
	}
	if req.Random {
		return pack.Random(g.rng, req.Category)
	}
	return pack.Item(req.ItemID)
}

func (g *Generator) pack(tc *config.TypeConfig) (*content.Pack, error) {
	return g.packs.Load(tc.Name, tc.Pack, packFields(tc))
}

func packFields(tc *config.TypeConfig) content.Fields {
	return content.Fields{
		Items:   tc.ItemsField,
		Hook:    tc.HookField,
		Body:    tc.BodyField,
		Closing: tc.ClosingField,
	}
}

// narrate synthesizes the script; on backend failure it substitutes a
// silent track when the caller opted in, never by default.
func (g *Generator) narrate(ctx context.Context, log *logging.Logger, p plan.Plan, tmp string, allowSilent bool) (narrate.Narration, error) {
	n, err := g.synth.Synthesize(ctx, p, tmp)
	if err == nil {
		return n, nil
	}
	if ctx.Err() != nil || !allowSilent {
		return narrate.Narration{}, err
	}

	log.WarnWithErr("narration unavailable, continuing with silent track", err)
	silentPath := filepath.Join(tmp, "silent.wav")
	if serr := g.silence.SilentTrack(ctx, p.Total(), g.sampleRate(), silentPath); serr != nil {
		return narrate.Narration{}, serr
	}
	return narrate.Narration{Path: silentPath, Duration: p.Total(), Voice: "silent"}, nil
}

// reconcile folds the measured narration duration back into the
// timeline; disabled it only warns about drift.
func (g *Generator) reconcile(log *logging.Logger, p plan.Plan, n narrate.Narration) plan.Plan {
	if !g.cfg.Timing.ReconcileEnabled() {
		if drift := math.Abs(n.Duration - p.Total()); drift > assemble.DurationTolerance {
			log.Warn("narration drifts from planned total",
				logging.Float64("planned_sec", p.Total()),
				logging.Float64("narration_sec", n.Duration))
		}
		return p
	}

	adjusted, changed := p.Reconcile(n.Duration, g.cfg.Timing.MinSection)
	if changed {
		log.Debug("timeline reconciled to narration",
			logging.Float64("planned_sec", p.Total()),
			logging.Float64("narration_sec", n.Duration),
			logging.Float64("reconciled_sec", adjusted.Total()))
	}
	return adjusted
}

func (g *Generator) sampleRate() int {
	if g.cfg.Voice.SampleRate > 0 {
		return g.cfg.Voice.SampleRate
	}
	return 22050
}

func (g *Generator) defaultOutputPath(tc *config.TypeConfig, item content.Item, runID string) string {
	name := fmt.Sprintf("%s_%03d_%s.mp4", tc.Name, item.ID, runID[:8])
	return filepath.Join(g.cfg.General.OutputDir, name)
}

func (g *Generator) cleanup(log *logging.Logger, tmp string) {
	if g.cfg.General.KeepTemp {
		log.Debug("keeping run temp dir", logging.String("path", tmp))
		return
	}
	if err := os.RemoveAll(tmp); err != nil {
		log.WarnWithErr("removing run temp dir failed", err, logging.String("path", tmp))
	}
}

func palette(tc *config.TypeConfig) render.Palette {
	return render.Palette{
		Background:     tc.Background,
		GradientTop:    tc.GradientTop,
		GradientBottom: tc.GradientBottom,
		SolidColor:     tc.SolidColor,
		TextColor:      tc.TextColor,
		AccentColor:    tc.AccentColor,
	}
}
