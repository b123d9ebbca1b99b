// Package narrate turns a section plan's script into one narration
// audio file through a pluggable text-to-speech engine, and measures
// what the engine actually produced so the timeline can be reconciled
// against real speech instead of estimates.
package narrate

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/basilkensington1-hash/kiin-content-sub002/internal/plan"
	"github.com/basilkensington1-hash/kiin-content-sub002/internal/textx"
	kiinerrors "github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/errors"
	"github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/logging"
)

// FileName is the narration file written into each run's temp dir
const FileName = "narration.wav"

// Prober measures the duration of a media file in seconds.
// *encoder.Encoder satisfies it.
type Prober interface {
	Probe(ctx context.Context, path string) (float64, error)
}

// Narration describes a synthesized audio track
type Narration struct {
	Path     string
	Duration float64
	Voice    string
}

// Synthesizer produces one narration track per plan
type Synthesizer struct {
	engine  Engine
	prober  Prober
	timeout time.Duration
	log     *logging.Logger
}

// New creates a Synthesizer around an engine and a duration prober
func New(engine Engine, prober Prober, timeout time.Duration, log *logging.Logger) *Synthesizer {
	if log == nil {
		log = logging.New().WithLevel(logging.LevelError)
	}
	return &Synthesizer{
		engine:  engine,
		prober:  prober,
		timeout: timeout,
		log:     log.WithName("narrate"),
	}
}

// Synthesize joins the plan's section texts into one script, renders it
// to audio in dir, and measures the resulting duration. Engine failures
// carry CodeNarration so callers can decide between aborting and a
// silent fallback.
func (s *Synthesizer) Synthesize(ctx context.Context, p plan.Plan, dir string) (Narration, error) {
	script := p.Script()
	if textx.IsBlank(script) {
		return Narration{}, kiinerrors.New("plan has no narratable text").
			WithCode(kiinerrors.CodeInvalidInput)
	}

	path := filepath.Join(dir, FileName)
	voice := s.engine.Voice()

	s.log.Debug("synthesizing narration",
		logging.String("voice", voice),
		logging.Int("words", len(textx.Words(script))))
	timer := s.log.StartTimer("narration synthesis")

	synthCtx, cancel := s.withTimeout(ctx)
	err := s.engine.SynthesizeToFile(synthCtx, script, path)
	cancel()
	if err != nil {
		timer.StopWithError(err)
		if ctx.Err() != nil {
			return Narration{}, err
		}
		if synthCtx.Err() == context.DeadlineExceeded {
			return Narration{}, kiinerrors.Wrap(err, fmt.Sprintf("narration timed out after %s", s.timeout)).
				WithCode(kiinerrors.CodeNarration).
				WithOperation("narrate").
				WithDetail("voice", voice)
		}
		if kiinerrors.HasCode(err, kiinerrors.CodeNarration) {
			return Narration{}, err
		}
		return Narration{}, kiinerrors.Wrap(err, "narration failed").
			WithCode(kiinerrors.CodeNarration).
			WithOperation("narrate").
			WithDetail("voice", voice)
	}

	duration, err := s.prober.Probe(ctx, path)
	if err != nil {
		timer.StopWithError(err)
		return Narration{}, kiinerrors.Wrap(err, "measuring narration").
			WithCode(kiinerrors.CodeNarration).
			WithDetail("path", path)
	}
	if duration <= 0 {
		err := kiinerrors.New("narration has no measurable duration").
			WithCode(kiinerrors.CodeNarration).
			WithDetail("path", path)
		timer.StopWithError(err)
		return Narration{}, err
	}

	timer.WithField("duration_sec", duration).Stop()

	return Narration{Path: path, Duration: duration, Voice: voice}, nil
}

// Close shuts down the underlying engine
func (s *Synthesizer) Close() error {
	return s.engine.Close()
}

func (s *Synthesizer) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}
