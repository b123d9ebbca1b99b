// Package assemble turns rendered frames and a narration track into
// the final container file. The assembler owns the frames from here
// on: it writes them to disk, encodes one still clip per section,
// concatenates in plan order (hard cut or crossfade), muxes the
// narration over the combined video once, and structurally verifies
// the result.
package assemble

import (
	"context"
	"fmt"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/basilkensington1-hash/kiin-content-sub002/internal/encoder"
	"github.com/basilkensington1-hash/kiin-content-sub002/internal/plan"
	"github.com/basilkensington1-hash/kiin-content-sub002/internal/render"
	kiinerrors "github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/errors"
	"github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/logging"
)

// DurationTolerance is the accepted drift between the planned total
// and the measured output duration, in seconds.
const DurationTolerance = 1.0

// Encoder is the slice of the encoder wrapper assembly needs.
// *encoder.Encoder satisfies it.
type Encoder interface {
	StillClip(ctx context.Context, frame, out string, seconds float64, fps int) error
	ConcatCopy(ctx context.Context, clips []string, listPath, out string) error
	CrossfadeConcat(ctx context.Context, clips []string, offsets []float64, fade float64, fps int, out string) error
	Mux(ctx context.Context, video, audio, out string, seconds float64) error
	Inspect(ctx context.Context, path string) (encoder.Media, error)
}

// Job carries everything one assembly needs. Frames align with the
// plan's sections by index. WorkDir holds the frame files and the
// intermediate clips and belongs to the caller; only the final output
// is written elsewhere.
type Job struct {
	Plan       plan.Plan
	Frames     []render.Frame
	Narration  string
	OutputPath string
	WorkDir    string
	FPS        int
	Width      int
	Height     int
	Crossfade  float64
}

// Output describes a verified final file
type Output struct {
	Path     string
	Duration float64
	Planned  float64
}

// Assembler drives the encoder through the clip protocol
type Assembler struct {
	enc Encoder
	log *logging.Logger
}

// New creates an Assembler
func New(enc Encoder, log *logging.Logger) *Assembler {
	if log == nil {
		log = logging.New().WithLevel(logging.LevelError)
	}
	return &Assembler{enc: enc, log: log.WithName("assemble")}
}

// Assemble writes the frames, builds and muxes the clips and verifies
// the final video. Frame files and intermediate clips land in
// job.WorkDir; a partial output file is removed on every failure path
// after muxing starts.
func (a *Assembler) Assemble(ctx context.Context, job Job) (Output, error) {
	if err := validate(job); err != nil {
		return Output{}, err
	}

	sections := job.Plan.Sections
	total := job.Plan.Total()
	fade := a.effectiveFade(job)

	timer := a.log.StartTimer("assembly")

	framePaths, err := a.writeFrames(job)
	if err != nil {
		timer.StopWithError(err)
		return Output{}, err
	}
	timer.Checkpoint("frames written", logging.Int("frames", len(framePaths)))

	clips, err := a.buildClips(ctx, job, framePaths, fade)
	if err != nil {
		timer.StopWithError(err)
		return Output{}, err
	}
	timer.Checkpoint("clips encoded", logging.Int("clips", len(clips)))

	video, err := a.combine(ctx, job, clips, fade)
	if err != nil {
		timer.StopWithError(err)
		return Output{}, err
	}
	timer.Checkpoint("clips combined")

	if err := a.enc.Mux(ctx, video, job.Narration, job.OutputPath, total); err != nil {
		os.Remove(job.OutputPath)
		timer.StopWithError(err)
		return Output{}, err
	}

	media, err := a.verify(ctx, job, total)
	if err != nil {
		os.Remove(job.OutputPath)
		timer.StopWithError(err)
		return Output{}, err
	}

	timer.WithFields(logging.Fields{
		"sections":     len(sections),
		"planned_sec":  total,
		"measured_sec": media.Duration,
	}).Stop()

	return Output{Path: job.OutputPath, Duration: media.Duration, Planned: total}, nil
}

func validate(job Job) error {
	if len(job.Plan.Sections) == 0 {
		return kiinerrors.New("assembly needs at least one section").
			WithCode(kiinerrors.CodeInvalidInput)
	}
	if len(job.Frames) != len(job.Plan.Sections) {
		return kiinerrors.New("frame count does not match section count").
			WithCode(kiinerrors.CodeInvalidInput).
			WithDetail("frames", len(job.Frames)).
			WithDetail("sections", len(job.Plan.Sections))
	}
	for i, frame := range job.Frames {
		if frame.Image == nil {
			return kiinerrors.New(fmt.Sprintf("frame %d has no image", i)).
				WithCode(kiinerrors.CodeInvalidInput).
				WithDetail("section", string(job.Plan.Sections[i].Name))
		}
		if frame.Section.Name != job.Plan.Sections[i].Name {
			return kiinerrors.New(fmt.Sprintf("frame %d is for section %s, plan expects %s",
				i, frame.Section.Name, job.Plan.Sections[i].Name)).
				WithCode(kiinerrors.CodeInvalidInput)
		}
	}
	if job.Narration == "" {
		return kiinerrors.New("assembly needs a narration track").
			WithCode(kiinerrors.CodeInvalidInput)
	}
	if job.OutputPath == "" || job.WorkDir == "" {
		return kiinerrors.New("assembly needs an output path and a work dir").
			WithCode(kiinerrors.CodeInvalidInput)
	}
	return nil
}

// writeFrames materializes the in-memory frames as PNG files in the
// work dir, named deterministically in timeline order.
func (a *Assembler) writeFrames(job Job) ([]string, error) {
	paths := make([]string, 0, len(job.Frames))
	for i, frame := range job.Frames {
		path := filepath.Join(job.WorkDir, fmt.Sprintf("frame_%02d_%s.png", i, frame.Section.Name))
		if err := writePNG(frame, path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writePNG(frame render.Frame, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return kiinerrors.Wrap(err, "failed to create frame file").
			WithCode(kiinerrors.CodeRender).
			WithDetail("path", path).
			WithDetail("section", string(frame.Section.Name))
	}

	if err := png.Encode(f, frame.Image); err != nil {
		f.Close()
		return kiinerrors.Wrap(err, "failed to encode frame").
			WithCode(kiinerrors.CodeRender).
			WithDetail("path", path).
			WithDetail("section", string(frame.Section.Name))
	}

	if err := f.Close(); err != nil {
		return kiinerrors.Wrap(err, "failed to finish frame file").
			WithCode(kiinerrors.CodeRender).
			WithDetail("path", path)
	}

	return nil
}

// effectiveFade disables crossfading when any section is too short to
// absorb the overlap; fades would collide and shift the timeline.
func (a *Assembler) effectiveFade(job Job) float64 {
	if job.Crossfade <= 0 || len(job.Plan.Sections) < 2 {
		return 0
	}
	for _, sec := range job.Plan.Sections {
		if sec.Duration < job.Crossfade {
			a.log.Warn("crossfade longer than shortest section, falling back to hard cuts",
				logging.Float64("crossfade_sec", job.Crossfade),
				logging.Float64("section_sec", sec.Duration),
				logging.String("section", string(sec.Name)))
			return 0
		}
	}
	return job.Crossfade
}

// buildClips encodes one still clip per section. With a crossfade each
// clip is extended by half a fade per adjacent joint so the overlaps
// are absorbed and the net duration stays the planned total.
func (a *Assembler) buildClips(ctx context.Context, job Job, framePaths []string, fade float64) ([]string, error) {
	sections := job.Plan.Sections
	clips := make([]string, 0, len(sections))

	for i, sec := range sections {
		seconds := sec.Duration
		if fade > 0 {
			if i > 0 {
				seconds += fade / 2
			}
			if i < len(sections)-1 {
				seconds += fade / 2
			}
		}

		clip := filepath.Join(job.WorkDir, fmt.Sprintf("clip_%02d_%s.mp4", i, sec.Name))
		if err := a.enc.StillClip(ctx, framePaths[i], clip, seconds, job.FPS); err != nil {
			return nil, kiinerrors.Wrap(err, fmt.Sprintf("encoding %s clip", sec.Name)).
				WithDetail("section", string(sec.Name))
		}
		clips = append(clips, clip)
	}

	return clips, nil
}

// combine joins the clips into one video stream. Single sections skip
// concatenation entirely.
func (a *Assembler) combine(ctx context.Context, job Job, clips []string, fade float64) (string, error) {
	if len(clips) == 1 {
		return clips[0], nil
	}

	video := filepath.Join(job.WorkDir, "combined.mp4")
	if fade > 0 {
		offsets := fadeOffsets(job.Plan.Sections, fade)
		if err := a.enc.CrossfadeConcat(ctx, clips, offsets, fade, job.FPS, video); err != nil {
			return "", err
		}
		return video, nil
	}

	listPath := filepath.Join(job.WorkDir, "concat.txt")
	if err := a.enc.ConcatCopy(ctx, clips, listPath, video); err != nil {
		return "", err
	}
	return video, nil
}

// fadeOffsets centers each fade on its planned section boundary
func fadeOffsets(sections []plan.Section, fade float64) []float64 {
	offsets := make([]float64, 0, len(sections)-1)
	boundary := 0.0
	for _, sec := range sections[:len(sections)-1] {
		boundary += sec.Duration
		offsets = append(offsets, boundary-fade/2)
	}
	return offsets
}

// verify checks the structural properties of the finished file
func (a *Assembler) verify(ctx context.Context, job Job, total float64) (encoder.Media, error) {
	media, err := a.enc.Inspect(ctx, job.OutputPath)
	if err != nil {
		return encoder.Media{}, kiinerrors.Wrap(err, "output failed inspection").
			WithCode(kiinerrors.CodeOutputVerification).
			WithDetail("path", job.OutputPath)
	}

	if media.VideoStreams < 1 || media.AudioStreams < 1 {
		return encoder.Media{}, kiinerrors.New("output is missing a video or audio stream").
			WithCode(kiinerrors.CodeOutputVerification).
			WithDetail("path", job.OutputPath).
			WithDetail("video_streams", media.VideoStreams).
			WithDetail("audio_streams", media.AudioStreams)
	}
	if drift := math.Abs(media.Duration - total); drift > DurationTolerance {
		return encoder.Media{}, kiinerrors.New("output duration drifted from the planned total").
			WithCode(kiinerrors.CodeOutputVerification).
			WithDetail("path", job.OutputPath).
			WithDetail("planned_sec", total).
			WithDetail("measured_sec", media.Duration)
	}
	if job.Width > 0 && (media.Width != job.Width || media.Height != job.Height) {
		return encoder.Media{}, kiinerrors.New("output resolution does not match the brand canvas").
			WithCode(kiinerrors.CodeOutputVerification).
			WithDetail("path", job.OutputPath).
			WithDetail("want", fmt.Sprintf("%dx%d", job.Width, job.Height)).
			WithDetail("got", fmt.Sprintf("%dx%d", media.Width, media.Height))
	}

	return media, nil
}
