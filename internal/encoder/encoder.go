// Package encoder wraps the external ffmpeg/ffprobe binaries behind
// one typed interface: still-image clips, concatenation (hard cut or
// crossfade), silent audio tracks, muxing and duration probing. It is
// the only package that builds encoder command lines; everything else
// works with file paths and seconds.
package encoder

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/config"
	kiinerrors "github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/errors"
	"github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/logging"
)

// Encoder invokes the external encoder with consistent settings
type Encoder struct {
	ffmpeg       string
	ffprobe      string
	preset       string
	crf          int
	pixelFormat  string
	audioBitrate string
	faststart    bool
	timeout      time.Duration
	runner       Runner
	log          *logging.Logger
}

// New creates an encoder from configuration
func New(cfg config.EncoderConfig, log *logging.Logger) *Encoder {
	return &Encoder{
		ffmpeg:       cfg.FFmpeg,
		ffprobe:      cfg.FFprobe,
		preset:       cfg.Preset,
		crf:          cfg.CRF,
		pixelFormat:  cfg.PixelFormat,
		audioBitrate: cfg.AudioBitrate,
		faststart:    cfg.Faststart,
		timeout:      cfg.Timeout.Duration,
		runner:       execRunner{},
		log:          log,
	}
}

// WithRunner substitutes the process runner; used by tests
func (e *Encoder) WithRunner(r Runner) *Encoder {
	e.runner = r
	return e
}

// Available verifies both encoder binaries can be executed
func (e *Encoder) Available(ctx context.Context) error {
	for _, bin := range []string{e.ffmpeg, e.ffprobe} {
		if _, err := e.runner.Run(ctx, bin, []string{"-version"}); err != nil {
			return kiinerrors.Wrap(err, fmt.Sprintf("encoder binary %s not available", bin)).
				WithCode(kiinerrors.CodeEncoding).
				WithDetail("binary", bin)
		}
	}
	return nil
}

// StillClip encodes one frame into a silent video clip of the given
// length. Clips are video-only; narration is muxed once over the
// concatenated timeline.
func (e *Encoder) StillClip(ctx context.Context, frame, out string, seconds float64, fps int) error {
	if seconds <= 0 {
		return kiinerrors.New("clip duration must be positive").
			WithCode(kiinerrors.CodeInvalidInput).
			WithDetail("seconds", seconds)
	}

	args := NewArgs().
		Opt("-loop", "1").
		Opt("-framerate", strconv.Itoa(fps)).
		Input(frame).
		Opt("-t", formatSeconds(seconds)).
		Opt("-c:v", "libx264").
		Opt("-preset", e.preset).
		Opt("-crf", strconv.Itoa(e.crf)).
		Opt("-pix_fmt", e.pixelFormat).
		Flag("-an").
		Output(out)

	return e.runFFmpeg(ctx, args, "still clip")
}

// ConcatCopy joins clips in order without re-encoding using the concat
// demuxer. The list file is written next to the output.
func (e *Encoder) ConcatCopy(ctx context.Context, clips []string, listPath, out string) error {
	if err := writeConcatList(clips, listPath); err != nil {
		return err
	}

	args := NewArgs().
		Opt("-f", "concat").
		Opt("-safe", "0").
		Input(listPath).
		Opt("-c", "copy").
		Output(out)

	return e.runFFmpeg(ctx, args, "concat")
}

// CrossfadeConcat joins clips with crossfades. Each offset marks where
// a fade begins in the accumulated stream; callers size the clips so
// the overlap is absorbed and the net duration stays the planned
// total. The output runs offsets[last] + the last clip's length.
func (e *Encoder) CrossfadeConcat(ctx context.Context, clips []string, offsets []float64, fade float64, fps int, out string) error {
	if len(clips) < 2 {
		return kiinerrors.New("crossfade concat needs at least two clips").
			WithCode(kiinerrors.CodeInvalidInput).
			WithDetail("clips", len(clips))
	}
	if len(offsets) != len(clips)-1 {
		return kiinerrors.New("crossfade concat needs one offset per joint").
			WithCode(kiinerrors.CodeInvalidInput).
			WithDetail("clips", len(clips)).
			WithDetail("offsets", len(offsets))
	}

	args := NewArgs()
	for _, clip := range clips {
		args.Input(clip)
	}

	var filter strings.Builder
	prev := "[0:v]"
	for i := 1; i < len(clips); i++ {
		label := fmt.Sprintf("[vx%d]", i)
		fmt.Fprintf(&filter, "%s[%d:v]xfade=transition=fade:duration=%s:offset=%s%s",
			prev, i, formatSeconds(fade), formatSeconds(offsets[i-1]), label)
		if i < len(clips)-1 {
			filter.WriteString(";")
		}
		prev = label
	}

	args.Opt("-filter_complex", filter.String()).
		Opt("-map", prev).
		Opt("-c:v", "libx264").
		Opt("-preset", e.preset).
		Opt("-crf", strconv.Itoa(e.crf)).
		Opt("-pix_fmt", e.pixelFormat).
		Opt("-r", strconv.Itoa(fps)).
		Output(out)

	return e.runFFmpeg(ctx, args, "crossfade concat")
}

// SilentTrack generates a silent PCM track of the given length, the
// stand-in audio for runs where narration is deliberately disabled.
func (e *Encoder) SilentTrack(ctx context.Context, seconds float64, sampleRate int, out string) error {
	if seconds <= 0 {
		return kiinerrors.New("silent track duration must be positive").
			WithCode(kiinerrors.CodeInvalidInput).
			WithDetail("seconds", seconds)
	}

	args := NewArgs().
		Opt("-f", "lavfi").
		Input(fmt.Sprintf("anullsrc=r=%d:cl=stereo", sampleRate)).
		Opt("-t", formatSeconds(seconds)).
		Opt("-c:a", "pcm_s16le").
		Output(out)

	return e.runFFmpeg(ctx, args, "silent track")
}

// Mux lays the narration track over the assembled video. Video is
// stream-copied; audio is re-encoded to AAC, silence-padded and cut at
// the given length so the output always runs the planned total even
// when the narration came up short or long.
func (e *Encoder) Mux(ctx context.Context, video, audio, out string, seconds float64) error {
	if seconds <= 0 {
		return kiinerrors.New("mux duration must be positive").
			WithCode(kiinerrors.CodeInvalidInput).
			WithDetail("seconds", seconds)
	}

	args := NewArgs().
		Input(video).
		Input(audio).
		Opt("-c:v", "copy").
		Opt("-c:a", "aac").
		Opt("-b:a", e.audioBitrate).
		Opt("-af", "apad").
		Opt("-t", formatSeconds(seconds))

	if e.faststart {
		args.Opt("-movflags", "+faststart")
	}
	args.Output(out)

	return e.runFFmpeg(ctx, args, "mux")
}

// Probe returns the container duration of a media file in seconds
func (e *Encoder) Probe(ctx context.Context, path string) (float64, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	out, err := e.runner.Run(ctx, e.ffprobe, []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	})
	if err != nil {
		return 0, e.wrapRunError(ctx, err, "probe", path)
	}

	raw := strings.TrimSpace(string(out))
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, kiinerrors.Wrap(err, fmt.Sprintf("unparseable probe duration %q", raw)).
			WithCode(kiinerrors.CodeEncoding).
			WithDetail("path", path)
	}
	if seconds < 0 {
		return 0, kiinerrors.New(fmt.Sprintf("negative probe duration for %s", path)).
			WithCode(kiinerrors.CodeEncoding).
			WithDetail("path", path)
	}

	return seconds, nil
}

// Media describes the structural properties of an encoded file
type Media struct {
	Duration     float64
	Width        int
	Height       int
	VideoStreams int
	AudioStreams int
}

// Inspect reads duration, resolution and stream counts in one probe.
// Output verification compares these, never bytes.
func (e *Encoder) Inspect(ctx context.Context, path string) (Media, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	out, err := e.runner.Run(ctx, e.ffprobe, []string{
		"-v", "error",
		"-print_format", "json",
		"-show_entries", "format=duration:stream=codec_type,width,height",
		path,
	})
	if err != nil {
		return Media{}, e.wrapRunError(ctx, err, "inspect", path)
	}

	var report struct {
		Streams []struct {
			CodecType string `json:"codec_type"`
			Width     int    `json:"width"`
			Height    int    `json:"height"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &report); err != nil {
		return Media{}, kiinerrors.Wrap(err, "unparseable probe report").
			WithCode(kiinerrors.CodeEncoding).
			WithDetail("path", path)
	}

	var media Media
	if report.Format.Duration != "" {
		media.Duration, err = strconv.ParseFloat(report.Format.Duration, 64)
		if err != nil {
			return Media{}, kiinerrors.Wrap(err, fmt.Sprintf("unparseable probe duration %q", report.Format.Duration)).
				WithCode(kiinerrors.CodeEncoding).
				WithDetail("path", path)
		}
	}
	for _, s := range report.Streams {
		switch s.CodecType {
		case "video":
			media.VideoStreams++
			if s.Width > 0 {
				media.Width, media.Height = s.Width, s.Height
			}
		case "audio":
			media.AudioStreams++
		}
	}

	return media, nil
}

func (e *Encoder) runFFmpeg(ctx context.Context, args *Args, operation string) error {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	argv := args.Build()
	if e.log != nil {
		e.log.Debug("running encoder", logging.String("operation", operation),
			logging.String("args", strings.Join(argv, " ")))
	}

	if _, err := e.runner.Run(ctx, e.ffmpeg, argv); err != nil {
		return e.wrapRunError(ctx, err, operation, "")
	}
	return nil
}

// wrapRunError distinguishes cancellation, timeout and encoder failure
func (e *Encoder) wrapRunError(ctx context.Context, err error, operation, path string) error {
	var kerr *kiinerrors.Error

	switch ctx.Err() {
	case context.Canceled:
		kerr = kiinerrors.Wrap(err, fmt.Sprintf("%s cancelled", operation))
	case context.DeadlineExceeded:
		kerr = kiinerrors.Wrap(err, fmt.Sprintf("%s timed out after %s", operation, e.timeout)).
			WithCode(kiinerrors.CodeTimeout)
	default:
		kerr = kiinerrors.Wrap(err, fmt.Sprintf("%s failed", operation)).
			WithCode(kiinerrors.CodeEncoding)
	}

	kerr = kerr.WithOperation("encoder." + operation)
	if path != "" {
		kerr = kerr.WithDetail("path", path)
	}
	return kerr
}

func (e *Encoder) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout > 0 {
		return context.WithTimeout(ctx, e.timeout)
	}
	return context.WithCancel(ctx)
}

// writeConcatList writes the concat demuxer list file
func writeConcatList(clips []string, listPath string) error {
	if len(clips) == 0 {
		return kiinerrors.New("no clips to concatenate").
			WithCode(kiinerrors.CodeInvalidInput)
	}

	var b strings.Builder
	for _, clip := range clips {
		fmt.Fprintf(&b, "file '%s'\n", clip)
	}

	if err := os.WriteFile(listPath, []byte(b.String()), 0o644); err != nil {
		return kiinerrors.Wrap(err, "failed to write concat list").
			WithCode(kiinerrors.CodeEncoding).
			WithDetail("path", listPath)
	}
	return nil
}

// formatSeconds renders a duration the way ffmpeg likes them
func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}
