package narrate

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"strings"

	"github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/config"
	kiinerrors "github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/errors"
)

// CommandEngine drives an edge-tts style command line synthesizer:
// the text and output path are passed as flags, nothing on stdin.
type CommandEngine struct {
	binaryPath  string
	voice       string
	lengthScale float64
}

// NewCommandEngine resolves the binary and returns the engine
func NewCommandEngine(cfg config.VoiceConfig) (*CommandEngine, error) {
	if cfg.Binary == "" {
		return nil, kiinerrors.New("voice command binary is required").
			WithCode(kiinerrors.CodeMissingConfig)
	}
	binaryPath, err := exec.LookPath(cfg.Binary)
	if err != nil {
		return nil, kiinerrors.Wrap(err, "voice command not found").
			WithCode(kiinerrors.CodeMissingConfig).
			WithDetail("binary", cfg.Binary)
	}

	return &CommandEngine{
		binaryPath:  binaryPath,
		voice:       cfg.Model,
		lengthScale: cfg.LengthScale,
	}, nil
}

// SynthesizeToFile runs the command with the text as a flag argument
func (c *CommandEngine) SynthesizeToFile(ctx context.Context, text, path string) error {
	cmd := exec.CommandContext(ctx, c.binaryPath, c.buildArgs(text, path)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return kiinerrors.Wrap(ctxErr, "voice command interrupted")
		}
		return kiinerrors.Wrap(err, fmt.Sprintf("voice command failed: %s", strings.TrimSpace(stderr.String()))).
			WithCode(kiinerrors.CodeNarration).
			WithDetail("binary", c.binaryPath)
	}
	return nil
}

func (c *CommandEngine) buildArgs(text, path string) []string {
	var args []string
	if c.voice != "" {
		args = append(args, "--voice", c.voice)
	}
	if rate := rateFromLengthScale(c.lengthScale); rate != "" {
		args = append(args, "--rate", rate)
	}
	args = append(args, "--text", text, "--write-media", path)
	return args
}

// rateFromLengthScale converts piper-style length scale (>1 slower) to
// an edge-tts style percentage rate ("+10%" faster, "-10%" slower).
func rateFromLengthScale(scale float64) string {
	if scale <= 0 || scale == 1.0 {
		return ""
	}
	pct := int(math.Round((1.0/scale - 1.0) * 100))
	if pct == 0 {
		return ""
	}
	return fmt.Sprintf("%+d%%", pct)
}

// Voice returns the configured voice name
func (c *CommandEngine) Voice() string {
	if c.voice != "" {
		return c.voice
	}
	return c.binaryPath
}

// Close releases resources
func (c *CommandEngine) Close() error {
	return nil
}
