package narrate

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/config"
	kiinerrors "github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/errors"
)

// PiperEngine synthesizes speech with a local piper binary. Text goes
// in on stdin, the WAV comes out at --output_file.
type PiperEngine struct {
	binaryPath  string
	modelPath   string
	configPath  string
	lengthScale float64
	espeakData  string
}

// NewPiperEngine verifies the binary and model exist and returns the engine
func NewPiperEngine(cfg config.VoiceConfig) (*PiperEngine, error) {
	if cfg.Binary == "" {
		return nil, kiinerrors.New("piper binary path is required").
			WithCode(kiinerrors.CodeMissingConfig)
	}
	binaryPath := cfg.Binary
	if strings.ContainsRune(binaryPath, os.PathSeparator) {
		if _, err := os.Stat(binaryPath); err != nil {
			return nil, kiinerrors.Wrap(err, "piper binary not found").
				WithCode(kiinerrors.CodeMissingConfig).
				WithDetail("binary", binaryPath)
		}
	} else {
		resolved, err := exec.LookPath(binaryPath)
		if err != nil {
			return nil, kiinerrors.Wrap(err, "piper binary not found in PATH").
				WithCode(kiinerrors.CodeMissingConfig).
				WithDetail("binary", binaryPath)
		}
		binaryPath = resolved
	}

	if cfg.Model == "" {
		return nil, kiinerrors.New("piper model path is required").
			WithCode(kiinerrors.CodeMissingConfig)
	}
	if _, err := os.Stat(cfg.Model); err != nil {
		return nil, kiinerrors.Wrap(err, "piper model not found").
			WithCode(kiinerrors.CodeMissingConfig).
			WithDetail("model", cfg.Model)
	}

	// Piper expects the voice config next to the model
	configPath := cfg.Model + ".json"
	if _, err := os.Stat(configPath); err != nil {
		return nil, kiinerrors.Wrap(err, "piper model config not found").
			WithCode(kiinerrors.CodeMissingConfig).
			WithDetail("config", configPath)
	}

	// espeak-ng-data next to the binary when bundled
	espeakData := filepath.Join(filepath.Dir(binaryPath), "espeak-ng-data")
	if _, err := os.Stat(espeakData); err != nil {
		espeakData = ""
	}

	return &PiperEngine{
		binaryPath:  binaryPath,
		modelPath:   cfg.Model,
		configPath:  configPath,
		lengthScale: cfg.LengthScale,
		espeakData:  espeakData,
	}, nil
}

// SynthesizeToFile runs piper with the text on stdin
func (p *PiperEngine) SynthesizeToFile(ctx context.Context, text, path string) error {
	args := []string{
		"--model", p.modelPath,
		"--config", p.configPath,
		"--output_file", path,
	}
	if p.lengthScale > 0 && p.lengthScale != 1.0 {
		args = append(args, "--length_scale", strconv.FormatFloat(p.lengthScale, 'f', 2, 64))
	}
	if p.espeakData != "" {
		args = append(args, "--espeak_data", p.espeakData)
	}

	cmd := exec.CommandContext(ctx, p.binaryPath, args...)
	cmd.Stdin = strings.NewReader(text)
	cmd.Dir = filepath.Dir(p.binaryPath)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return kiinerrors.Wrap(ctxErr, "piper interrupted")
		}
		return kiinerrors.Wrap(err, fmt.Sprintf("piper failed: %s", strings.TrimSpace(stderr.String()))).
			WithCode(kiinerrors.CodeNarration).
			WithDetail("model", p.modelPath)
	}
	return nil
}

// Voice returns the model name without directory and extension
func (p *PiperEngine) Voice() string {
	return strings.TrimSuffix(filepath.Base(p.modelPath), ".onnx")
}

// Close releases resources
func (p *PiperEngine) Close() error {
	return nil
}
