package narrate

import (
	"context"
	"fmt"

	"github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/config"
	kiinerrors "github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/errors"
	"github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/logging"
)

// Engine is the interface for text-to-speech backends
type Engine interface {
	// SynthesizeToFile converts text to audio and saves it to a file
	SynthesizeToFile(ctx context.Context, text, path string) error

	// Voice returns the name of the active voice
	Voice() string

	// Close releases resources
	Close() error
}

// NewEngine builds the engine selected by the voice configuration.
// The returned engine is ready to use; callers own Close.
func NewEngine(cfg config.VoiceConfig, log *logging.Logger) (Engine, error) {
	switch cfg.Engine {
	case "piper":
		return NewPiperEngine(cfg)
	case "command":
		return NewCommandEngine(cfg)
	case "http":
		return NewHTTPEngine(cfg)
	case "silent":
		return NewSilentEngine(cfg), nil
	default:
		return nil, kiinerrors.New(fmt.Sprintf("unknown voice engine %q", cfg.Engine)).
			WithCode(kiinerrors.CodeInvalidConfig).
			WithDetail("engine", cfg.Engine)
	}
}
