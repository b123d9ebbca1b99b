package narrate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/basilkensington1-hash/kiin-content-sub002/internal/textx"
	"github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/config"
	kiinerrors "github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/errors"
)

// APIKeyEnv names the environment variable holding the TTS API key.
// Keys never live in config files.
const APIKeyEnv = "KIIN_TTS_API_KEY"

const maxErrorBody = 512

// HTTPEngine synthesizes speech through a Deepgram-style REST API:
// POST a JSON body with the text, receive raw audio bytes back.
type HTTPEngine struct {
	url    string
	voice  string
	apiKey string
	client *http.Client
}

// NewHTTPEngine reads the API key from the environment and returns the engine
func NewHTTPEngine(cfg config.VoiceConfig) (*HTTPEngine, error) {
	if cfg.URL == "" {
		return nil, kiinerrors.New("voice API URL is required").
			WithCode(kiinerrors.CodeMissingConfig)
	}
	apiKey := os.Getenv(APIKeyEnv)
	if apiKey == "" {
		return nil, kiinerrors.New(fmt.Sprintf("%s is not set", APIKeyEnv)).
			WithCode(kiinerrors.CodeMissingConfig).
			WithDetail("url", cfg.URL)
	}

	return &HTTPEngine{
		url:    cfg.URL,
		voice:  cfg.Model,
		apiKey: apiKey,
		client: &http.Client{},
	}, nil
}

// SynthesizeToFile posts the text and streams the audio response to path
func (h *HTTPEngine) SynthesizeToFile(ctx context.Context, text, path string) error {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return kiinerrors.Wrap(err, "encoding voice request").
			WithCode(kiinerrors.CodeNarration)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(payload))
	if err != nil {
		return kiinerrors.Wrap(err, "building voice request").
			WithCode(kiinerrors.CodeNarration).
			WithDetail("url", h.url)
	}
	req.Header.Set("Authorization", "Token "+h.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return kiinerrors.Wrap(ctxErr, "voice request interrupted")
		}
		return kiinerrors.Wrap(err, "voice request failed").
			WithCode(kiinerrors.CodeNarration).
			WithDetail("url", h.url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return kiinerrors.New(fmt.Sprintf("voice API returned %s: %s", resp.Status, string(body))).
			WithCode(kiinerrors.CodeNarration).
			WithDetail("url", h.url).
			WithDetail("status", resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return kiinerrors.Wrap(err, "creating narration file").
			WithCode(kiinerrors.CodeNarration).
			WithDetail("path", path)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(path)
		return kiinerrors.Wrap(err, "writing narration file").
			WithCode(kiinerrors.CodeNarration).
			WithDetail("path", path)
	}
	if err := out.Close(); err != nil {
		return kiinerrors.Wrap(err, "closing narration file").
			WithCode(kiinerrors.CodeNarration).
			WithDetail("path", path)
	}
	return nil
}

// Voice returns the configured voice name, falling back to the URL
func (h *HTTPEngine) Voice() string {
	return textx.FirstNonBlank(h.voice, h.url)
}

// Close releases resources
func (h *HTTPEngine) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
