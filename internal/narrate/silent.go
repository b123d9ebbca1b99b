package narrate

import (
	"context"
	"encoding/binary"
	"os"

	"github.com/basilkensington1-hash/kiin-content-sub002/internal/textx"
	"github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/config"
	kiinerrors "github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/errors"
)

// silentWordsPerSecond estimates spoken pace for sizing the placeholder track
const silentWordsPerSecond = 2.5

// SilentEngine writes a silent WAV sized to the estimated speaking time.
// It backs dry runs and tests; production configs select a real engine.
type SilentEngine struct {
	sampleRate int
}

// NewSilentEngine returns the placeholder engine
func NewSilentEngine(cfg config.VoiceConfig) *SilentEngine {
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = 22050
	}
	return &SilentEngine{sampleRate: rate}
}

// SynthesizeToFile writes a silent mono PCM WAV for the text's estimated length
func (s *SilentEngine) SynthesizeToFile(ctx context.Context, text, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	words := len(textx.Words(text))
	seconds := float64(words) / silentWordsPerSecond
	if seconds < 1 {
		seconds = 1
	}

	if err := writeSilentWAV(path, seconds, s.sampleRate); err != nil {
		return kiinerrors.Wrap(err, "writing silent narration").
			WithCode(kiinerrors.CodeNarration).
			WithDetail("path", path)
	}
	return nil
}

// Voice identifies the placeholder voice
func (s *SilentEngine) Voice() string {
	return "silent"
}

// Close releases resources
func (s *SilentEngine) Close() error {
	return nil
}

// writeSilentWAV emits a 16-bit mono PCM WAV of zero samples
func writeSilentWAV(path string, seconds float64, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	const numChannels = uint16(1)
	const bitsPerSample = uint16(16)
	byteRate := uint32(sampleRate) * uint32(numChannels) * uint32(bitsPerSample) / 8
	blockAlign := numChannels * bitsPerSample / 8

	sampleCount := int(seconds * float64(sampleRate))
	dataSize := uint32(sampleCount * 2)

	// RIFF header
	f.Write([]byte("RIFF"))
	binary.Write(f, binary.LittleEndian, uint32(36+dataSize))
	f.Write([]byte("WAVE"))

	// fmt chunk
	f.Write([]byte("fmt "))
	binary.Write(f, binary.LittleEndian, uint32(16))
	binary.Write(f, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(f, binary.LittleEndian, numChannels)
	binary.Write(f, binary.LittleEndian, uint32(sampleRate))
	binary.Write(f, binary.LittleEndian, byteRate)
	binary.Write(f, binary.LittleEndian, blockAlign)
	binary.Write(f, binary.LittleEndian, bitsPerSample)

	// data chunk
	f.Write([]byte("data"))
	if err := binary.Write(f, binary.LittleEndian, dataSize); err != nil {
		f.Close()
		return err
	}
	if _, err := f.Write(make([]byte, dataSize)); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
