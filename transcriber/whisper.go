//go:build whisper

package transcriber

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/go-audio/wav"
)

// DefaultLoader links whisper.cpp into the process.
var DefaultLoader LoadFunc = LoadWhisper

type whisperModel struct {
	mu    sync.Mutex
	model whisper.Model
}

func LoadWhisper(path string) (Model, error) {
	m, err := whisper.New(path)
	if err != nil {
		return nil, err
	}
	return &whisperModel{model: m}, nil
}

func (m *whisperModel) Transcribe(ctx context.Context, wavPath string) ([]string, error) {
	samples, err := readSamples(wavPath)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	wctx, err := m.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("whisper context: %w", err)
	}
	if err := wctx.SetLanguage("en"); err != nil {
		return nil, fmt.Errorf("whisper language: %w", err)
	}
	wctx.SetTranslate(false)

	var segs []string
	err = wctx.Process(samples, nil, func(s whisper.Segment) {
		if t := strings.TrimSpace(s.Text); t != "" {
			segs = append(segs, t)
		}
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("whisper process: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return segs, nil
}

func (m *whisperModel) Close() error {
	return m.model.Close()
}

// readSamples decodes a 16-bit WAV into the [-1, 1] floats whisper expects.
func readSamples(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s: not a valid wav file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	out := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = float32(v) / 32768.0
	}
	return out, nil
}
