//go:build !whisper

package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultLoader drives the whisper.cpp command line tool. Build with
// -tags whisper to link the model in-process instead.
var DefaultLoader LoadFunc = LoadCLI

var ErrNoWhisperBinary = errors.New("whisper.cpp binary not found (install whisper-cli or set DICTATOR_WHISPER_BIN)")

// "whisper" alone is left out: that name usually belongs to the OpenAI
// Python CLI, which takes different flags.
var binaryNames = []string{"whisper-cli", "whisper-cpp"}

type cliModel struct {
	bin       string
	modelPath string
}

// LoadCLI locates the whisper.cpp binary once and checks the model file.
func LoadCLI(path string) (Model, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	bin := findWhisperBinary()
	if bin == "" {
		return nil, ErrNoWhisperBinary
	}
	return &cliModel{bin: bin, modelPath: path}, nil
}

func (m *cliModel) Transcribe(ctx context.Context, wavPath string) ([]string, error) {
	prefix := strings.TrimSuffix(wavPath, filepath.Ext(wavPath))
	out := prefix + ".json"
	defer os.Remove(out)

	cmd := exec.CommandContext(ctx, m.bin,
		"-m", m.modelPath,
		"-f", wavPath,
		"-oj",
		"-of", prefix,
		"--no-prints",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", filepath.Base(m.bin), err, strings.TrimSpace(stderr.String()))
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("read whisper output: %w", err)
	}
	return parseCLIOutput(data)
}

func (m *cliModel) Close() error { return nil }

type cliOutput struct {
	Transcription []struct {
		Text string `json:"text"`
	} `json:"transcription"`
}

func parseCLIOutput(data []byte) ([]string, error) {
	var o cliOutput
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parse whisper output: %w", err)
	}
	segs := make([]string, 0, len(o.Transcription))
	for _, t := range o.Transcription {
		if s := strings.TrimSpace(t.Text); s != "" {
			segs = append(segs, s)
		}
	}
	return segs, nil
}

func findWhisperBinary() string {
	if p := os.Getenv("DICTATOR_WHISPER_BIN"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, name := range binaryNames {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}

	home, _ := os.UserHomeDir()
	dirs := []string{
		"/opt/homebrew/bin",
		"/usr/local/bin",
		filepath.Join(home, ".local", "bin"),
	}
	if runtime.GOOS == "darwin" {
		if exe, err := os.Executable(); err == nil {
			dirs = append(dirs, filepath.Join(filepath.Dir(exe), "..", "Resources"))
		}
	}
	for _, d := range dirs {
		for _, name := range binaryNames {
			p := filepath.Join(d, name)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}
