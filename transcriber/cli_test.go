//go:build !whisper

package transcriber

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"
)

func TestParseCLIOutput(t *testing.T) {
	data := []byte(`{
		"result": {"language": "en"},
		"transcription": [
			{"offsets": {"from": 0, "to": 1200}, "text": " Hello there."},
			{"offsets": {"from": 1200, "to": 1400}, "text": "   "},
			{"offsets": {"from": 1400, "to": 2000}, "text": " How are you?"}
		]
	}`)
	got, err := parseCLIOutput(data)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Hello there.", "How are you?"}
	if !slices.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}

	if _, err := parseCLIOutput([]byte("not json")); err == nil {
		t.Error("expected parse error")
	}
}

func TestFindWhisperBinaryEnv(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "my-whisper")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DICTATOR_WHISPER_BIN", bin)
	if got := findWhisperBinary(); got != bin {
		t.Errorf("findWhisperBinary = %q, want %q", got, bin)
	}
}

func TestFindWhisperBinaryIgnoresPythonWhisper(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executables need an extension on windows")
	}
	dir := t.TempDir()
	python := filepath.Join(dir, "whisper")
	if err := os.WriteFile(python, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DICTATOR_WHISPER_BIN", "")
	t.Setenv("PATH", dir)
	t.Setenv("HOME", t.TempDir())
	if got := findWhisperBinary(); got == python {
		t.Errorf("findWhisperBinary picked %q, the Python whisper CLI", got)
	}

	cli := filepath.Join(dir, "whisper-cli")
	if err := os.WriteFile(cli, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if got := findWhisperBinary(); got != cli {
		t.Errorf("findWhisperBinary = %q, want %q", got, cli)
	}
}

func TestLoadCLIMissingModel(t *testing.T) {
	if _, err := LoadCLI(filepath.Join(t.TempDir(), "nope.bin")); err == nil {
		t.Error("expected error for missing model")
	}
}
