package doctor

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dictator/recorder"
	"dictator/transcriber"
)

func newTestDoctor(input string) (*doctor, *bytes.Buffer) {
	var out bytes.Buffer
	return &doctor{out: &out, in: bufio.NewReader(strings.NewReader(input))}, &out
}

func TestClipboardRoundTrip(t *testing.T) {
	board := "previous"
	var writes []string
	write := func(s string) error { board = s; writes = append(writes, s); return nil }
	read := func() (string, error) { return board, nil }

	d, out := newTestDoctor("")
	if !d.clipboardRoundTrip(write, read, time.Second) {
		t.Fatalf("round trip failed: %s", out)
	}
	if board != "previous" {
		t.Errorf("clipboard = %q, want previous contents restored", board)
	}
	if len(writes) != 2 || !strings.HasPrefix(writes[0], "dictator-doctor-") {
		t.Errorf("writes = %q", writes)
	}
}

func TestClipboardRoundTripFailures(t *testing.T) {
	tests := []struct {
		name  string
		write func(string) error
		read  func() (string, error)
		want  string
	}{
		{
			name:  "write error",
			write: func(string) error { return errors.New("no xclip") },
			read:  func() (string, error) { return "", nil },
			want:  "clipboard write failed",
		},
		{
			name:  "mismatch",
			write: func(string) error { return nil },
			read:  func() (string, error) { return "stale", nil },
			want:  "clipboard mismatch",
		},
		{
			name:  "timeout",
			write: func(string) error { time.Sleep(time.Second); return nil },
			read:  func() (string, error) { return "", nil },
			want:  "timed out",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, out := newTestDoctor("")
			if d.clipboardRoundTrip(tt.write, tt.read, 100*time.Millisecond) {
				t.Fatal("expected failure")
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output %q missing %q", out, tt.want)
			}
		})
	}
}

func TestCheckModelMissing(t *testing.T) {
	d, out := newTestDoctor("")
	d.opts.Locator = transcriber.Locator{File: "ggml-none.bin", Dirs: []string{t.TempDir()}}
	if d.checkModel() {
		t.Fatal("checkModel passed without a model")
	}
	if !strings.Contains(out.String(), "FAIL") || !strings.Contains(out.String(), "ggml-none.bin") {
		t.Errorf("output = %q", out)
	}
}

func TestConfirm(t *testing.T) {
	for input, want := range map[string]bool{"y\n": true, "Yes\n": true, "n\n": false, "\n": false, "": false} {
		d, _ := newTestDoctor(input)
		if got := d.confirm("ok?"); got != want {
			t.Errorf("confirm(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestCleanupRemovesUnusedTake(t *testing.T) {
	path := filepath.Join(t.TempDir(), "take.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o600); err != nil {
		t.Fatal(err)
	}
	d, _ := newTestDoctor("")
	d.setArtifact(&recorder.Artifact{Path: path})

	d.cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("take still on disk after cleanup: %v", err)
	}
	if d.takeArtifact() != nil {
		t.Error("artifact not cleared")
	}
	d.cleanup()
}

func TestSaveTTYNonTerminal(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	defer w.Close()
	tty := saveTTY(r)
	if tty.state != nil {
		t.Error("pipe reported as a terminal")
	}
	tty.restore()
}
