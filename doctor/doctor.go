// Package doctor runs interactive checks of every stage of the pipeline:
// hotkey, microphone, speech model and clipboard.
package doctor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"dictator/audio"
	"dictator/clipboard"
	"dictator/hotkey"
	"dictator/recorder"
	"dictator/transcriber"
)

const steps = 5

var pasteHint = map[string]string{
	"darwin": "  Grant Accessibility access in System Settings > Privacy & Security.\n",
	"linux":  "  Make sure /dev/uinput is writable (add yourself to the input group).\n",
}[runtime.GOOS]

type Options struct {
	Binding  hotkey.Binding
	Listener string
	Device   string
	Norm     float64
	Locator  transcriber.Locator
}

type doctor struct {
	opts Options
	out  io.Writer
	in   *bufio.Reader
	tty  *ttyState

	// the recorded take handed from the mic check to the model check
	mu       sync.Mutex
	artifact *recorder.Artifact
}

// Run executes the checks and returns an exit code (0=all pass, 1=any fail).
func Run(opts Options) int {
	d := &doctor{opts: opts, out: os.Stdout, in: bufio.NewReader(os.Stdin), tty: saveTTY(os.Stdin)}
	disarm := trapInterrupt(d.cleanup, os.Exit)
	defer disarm()
	fmt.Fprintln(d.out, "dictator doctor - interactive system diagnostics")
	fmt.Fprintln(d.out, "================================================")

	allPass := d.checkHotkey() &&
		d.checkMicrophone() &&
		d.checkModel() &&
		d.checkClipboardCopy() &&
		d.checkClipboardPaste()
	d.cleanup()

	fmt.Fprintln(d.out)
	if allPass {
		fmt.Fprintln(d.out, "All checks passed!")
		return 0
	}
	fmt.Fprintln(d.out, "Some checks failed. See details above.")
	return 1
}

// cleanup removes a take no check consumed and puts the tty back.
func (d *doctor) cleanup() {
	if art := d.takeArtifact(); art != nil {
		os.Remove(art.Path)
	}
	d.tty.restore()
}

func (d *doctor) setArtifact(a *recorder.Artifact) {
	d.mu.Lock()
	d.artifact = a
	d.mu.Unlock()
}

func (d *doctor) takeArtifact() *recorder.Artifact {
	d.mu.Lock()
	defer d.mu.Unlock()
	a := d.artifact
	d.artifact = nil
	return a
}

func (d *doctor) step(n int, title string) {
	fmt.Fprintln(d.out)
	fmt.Fprintf(d.out, "[%d/%d] %s\n", n, steps, title)
}

func (d *doctor) pass(format string, args ...any) bool {
	fmt.Fprintf(d.out, "  PASS: "+format+"\n", args...)
	return true
}

func (d *doctor) fail(format string, args ...any) bool {
	fmt.Fprintf(d.out, "  FAIL: "+format+"\n", args...)
	return false
}

func (d *doctor) confirm(question string) bool {
	fmt.Fprintf(d.out, "%s [y/n]: ", question)
	answer, _ := d.in.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}

// edgeHandler turns monitor callbacks into channels.
type edgeHandler struct {
	press, release chan struct{}
}

func (h edgeHandler) OnPress() {
	select {
	case h.press <- struct{}{}:
	default:
	}
}

func (h edgeHandler) OnRelease() {
	select {
	case h.release <- struct{}{}:
	default:
	}
}

func (d *doctor) checkHotkey() bool {
	d.step(1, "Hotkey detection")
	factory, err := hotkey.Factory(d.opts.Listener)
	if err != nil {
		return d.fail("%v", err)
	}
	fmt.Fprintf(d.out, "Press and release %s...\n", d.opts.Binding.Name)

	h := edgeHandler{press: make(chan struct{}, 1), release: make(chan struct{}, 1)}
	m := hotkey.NewMonitor(factory, h, d.opts.Binding)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- m.Run(ctx) }()
	defer func() {
		cancel()
		<-errCh
		// listeners can leave the terminal in raw mode
		d.tty.restore()
	}()

	select {
	case err := <-errCh:
		errCh <- err
		return d.fail("could not start key listener: %v", err)
	case <-h.press:
	case <-time.After(10 * time.Second):
		return d.fail("timeout waiting for %s", d.opts.Binding.Name)
	}
	select {
	case <-h.release:
	case <-time.After(5 * time.Second):
		return d.fail("press seen but no release")
	}
	return d.pass("hotkey press and release detected")
}

func (d *doctor) checkMicrophone() bool {
	d.step(2, "Microphone")
	ctx, err := audio.NewContext()
	if err != nil {
		return d.fail("cannot connect to audio: %v", err)
	}
	defer ctx.Close()

	dev, err := audio.FindDevice(ctx, d.opts.Device)
	if err != nil {
		return d.fail("cannot list devices: %v", err)
	}
	if d.opts.Device != "" && dev == nil {
		return d.fail("device %q not found", d.opts.Device)
	}

	rec := recorder.New(ctx, recorder.WithDevice(dev), recorder.WithNormalization(d.opts.Norm))
	fmt.Fprintf(d.out, "Using device: %s\n", rec.DeviceName())
	fmt.Fprint(d.out, "Press Enter and speak for 3 seconds...")
	d.in.ReadString('\n')

	if err := rec.Start(); err != nil {
		return d.fail("%v", err)
	}
	fmt.Fprint(d.out, "  Recording")
	peak := 0.0
	deadline := time.After(3 * time.Second)
	ticker := time.NewTicker(50 * time.Millisecond)
	dots := 0
loop:
	for {
		select {
		case <-deadline:
			break loop
		case <-ticker.C:
			peak = max(peak, rec.Level())
			if dots++; dots%10 == 0 {
				fmt.Fprint(d.out, ".")
			}
		}
	}
	ticker.Stop()
	fmt.Fprintln(d.out, " done")

	art, err := rec.Stop()
	if err != nil {
		return d.fail("%v", err)
	}
	if art == nil {
		return d.fail("no audio captured")
	}
	d.setArtifact(art)
	fmt.Fprintf(d.out, "  Captured %.1fs, peak level %.2f\n", art.Duration.Seconds(), peak)
	if peak < 0.02 {
		return d.fail("no voice detected (is the microphone muted?)")
	}
	return d.pass("microphone captured audio")
}

func (d *doctor) checkModel() bool {
	d.step(3, "Speech model and transcription")
	svc := transcriber.NewService(d.opts.Locator, nil)
	defer svc.Close()

	if _, err := svc.Model(); err != nil {
		return d.fail("%v", err)
	}
	fmt.Fprintf(d.out, "  Model: %s\n", svc.ModelPath())
	art := d.takeArtifact()
	if art == nil {
		return d.pass("model loaded")
	}

	start := time.Now()
	text, err := svc.Transcribe(context.Background(), art.Path)
	if err != nil {
		return d.fail("transcription error: %v", err)
	}
	if text == "" {
		text = "(no speech detected)"
	}
	fmt.Fprintf(d.out, "\n  Transcribed in %dms: %s\n\n", time.Since(start).Milliseconds(), text)
	if !d.confirm("Is this correct?") {
		return d.fail("transcription not confirmed")
	}
	return d.pass("transcription verified by user")
}

func (d *doctor) checkClipboardCopy() bool {
	d.step(4, "Clipboard copy")
	return d.clipboardRoundTrip(clipboard.Copy, clipboard.Read, 3*time.Second)
}

func (d *doctor) clipboardRoundTrip(write func(string) error, read func() (string, error), timeout time.Duration) bool {
	testStr := fmt.Sprintf("dictator-doctor-%d", time.Now().UnixNano())

	type result struct {
		readback string
		err      error
		phase    string
	}
	ch := make(chan result, 1)
	go func() {
		prev, _ := read()
		if err := write(testStr); err != nil {
			ch <- result{err: err, phase: "write"}
			return
		}
		got, err := read()
		if prev != "" {
			write(prev)
		}
		if err != nil {
			ch <- result{err: err, phase: "read"}
			return
		}
		ch <- result{readback: got}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return d.fail("clipboard %s failed: %v", res.phase, res.err)
		}
		if res.readback != testStr {
			return d.fail("clipboard mismatch: wrote %q, got %q", testStr, res.readback)
		}
		return d.pass("clipboard write/read verified")
	case <-time.After(timeout):
		return d.fail("clipboard timed out (no clipboard tool or display?)")
	}
}

func (d *doctor) checkClipboardPaste() bool {
	d.step(5, "Keystroke paste")
	msg, err := clipboard.Verify()
	if err != nil {
		d.fail("%v", err)
		fmt.Fprint(d.out, pasteHint)
		return false
	}
	return d.pass("%s", msg)
}
