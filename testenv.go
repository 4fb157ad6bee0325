package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"dictator/audio"
	"dictator/beep"
	"dictator/clipboard"
	"dictator/hotkey"
	"dictator/log"
	"dictator/recorder"
	"dictator/session"
	"dictator/transcriber"
)

// releaseSignal forwards hotkey edges to the controller and reports every
// handled release, so WAIT can tell the release has reached the controller.
type releaseSignal struct {
	hotkey.Handler
	released chan struct{}
}

func (r releaseSignal) OnRelease() {
	r.Handler.OnRelease()
	r.released <- struct{}{}
}

// printObserver reports transcripts on stdout for the driving script.
type printObserver struct{ session.NopObserver }

func (printObserver) Transcribed(text string) { fmt.Println("TEXT " + text) }
func (printObserver) Error(err error)         { fmt.Println("ERROR " + err.Error()) }

// runTestMode replays wavPath through the full pipeline with a scripted
// hotkey. Commands on stdin: KEYDOWN, KEYUP, WAIT, SLEEP <ms>, QUIT.
func runTestMode(wavPath string, binding hotkey.Binding, locator transcriber.Locator, norm float64) int {
	beep.Disable()

	fakeCtx, err := audio.NewFakeContext(wavPath, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		return 1
	}

	if err := clipboard.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: paste init failed: %v\n", err)
	}
	paster := clipboard.NewPaster()
	defer paster.Flush()

	rec := recorder.New(fakeCtx, recorder.WithNormalization(norm))
	svc := transcriber.NewService(locator, nil)
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctrl := session.New(ctx, rec, svc, paster,
		session.WithObserver(session.Observers{logObserver{}, printObserver{}}))
	log.SessionStart(binding.Name, modelName(svc, locator), "fake")
	defer func() { log.SessionEnd(ctrl.Pasted()) }()

	factory := &hotkey.FakeFactory{}
	h := releaseSignal{Handler: ctrl, released: make(chan struct{}, 64)}
	mon := hotkey.NewMonitor(factory.New, h, binding)
	monErr := make(chan error, 1)
	go func() { monErr <- mon.Run(ctx) }()

	src, err := waitForSource(factory, monErr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting key listener: %v\n", err)
		return 1
	}

	pendingReleases := 0
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch {
		case cmd == "KEYDOWN":
			src.SimPress(binding)
		case cmd == "KEYUP":
			if src.SimRelease(binding) {
				pendingReleases++
			}
		case cmd == "WAIT":
			for ; pendingReleases > 0; pendingReleases-- {
				<-h.released
			}
			ctrl.Wait()
		case cmd == "QUIT":
			return 0
		case strings.HasPrefix(cmd, "SLEEP "):
			if ms, err := strconv.Atoi(cmd[6:]); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		case cmd == "":
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		}
	}
	ctrl.Wait()
	return 0
}

func waitForSource(f *hotkey.FakeFactory, monErr <-chan error) (*hotkey.FakeSource, error) {
	for {
		if src := f.Latest(); src != nil && src.Alive() {
			return src, nil
		}
		select {
		case err := <-monErr:
			return nil, err
		case <-time.After(5 * time.Millisecond):
		}
	}
}
