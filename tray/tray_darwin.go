//go:build darwin

package tray

import (
	"fyne.io/systray"
	"golang.design/x/hotkey/mainthread"
)

// The Cocoa status item must be created on the main thread, which
// mainthread.Init owns.
func run(onReady, onExit func()) {
	start, _ := systray.RunWithExternalLoop(onReady, onExit)
	done := make(chan struct{})
	mainthread.Call(func() {
		start()
		close(done)
	})
	<-done
}
