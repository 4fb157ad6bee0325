//go:build !linux

package main

import (
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

// Cocoa requires the status item and event taps on the main thread, so run
// moves to a goroutine and mainthread keeps the main thread for tray calls.
func main() {
	mainthread.Init(run)
}
