//go:build linux

package main

// The linux tray and key listeners do not need the main thread.
func main() {
	run()
}
