//go:build !darwin

package tray

import "fyne.io/systray"

func run(onReady, onExit func()) {
	go systray.Run(onReady, onExit)
}
