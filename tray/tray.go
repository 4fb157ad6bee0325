// Package tray shows the menu bar icon: status line, live level, hotkey
// choice, start at login and quit.
package tray

import (
	"sync"
	"sync/atomic"
	"time"

	"fyne.io/systray"

	"dictator/log"
)

const (
	tooltip      = "Dictator: hold the hotkey to dictate"
	errorTimeout = 10 * time.Second
)

type Options struct {
	Hotkeys []string
	Hotkey  string
	Login   bool
	// OnHotkey is called with the chosen hotkey name. The checkmark moves
	// only if it returns nil.
	OnHotkey func(name string) error
	OnLogin  func(on bool) error
}

var (
	quitCh    = make(chan struct{})
	closeOnce sync.Once
	running   atomic.Bool

	opts Options

	mu          sync.Mutex
	status      = "ready"
	iconIdx     = -1
	errorGen    int
	mStatus     *systray.MenuItem
	hotkeyItems []*systray.MenuItem
	mLogin      *systray.MenuItem
)

// Init shows the tray icon and returns a channel closed when the user picks
// Quit.
func Init(o Options) <-chan struct{} {
	opts = o
	running.Store(true)
	run(onReady, onExit)
	return quitCh
}

// Quit closes the quit channel and removes the icon.
func Quit() {
	closeOnce.Do(func() { close(quitCh) })
	if running.CompareAndSwap(true, false) {
		systray.Quit()
	}
}

func statusTitle(s string) string {
	switch s {
	case "listening":
		return "Listening..."
	case "transcribing":
		return "Transcribing..."
	}
	return "Ready"
}

// SetStatus takes one of "ready", "listening" or "transcribing".
func SetStatus(s string) {
	mu.Lock()
	defer mu.Unlock()
	status = s
	iconIdx = -1
	if !running.Load() {
		return
	}
	if mStatus != nil {
		mStatus.SetTitle(statusTitle(s))
	}
	switch s {
	case "ready":
		systray.SetIcon(iconReady)
	case "transcribing":
		systray.SetIcon(iconTranscribing)
	case "listening":
		iconIdx = 0
		systray.SetIcon(iconRecording[0])
	}
}

// SetLevel swaps the recording icon while listening.
func SetLevel(level float64) {
	mu.Lock()
	defer mu.Unlock()
	if status != "listening" || !running.Load() {
		return
	}
	idx := IconIndex(level)
	if idx == iconIdx {
		return
	}
	iconIdx = idx
	systray.SetIcon(iconRecording[idx])
}

// SetError shows msg in the tooltip with a warning icon until the next
// status change or errorTimeout.
func SetError(msg string) {
	mu.Lock()
	errorGen++
	gen := errorGen
	if running.Load() {
		systray.SetTooltip("Dictator: " + msg)
		if status == "ready" {
			systray.SetIcon(iconError)
		}
	}
	mu.Unlock()

	go func() {
		time.Sleep(errorTimeout)
		mu.Lock()
		defer mu.Unlock()
		if gen != errorGen || !running.Load() {
			return
		}
		systray.SetTooltip(tooltip)
		if status == "ready" {
			systray.SetIcon(iconReady)
		}
	}()
}

func onReady() {
	systray.SetIcon(iconReady)
	systray.SetTitle("")
	systray.SetTooltip(tooltip)

	mu.Lock()
	mStatus = systray.AddMenuItem(statusTitle(status), "")
	mStatus.Disable()
	mu.Unlock()
	systray.AddSeparator()

	mHotkey := systray.AddMenuItem("Hotkey", "Key to hold while dictating")
	for _, name := range opts.Hotkeys {
		item := mHotkey.AddSubMenuItemCheckbox(name, name, name == opts.Hotkey)
		hotkeyItems = append(hotkeyItems, item)
		go watchHotkey(item, name)
	}

	mLogin = systray.AddMenuItemCheckbox("Start at Login", "Launch Dictator when you log in", opts.Login)
	go watchLogin()

	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit Dictator")
	go func() {
		for range mQuit.ClickedCh {
			Quit()
		}
	}()
}

func watchHotkey(item *systray.MenuItem, name string) {
	for range item.ClickedCh {
		if opts.OnHotkey != nil {
			if err := opts.OnHotkey(name); err != nil {
				log.Errorf("switch hotkey to %s: %v", name, err)
				SetError(err.Error())
				continue
			}
		}
		for _, it := range hotkeyItems {
			if it == item {
				it.Check()
			} else {
				it.Uncheck()
			}
		}
	}
}

func watchLogin() {
	for range mLogin.ClickedCh {
		on := !mLogin.Checked()
		if opts.OnLogin != nil {
			if err := opts.OnLogin(on); err != nil {
				log.Errorf("start at login: %v", err)
				SetError(err.Error())
				continue
			}
		}
		if on {
			mLogin.Check()
		} else {
			mLogin.Uncheck()
		}
	}
}

func onExit() {
	running.Store(false)
	closeOnce.Do(func() { close(quitCh) })
}
