// Package clipboard delivers transcripts to the focused window by copying
// them and sending the platform paste shortcut.
package clipboard

import (
	"sync"
	"time"

	cb "github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"
)

func Read() (string, error) {
	return cb.ReadAll()
}

func Copy(text string) error {
	return cb.WriteAll(text)
}

var (
	kb     keybd_event.KeyBonding
	kbOnce sync.Once
	kbErr  error
)

// Init creates the virtual keyboard. It is slow on linux, so call it once at
// startup rather than on the first paste.
func Init() error {
	kbOnce.Do(func() {
		kb, kbErr = keybd_event.NewKeyBonding()
		if kbErr == nil && keyboardSettle > 0 {
			// the compositor needs time to pick up the new uinput device
			time.Sleep(keyboardSettle)
		}
	})
	return kbErr
}

// Paste sends the paste shortcut to the focused window.
func Paste() error {
	if err := Init(); err != nil {
		return err
	}
	kb.Clear()
	kb.SetKeys(keybd_event.VK_V)
	setPasteModifier(&kb)
	return kb.Launching()
}

// Verify checks that keystrokes can be injected.
func Verify() (string, error) {
	if err := Init(); err != nil {
		return "", err
	}
	return "keyboard event binding OK (" + pasteShortcut + ")", nil
}
