//go:build !darwin

package clipboard

import (
	"runtime"
	"time"

	"github.com/micmonay/keybd_event"
)

const pasteShortcut = "Ctrl+V"

var keyboardSettle = func() time.Duration {
	if runtime.GOOS == "linux" {
		return 2 * time.Second
	}
	return 0
}()

func setPasteModifier(k *keybd_event.KeyBonding) {
	k.HasCTRL(true)
}
