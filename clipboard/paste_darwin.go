package clipboard

import "github.com/micmonay/keybd_event"

const (
	pasteShortcut  = "Cmd+V"
	keyboardSettle = 0
)

func setPasteModifier(k *keybd_event.KeyBonding) {
	k.HasSuper(true)
}
