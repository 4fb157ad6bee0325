//go:build !linux

package hotkey

import "errors"

var errNoEvdev = errors.New("evdev listener is only available on linux")

type evdevSource struct{}

func NewEvdevSource() Source { return evdevSource{} }

func (evdevSource) Start() (<-chan KeyEvent, error) { return nil, errNoEvdev }
func (evdevSource) Stop()                           {}

func DiagnoseEvdev() (string, error) { return "", errNoEvdev }
