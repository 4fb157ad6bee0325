// Package login registers the app to start when the user logs in.
package login

import (
	"errors"
	"fmt"
	"html"
	"strings"
)

const (
	label     = "com.dictator.app"
	plistName = label + ".plist"
)

var ErrUnsupported = errors.New("start at login is not supported on this platform")

func renderPlist(exe string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>%s</string>
	<key>ProgramArguments</key>
	<array>
		<string>%s</string>
	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<false/>
	<key>LimitLoadToSessionType</key>
	<string>Aqua</string>
</dict>
</plist>
`, label, html.EscapeString(exe))
}

// desktop entry values cannot span lines; exec paths with spaces are quoted
func renderDesktop(exe string) string {
	if strings.ContainsAny(exe, " \t") {
		exe = `"` + strings.ReplaceAll(exe, `"`, `\"`) + `"`
	}
	return "[Desktop Entry]\n" +
		"Type=Application\n" +
		"Name=Dictator\n" +
		"Comment=Push-to-talk dictation\n" +
		"Exec=" + exe + "\n" +
		"Terminal=false\n" +
		"X-GNOME-Autostart-enabled=true\n"
}
