package login

import (
	"strings"
	"testing"
)

func TestRenderPlist(t *testing.T) {
	p := renderPlist("/Applications/Dictator.app/Contents/MacOS/dictator & co")
	for _, want := range []string{
		"<string>com.dictator.app</string>",
		"<string>/Applications/Dictator.app/Contents/MacOS/dictator &amp; co</string>",
		"<key>RunAtLoad</key>\n\t<true/>",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("plist missing %q", want)
		}
	}
}

func TestRenderDesktop(t *testing.T) {
	for _, tt := range []struct{ exe, want string }{
		{"/usr/bin/dictator", "Exec=/usr/bin/dictator\n"},
		{"/opt/my apps/dictator", "Exec=\"/opt/my apps/dictator\"\n"},
	} {
		d := renderDesktop(tt.exe)
		if !strings.HasPrefix(d, "[Desktop Entry]\n") || !strings.Contains(d, tt.want) {
			t.Errorf("renderDesktop(%q) = %q", tt.exe, d)
		}
	}
}
