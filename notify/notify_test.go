package notify

import "testing"

func TestNotifyTitle(t *testing.T) {
	var gotTitle, gotMsg string
	orig := send
	send = func(title, message string) error {
		gotTitle, gotMsg = title, message
		return nil
	}
	t.Cleanup(func() { send = orig })

	for _, tt := range []struct{ in, want string }{
		{"", "Dictator"},
		{"Speech model missing", "Dictator: Speech model missing"},
	} {
		if err := Notify(tt.in, "body"); err != nil {
			t.Fatal(err)
		}
		if gotTitle != tt.want || gotMsg != "body" {
			t.Errorf("Notify(%q) sent %q / %q", tt.in, gotTitle, gotMsg)
		}
	}
}
