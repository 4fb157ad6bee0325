// Package notify shows desktop notifications for problems the operator has
// to fix, such as a missing speech model.
package notify

import "github.com/gen2brain/beeep"

const appName = "Dictator"

// send is swapped out in tests.
var send = func(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Notify shows a notification titled "Dictator: <title>".
func Notify(title, message string) error {
	if title == "" {
		title = appName
	} else {
		title = appName + ": " + title
	}
	return send(title, message)
}
