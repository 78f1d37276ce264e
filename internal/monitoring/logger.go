// Package monitoring carries the exporter's diagnostic and progress output.
package monitoring

import (
	"fmt"
	"log"

	"github.com/muesli/termenv"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Successf reports a progress milestone through the package logger. When the
// process is attached to a terminal the message is rendered green so milestones
// stand out from ordinary diagnostics; otherwise it degrades to plain text.
func Successf(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	Logf("%s", termenv.String(msg).Foreground(termenv.ANSIGreen))
}
