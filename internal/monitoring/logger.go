// Package monitoring holds the package-level diagnostic logger shared
// by the pipeline packages.
package monitoring

import "log"

// Logf is the diagnostic logger used across the pipeline. It defaults
// to log.Printf; tests or embedding code can redirect or mute it with
// SetLogger.
var Logf func(format string, v ...any) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op
// logger.
func SetLogger(f func(format string, v ...any)) {
	if f == nil {
		Logf = func(string, ...any) {}
		return
	}
	Logf = f
}
