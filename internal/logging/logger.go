// Package logging defines the Logger contract shared by every node
// binary in this repository and the trace sidecar on stderr.
//
// The shape is inherited from the teacher's definition.DefaultLogger:
// a small set of leveled methods plus ToggleDebug, so call sites never
// need to know which backend is wired in.
package logging

// Logger is implemented by every logging backend used across the
// workloads. Nodes never log to stdout — stdout is reserved for the
// wire protocol — so every Logger implementation here writes
// exclusively to stderr.
type Logger interface {
	Info(v ...interface{})
	Infof(format string, v ...interface{})
	Warn(v ...interface{})
	Warnf(format string, v ...interface{})
	Error(v ...interface{})
	Errorf(format string, v ...interface{})
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})
	Fatal(v ...interface{})
	Fatalf(format string, v ...interface{})

	// ToggleDebug turns debug-level logging on or off and returns the
	// new state, matching the teacher's DefaultLogger.ToggleDebug.
	ToggleDebug(value bool) bool
}
