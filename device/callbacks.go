package device

import "time"

// Progress phases reported to ProgressCallback.
const (
	// PhaseReading means blob data is being read from the device
	PhaseReading = "reading"

	// PhaseWriting means blob data is being staged on the device
	PhaseWriting = "writing"

	// PhaseValidating means the staged blob is being validated
	PhaseValidating = "validating"

	// PhaseCommitting means the staged blob is being committed
	PhaseCommitting = "committing"

	// PhaseComplete means the operation finished successfully
	PhaseComplete = "complete"
)

// Progress describes the state of a chunked transfer or save operation.
type Progress struct {
	// Phase is one of the Phase* constants
	Phase string

	// BytesDone is the number of payload bytes transferred so far
	BytesDone int

	// BytesTotal is the total payload size of the transfer
	BytesTotal int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// Elapsed is the time since the operation started
	Elapsed time.Duration
}

// ProgressCallback is called during chunked transfers to report
// progress. Implementations should return quickly; the transfer blocks
// while the callback runs.
type ProgressCallback func(Progress)

// Logger is an optional logging interface accepted by the session.
// It matches any structured key-value logger.
//
// Example with the standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	sess := device.NewSession(port, device.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
