package interfaces

import (
	"fmt"

	"github.com/hyperdocs/hyperdocs/internal/logging"
)

// TestLogger is a simple logger implementation for testing purposes.
// It writes to stdout and can be used in tests where a Logger interface is required.
type TestLogger struct {
	verbose bool
	fields  []logging.Field
}

// NewTestLogger creates a new test logger.
func NewTestLogger(verbose bool) *TestLogger {
	return &TestLogger{verbose: verbose}
}

func (tl *TestLogger) Debug(msg string, fields ...logging.Field) {
	if tl.verbose {
		fmt.Printf("[DEBUG] %s %v\n", msg, tl.merge(fields))
	}
}

func (tl *TestLogger) Info(msg string, fields ...logging.Field) {
	if tl.verbose {
		fmt.Printf("[INFO] %s %v\n", msg, tl.merge(fields))
	}
}

func (tl *TestLogger) Warn(msg string, fields ...logging.Field) {
	fmt.Printf("[WARN] %s %v\n", msg, tl.merge(fields))
}

func (tl *TestLogger) Error(msg string, fields ...logging.Field) {
	fmt.Printf("[ERROR] %s %v\n", msg, tl.merge(fields))
}

func (tl *TestLogger) With(fields ...logging.Field) logging.Logger {
	return &TestLogger{verbose: tl.verbose, fields: tl.merge(fields)}
}

func (tl *TestLogger) merge(fields []logging.Field) []logging.Field {
	if len(tl.fields) == 0 {
		return fields
	}
	out := make([]logging.Field, 0, len(tl.fields)+len(fields))
	out = append(out, tl.fields...)
	return append(out, fields...)
}
