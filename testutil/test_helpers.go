package testutil

import (
	"testing"

	"github.com/SaiNageswarS/go-bucket-browser/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// CaptureLogs routes the global logger into an in-memory observer for the rest of
// the test. The original logger is restored on cleanup.
func CaptureLogs(t testing.TB) *observer.ObservedLogs {
	t.Helper()

	core, logs := observer.New(zap.DebugLevel)
	orig := logger.Log
	logger.Log = zap.New(core)
	t.Cleanup(func() { logger.Log = orig })

	return logs
}

// WithFatal replaces logger.Fatal with a recorder so code paths that would exit the
// process can be asserted on.
func WithFatal(t testing.TB) *FatalRecorder {
	t.Helper()

	rec := &FatalRecorder{}
	orig := logger.Fatal
	logger.Fatal = rec.Fatal
	t.Cleanup(func() { logger.Fatal = orig })

	return rec
}

// FatalRecorder is a test double for logger.Fatal.
type FatalRecorder struct {
	Called bool
	Msg    string
}

func (r *FatalRecorder) Fatal(msg string, fields ...zap.Field) {
	r.Called = true
	r.Msg = msg
}
