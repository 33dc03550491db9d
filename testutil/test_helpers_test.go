package testutil

import (
	"testing"

	"github.com/SaiNageswarS/go-bucket-browser/logger"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCaptureLogs(t *testing.T) {
	orig := logger.Log

	t.Run("captures", func(t *testing.T) {
		logs := CaptureLogs(t)
		logger.Error("listing failed", zap.String("bucket", "b"))

		entries := logs.FilterMessage("listing failed").All()
		assert.Len(t, entries, 1)
		assert.Equal(t, "b", entries[0].ContextMap()["bucket"])
	})

	assert.Same(t, orig, logger.Log)
}

func TestWithFatal(t *testing.T) {
	rec := WithFatal(t)
	logger.Fatal("cannot start", zap.String("reason", "port busy"))

	assert.True(t, rec.Called)
	assert.Equal(t, "cannot start", rec.Msg)
}
