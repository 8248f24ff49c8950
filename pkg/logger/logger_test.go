package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitializeRejectsUnknownLevel(t *testing.T) {
	assert.Error(t, Initialize("chatty", true))
	assert.NoError(t, Initialize("debug", true))
}

func TestHelpersFormatAndLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(zap.NewNop()) })

	Debug("hidden %d", 1)
	Info("read %s page %d", "contacts", 2)
	Warn("auth disabled")
	Error("query failed: %v", assert.AnError)

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)
	assert.Equal(t, "read contacts page 2", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Contains(t, entries[2].Message, assert.AnError.Error())
}
