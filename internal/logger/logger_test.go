package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLogLevel(t *testing.T) {
	require.Equal(t, DEBUG, ParseLogLevel("DEBUG"))
	require.Equal(t, WARN, ParseLogLevel("warning"))
	require.Equal(t, INFO, ParseLogLevel("bogus"))
}

func TestDefaultLoggerFormats(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := defaultLogger
	defer func() { defaultLogger = prev }()
	defaultLogger = NewWithCore(core)

	Info("campaign %d locked", 7)
	Debug("rejected: %s", "CAMPAIGN_STILL_LIVE")

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, "campaign 7 locked", entries[0].Message)
	require.Equal(t, zapcore.DebugLevel, entries[1].Level)
}
