package log

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger(t *testing.T) {
	t.Run("Fields reach zap", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)
		l := &Logger{zapLogger: zap.New(core), zapLevel: zap.NewAtomicLevelAt(zap.DebugLevel)}

		l.Named("engine").With(String("follower", "f1")).Warn("tick failed",
			Error(errors.New("boom")), Int("faults", 2), Duration("elapsed", time.Second), Float64("power", 0.5))

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		require.Equal(t, zapcore.WarnLevel, entry.Level)
		require.Equal(t, "engine", entry.LoggerName)
		ctx := entry.ContextMap()
		require.Equal(t, "f1", ctx["follower"])
		require.Equal(t, "boom", ctx["error"])
		require.EqualValues(t, 2, ctx["faults"])
		require.Equal(t, 0.5, ctx["power"])
	})

	t.Run("Level filtering", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)
		l := &Logger{zapLogger: zap.New(core), zapLevel: zap.NewAtomicLevelAt(zap.InfoLevel)}

		l.Log(LevelDebug, "hidden")
		l.Log(LevelInfo, "shown")
		require.Equal(t, 1, logs.Len())

		l.SetLevel(LevelSilent)
		require.Equal(t, LevelSilent, l.GetLevel())
		l.Log(LevelError, "hidden")
		require.Equal(t, 1, logs.Len())
	})

	t.Run("Parse level", func(t *testing.T) {
		for _, lvl := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError, LevelSilent} {
			parsed, err := ParseLevel(lvl.String())
			require.NoError(t, err)
			require.Equal(t, lvl, parsed)
		}
		_, err := ParseLevel("loud")
		require.Error(t, err)
	})

	t.Run("Nop", func(t *testing.T) {
		l := NewNop()
		l.Error("discarded")
		require.NotNil(t, Provide())
	})
}
