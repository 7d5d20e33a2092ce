package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

func newTestLogger(t *testing.T) (Logger, *zaptest.Buffer) {
	t.Helper()
	buf := &zaptest.Buffer{}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	level := zap.NewAtomicLevelAt(zapcore.DebugLevel)
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), buf, level)
	return &zapLogger{z: zap.New(core), level: level}, buf
}

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		l, err := NewLogger(LogConfig{Level: LevelInfo, Format: format, OutputPaths: []string{"stdout"}})
		require.NoError(t, err, format)
		assert.NotNil(t, l)
	}
}

func TestNewLogger_BadOutputPath(t *testing.T) {
	_, err := NewLogger(LogConfig{OutputPaths: []string{"/nonexistent-dir/for/sure/out.log"}})
	assert.Error(t, err)
}

func TestNopLogger_AllMethodsNoOp(t *testing.T) {
	l := NewNopLogger()
	l.Debug("msg")
	l.Info("msg")
	l.Warn("msg")
	l.Error("msg")
	assert.Equal(t, l, l.With(String("k", "v")))
	assert.Equal(t, l, l.Named("x"))
}

func TestZapLogger_LevelsAndFields(t *testing.T) {
	l, buf := newTestLogger(t)

	l.Debug("debug msg")
	l.Warn("chapter filter fell back", Strings("targets", []string{"第三章"}))
	l.With(String("run_id", "r1")).Error("judge failed", Err(errors.New("timeout")), Duration("took", time.Second))

	out := buf.String()
	assert.Contains(t, out, `"level":"debug"`)
	assert.Contains(t, out, `"targets":["第三章"]`)
	assert.Contains(t, out, `"run_id":"r1"`)
	assert.Contains(t, out, `"error":"timeout"`)
}

func TestZapLogger_Named(t *testing.T) {
	l, buf := newTestLogger(t)
	l.Named("analyzer").Info("started")
	assert.Contains(t, buf.String(), `"logger":"analyzer"`)
}

func TestSetLevel_AppliesToChildren(t *testing.T) {
	l, buf := newTestLogger(t)
	child := l.With(String("component", "bm25"))

	require.True(t, SetLevel(l, LevelWarn))
	child.Info("hidden")
	child.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.False(t, SetLevel(NewNopLogger(), LevelDebug))
}

func TestErr_Nil(t *testing.T) {
	assert.Equal(t, "<nil>", Err(nil).Value)
}

func TestPreview_TruncatesByRune(t *testing.T) {
	f := Preview("response", "公平竞争审查制度", 4)
	assert.Equal(t, "公平竞争...", f.Value)
	assert.Equal(t, "短文本", Preview("response", "短文本", 10).Value)
	assert.Equal(t, "不截断", Preview("response", "不截断", 0).Value)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel(" warn "))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestDefault_SetAndGet(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	l, _ := newTestLogger(t)
	SetDefault(l)
	assert.Equal(t, l, Default())
	SetDefault(nil)
	assert.Equal(t, l, Default())
}

//Personal.AI order the ending
