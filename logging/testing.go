package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

type testAppender struct {
	tb      testing.TB
	encoder zapcore.Encoder
}

// NewTestAppender returns an appender that writes console encoded lines through tb.Log, so
// each line is attributed to the test that produced it.
func NewTestAppender(tb testing.TB) Appender {
	cfg := NewEncoderConfig()
	cfg.SkipLineEnding = true
	return &testAppender{tb: tb, encoder: zapcore.NewConsoleEncoder(cfg)}
}

func (tapp *testAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	tapp.tb.Helper()
	buf, err := tapp.encoder.EncodeEntry(entry, fields)
	if err != nil {
		return err
	}
	defer buf.Free()
	tapp.tb.Log(buf.String())
	return nil
}

func (tapp *testAppender) Sync() error {
	return nil
}
