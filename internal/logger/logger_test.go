package logger

import (
	"testing"

	"github.com/MarvinJWendt/testza"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	} {
		testza.AssertEqual(t, want, ParseLevel(in), "level=%q", in)
	}
}

func TestNew(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		l, err := New("warn", format)
		testza.AssertNoError(t, err)
		testza.AssertNotNil(t, l)
		testza.AssertFalse(t, l.Core().Enabled(zapcore.InfoLevel))
		testza.AssertTrue(t, l.Core().Enabled(zapcore.WarnLevel))
	}
}

func TestMust(t *testing.T) {
	testza.AssertNotNil(t, Must("debug", "json"))
}
