package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/trigger-call/bridge"
	"github.com/wippyai/trigger-call/host"
	"github.com/wippyai/trigger-call/invoke"
)

// logEnv selects the log level: debug, info, warn or error.
const logEnv = "TRIGGER_CALL_LOG"

// newLogger builds a console logger writing to w. Levels are coloured only
// when w is a terminal.
func newLogger(w *os.File) (*zap.Logger, error) {
	level := zapcore.WarnLevel
	if s := os.Getenv(logEnv); s != "" {
		l, err := zapcore.ParseLevel(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", logEnv, err)
		}
		level = l
	}

	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	if term.IsTerminal(int(w.Fd())) {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(w), level)
	return zap.New(core), nil
}

// installLogger hands l to every package that logs. It must run before
// the first call.
func installLogger(l *zap.Logger) {
	bridge.SetLogger(l.Named("bridge"))
	invoke.SetLogger(l.Named("invoke"))
	host.SetLogger(l.Named("host"))
}
