// Package log provides the leveled key/value logger used across surety.
//
// Call sites pass alternating key/value context:
//
//	log.Info("Airline admitted", "airline", addr, "votes", n)
package log

import (
	"io"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Lvl is the verbosity level of a log record.
type Lvl int

const (
	LvlCrit Lvl = iota
	LvlError
	LvlWarn
	LvlInfo
	LvlDebug
	LvlTrace
)

type state struct {
	sugar *zap.SugaredLogger
	lvl   Lvl
}

var current atomic.Pointer[state]

func init() {
	current.Store(newState(LvlInfo, false, os.Stderr))
}

// Setup replaces the process logger. Verbosity runs from LvlCrit (quietest)
// to LvlTrace. Color applies only to the level field of the console encoder.
func Setup(lvl Lvl, color bool, w io.Writer) {
	current.Store(newState(lvl, color, w))
}

func newState(lvl Lvl, color bool, w io.Writer) *state {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "t"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if color {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(w),
		zapLevel(lvl),
	)
	return &state{
		sugar: zap.New(core).Sugar(),
		lvl:   lvl,
	}
}

func zapLevel(lvl Lvl) zapcore.Level {
	switch {
	case lvl >= LvlDebug:
		return zapcore.DebugLevel
	case lvl == LvlInfo:
		return zapcore.InfoLevel
	case lvl == LvlWarn:
		return zapcore.WarnLevel
	case lvl == LvlError:
		return zapcore.ErrorLevel
	default:
		return zapcore.FatalLevel
	}
}

// Trace logs at the trace level. Rendered through the debug level; emitted
// only when verbosity is LvlTrace.
func Trace(msg string, ctx ...interface{}) {
	if s := current.Load(); s.lvl >= LvlTrace {
		s.sugar.Debugw(msg, ctx...)
	}
}

// Debug logs at the debug level.
func Debug(msg string, ctx ...interface{}) { current.Load().sugar.Debugw(msg, ctx...) }

// Info logs at the info level.
func Info(msg string, ctx ...interface{}) { current.Load().sugar.Infow(msg, ctx...) }

// Warn logs at the warn level.
func Warn(msg string, ctx ...interface{}) { current.Load().sugar.Warnw(msg, ctx...) }

// Error logs at the error level.
func Error(msg string, ctx ...interface{}) { current.Load().sugar.Errorw(msg, ctx...) }

// Crit logs at the critical level and exits the process.
func Crit(msg string, ctx ...interface{}) { current.Load().sugar.Fatalw(msg, ctx...) }
