// Package logging builds the shell's and the daemon's zap loggers.
package logging

import (
	"log/syslog"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction. Facility is only consulted when
// Syslog is true.
type Options struct {
	Level     string // debug|info|warn|error, default info
	Env       string // dev|prod, default dev
	LogFile   string // rotated file path, default empty (console only)
	MaxSizeMB int
	Syslog    bool
	Facility  string // LOG_DAEMON, LOG_LOCAL0, ... only meaningful with Syslog
}

// New builds a *zap.Logger the way the shell and konfd construct theirs:
// console encoder in dev, JSON in prod, always rotated through lumberjack
// when a file is configured, and fanned out to syslog when requested.
func New(opts Options) (*zap.Logger, error) {
	level := zap.InfoLevel
	if opts.Level != "" {
		_ = level.Set(strings.ToLower(opts.Level))
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	if strings.ToLower(opts.Env) == "prod" {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	var syncers []zapcore.WriteSyncer
	if strings.ToLower(opts.Env) != "prod" {
		syncers = append(syncers, zapcore.AddSync(os.Stdout))
	}
	if opts.LogFile != "" {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		syncers = append(syncers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    maxSize,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}))
	}
	if len(syncers) == 0 {
		syncers = append(syncers, zapcore.AddSync(os.Stderr))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(syncers...), level)

	if opts.Syslog {
		if w, err := syslogWriter(opts.Facility); err == nil {
			syslogEncoder := zapcore.NewConsoleEncoder(encoderCfg)
			core = zapcore.NewTee(core, zapcore.NewCore(syslogEncoder, zapcore.AddSync(w), level))
		}
	}

	return zap.New(core, zap.AddCaller()), nil
}

// syslogWriter maps a facility name to a log/syslog writer zapcore can
// sync to.
func syslogWriter(facility string) (*syslog.Writer, error) {
	prio := syslog.LOG_DAEMON
	switch strings.ToUpper(facility) {
	case "LOG_LOCAL0":
		prio = syslog.LOG_LOCAL0
	case "LOG_LOCAL1":
		prio = syslog.LOG_LOCAL1
	case "LOG_USER":
		prio = syslog.LOG_USER
	}
	return syslog.New(prio|syslog.LOG_INFO, "klish")
}
