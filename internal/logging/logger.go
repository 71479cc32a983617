package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects where and how verbosely the daemon logs.
type Options struct {
	Dir      string
	Identity string // file name stem and logger name
	Debug    bool
	// Console receives warnings and errors in human form. Nil means stderr.
	Console zapcore.WriteSyncer
}

// NewLogger writes JSON lines to <Dir>/<Identity>.log, rotated by lumberjack,
// and mirrors warnings and errors to the console.
func NewLogger(opts Options) (*zap.Logger, error) {
	if opts.Identity == "" {
		opts.Identity = "praesto"
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, err
	}
	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, opts.Identity+".log"),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	})
	level := zap.InfoLevel
	if opts.Debug {
		level = zap.DebugLevel
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), w, level)

	console := opts.Console
	if console == nil {
		console = zapcore.Lock(os.Stderr)
	}
	ccfg := zap.NewDevelopmentEncoderConfig()
	ccfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05")
	consoleCore := zapcore.NewCore(zapcore.NewConsoleEncoder(ccfg), console, zap.WarnLevel)

	return zap.New(zapcore.NewTee(fileCore, consoleCore)).Named(opts.Identity), nil
}
