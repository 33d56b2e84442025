// Package logger builds the zap logger shared by the CLI and the packages it
// drives. Logs go to stderr so they never mix with generated output or
// progress lines on stdout.
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the encoder and level.
type Options struct {
	// Verbose lowers the level to debug. The default level is warn: regular
	// runs report through progress lines, not logs.
	Verbose bool
	// JSON switches from the console encoder to structured JSON lines.
	JSON bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

// New builds a sugared logger.
func New(opts Options) *zap.SugaredLogger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	level := zap.WarnLevel
	if opts.Verbose {
		level = zap.DebugLevel
	}

	var encoder zapcore.Encoder
	if opts.JSON {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.TimeKey = ""
		cfg.CallerKey = ""
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(out), level)
	return zap.New(core).Sugar()
}

// Nop returns a logger that discards everything.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
