// Package rlog is the revset engine's structured-logging surface,
// grounded on the teacher's logger package: a package-level
// *zap.SugaredLogger, a no-op default until Initialize is called, and
// thin Info/Warn/Error/Debug wrappers so the rest of this module never
// imports zap directly.
package rlog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the package-level logger, safe to call before Initialize.
var Logger *zap.SugaredLogger

// JSONOutput records which mode Initialize last configured.
var JSONOutput bool

func init() {
	Logger = zap.NewNop().Sugar()
}

// Initialize configures the global logger: structured JSON for machine
// consumption (config/log watchers, CI), or a minimal console encoder for
// interactive use (cmd/revsetql).
func Initialize(jsonOutput bool) error {
	JSONOutput = jsonOutput

	if jsonOutput {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		zl, err := cfg.Build()
		if err != nil {
			return err
		}
		Logger = zl.Sugar()
		return nil
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = ""
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	zl := zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(os.Stdout),
		zap.InfoLevel,
	))
	Logger = zl.Sugar()
	return nil
}

// Sync flushes any buffered log entries; errors are generally ignorable
// on stdout/stderr (EINVAL on some platforms).
func Sync() error {
	if Logger == nil {
		return nil
	}
	return Logger.Sync()
}

func Info(args ...interface{})                        { Logger.Info(args...) }
func Infof(format string, args ...interface{})         { Logger.Infof(format, args...) }
func Infow(msg string, kv ...interface{})              { Logger.Infow(msg, kv...) }
func Warn(args ...interface{})                         { Logger.Warn(args...) }
func Warnf(format string, args ...interface{})         { Logger.Warnf(format, args...) }
func Warnw(msg string, kv ...interface{})              { Logger.Warnw(msg, kv...) }
func Error(args ...interface{})                        { Logger.Error(args...) }
func Errorf(format string, args ...interface{})        { Logger.Errorf(format, args...) }
func Errorw(msg string, kv ...interface{})             { Logger.Errorw(msg, kv...) }
func Debug(args ...interface{})                        { Logger.Debug(args...) }
func Debugf(format string, args ...interface{})        { Logger.Debugf(format, args...) }
func Debugw(msg string, kv ...interface{})             { Logger.Debugw(msg, kv...) }
