package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide logger. Init must run before any component logs.
var Log *zap.Logger

// Init builds the global logger. Unparseable levels fall back to info so a
// bad LOG_LEVEL value never blocks startup.
func Init(level string, env string) error {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := config.Build()
	if err != nil {
		return err
	}

	Log = logger.With(zap.String("service", "voice-bridge"))
	return nil
}

func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
