// Package logger provides logging utilities for the proxy.
package logger

import (
	"log"
	"log/slog"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// logger is the root logger; Named derives per-module loggers from it.
var logger = zap.NewNop()

// Environment represents the application run mode.
type Environment string

const (
	// EnvironmentDevelopment enables the human readable console encoder.
	EnvironmentDevelopment Environment = "development"
	// EnvironmentProduction uses the JSON encoder.
	EnvironmentProduction Environment = "production"
	// EnvironmentTesting behaves like development but is kept separate for config profiles.
	EnvironmentTesting Environment = "testing"
)

// LogLevel represents the logging level type.
type LogLevel string

const (
	// LogLevelDebug represents the debug logging level.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo represents the info logging level.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn represents the warn logging level.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError represents the error logging level.
	LogLevelError LogLevel = "error"
)

// InitLogger builds the root logger for the given environment.
// levels maps module names ("api.handlers", "openbanking") to level overrides.
func InitLogger(environment Environment, logLevel LogLevel, levels map[string]string) {
	var cfg zap.Config

	if environment == EnvironmentProduction {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	global := getZapLevel(string(logLevel))
	// 根 logger 放开到 debug，真正的过滤交给 Named 的 levelFilterCore
	cfg.Level.SetLevel(zapcore.DebugLevel)

	built, err := cfg.Build()
	if err != nil {
		log.Printf("Failed to initialize zap logger: %v", err)
		os.Exit(1)
	}
	logger = built
	InitLevelConfig(levels, global)

	zap.RedirectStdLog(Named("stdlog"))
	slog.SetDefault(slog.New(zapslog.NewHandler(Named("slog").Core())))
}

// Named returns a logger for the given module whose minimum level follows the
// hierarchical level configuration.
func Named(name string) *zap.Logger {
	level := GetLevelForName(name)
	return logger.Named(name).WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &levelFilterCore{Core: core, level: level}
	}))
}

// Sync flushes buffered entries of the root logger.
func Sync() {
	_ = logger.Sync()
}

func getZapLevel(level string) zapcore.Level {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
