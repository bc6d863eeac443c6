package logger

import (
	"os"

	"go.uber.org/zap"
)

var globalLogger *zap.Logger

// Init initializes the global logger
func Init(logLevel *string) error {
	var err error

	// Create config based on NODE_ENV for formatting
	env := os.Getenv("NODE_ENV")
	var config zap.Config
	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}

	var appliedLogLevel string
	if logLevel != nil {
		appliedLogLevel = *logLevel
	} else {
		appliedLogLevel = "info"
	}

	// Set the log level from logLevel (info when nil)
	switch appliedLogLevel {
	case "debug":
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		config.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	globalLogger, err = config.Build()
	if err != nil {
		return err
	}

	return nil
}

// Get returns the global logger
func Get() *zap.Logger {
	if globalLogger == nil {
		// Fallback to development logger if not initialized
		globalLogger, _ = zap.NewDevelopment()
	}
	return globalLogger
}

// Sync flushes the logger
func Sync() error {
	if globalLogger != nil {
		return globalLogger.Sync()
	}
	return nil
}

// Shutdown properly closes the logger
func Shutdown() error {
	return Sync()
}

// Debug logs at debug level on the global logger.
func Debug(msg string, fields ...zap.Field) { Get().Debug(msg, fields...) }

// Info logs at info level on the global logger.
func Info(msg string, fields ...zap.Field) { Get().Info(msg, fields...) }

// Warn logs at warn level on the global logger.
func Warn(msg string, fields ...zap.Field) { Get().Warn(msg, fields...) }

// Error logs at error level on the global logger.
func Error(msg string, fields ...zap.Field) { Get().Error(msg, fields...) }

// WithContext returns a logger with additional context fields
func WithContext(fields ...zap.Field) *zap.Logger {
	return Get().With(fields...)
}

// WithWorldContext returns a logger tagged with a world and, if known, the
// settlement the current operation concerns.
func WithWorldContext(worldID, settlementID string) *zap.Logger {
	fields := make([]zap.Field, 0, 2)

	if worldID != "" {
		fields = append(fields, zap.String("world_id", worldID))
	}

	if settlementID != "" {
		fields = append(fields, zap.String("settlement_id", settlementID))
	}

	return Get().With(fields...)
}

// WithConnContext returns a logger tagged with an event-channel connection
// and the account/settlement it has authenticated as.
func WithConnContext(connID, accountID, settlementID string) *zap.Logger {
	fields := make([]zap.Field, 0, 3)

	if connID != "" {
		fields = append(fields, zap.String("conn_id", connID))
	}

	if accountID != "" {
		fields = append(fields, zap.String("account_id", accountID))
	}

	if settlementID != "" {
		fields = append(fields, zap.String("settlement_id", settlementID))
	}

	return Get().With(fields...)
}
