package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// defaultSlowThreshold flags queries that matter for sweep latency
const defaultSlowThreshold = 200 * time.Millisecond

// GormLogger adapts zap to gorm's logger interface. Queries log at debug,
// slow queries at warn, failures at error; record-not-found is suppressed
// by default because the repositories translate it into a domain error.
type GormLogger struct {
	logger                    *zap.Logger
	logLevel                  gormlogger.LogLevel
	slowThreshold             time.Duration
	ignoreRecordNotFoundError bool
}

// GormLoggerOption configures a GormLogger
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the slow query threshold
func WithSlowThreshold(threshold time.Duration) GormLoggerOption {
	return func(gl *GormLogger) { gl.slowThreshold = threshold }
}

// WithIgnoreRecordNotFoundError controls suppression of record-not-found
func WithIgnoreRecordNotFoundError(ignore bool) GormLoggerOption {
	return func(gl *GormLogger) { gl.ignoreRecordNotFoundError = ignore }
}

// NewGormLogger creates a gorm logger writing through zap
func NewGormLogger(zapLogger *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	gl := &GormLogger{
		logger:                    zapLogger.Named("gorm"),
		logLevel:                  level,
		slowThreshold:             defaultSlowThreshold,
		ignoreRecordNotFoundError: true,
	}
	for _, opt := range opts {
		opt(gl)
	}
	return gl
}

// LogMode returns a copy at the given level, as gorm expects
func (gl *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *gl
	clone.logLevel = level
	return &clone
}

// Info implements gormlogger.Interface
func (gl *GormLogger) Info(_ context.Context, msg string, data ...any) {
	gl.printf(gormlogger.Info, zapcore.InfoLevel, msg, data)
}

// Warn implements gormlogger.Interface
func (gl *GormLogger) Warn(_ context.Context, msg string, data ...any) {
	gl.printf(gormlogger.Warn, zapcore.WarnLevel, msg, data)
}

// Error implements gormlogger.Interface
func (gl *GormLogger) Error(_ context.Context, msg string, data ...any) {
	gl.printf(gormlogger.Error, zapcore.ErrorLevel, msg, data)
}

func (gl *GormLogger) printf(min gormlogger.LogLevel, lvl zapcore.Level, msg string, data []any) {
	if gl.logLevel < min {
		return
	}
	if ce := gl.logger.Check(lvl, fmt.Sprintf(msg, data...)); ce != nil {
		ce.Write()
	}
}

// Trace logs one executed statement with its timing and row count
func (gl *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if gl.logLevel <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := gl.traceFields(ctx, elapsed, sql, rows)

	if err != nil && gl.logLevel >= gormlogger.Error {
		if gl.ignoreRecordNotFoundError && errors.Is(err, gormlogger.ErrRecordNotFound) {
			return
		}
		gl.logger.Error("SQL Error", append(fields, zap.Error(err))...)
		return
	}

	if gl.slowThreshold != 0 && elapsed > gl.slowThreshold && gl.logLevel >= gormlogger.Warn {
		gl.logger.Warn(fmt.Sprintf("SLOW SQL >= %v", gl.slowThreshold), fields...)
		return
	}

	if gl.logLevel >= gormlogger.Info {
		gl.logger.Debug("SQL Query", fields...)
	}
}

func (gl *GormLogger) traceFields(ctx context.Context, elapsed time.Duration, sql string, rows int64) []zap.Field {
	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	return fields
}

// MapGormLogLevel translates the service log level into gorm's scale
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "warn":
		return gormlogger.Warn
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
