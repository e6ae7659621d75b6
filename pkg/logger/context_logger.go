package logger

import (
	"context"
	"time"

	ctxutil "github.com/Payphone-Digital/auth-service/pkg/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ContextLogBuilder collects fields for one log line and pulls request
// metadata out of the context.
type ContextLogBuilder struct {
	logger    *OptimizedLogger
	ctx       context.Context
	level     zapcore.Level
	fields    []zap.Field
	message   string
	shouldLog bool
}

// WithContext starts a builder bound to ctx
func (ol *OptimizedLogger) WithContext(ctx context.Context) *ContextLogBuilder {
	return &ContextLogBuilder{
		logger:    ol,
		ctx:       ctx,
		level:     zapcore.InfoLevel,
		fields:    make([]zap.Field, 0, 12),
		shouldLog: true,
	}
}

func (clb *ContextLogBuilder) extractContextFields() {
	if clb.ctx == nil {
		return
	}

	if requestID := ctxutil.GetRequestID(clb.ctx); requestID != "" {
		clb.fields = append(clb.fields, zap.String("request_id", requestID))
	}
	if clientIP := ctxutil.GetClientIP(clb.ctx); clientIP != "" {
		clb.fields = append(clb.fields, zap.String("client_ip", clientIP))
	}
	if userID := ctxutil.GetUserID(clb.ctx); userID != "" {
		clb.fields = append(clb.fields, zap.String("user_id", userID))
	}
	if module := ctxutil.GetModule(clb.ctx); module != "" {
		clb.fields = append(clb.fields, zap.String("module", module))
	}
	if function := ctxutil.GetFunction(clb.ctx); function != "" {
		clb.fields = append(clb.fields, zap.String("function", function))
	}
}

func (clb *ContextLogBuilder) at(level zapcore.Level, message string) *ContextLogBuilder {
	if !clb.logger.ShouldLog(level) {
		clb.shouldLog = false
		return clb
	}
	clb.level = level
	clb.message = message
	clb.extractContextFields()
	return clb
}

func (clb *ContextLogBuilder) Info(message string) *ContextLogBuilder {
	return clb.at(zapcore.InfoLevel, message)
}

func (clb *ContextLogBuilder) Warn(message string) *ContextLogBuilder {
	return clb.at(zapcore.WarnLevel, message)
}

func (clb *ContextLogBuilder) Error(message string) *ContextLogBuilder {
	return clb.at(zapcore.ErrorLevel, message)
}

func (clb *ContextLogBuilder) Debug(message string) *ContextLogBuilder {
	return clb.at(zapcore.DebugLevel, message)
}

func (clb *ContextLogBuilder) String(key, value string) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.String(key, value))
	}
	return clb
}

func (clb *ContextLogBuilder) Int(key string, value int) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.Int(key, value))
	}
	return clb
}

func (clb *ContextLogBuilder) Int64(key string, value int64) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.Int64(key, value))
	}
	return clb
}

func (clb *ContextLogBuilder) Bool(key string, value bool) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.Bool(key, value))
	}
	return clb
}

func (clb *ContextLogBuilder) Time(key string, value time.Time) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.Time(key, value))
	}
	return clb
}

func (clb *ContextLogBuilder) Duration(value time.Duration) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.Duration("duration", value))
	}
	return clb
}

func (clb *ContextLogBuilder) Err(err error) *ContextLogBuilder {
	if clb.shouldLog && err != nil {
		clb.fields = append(clb.fields, zap.Error(err))
	}
	return clb
}

func (clb *ContextLogBuilder) Any(key string, value interface{}) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.Any(key, value))
	}
	return clb
}

// Log writes the line. Once the context is cancelled only errors get through.
func (clb *ContextLogBuilder) Log() {
	if !clb.shouldLog {
		return
	}

	if clb.ctx != nil && clb.ctx.Err() != nil && clb.level < zapcore.ErrorLevel {
		return
	}

	if ce := clb.logger.logger.Check(clb.level, clb.message); ce != nil {
		ce.Write(clb.fields...)
	}
}

func WithContext(ctx context.Context) *ContextLogBuilder {
	return GetOptimizedLogger().WithContext(ctx)
}

func InfoWithContext(ctx context.Context, message string) *ContextLogBuilder {
	return GetOptimizedLogger().WithContext(ctx).Info(message)
}

func WarnWithContext(ctx context.Context, message string) *ContextLogBuilder {
	return GetOptimizedLogger().WithContext(ctx).Warn(message)
}

func ErrorWithContext(ctx context.Context, message string) *ContextLogBuilder {
	return GetOptimizedLogger().WithContext(ctx).Error(message)
}

func DebugWithContext(ctx context.Context, message string) *ContextLogBuilder {
	return GetOptimizedLogger().WithContext(ctx).Debug(message)
}
