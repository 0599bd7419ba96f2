// Package log builds the gateway's zap logger and adapts it to the panic logger
// interface of graphql-go.
package log

import (
	"context"
	"runtime"

	gqllog "github.com/graph-gophers/graphql-go/log"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger writing at level. Format "console" gives the human
// readable development encoder; anything else logs JSON.
func New(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "log: bad level %q", level)
	}

	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	// Panics carry their own stack; see PanicLogger.
	cfg.DisableStacktrace = true

	return cfg.Build()
}

// PanicLogger logs panics recovered by the execution engine.
type PanicLogger struct {
	Logger *zap.Logger
}

var _ gqllog.Logger = (*PanicLogger)(nil)

// LogPanic is used to log recovered panic values that occur during query execution.
func (l *PanicLogger) LogPanic(ctx context.Context, value interface{}) {
	const size = 64 << 10
	buf := make([]byte, size)
	buf = buf[:runtime.Stack(buf, false)]
	l.Logger.Error("graphql: panic occurred",
		zap.Any("panic", value),
		zap.String("request_id", RequestID(ctx)),
		zap.ByteString("stack", buf),
	)
}

type requestIDKey struct{}

// NewRequestID returns a fresh, time-sortable request id.
func NewRequestID() string {
	return ksuid.New().String()
}

// WithRequestID stores id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// For returns l annotated with the request id in ctx, if any.
func For(ctx context.Context, l *zap.Logger) *zap.Logger {
	if id := RequestID(ctx); id != "" {
		return l.With(zap.String("request_id", id))
	}
	return l
}
