// Package logging builds the process logger and logs bus events.
package logging

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hanpama/httpgraph/internal/eventbus"
	"github.com/hanpama/httpgraph/internal/events"
	"github.com/hanpama/httpgraph/internal/reqid"
)

// New returns a logger at level ("debug", "info", "warn", "error"). The
// development logger writes console output with caller and stack details.
func New(level string, development bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// Subscribe logs upstream calls and batch dispatches at debug, failures at
// warn, and transcoding at info. It returns a function that removes the
// subscriptions.
func Subscribe(logger *zap.Logger) (unsubscribe func()) {
	offs := []func(){
		eventbus.SubscribeGlobal(func(ctx context.Context, e events.UpstreamFinish) {
			fields := withRequestID(ctx,
				zap.String("call", e.CallID),
				zap.String("endpoint", e.Endpoint),
				zap.String("method", e.Request.Method),
				zap.String("url", e.Request.URL.String()),
				zap.Int("status", e.Status),
				zap.Duration("duration", e.Duration),
			)
			if e.Err != nil {
				logger.Warn("upstream call failed", append(fields, zap.Error(e.Err))...)
				return
			}
			logger.Debug("upstream call", fields...)
		}),
		eventbus.SubscribeGlobal(func(ctx context.Context, e events.BatchDispatch) {
			fields := withRequestID(ctx,
				zap.String("endpoint", e.Endpoint),
				zap.Int("tasks", e.Tasks),
				zap.Int("keys", e.Keys),
				zap.Bool("shared", e.Shared),
				zap.Duration("duration", e.Duration),
			)
			if e.Err != nil {
				logger.Warn("batch failed", append(fields, zap.Error(e.Err))...)
				return
			}
			logger.Debug("batch dispatched", fields...)
		}),
		eventbus.SubscribeGlobal(func(ctx context.Context, e events.Transcode) {
			fields := []zap.Field{
				zap.String("source", e.Source),
				zap.Int("types", e.Types),
				zap.Int("endpoints", e.Endpoints),
				zap.Duration("duration", e.Duration),
			}
			if e.Causes > 0 {
				logger.Warn("transcode rejected", append(fields, zap.Int("causes", e.Causes))...)
				return
			}
			logger.Info("transcoded", fields...)
		}),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

func withRequestID(ctx context.Context, fields ...zap.Field) []zap.Field {
	if id, ok := reqid.FromContext(ctx); ok {
		return append(fields, zap.String("request_id", id))
	}
	return fields
}
