package logging_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hanpama/httpgraph/internal/eventbus"
	"github.com/hanpama/httpgraph/internal/events"
	"github.com/hanpama/httpgraph/internal/logging"
	"github.com/hanpama/httpgraph/internal/reqid"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })
	t.Cleanup(logging.Subscribe(zap.New(core)))
	return logs
}

func TestNew(t *testing.T) {
	logger, err := logging.New("warn", false)
	require.NoError(t, err)
	require.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	require.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	_, err = logging.New("chatty", true)
	require.ErrorContains(t, err, "logging:")
}

func TestSubscribe_Upstream(t *testing.T) {
	logs := observe(t)
	ctx := reqid.WithID(context.Background(), "rid-1")
	u, _ := url.Parse("https://api.test/users")
	req := &http.Request{Method: "GET", URL: u}

	eventbus.Publish(ctx, events.UpstreamFinish{CallID: "c1", Endpoint: "Query.users", Request: req, Status: 200})
	eventbus.Publish(ctx, events.UpstreamFinish{CallID: "c2", Endpoint: "Query.users", Request: req, Err: errors.New("refused")})

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, zapcore.DebugLevel, entries[0].Level)
	require.Equal(t, "upstream call", entries[0].Message)
	require.Equal(t, "rid-1", entries[0].ContextMap()["request_id"])
	require.Equal(t, zapcore.WarnLevel, entries[1].Level)
	require.Equal(t, "refused", entries[1].ContextMap()["error"])
}

func TestSubscribe_BatchAndTranscode(t *testing.T) {
	logs := observe(t)
	ctx := context.Background()

	eventbus.Publish(ctx, events.BatchDispatch{Endpoint: "Post.user", Tasks: 3, Keys: 2})
	eventbus.Publish(ctx, events.Transcode{Source: "app.graphql", Types: 4, Endpoints: 2})
	eventbus.Publish(ctx, events.Transcode{Source: "bad.graphql", Causes: 3})

	entries := logs.All()
	require.Len(t, entries, 3)
	require.Equal(t, "batch dispatched", entries[0].Message)
	require.Equal(t, int64(3), entries[0].ContextMap()["tasks"])
	require.Equal(t, "transcoded", entries[1].Message)
	require.Equal(t, zapcore.InfoLevel, entries[1].Level)
	require.Equal(t, "transcode rejected", entries[2].Message)
	require.Equal(t, zapcore.WarnLevel, entries[2].Level)
}
