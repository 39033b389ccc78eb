package httptp_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/httpgraph/internal/eventbus"
	"github.com/hanpama/httpgraph/internal/events"
	"github.com/hanpama/httpgraph/internal/httprt"
	"github.com/hanpama/httpgraph/internal/httptp"
	"github.com/hanpama/httpgraph/internal/reqid"
)

func request(t *testing.T, method, raw string) *httprt.Request {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return &httprt.Request{Endpoint: "Query.users", Method: method, URL: u, Header: http.Header{}}
}

func TestDo_DecodesJSON(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"name":"ann"},{"id":2,"name":null}]`))
	}))
	defer srv.Close()

	tp := httptp.New(httptp.WithHeader("Authorization", "Bearer t"))
	defer tp.Close()

	req := request(t, "GET", srv.URL+"/users?id=1&id=2")
	req.Header.Set("X-Tenant", "a")
	ctx := reqid.WithID(t.Context(), "rid-1")

	v, err := tp.Do(ctx, req)
	require.NoError(t, err)
	require.Equal(t, []any{
		map[string]any{"id": 1.0, "name": "ann"},
		map[string]any{"id": 2.0, "name": nil},
	}, v)

	require.Equal(t, "/users", got.URL.Path)
	require.Equal(t, []string{"1", "2"}, got.URL.Query()["id"])
	require.Equal(t, "a", got.Header.Get("X-Tenant"))
	require.Equal(t, "Bearer t", got.Header.Get("Authorization"))
	require.Equal(t, "rid-1", got.Header.Get(reqid.Header))
	require.Equal(t, "httpgraph", got.Header.Get("User-Agent"))
	require.Equal(t, "application/json", got.Header.Get("Accept"))
}

func TestDo_SendsBody(t *testing.T) {
	var method, contentType string
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		body, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"id":1}`))
	}))
	defer srv.Close()

	req := request(t, "POST", srv.URL+"/posts")
	req.Body = []byte(`{"title":"hello"}`)
	v, err := httptp.New().Do(t.Context(), req)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"id": 1.0}, v)

	require.Equal(t, "POST", method)
	require.Equal(t, "application/json", contentType)
	require.JSONEq(t, `{"title":"hello"}`, string(body))
}

func TestDo_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such user", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := httptp.New().Do(t.Context(), request(t, "GET", srv.URL+"/users/9"))
	var se *httptp.StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusNotFound, se.Status)
	require.Contains(t, se.Body, "no such user")
}

func TestDo_EmptyBodyIsNull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	v, err := httptp.New().Do(t.Context(), request(t, "DELETE", srv.URL+"/users/1"))
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestDo_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":`))
	}))
	defer srv.Close()

	_, err := httptp.New().Do(t.Context(), request(t, "GET", srv.URL))
	require.ErrorContains(t, err, "httptp: decode Query.users")
}

func TestDo_DefaultTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := httptp.New(httptp.WithTimeout(50*time.Millisecond)).Do(t.Context(), request(t, "GET", srv.URL))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDo_PublishesEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	bus := eventbus.New()
	var mu sync.Mutex
	var starts []events.UpstreamStart
	var finishes []events.UpstreamFinish
	eventbus.Subscribe(bus, func(ctx context.Context, e events.UpstreamStart) {
		mu.Lock()
		defer mu.Unlock()
		starts = append(starts, e)
	})
	eventbus.Subscribe(bus, func(ctx context.Context, e events.UpstreamFinish) {
		mu.Lock()
		defer mu.Unlock()
		finishes = append(finishes, e)
	})
	eventbus.Use(bus)
	defer eventbus.Use(nil)

	_, err := httptp.New().Do(t.Context(), request(t, "GET", srv.URL+"/users"))
	require.NoError(t, err)

	require.Len(t, starts, 1)
	require.Len(t, finishes, 1)
	require.NotEmpty(t, starts[0].CallID)
	require.Equal(t, starts[0].CallID, finishes[0].CallID)
	require.Equal(t, "Query.users", finishes[0].Endpoint)
	require.Equal(t, http.StatusOK, finishes[0].Status)
	require.NoError(t, finishes[0].Err)
}

func TestClose(t *testing.T) {
	tp := httptp.New()
	require.NoError(t, tp.Close())
	require.NoError(t, tp.Close())

	_, err := tp.Do(t.Context(), request(t, "GET", "http://127.0.0.1:1/"))
	require.ErrorIs(t, err, httptp.ErrClosed)
}
