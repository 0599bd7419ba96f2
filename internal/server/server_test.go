package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/graph-gophers/rest-gateway/config"
	"github.com/graph-gophers/rest-gateway/gqltesting"
)

func newServer(t *testing.T, logger *zap.Logger) (*Server, *gqltesting.Store) {
	t.Helper()
	store := gqltesting.NewStore(gqltesting.Fixtures())
	srv := store.Serve(t)

	cfg := config.Default()
	cfg.Upstream = srv.URL
	s, err := New(cfg, logger)
	require.NoError(t, err)
	return s, store
}

func TestRootPointer(t *testing.T) {
	s, _ := newServer(t, zap.NewNop())
	h := s.Handler(prometheus.NewRegistry())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Please go to /graphql", w.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/elsewhere", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestIDAndAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s, store := newServer(t, zap.New(core))
	h := s.Handler(prometheus.NewRegistry())

	r := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ user(id: \"23\") { id } }"}`))
	r.Header.Set("X-Request-Id", "req-42")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-Id"))
	assert.Equal(t, []string{"GET /users/23"}, store.Calls())

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "/graphql", fields["path"])
	assert.EqualValues(t, http.StatusOK, fields["status"])

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get("X-Request-Id"), 27)
}

func TestPrettyResponses(t *testing.T) {
	store := gqltesting.NewStore(gqltesting.Fixtures())
	srv := store.Serve(t)
	cfg := config.Default()
	cfg.Upstream = srv.URL
	cfg.Pretty = true
	s, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	h := s.Handler(prometheus.NewRegistry())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ user(id: \"23\") { id } }"}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"user":{"id":"23"}}}`, w.Body.String())
	assert.Contains(t, w.Body.String(), "\n  ")
}

func TestMetricsEndpoint(t *testing.T) {
	store := gqltesting.NewStore(gqltesting.Fixtures())
	srv := store.Serve(t)
	cfg := config.Default()
	cfg.Upstream = srv.URL
	s, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	h := s.http.Handler

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ company(id: \"1\") { id } }"}`)))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `gateway_upstream_requests_total{code="200",kind="companies",method="GET"} 1`)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s, _ := newServer(t, zap.NewNop())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.serve(ctx, ln) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + ln.Addr().String() + "/")
		return err == nil
	}, time.Second, 10*time.Millisecond)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "Please go to /graphql", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
