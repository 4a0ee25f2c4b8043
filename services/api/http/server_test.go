package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/02loveslollipop/climate-observations-api/services/api/config"
	"github.com/02loveslollipop/climate-observations-api/services/api/db"
)

type statsCall struct {
	start string
	end   *string
}

// fakeStore records the arguments it is called with and returns canned data.
type fakeStore struct {
	prcp     map[string]*float64
	stations []*string
	temps    []*float64
	stats    db.TemperatureStats
	err      error
	pingErr  error

	windows    [][2]string
	statsCalls []statsCall
}

func (f *fakeStore) Precipitation(_ context.Context, start, end string) (map[string]*float64, error) {
	f.windows = append(f.windows, [2]string{start, end})
	return f.prcp, f.err
}

func (f *fakeStore) StationIDs(context.Context) ([]*string, error) {
	return f.stations, f.err
}

func (f *fakeStore) Temperatures(_ context.Context, start, end string) ([]*float64, error) {
	f.windows = append(f.windows, [2]string{start, end})
	return f.temps, f.err
}

func (f *fakeStore) TemperatureStats(_ context.Context, start string, end *string) (db.TemperatureStats, error) {
	f.statsCalls = append(f.statsCalls, statsCall{start: start, end: end})
	return f.stats, f.err
}

func (f *fakeStore) Ping(context.Context) error {
	return f.pingErr
}

func newTestServer(t *testing.T, store Store) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(config.Config{Port: 8080}, store, logger)
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func TestHome(t *testing.T) {
	s := newTestServer(t, &fakeStore{})

	w := get(t, s, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	for _, route := range []string{
		"/api/v1.0/precipitation",
		"/api/v1.0/stations",
		"/api/v1.0/tobs",
		"/api/v1.0/&lt;start&gt;",
		"/api/v1.0/&lt;start&gt;/&lt;end&gt;",
	} {
		assert.Contains(t, w.Body.String(), route)
	}
}

func TestHealthz(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		w := get(t, newTestServer(t, &fakeStore{}), "/healthz")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})

	t.Run("unavailable", func(t *testing.T) {
		w := get(t, newTestServer(t, &fakeStore{pingErr: errors.New("connection refused")}), "/healthz")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"status":"unavailable","error":"connection refused"}`, w.Body.String())
	})
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, &fakeStore{})

	w := get(t, s, "/healthz")
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, &fakeStore{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1.0/stations", nil)
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestGzipHandler(t *testing.T) {
	temps := make([]*float64, 500)
	for i := range temps {
		temps[i] = fp(70)
	}
	s := newTestServer(t, &fakeStore{temps: temps})

	req := httptest.NewRequest(http.MethodGet, "/api/v1.0/tobs", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
}
