package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestCodeWatcher(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &codeWatcher{w: rec}
	assert.Equal(t, 200, cw.Code())

	cw.WriteHeader(418)
	cw.WriteHeader(500)
	assert.Equal(t, 418, cw.Code())
	assert.Equal(t, 418, rec.Code)
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /things/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	rl := NewRequestLogger(mux, clockwork.NewFakeClock())

	rec := httptest.NewRecorder()
	rl.ServeHTTP(rec, httptest.NewRequest("GET", "/things/3", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = httptest.NewRecorder()
	rl.ServeHTTP(rec, httptest.NewRequest("GET", "/nothing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoteAddr(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1:1234", remoteAddr(r))
	r.Header.Set("X-Forwarded-For", "192.0.2.7")
	assert.Equal(t, "192.0.2.7", remoteAddr(r))
}

func TestCacheHeaderAdder(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	ch := NewCacheHeaderAdder(ok, time.Hour)

	rec := httptest.NewRecorder()
	ch.ServeHTTP(rec, httptest.NewRequest("GET", "/paytables", nil))
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))

	rec = httptest.NewRecorder()
	ch.ServeHTTP(rec, httptest.NewRequest("POST", "/paytables", nil))
	assert.Empty(t, rec.Header().Get("Cache-Control"))
}
