package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandleRobotsTXT(t *testing.T) {
	w := httptest.NewRecorder()
	HandleRobotsTXT(w, httptest.NewRequest("GET", "/robots.txt", nil))
	assert.Equal(t, "text/plain", w.Header().Get("Content-Type"))
	assert.Equal(t, "User-agent: *\r\nDisallow: /\r\n", w.Body.String())
}

func TestHandleHealth(t *testing.T) {
	w := httptest.NewRecorder()
	HandleHealth(w, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
