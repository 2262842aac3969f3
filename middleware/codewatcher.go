package middleware

import (
	"net/http"
)

var _ http.ResponseWriter = &codeWatcher{}

// codeWatcher is a http.ResponseWriter that captures the status code.
type codeWatcher struct {
	code int
	w    http.ResponseWriter
}

func (cw *codeWatcher) Header() http.Header {
	return cw.w.Header()
}

func (cw *codeWatcher) Write(b []byte) (int, error) {
	if cw.code == 0 {
		cw.code = http.StatusOK
	}
	return cw.w.Write(b)
}

func (cw *codeWatcher) WriteHeader(statusCode int) {
	if cw.code == 0 {
		cw.code = statusCode
	}
	cw.w.WriteHeader(statusCode)
}

func (cw *codeWatcher) Unwrap() http.ResponseWriter {
	return cw.w
}

func (cw *codeWatcher) Code() int {
	if cw.code == 0 {
		return http.StatusOK
	}
	return cw.code
}
