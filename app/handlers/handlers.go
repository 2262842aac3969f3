// Package handlers holds the trivial HTTP handlers that don't need the app.
package handlers

import (
	"io"
	"net/http"
)

// HandleRobotsTXT keeps crawlers out; there's nothing here for them.
func HandleRobotsTXT(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	data := []string{
		"User-agent: *",
		"Disallow: /",
	}
	for _, line := range data {
		io.WriteString(w, line+"\r\n")
	}
}

// HandleHealth answers load balancer checks.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, `{"status":"ok"}`+"\n")
}
