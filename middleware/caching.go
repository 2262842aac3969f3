package middleware

import (
	"fmt"
	"net/http"
	"time"
)

// CacheHeaderAdder adds Cache-Control headers to successful GETs.  It is
// meant for responses that never change while the server runs, like the
// built-in paytables.
type CacheHeaderAdder struct {
	next   http.Handler
	header string
}

func NewCacheHeaderAdder(next http.Handler, maxAge time.Duration) *CacheHeaderAdder {
	return &CacheHeaderAdder{
		next:   next,
		header: fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds())),
	}
}

func (ch *CacheHeaderAdder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		w.Header().Set("Cache-Control", ch.header)
	}
	ch.next.ServeHTTP(w, r)
}
