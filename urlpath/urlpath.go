package urlpath

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ts4z/homegame/he"
)

// ID parses the named path variable as a positive integer id.
func ID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return -1, he.HTTPCodedErrorf(400, "can't parse %s from url path: %v", name, err)
	}
	if id < 0 {
		return -1, he.HTTPCodedErrorf(400, "%s %d is negative", name, id)
	}
	return id, nil
}

// IDPathValue extracts the "id" path variable.  On error, the error has
// already been reported to the client.
func IDPathValue(w http.ResponseWriter, r *http.Request) (int64, bool) {
	return PathValue(w, r, "id")
}

// PathValue is IDPathValue for any path variable.
func PathValue(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := ID(r, name)
	if err != nil {
		he.SendErrorToHTTPClient(w, fmt.Sprintf("parse %s", name), err)
		return -1, false
	}
	return id, true
}

// IntQuery reads an optional non-negative integer query parameter.
func IntQuery(r *http.Request, name string, dflt int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return dflt, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return dflt, he.HTTPCodedErrorf(400, "bad %s %q", name, raw)
	}
	return v, nil
}
