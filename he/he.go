package he

import (
	"encoding/json"
	"errors"
	"fmt"
	"log" // all kids love log
	"net/http"
)

// HTTPError probably represents the wrong abstraction.
type HTTPError struct {
	code int
	err  error
}

func HTTPCodedErrorf(code int, f string, more ...any) *HTTPError {
	return &HTTPError{
		code: code,
		err:  fmt.Errorf(f, more...),
	}
}

func New(code int, err error) *HTTPError {
	return &HTTPError{
		code: code,
		err:  err,
	}
}

func (e *HTTPError) Error() string {
	return e.err.Error()
}

func (e *HTTPError) Unwrap() error {
	return e.err
}

func (e *HTTPError) Code() int {
	return e.code
}

// CodeOf digs an HTTP status out of err, defaulting to 500.
func CodeOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.code
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Error string `json:"error"`
}

// SendErrorToHTTPClient sends err as an HTTP error.  If it happens to be our
// special HTTPCodedError, we can include a better respone code; otherwise,
// client gets 500 and it's on us.
func SendErrorToHTTPClient(w http.ResponseWriter, while string, err error) {
	code := CodeOf(err)
	txt := fmt.Sprintf("can't %s: %v", while, err)
	if code >= 500 {
		log.Println(txt)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(errorBody{Error: txt}); err != nil {
		log.Printf("error writing error to client: %v", err)
	}
}
