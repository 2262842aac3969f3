/*
varz provides helpers to create expvar variables with package-qualified names.
Handler serves them as JSON; the webapp mounts it at /varz.
*/
package varz

import (
	"expvar"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// callerPackage returns the package name of the caller of the
// function.  Use a loose heuristic to get that split apart.
// If the variable is declared in a var block, this will remove the
// "init" bit.
func callerPackage() string {
	pc, _, _, ok := runtime.Caller(2)
	if !ok {
		return "varz.unknown"
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "varz.unknown"
	}

	n := fn.Name()
	dot := strings.LastIndex(n, ".")
	if dot != -1 {
		n = n[:dot]
	}
	// Trim the module path; "dbcache.hits" reads better than the import path.
	if slash := strings.LastIndex(n, "/"); slash != -1 {
		n = n[slash+1:]
	}

	return n
}

func NewInt(name string) *expvar.Int {
	return expvar.NewInt(fmt.Sprintf("%s.%s", callerPackage(), name))
}

func NewMap(name string) *expvar.Map {
	return expvar.NewMap(fmt.Sprintf("%s.%s", callerPackage(), name))
}

// Handler serves every published variable as one JSON object.
func Handler() http.Handler {
	return expvar.Handler()
}
