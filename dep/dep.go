/*
package dep provides utilities for dependency injection.

okay, just the one.
*/
package dep

import (
	"fmt"
	"reflect"
	"runtime"
)

func missing(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// Required returns t, or panics naming the caller if t is nil (including a
// nil pointer hiding in an interface).
func Required[T any](t T) T {
	if !missing(reflect.ValueOf(t)) {
		return t
	}
	pc, file, line, ok := runtime.Caller(1)
	if !ok {
		panic(fmt.Sprintf("missing required dependency of type %T", t))
	}
	if fn := runtime.FuncForPC(pc); fn != nil {
		panic(fmt.Sprintf("missing required dependency %T in %s (%s:%d)", t, fn.Name(), file, line))
	}
	panic(fmt.Sprintf("missing required dependency %T (%s:%d)", t, file, line))
}
