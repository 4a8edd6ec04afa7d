// Package reflectx contains the reflection helpers used to turn plain Go
// functions into model-callable tools.
package reflectx

import (
	"reflect"
	"runtime"
	"strings"
)

// IsFunction reports whether fn is a non-nil function value.
func IsFunction(fn any) bool {
	if fn == nil {
		return false
	}
	return reflect.TypeOf(fn).Kind() == reflect.Func
}

// FunctionName returns the short name of fn: the type name for named function
// types, otherwise the runtime symbol without its package path and without the
// "-fm" suffix of method values. Closures keep the compiler generated name
// (e.g. "func1").
func FunctionName(fn any) string {
	if !IsFunction(fn) {
		return ""
	}

	val := reflect.ValueOf(fn)
	typ := val.Type()
	if typ.Name() != "" {
		return typ.String()
	}

	rf := runtime.FuncForPC(val.Pointer())
	if rf == nil {
		return typ.String()
	}
	name := rf.Name()
	if lastDot := strings.LastIndex(name, "."); lastDot >= 0 {
		name = name[lastDot+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}

// IsRefinedType reports whether value is exactly the type R.
func IsRefinedType[R any](value reflect.Type) bool {
	return reflect.TypeFor[R]() == value
}
