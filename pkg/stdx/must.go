// Package stdx contains small generic helpers missing from the standard library.
package stdx

// Must0 panics if err is not nil.
func Must0(err error) {
	if err != nil {
		panic(err)
	}
}

// Must1 returns v, or panics when err is not nil.
//
// It is meant for package level initialization where a failure is a
// programming error, like building a tool definition from a function.
func Must1[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// Zero returns the zero value for T.
func Zero[T any]() T {
	var zero T
	return zero
}
