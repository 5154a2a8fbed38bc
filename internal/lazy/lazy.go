// Package lazy provides deferred zero-argument computations.
package lazy

// Thunk defers a computation until Force is called. It does not memoize:
// every Force runs the computation again.
type Thunk[T any] struct {
	fn func() (T, error)
}

// Make wraps fn without calling it.
func Make[T any](fn func() (T, error)) Thunk[T] {
	return Thunk[T]{fn: fn}
}

// Force runs the deferred computation and returns its result unchanged.
func (t Thunk[T]) Force() (T, error) {
	if t.fn == nil {
		var zero T
		return zero, nil
	}
	return t.fn()
}

// Valid reports whether the thunk wraps a computation.
func (t Thunk[T]) Valid() bool {
	return t.fn != nil
}
