package engine

// Result is the outcome of one secondary call: either a value or an error.
type Result[T any] struct {
	Value T
	Err   error
}

// Capture packs a (value, error) pair into a Result.
func Capture[T any](v T, err error) Result[T] {
	if err != nil {
		return Result[T]{Err: err}
	}
	return Result[T]{Value: v}
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// OrDefault returns the value on success and def otherwise.
func (r Result[T]) OrDefault(def T) T {
	if r.Err != nil {
		return def
	}
	return r.Value
}

// orEmpty maps a failed or nil slice result to an empty, non-nil slice.
func orEmpty[E any](r Result[[]E]) []E {
	v := r.OrDefault(nil)
	if v == nil {
		return []E{}
	}
	return v
}
