package simulator

// Result is the outcome of a single field validator: either a parsed value or a
// human-readable message. Validators never panic and never return Go errors.
type Result[T any] struct {
	value T
	msg   string
	ok    bool
}

func Ok[T any](v T) Result[T] { return Result[T]{value: v, ok: true} }

func Err[T any](msg string) Result[T] { return Result[T]{msg: msg} }

func (r Result[T]) OK() bool { return r.ok }

// Value returns the parsed value; it is the zero value when the result is an error.
func (r Result[T]) Value() T { return r.value }

// Message returns the error message, or "" for a valid result.
func (r Result[T]) Message() string { return r.msg }
