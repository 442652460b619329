package service

import "context"

// Result is the outcome of a console command as seen by the UI adapter.
type Result[T any] struct {
	OK    bool
	Value T
	Err   error
}

// Ok wraps a successful value.
func Ok[T any](value T) Result[T] {
	return Result[T]{OK: true, Value: value}
}

// Fail wraps a failed command.
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// IdentityFunc yields the identity the console acts as.
type IdentityFunc func(ctx context.Context) string
