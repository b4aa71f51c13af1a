package state

import "context"

// Node is a computation step. It receives the current state and returns the
// next one; it must not mutate its input.
type Node[S any] interface {
	Execute(ctx context.Context, state S) (S, error)
}

// NodeFunc adapts a plain function to Node.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// Execute calls f.
func (f NodeFunc[S]) Execute(ctx context.Context, state S) (S, error) {
	return f(ctx, state)
}
