package state

// Edge is a transition between two nodes. A nil Predicate always transitions.
type Edge[S any] struct {
	From string
	To   string

	// Name labels the predicate in emitted events (e.g. "is_summary").
	Name string

	Predicate Predicate[S]
}

// Predicate decides whether an edge may be taken for the given state.
type Predicate[S any] func(state S) bool

func (e Edge[S]) allows(state S) bool {
	return e.Predicate == nil || e.Predicate(state)
}

// Always returns a predicate that is always true.
func Always[S any]() Predicate[S] {
	return func(S) bool { return true }
}

// Not inverts a predicate.
func Not[S any](p Predicate[S]) Predicate[S] {
	return func(s S) bool { return !p(s) }
}

// And holds when every predicate holds.
func And[S any](predicates ...Predicate[S]) Predicate[S] {
	return func(s S) bool {
		for _, p := range predicates {
			if !p(s) {
				return false
			}
		}
		return true
	}
}

// Or holds when at least one predicate holds.
func Or[S any](predicates ...Predicate[S]) Predicate[S] {
	return func(s S) bool {
		for _, p := range predicates {
			if p(s) {
				return true
			}
		}
		return false
	}
}
