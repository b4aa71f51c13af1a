package state_test

import (
	"testing"

	"github.com/tailored-agentic-units/docchat/orchestrate/state"
)

func TestPredicates(t *testing.T) {
	yes := state.Always[int]()
	no := state.Not(yes)
	positive := state.Predicate[int](func(n int) bool { return n > 0 })
	even := state.Predicate[int](func(n int) bool { return n%2 == 0 })

	tests := []struct {
		name string
		p    state.Predicate[int]
		in   int
		want bool
	}{
		{name: "always", p: yes, in: 0, want: true},
		{name: "not always", p: no, in: 0, want: false},
		{name: "and both", p: state.And(positive, even), in: 4, want: true},
		{name: "and one", p: state.And(positive, even), in: 3, want: false},
		{name: "and empty", p: state.And[int](), in: 0, want: true},
		{name: "or one", p: state.Or(positive, even), in: -2, want: true},
		{name: "or none", p: state.Or(positive, even), in: -3, want: false},
		{name: "or empty", p: state.Or[int](), in: 0, want: false},
		{name: "composed", p: state.And(positive, state.Not(even)), in: 5, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p(tt.in); got != tt.want {
				t.Errorf("predicate(%d) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
