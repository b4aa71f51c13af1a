// Package state is a small LangGraph-style graph engine over an arbitrary,
// immutable state type.
//
// A graph is declared with nodes (steps that take a state value and return a
// new one), directed edges with optional predicates, one entry point and one
// or more exit points. Compile validates the declaration, rejects cycles and
// freezes it into a Runnable that can be executed concurrently:
//
//	g, _ := state.NewGraph[Query](config.DefaultGraphConfig("docchat"))
//	g.AddNode("classify", state.NodeFunc[Query](classify))
//	g.AddNode("answer", state.NodeFunc[Query](answer))
//	g.AddEdge("classify", "answer", nil)
//	g.SetEntryPoint("classify")
//	g.SetExitPoint("answer")
//
//	run, err := g.Compile()
//	final, err := run.Execute(ctx, Query{Question: "..."})
//
// Outgoing edges are evaluated in insertion order; the first edge whose
// predicate holds (or has none) is taken. Node failures surface as
// *ExecutionError carrying the failing node and the path walked so far.
package state
