package wfg_test

import (
	"fmt"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/wfg"
)

// Example demonstrates building a wait-for graph and checking for cycles.
func Example() {
	g := wfg.New()

	// P1 waits for P2, P2 waits for P1: a classic circular wait.
	g.AddEdge("P1", "P2")
	g.AddEdge("P2", "P1")

	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Deadlock:", g.HasCycle())
	fmt.Println("Victims:", g.Deadlocked())

	// Output:
	// Nodes: 2
	// Edges: 2
	// Deadlock: true
	// Victims: [P1 P2]
}

// ExampleGraph_Cycles shows how cycles are reported.
func ExampleGraph_Cycles() {
	g := wfg.New()
	g.AddEdge("P1", "P2")
	g.AddEdge("P2", "P3")
	g.AddEdge("P3", "P1")

	for _, cycle := range g.Cycles() {
		fmt.Println(cycle)
	}

	// Output:
	// [P1 P2 P3]
}
