// Package nodelink renders wait-for graphs as Graphviz node-link diagrams.
//
// # Overview
//
// This package is an alternative to the circular layout in [viz]: instead
// of placing processes on a ring, it hands the graph to Graphviz and lets
// its layout engine position nodes and route arrows. Deadlocked processes
// keep their alert coloring so a cycle is visible at a glance in either
// style.
//
// # Usage
//
// Convert a snapshot to DOT format, then render to SVG or PNG:
//
//	dot := nodelink.ToDOT(snap, nodelink.Options{Title: "simple_deadlock"})
//	svg, err := nodelink.RenderSVG(dot)
//	png, err := nodelink.RenderPNG(dot)
//
// # DOT Format
//
// The [ToDOT] function produces Graphviz DOT source that can be:
//
//   - Rendered directly via [RenderSVG] or [RenderPNG]
//   - Saved and processed with external Graphviz tools
//   - Customized before rendering
//
// The generated DOT uses left-to-right layout (rankdir=LR) with filled
// circle nodes, matching the circular renderer's node shape. State
// diagrams have a matching exporter, [StatesToDOT].
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG and
// PNG rendering, so no external Graphviz installation is required.
//
// [viz]: github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/viz
package nodelink
