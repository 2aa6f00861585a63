// Package viz renders wait-for graphs and state diagrams onto an
// abstract 2D drawing surface.
//
// # Overview
//
// The simulator pushes two kinds of snapshots at the visualization
// layer: a directed wait-for graph of processes blocked on resource
// holders, and a ring of lifecycle states with one marked current.
// This package computes a circular layout for either and draws labeled
// circles and arrow-tipped edges through a small [Surface] capability
// interface, so the same render logic drives SVG, raster, and terminal
// backends (see the surface subpackage).
//
// # Layout
//
// [ComputeCircularLayout] places nodes evenly on a circle centered in
// the surface. Layout is a pure function of the input order and the
// surface's logical dimensions: position i of n sits at angle 2π·i/n.
// Nothing is cached between calls; resizing is handled by simply
// rendering again.
//
// # Rendering
//
// A [Renderer] owns one [Surface]. [Renderer.RenderWaitForGraph] clears
// the surface, repaints the background, draws every edge whose both
// endpoints are known (unknown endpoints drop the edge, never the
// frame), and then draws nodes, coloring members of the deadlocked set
// with the theme's alert color. [Renderer.RenderStateDiagram] draws the
// state ring with exactly the current state in the active color and no
// edges.
//
// Renders are stateless and idempotent: the same snapshot always
// produces the same draw calls. A renderer constructed without a
// surface is inert and every render call is a no-op, so hosts can run
// headless without guarding call sites.
//
// # Wire Format
//
// [GraphSnapshot] and [StateDiagram] mirror the payloads produced by
// the simulation API ("nodes", "edges" with "from"/"to", optional
// "deadlockedNodes"; "states", "current"). A state diagram's states may
// arrive as a JSON array or as an object, in which case the object's
// key order governs layout order; [StateList] normalizes both at the
// decoding boundary.
//
// # Concurrency
//
// Renderers are not safe for concurrent use. Each surface has a single
// writer; callers serialize render calls themselves.
package viz
