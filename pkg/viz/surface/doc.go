// Package surface provides drawing backends for the viz renderer.
//
// Three implementations of [viz.Surface] are available:
//
//   - [Raster]: in-memory RGBA canvas with PNG export, for files and
//     HTTP image responses
//   - [SVG]: vector output emitted as a standalone SVG document
//   - [Term]: rune-cell grid with ANSI colors, for terminal UIs
//
// All backends take logical dimensions at construction and absorb any
// device pixel ratio there, so render code never sees physical pixels.
//
// [viz.Surface]: github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/viz
package surface
