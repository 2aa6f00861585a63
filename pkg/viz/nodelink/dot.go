package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/viz"
)

// Options configures DOT generation.
type Options struct {
	// Title is drawn as a caption above the graph when non-empty.
	Title string

	// Theme supplies node and edge colors. The zero value falls back to
	// [viz.DefaultTheme].
	Theme viz.Theme
}

// ToDOT converts a wait-for graph snapshot to Graphviz DOT format.
// Nodes listed in the snapshot's deadlocked set are filled with the
// theme's alert color so circular waits stand out. Edges that reference
// an unlisted node are skipped, mirroring [viz.Renderer.RenderWaitForGraph].
//
// The resulting DOT string can be rendered with [RenderSVG] or [RenderPNG].
func ToDOT(snap viz.GraphSnapshot, opts Options) string {
	if opts.Theme == (viz.Theme{}) {
		opts.Theme = viz.DefaultTheme()
	}

	var buf bytes.Buffer
	buf.WriteString("digraph WFG {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&buf, "  node [shape=circle, style=filled, fillcolor=%q, fontcolor=%q, color=%q, fontsize=14, fixedsize=true, width=0.9];\n",
		opts.Theme.Node, opts.Theme.Label, opts.Theme.Stroke)
	fmt.Fprintf(&buf, "  edge [color=%q];\n", opts.Theme.Edge)
	if opts.Title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n", opts.Title)
		buf.WriteString("  labelloc=t;\n")
	}
	buf.WriteString("\n")

	known := make(map[string]bool, len(snap.Nodes))
	for _, id := range snap.Nodes {
		known[id] = true
	}

	for _, id := range snap.Nodes {
		if snap.IsDeadlocked(id) {
			fmt.Fprintf(&buf, "  %q [fillcolor=%q];\n", id, opts.Theme.NodeAlert)
		} else {
			fmt.Fprintf(&buf, "  %q;\n", id)
		}
	}

	buf.WriteString("\n")
	for _, e := range snap.Edges {
		if !known[e.From] || !known[e.To] {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// StatesToDOT converts a state diagram to Graphviz DOT format. States
// are emitted as a node-only graph in declaration order; the node equal
// to current is filled with the theme's active color. A current value
// matching no state marks nothing active, mirroring
// [viz.Renderer.RenderStateDiagram].
func StatesToDOT(states viz.StateList, current string, opts Options) string {
	if opts.Theme == (viz.Theme{}) {
		opts.Theme = viz.DefaultTheme()
	}

	var buf bytes.Buffer
	buf.WriteString("digraph FSA {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&buf, "  node [shape=circle, style=filled, fillcolor=%q, fontcolor=%q, color=%q, fontsize=14, fixedsize=true, width=0.9];\n",
		opts.Theme.NodeIdle, opts.Theme.Label, opts.Theme.Stroke)
	if opts.Title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n", opts.Title)
		buf.WriteString("  labelloc=t;\n")
	}
	buf.WriteString("\n")

	for _, id := range states {
		if id == current {
			fmt.Fprintf(&buf, "  %q [fillcolor=%q];\n", id, opts.Theme.NodeActive)
		} else {
			fmt.Fprintf(&buf, "  %q;\n", id)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz's built-in rasterizer.
func RenderPNG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
