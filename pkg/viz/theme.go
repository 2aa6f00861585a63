package viz

// Theme groups the color tokens used by the renderer. Tokens may be
// changed freely without breaking snapshot compatibility.
type Theme struct {
	Background Color // Frame fill painted before anything else
	Node       Color // Default wait-for-graph node fill
	NodeAlert  Color // Fill for nodes in the deadlocked set
	NodeActive Color // Fill for the current state in a state diagram
	NodeIdle   Color // Fill for non-current states
	Stroke     Color // Circle outline
	Edge       Color // Arrow shaft and head strokes
	Label      Color // Node label text
}

// DefaultTheme returns the stock light theme.
func DefaultTheme() Theme {
	return Theme{
		Background: "#f8f9fa",
		Node:       "#4c9be8",
		NodeAlert:  "#e74c3c",
		NodeActive: "#2ecc71",
		NodeIdle:   "#b0bec5",
		Stroke:     "#2c3e50",
		Edge:       "#555555",
		Label:      "#ffffff",
	}
}

// DarkTheme returns a theme suited to dark terminal backgrounds.
func DarkTheme() Theme {
	return Theme{
		Background: "#1e1e2e",
		Node:       "#89b4fa",
		NodeAlert:  "#f38ba8",
		NodeActive: "#a6e3a1",
		NodeIdle:   "#585b70",
		Stroke:     "#cdd6f4",
		Edge:       "#9399b2",
		Label:      "#11111b",
	}
}
