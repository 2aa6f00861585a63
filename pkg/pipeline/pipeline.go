// Package pipeline provides the core simulation pipeline.
//
// This package implements the complete load → simulate → render pipeline
// that can be used by CLI and API components. By centralizing this logic,
// we ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read a scenario from a TOML/JSON file or inline bytes, or a
//     saved wait-for graph snapshot for render-only runs
//  2. Simulate: Drive the scenario through a controller with detection
//     and recovery until it completes
//  3. Render: Generate diagram artifacts in various formats (SVG, PNG,
//     DOT, TXT)
//
// Simulation reports and rendered artifacts are cached by content hash,
// so repeating a run with an unchanged scenario and configuration is
// cheap.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    ScenarioPath: "scenarios/simple_deadlock.toml",
//	    Formats:      []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["wfg.svg"]
//
// Run individual stages:
//
//	// Load only
//	sc, err := runner.Load(ctx, opts)
//
//	// Simulate a loaded scenario
//	report, snap, err := runner.Simulate(ctx, sc, opts)
//
//	// Render an existing snapshot
//	artifacts, err := runner.Render(ctx, graph, states, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/errors"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/sim"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/viz"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultWidth is the default diagram width in pixels.
	DefaultWidth = 800

	// DefaultHeight is the default diagram height in pixels.
	DefaultHeight = 600

	// DefaultTheme is the default color theme.
	DefaultTheme = ThemeLight

	// termCols and termRows fix the cell grid for TXT artifacts. File
	// output has no attached terminal to size against.
	termCols = 72
	termRows = 24
)

// Theme constants for diagram color schemes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// ValidThemes is the set of supported color themes.
var ValidThemes = map[string]bool{
	ThemeLight: true,
	ThemeDark:  true,
}

// Format constants for output formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatDOT = "dot"
	FormatTXT = "txt"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG: true,
	FormatPNG: true,
	FormatDOT: true,
	FormatTXT: true,
}

// Diagram kind constants.
const (
	// KindWFG is the wait-for graph diagram.
	KindWFG = "wfg"

	// KindStates is the system state diagram.
	KindStates = "states"
)

// ValidKinds is the set of supported diagram kinds.
var ValidKinds = map[string]bool{
	KindWFG:    true,
	KindStates: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the simulation pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options. Exactly one of ScenarioPath, ScenarioData, or
	// SnapshotPath selects the input. A snapshot input skips the
	// simulate stage and renders the saved wait-for graph as-is.
	ScenarioPath string `json:"scenario_path,omitempty"`
	ScenarioData []byte `json:"scenario_data,omitempty"`
	ScenarioExt  string `json:"scenario_ext,omitempty"` // .toml or .json, required with ScenarioData
	SnapshotPath string `json:"snapshot_path,omitempty"`

	// Simulate options
	Steps   int  `json:"steps,omitempty"`   // Iteration cap; 0 uses the scenario's max_iterations
	Refresh bool `json:"refresh,omitempty"` // Bypass the report cache

	// Render options
	Kinds   []string `json:"kinds,omitempty"`   // Diagram kinds: wfg, states
	Formats []string `json:"formats,omitempty"` // Output formats: svg, png, dot, txt
	Width   int      `json:"width,omitempty"`
	Height  int      `json:"height,omitempty"`
	Theme   string   `json:"theme,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Scenario is the loaded scenario. Nil for snapshot inputs.
	Scenario *sim.Scenario

	// ScenarioHash is the content hash of the scenario. Empty for
	// snapshot inputs.
	ScenarioHash string

	// Report is the final simulation report. Zero for snapshot inputs.
	Report sim.Report

	// Snapshot is the final simulation state. Zero for snapshot inputs.
	Snapshot sim.Snapshot

	// Graph is the rendered wait-for graph.
	Graph viz.GraphSnapshot

	// States is the rendered system state diagram. Zero for snapshot
	// inputs.
	States viz.StateDiagram

	// Artifacts contains rendered outputs keyed by "kind.format", for
	// example "wfg.svg".
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ProcessCount  int
	ResourceCount int
	LoadTime      time.Duration
	SimTime       time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache hits for each cacheable pipeline stage.
type CacheInfo struct {
	SimHit    bool // Whether the simulation report came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: svg, png, dot, txt)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateKind checks that a diagram kind is valid.
func ValidateKind(kind string) error {
	if !ValidKinds[kind] {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid diagram kind: %q (must be one of: wfg, states)", kind)
	}
	return nil
}

// ValidateKinds checks that all diagram kinds are valid.
func ValidateKinds(kinds []string) error {
	for _, k := range kinds {
		if err := ValidateKind(k); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTheme checks that a theme name is valid.
func ValidateTheme(theme string) error {
	if !ValidThemes[theme] {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid theme: %q (must be one of: light, dark)", theme)
	}
	return nil
}

// themeByName maps a validated theme name to its color set.
func themeByName(name string) viz.Theme {
	if name == ThemeDark {
		return viz.DarkTheme()
	}
	return viz.DefaultTheme()
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for
// the full pipeline. This method is idempotent - calling it multiple
// times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForSimulate(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks required fields for the load stage.
func (o *Options) ValidateForLoad() error {
	inputs := 0
	if o.ScenarioPath != "" {
		inputs++
	}
	if len(o.ScenarioData) > 0 {
		inputs++
	}
	if o.SnapshotPath != "" {
		inputs++
	}
	if inputs == 0 {
		return errors.New(errors.ErrCodeInvalidInput,
			"scenario_path, scenario_data, or snapshot_path is required")
	}
	if inputs > 1 {
		return errors.New(errors.ErrCodeInvalidInput,
			"scenario_path, scenario_data, and snapshot_path are mutually exclusive")
	}
	if len(o.ScenarioData) > 0 && o.ScenarioExt == "" {
		return errors.New(errors.ErrCodeInvalidInput,
			"scenario_ext is required with scenario_data")
	}

	// Logger default
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	return nil
}

// ValidateForSimulate checks fields used by the simulate stage.
func (o *Options) ValidateForSimulate() error {
	if o.Steps < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "steps cannot be negative")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Kinds) == 0 {
		if o.IsRenderOnly() {
			// A saved wait-for graph carries no state diagram.
			o.Kinds = []string{KindWFG}
		} else {
			o.Kinds = []string{KindWFG, KindStates}
		}
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Theme == "" {
		o.Theme = DefaultTheme
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateKinds(o.Kinds); err != nil {
		return err
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if err := ValidateTheme(o.Theme); err != nil {
		return err
	}
	if o.Width < 0 || o.Height < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "width and height cannot be negative")
	}
	if o.IsRenderOnly() {
		for _, k := range o.Kinds {
			if k == KindStates {
				return errors.New(errors.ErrCodeInvalidInput,
					"state diagrams require a simulation run, not a snapshot input")
			}
		}
	}
	return nil
}

// IsRenderOnly returns true when the input is a saved snapshot rather
// than a scenario, so the simulate stage is skipped.
func (o *Options) IsRenderOnly() bool {
	return o.SnapshotPath != ""
}

// ArtifactName returns the artifact map key (and conventional file
// name) for a diagram kind and format, for example "wfg.svg".
func ArtifactName(kind, format string) string {
	return kind + "." + format
}
