package pipeline

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/cache"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/errors"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/observability"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/viz"
)

// crossedScenario deadlocks immediately: P1 and P2 each hold one
// resource and request the other's.
const crossedScenario = `
scenario_name = "Crossed Locks"
detection_strategy = "immediate"
recovery_strategy = "cost"

[[processes]]
pid = "P1"

[[processes]]
pid = "P2"

[[resources]]
rid = "R1"

[[resources]]
rid = "R2"

[[initial_allocations]]
process = "P1"
resource = "R1"

[[initial_allocations]]
process = "P2"
resource = "R2"

[[resource_requests]]
process = "P1"
resource = "R2"

[[resource_requests]]
process = "P2"
resource = "R1"
`

func testRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	return NewRunner(c, nil, log.NewWithOptions(io.Discard, log.Options{}))
}

func scenarioOpts() Options {
	return Options{
		ScenarioData: []byte(crossedScenario),
		ScenarioExt:  ".toml",
		Logger:       log.NewWithOptions(io.Discard, log.Options{}),
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"dot", false},
		{"txt", false},
		{"pdf", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateKind(t *testing.T) {
	tests := []struct {
		kind    string
		wantErr bool
	}{
		{"wfg", false},
		{"states", false},
		{"tower", true},
		{"WFG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateKind(tt.kind)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateKind(%q) error = %v, wantErr %v", tt.kind, err, tt.wantErr)
		}
	}
}

func TestValidateTheme(t *testing.T) {
	tests := []struct {
		theme   string
		wantErr bool
	}{
		{"light", false},
		{"dark", false},
		{"solarized", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateTheme(tt.theme)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateTheme(%q) error = %v, wantErr %v", tt.theme, err, tt.wantErr)
		}
	}
}

func TestOptionsValidateForLoad(t *testing.T) {
	// No input
	opts := Options{}
	if err := opts.ValidateForLoad(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Missing input error = %v, want code %s", err, errors.ErrCodeInvalidInput)
	}

	// Two inputs
	opts = Options{ScenarioPath: "a.toml", SnapshotPath: "b.json"}
	if err := opts.ValidateForLoad(); err == nil {
		t.Error("Multiple inputs should fail")
	}

	// Data without extension
	opts = Options{ScenarioData: []byte("x")}
	if err := opts.ValidateForLoad(); err == nil {
		t.Error("scenario_data without scenario_ext should fail")
	}

	// Valid; logger gets a default
	opts = Options{ScenarioPath: "a.toml"}
	if err := opts.ValidateForLoad(); err != nil {
		t.Errorf("Valid options should pass: %v", err)
	}
	if opts.Logger == nil {
		t.Error("Logger default was not set")
	}
}

func TestOptionsValidateForSimulate(t *testing.T) {
	opts := Options{Steps: -1}
	if err := opts.ValidateForSimulate(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Negative steps error = %v, want code %s", err, errors.ErrCodeInvalidInput)
	}

	opts = Options{Steps: 10}
	if err := opts.ValidateForSimulate(); err != nil {
		t.Errorf("Valid options should pass: %v", err)
	}
}

func TestSetRenderDefaults(t *testing.T) {
	opts := Options{ScenarioPath: "a.toml"}
	opts.SetRenderDefaults()

	if len(opts.Kinds) != 2 || opts.Kinds[0] != KindWFG || opts.Kinds[1] != KindStates {
		t.Errorf("Kinds should be [wfg states], got %v", opts.Kinds)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats should be [svg], got %v", opts.Formats)
	}
	if opts.Width != DefaultWidth {
		t.Errorf("Width should be %d, got %d", DefaultWidth, opts.Width)
	}
	if opts.Height != DefaultHeight {
		t.Errorf("Height should be %d, got %d", DefaultHeight, opts.Height)
	}
	if opts.Theme != DefaultTheme {
		t.Errorf("Theme should be %s, got %s", DefaultTheme, opts.Theme)
	}
}

func TestSetRenderDefaultsSnapshotInput(t *testing.T) {
	opts := Options{SnapshotPath: "wfg.json"}
	opts.SetRenderDefaults()

	if len(opts.Kinds) != 1 || opts.Kinds[0] != KindWFG {
		t.Errorf("Snapshot input Kinds should be [wfg], got %v", opts.Kinds)
	}
}

func TestValidateForRenderStatesFromSnapshot(t *testing.T) {
	opts := Options{SnapshotPath: "wfg.json", Kinds: []string{KindStates}}
	if err := opts.ValidateForRender(); err == nil {
		t.Error("states kind with snapshot input should fail")
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := scenarioOpts()

	// First call
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}

	originalKinds := len(opts.Kinds)
	originalTheme := opts.Theme

	// Second call should be idempotent
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}

	if len(opts.Kinds) != originalKinds {
		t.Error("Kinds changed on second call")
	}
	if opts.Theme != originalTheme {
		t.Error("Theme changed on second call")
	}
}

func TestArtifactName(t *testing.T) {
	if got := ArtifactName(KindWFG, FormatSVG); got != "wfg.svg" {
		t.Errorf("ArtifactName() = %q, want %q", got, "wfg.svg")
	}
}

func TestRunnerExecute(t *testing.T) {
	r := testRunner(t)
	defer r.Close()

	opts := scenarioOpts()
	opts.Formats = []string{FormatSVG, FormatDOT}

	result, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if result.Scenario == nil || result.Scenario.Name != "Crossed Locks" {
		t.Errorf("Scenario = %+v, want name Crossed Locks", result.Scenario)
	}
	if result.ScenarioHash == "" {
		t.Error("ScenarioHash is empty")
	}
	if got := result.Report.Summary.SystemFinalState; got != "Safe" {
		t.Errorf("SystemFinalState = %q, want Safe", got)
	}
	if got := result.Report.Metrics.DeadlocksFound; got != 1 {
		t.Errorf("DeadlocksFound = %d, want 1", got)
	}
	if result.CacheInfo.SimHit || result.CacheInfo.RenderHit {
		t.Errorf("first run should miss caches, got %+v", result.CacheInfo)
	}
	if result.Stats.ProcessCount != 2 || result.Stats.ResourceCount != 2 {
		t.Errorf("Stats counts = %d/%d, want 2/2", result.Stats.ProcessCount, result.Stats.ResourceCount)
	}

	for _, name := range []string{"wfg.svg", "wfg.dot", "states.svg", "states.dot"} {
		if len(result.Artifacts[name]) == 0 {
			t.Errorf("missing artifact %s (have %d artifacts)", name, len(result.Artifacts))
		}
	}
	if !strings.HasPrefix(string(result.Artifacts["wfg.dot"]), "digraph WFG {") {
		t.Error("wfg.dot is not a DOT graph")
	}
	if !strings.HasPrefix(string(result.Artifacts["states.dot"]), "digraph FSA {") {
		t.Error("states.dot is not a DOT graph")
	}
}

func TestRunnerExecuteCacheHit(t *testing.T) {
	r := testRunner(t)
	defer r.Close()

	first, err := r.Execute(context.Background(), scenarioOpts())
	if err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}

	second, err := r.Execute(context.Background(), scenarioOpts())
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}

	if !second.CacheInfo.SimHit {
		t.Error("second run should hit the report cache")
	}
	if !second.CacheInfo.RenderHit {
		t.Error("second run should hit the artifact cache")
	}
	if string(first.Artifacts["wfg.svg"]) != string(second.Artifacts["wfg.svg"]) {
		t.Error("cached artifact differs from rendered artifact")
	}

	// Refresh bypasses the report cache.
	opts := scenarioOpts()
	opts.Refresh = true
	third, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("refresh Execute() error = %v", err)
	}
	if third.CacheInfo.SimHit {
		t.Error("refresh run should not hit the report cache")
	}
}

func TestRunnerEmitsHooks(t *testing.T) {
	defer observability.Reset()
	rec := &recordingHooks{}
	observability.SetPipelineHooks(rec)
	observability.SetCacheHooks(rec)

	r := testRunner(t)
	defer r.Close()

	if _, err := r.Execute(context.Background(), scenarioOpts()); err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}
	if _, err := r.Execute(context.Background(), scenarioOpts()); err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}

	if rec.simulateRuns != 1 {
		t.Errorf("simulate runs = %d, want 1 (second run should come from cache)", rec.simulateRuns)
	}
	if rec.hits == 0 {
		t.Error("second run should record cache hits")
	}
	if rec.sets == 0 {
		t.Error("first run should record cache writes")
	}
}

func TestRunnerExecuteSnapshotInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wfg.json")
	snap := viz.GraphSnapshot{
		Nodes:           []string{"P1", "P2"},
		Edges:           []viz.Edge{{From: "P1", To: "P2"}, {From: "P2", To: "P1"}},
		DeadlockedNodes: []string{"P1", "P2"},
	}
	if err := viz.WriteSnapshotFile(snap, path); err != nil {
		t.Fatalf("WriteSnapshotFile() error = %v", err)
	}

	r := testRunner(t)
	defer r.Close()

	result, err := r.Execute(context.Background(), Options{
		SnapshotPath: path,
		Logger:       log.NewWithOptions(io.Discard, log.Options{}),
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if result.Scenario != nil {
		t.Error("snapshot input should not produce a scenario")
	}
	if len(result.Artifacts) != 1 || len(result.Artifacts["wfg.svg"]) == 0 {
		t.Errorf("artifacts = %v, want only wfg.svg", artifactNames(result.Artifacts))
	}
	if len(result.Graph.Nodes) != 2 {
		t.Errorf("Graph.Nodes = %v, want 2 nodes", result.Graph.Nodes)
	}
}

func TestRunnerExecuteInvalidOptions(t *testing.T) {
	r := NewRunner(nil, nil, log.NewWithOptions(io.Discard, log.Options{}))

	if _, err := r.Execute(context.Background(), Options{}); err == nil {
		t.Error("Execute() without input should fail")
	}
}

func TestRunnerLoad(t *testing.T) {
	r := NewRunner(nil, nil, log.NewWithOptions(io.Discard, log.Options{}))

	sc, err := r.Load(context.Background(), scenarioOpts())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if sc.Name != "Crossed Locks" {
		t.Errorf("Name = %q, want Crossed Locks", sc.Name)
	}

	if _, err := r.Load(context.Background(), Options{SnapshotPath: "wfg.json"}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Load() with snapshot input error = %v, want code %s", err, errors.ErrCodeInvalidInput)
	}
}

func TestRunnerRenderDirect(t *testing.T) {
	r := testRunner(t)
	defer r.Close()

	graph := viz.GraphSnapshot{
		Nodes: []string{"P1", "P2"},
		Edges: []viz.Edge{{From: "P1", To: "P2"}},
	}
	states := viz.StateDiagram{States: viz.StateList{"Safe", "Deadlock", "Recovering"}, Current: "Safe"}

	artifacts, err := r.Render(context.Background(), graph, states, Options{
		Kinds:   []string{KindWFG, KindStates},
		Formats: []string{FormatTXT, FormatDOT},
		Logger:  log.NewWithOptions(io.Discard, log.Options{}),
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if len(artifacts) != 4 {
		t.Fatalf("got %d artifacts %v, want 4", len(artifacts), artifactNames(artifacts))
	}
	if !strings.Contains(string(artifacts["wfg.txt"]), "P1") {
		t.Error("wfg.txt missing node label")
	}
	if !strings.Contains(string(artifacts["states.dot"]), `"Safe"`) {
		t.Error("states.dot missing state node")
	}
}

func TestScenarioHash(t *testing.T) {
	r := NewRunner(nil, nil, log.NewWithOptions(io.Discard, log.Options{}))

	sc, err := r.Load(context.Background(), scenarioOpts())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	h1 := ScenarioHash(sc)
	h2 := ScenarioHash(sc)
	if h1 == "" || h1 != h2 {
		t.Errorf("ScenarioHash not deterministic: %q vs %q", h1, h2)
	}

	changed := *sc
	changed.Name = "Renamed"
	if ScenarioHash(&changed) == h1 {
		t.Error("hash should change with scenario content")
	}
}

func TestRunnerClose(t *testing.T) {
	if err := NewRunner(nil, nil, nil).Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func artifactNames(artifacts map[string][]byte) []string {
	names := make([]string, 0, len(artifacts))
	for name := range artifacts {
		names = append(names, name)
	}
	return names
}

// recordingHooks counts pipeline and cache events.
type recordingHooks struct {
	observability.NoopPipelineHooks
	observability.NoopCacheHooks
	simulateRuns int
	hits         int
	sets         int
}

func (h *recordingHooks) OnSimulateComplete(context.Context, string, int, time.Duration, error) {
	h.simulateRuns++
}
func (h *recordingHooks) OnCacheHit(context.Context, string)      { h.hits++ }
func (h *recordingHooks) OnCacheSet(context.Context, string, int) { h.sets++ }
