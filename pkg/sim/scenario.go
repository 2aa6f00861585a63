package sim

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/errors"
)

// Scenario describes an initial system: the processes and resources to
// create, allocations to grant up front, and the requests that then
// drive the system toward (or away from) a deadlock.
//
// Scenarios are stored as TOML files; the JSON form is accepted too.
type Scenario struct {
	Name              string             `json:"scenario_name" toml:"scenario_name"`
	DetectionStrategy string             `json:"detection_strategy,omitempty" toml:"detection_strategy,omitempty"`
	DetectionInterval float64            `json:"detection_interval,omitempty" toml:"detection_interval,omitempty"`
	RecoveryStrategy  string             `json:"recovery_strategy,omitempty" toml:"recovery_strategy,omitempty"`
	Processes         []ScenarioProcess  `json:"processes" toml:"processes"`
	Resources         []ScenarioResource `json:"resources" toml:"resources"`

	// InitialAllocations are granted before ResourceRequests are issued,
	// establishing the hold-and-wait pattern.
	InitialAllocations []ScenarioRequest `json:"initial_allocations,omitempty" toml:"initial_allocations,omitempty"`
	ResourceRequests   []ScenarioRequest `json:"resource_requests,omitempty" toml:"resource_requests,omitempty"`
}

// ScenarioProcess declares one process. Zero priority and execution
// time take the process defaults.
type ScenarioProcess struct {
	PID           string `json:"pid" toml:"pid"`
	Priority      int    `json:"priority,omitempty" toml:"priority,omitempty"`
	ExecutionTime int64  `json:"execution_time,omitempty" toml:"execution_time,omitempty"`
}

// ScenarioResource declares one resource pool. Zero instances means 1.
type ScenarioResource struct {
	RID       string `json:"rid" toml:"rid"`
	Instances int    `json:"instances,omitempty" toml:"instances,omitempty"`
	Type      string `json:"type,omitempty" toml:"type,omitempty"`
}

// ScenarioRequest pairs a process with a resource it asks for.
type ScenarioRequest struct {
	Process  string `json:"process" toml:"process"`
	Resource string `json:"resource" toml:"resource"`
}

// LoadScenario reads a scenario file. The format is chosen by
// extension: .toml or .json.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "scenario file %s", path)
	}
	return ParseScenario(data, filepath.Ext(path))
}

// ParseScenario decodes scenario bytes in the format implied by ext.
func ParseScenario(data []byte, ext string) (*Scenario, error) {
	var sc Scenario
	switch strings.ToLower(ext) {
	case ".toml":
		if err := toml.Unmarshal(data, &sc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidScenario, err, "parse TOML scenario")
		}
	case ".json":
		if err := json.Unmarshal(data, &sc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidScenario, err, "parse JSON scenario")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat,
			"unsupported scenario format %q (use .toml or .json)", ext)
	}
	return &sc, nil
}

// Config returns the simulation configuration carried by the scenario.
// Unset fields stay zero for [Config.ValidateAndSetDefaults] to fill.
func (s *Scenario) Config() Config {
	return Config{
		DetectionStrategy: s.DetectionStrategy,
		DetectionInterval: s.DetectionInterval,
		RecoveryStrategy:  s.RecoveryStrategy,
	}
}

// Apply populates the controller with the scenario's entities and plays
// its allocations and requests. Entity declarations must succeed;
// failed requests are logged and skipped so a scenario can describe
// requests that are expected to block or race.
func (s *Scenario) Apply(c *Controller) error {
	for _, sp := range s.Processes {
		execTime := time.Duration(sp.ExecutionTime) * time.Millisecond
		if _, err := c.AddProcess(sp.PID, sp.Priority, execTime); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidScenario, err, "add process %q", sp.PID)
		}
	}
	for _, sr := range s.Resources {
		if _, err := c.AddResource(sr.RID, sr.Instances, sr.Type); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidScenario, err, "add resource %q", sr.RID)
		}
	}

	for _, alloc := range s.InitialAllocations {
		if _, err := c.Request(alloc.Process, alloc.Resource); err != nil {
			c.logger.Warn("initial allocation failed",
				"process", alloc.Process, "resource", alloc.Resource, "err", err)
		}
	}
	for _, req := range s.ResourceRequests {
		if _, err := c.Request(req.Process, req.Resource); err != nil {
			c.logger.Warn("request failed",
				"process", req.Process, "resource", req.Resource, "err", err)
		}
	}
	return nil
}

// Marshal encodes the scenario as TOML.
func (s *Scenario) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode scenario %q", s.Name)
	}
	return buf.Bytes(), nil
}

// Validate checks the scenario for problems Apply would reject or
// silently skip: duplicate or empty entity IDs, requests naming
// undeclared entities, and an invalid configuration.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return errors.New(errors.ErrCodeInvalidScenario, "scenario has no name")
	}
	if len(s.Processes) == 0 {
		return errors.New(errors.ErrCodeInvalidScenario, "scenario %q declares no processes", s.Name)
	}

	pids := make(map[string]bool, len(s.Processes))
	for _, sp := range s.Processes {
		if sp.PID == "" {
			return errors.New(errors.ErrCodeInvalidScenario, "process with empty pid")
		}
		if pids[sp.PID] {
			return errors.New(errors.ErrCodeInvalidScenario, "duplicate process %q", sp.PID)
		}
		pids[sp.PID] = true
	}

	rids := make(map[string]bool, len(s.Resources))
	for _, sr := range s.Resources {
		if sr.RID == "" {
			return errors.New(errors.ErrCodeInvalidScenario, "resource with empty rid")
		}
		if rids[sr.RID] {
			return errors.New(errors.ErrCodeInvalidScenario, "duplicate resource %q", sr.RID)
		}
		rids[sr.RID] = true
	}

	check := func(section string, reqs []ScenarioRequest) error {
		for _, req := range reqs {
			if !pids[req.Process] {
				return errors.New(errors.ErrCodeInvalidScenario,
					"%s names undeclared process %q", section, req.Process)
			}
			if !rids[req.Resource] {
				return errors.New(errors.ErrCodeInvalidScenario,
					"%s names undeclared resource %q", section, req.Resource)
			}
		}
		return nil
	}
	if err := check("initial allocation", s.InitialAllocations); err != nil {
		return err
	}
	if err := check("request", s.ResourceRequests); err != nil {
		return err
	}

	cfg := s.Config()
	return cfg.ValidateAndSetDefaults()
}

// =============================================================================
// Example Scenarios
// =============================================================================

var exampleScenarios = []struct {
	file     string
	scenario Scenario
}{
	{
		file: "simple_deadlock.toml",
		scenario: Scenario{
			Name:              "Simple Two-Process Deadlock",
			DetectionStrategy: string(DetectPeriodic),
			DetectionInterval: 1.0,
			RecoveryStrategy:  "cost",
			Processes: []ScenarioProcess{
				{PID: "P1", Priority: 5, ExecutionTime: 100},
				{PID: "P2", Priority: 5, ExecutionTime: 100},
			},
			Resources: []ScenarioResource{
				{RID: "R1", Instances: 1, Type: "CPU"},
				{RID: "R2", Instances: 1, Type: "Memory"},
			},
			InitialAllocations: []ScenarioRequest{
				{Process: "P1", Resource: "R1"},
				{Process: "P2", Resource: "R2"},
			},
			ResourceRequests: []ScenarioRequest{
				{Process: "P1", Resource: "R2"},
				{Process: "P2", Resource: "R1"},
			},
		},
	},
	{
		file: "complex_deadlock.toml",
		scenario: Scenario{
			Name:              "Three-Process Circular Deadlock",
			DetectionStrategy: string(DetectPeriodic),
			DetectionInterval: 0.5,
			RecoveryStrategy:  "priority",
			Processes: []ScenarioProcess{
				{PID: "P1", Priority: 3, ExecutionTime: 150},
				{PID: "P2", Priority: 5, ExecutionTime: 200},
				{PID: "P3", Priority: 7, ExecutionTime: 100},
			},
			Resources: []ScenarioResource{
				{RID: "R1", Instances: 1, Type: "File"},
				{RID: "R2", Instances: 1, Type: "Printer"},
				{RID: "R3", Instances: 1, Type: "Database"},
			},
			InitialAllocations: []ScenarioRequest{
				{Process: "P1", Resource: "R1"},
				{Process: "P2", Resource: "R2"},
				{Process: "P3", Resource: "R3"},
			},
			ResourceRequests: []ScenarioRequest{
				{Process: "P1", Resource: "R2"},
				{Process: "P2", Resource: "R3"},
				{Process: "P3", Resource: "R1"},
			},
		},
	},
	{
		file: "no_deadlock.toml",
		scenario: Scenario{
			Name:              "Safe System - No Deadlock",
			DetectionStrategy: string(DetectPeriodic),
			DetectionInterval: 1.0,
			RecoveryStrategy:  "cost",
			Processes: []ScenarioProcess{
				{PID: "P1", Priority: 5, ExecutionTime: 100},
				{PID: "P2", Priority: 5, ExecutionTime: 100},
			},
			Resources: []ScenarioResource{
				{RID: "R1", Instances: 2, Type: "CPU"},
				{RID: "R2", Instances: 1, Type: "Memory"},
			},
			InitialAllocations: []ScenarioRequest{
				{Process: "P1", Resource: "R1"},
			},
			ResourceRequests: []ScenarioRequest{
				{Process: "P2", Resource: "R1"},
			},
		},
	},
}

// Examples returns the built-in example scenarios.
func Examples() []Scenario {
	out := make([]Scenario, 0, len(exampleScenarios))
	for _, ex := range exampleScenarios {
		out = append(out, ex.scenario)
	}
	return out
}

// WriteExamples writes the example scenarios to dir as TOML files,
// creating the directory if needed, and returns the written paths.
func WriteExamples(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create scenario dir %s", dir)
	}

	paths := make([]string, 0, len(exampleScenarios))
	for _, ex := range exampleScenarios {
		data, err := ex.scenario.Marshal()
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, ex.file)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "write scenario %s", path)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
