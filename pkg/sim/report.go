package sim

import "github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/viz"

// Snapshot is the current-state view of a simulation: entity details
// plus the derived wait-for graph and the system automaton in render
// form. It is served by the state endpoint and feeds the renderers.
type Snapshot struct {
	Iteration   int                     `json:"iteration" bson:"iteration"`
	SystemState string                  `json:"system_state" bson:"system_state"`
	Processes   map[string]ProcessInfo  `json:"processes" bson:"processes"`
	Resources   map[string]ResourceInfo `json:"resources" bson:"resources"`
	Running     bool                    `json:"running" bson:"running"`
	WFG         viz.GraphSnapshot       `json:"wait_for_graph" bson:"wait_for_graph"`
	States      viz.StateDiagram        `json:"states" bson:"states"`
}

// Summary heads the final report.
type Summary struct {
	TotalIterations  int    `json:"total_iterations" bson:"total_iterations"`
	TotalProcesses   int    `json:"total_processes" bson:"total_processes"`
	TotalResources   int    `json:"total_resources" bson:"total_resources"`
	SystemFinalState string `json:"system_final_state" bson:"system_final_state"`
}

// Report is the final result of a simulation run: a summary, the
// accumulated metrics, the end state of every entity, and the full
// journal.
type Report struct {
	Summary   Summary                 `json:"summary" bson:"summary"`
	Metrics   MetricsInfo             `json:"metrics" bson:"metrics"`
	Processes map[string]ProcessInfo  `json:"processes" bson:"processes"`
	Resources map[string]ResourceInfo `json:"resources" bson:"resources"`
	Log       []LogEntry              `json:"log" bson:"log"`
}
