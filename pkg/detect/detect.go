// Package detect implements wait-for-graph deadlock detection.
//
// A [Detector] derives the wait-for graph from a controller's current
// allocation state and reports every process on a cycle. It satisfies
// [sim.Detector], so it plugs straight into a controller, and keeps
// running statistics across a simulation.
package detect

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/sim"
)

// Detector runs cycle detection over a controller's wait-for graph.
//
// Detector is not safe for concurrent use; the controller invokes it
// from its own run loop.
type Detector struct {
	logger *log.Logger

	detections int
	totalTime  time.Duration
}

// Option configures a detector.
type Option func(*Detector)

// WithLogger sets the structured logger. The default discards output.
func WithLogger(logger *log.Logger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a detector.
func New(opts ...Option) *Detector {
	d := &Detector{
		logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect builds the wait-for graph from the controller's state and runs
// cycle detection. Every process on a cycle is reported deadlocked.
func (d *Detector) Detect(c *sim.Controller) sim.DetectionReport {
	start := time.Now()
	snap := c.WaitForGraph().Snapshot()
	latency := time.Since(start)

	d.detections++
	d.totalTime += latency

	deadlocked := snap.DeadlockedNodes
	if deadlocked == nil {
		deadlocked = []string{}
	}

	report := sim.DetectionReport{
		DeadlockDetected: len(deadlocked) > 0,
		Deadlocked:       deadlocked,
		Graph:            snap,
		Timestamp:        time.Now().UTC(),
		LatencyMS:        float64(latency) / float64(time.Millisecond),
	}

	if report.DeadlockDetected {
		d.logger.Warn("deadlock found",
			"processes", report.Deadlocked,
			"nodes", len(snap.Nodes),
			"edges", len(snap.Edges))
	} else {
		d.logger.Debug("no deadlock",
			"nodes", len(snap.Nodes),
			"edges", len(snap.Edges))
	}
	return report
}

// Stats summarizes the detector's work so far. Times are in seconds.
type Stats struct {
	Detections int     `json:"detection_count" bson:"detection_count"`
	TotalTime  float64 `json:"total_detection_time" bson:"total_detection_time"`
	AvgTime    float64 `json:"avg_detection_time" bson:"avg_detection_time"`
}

// Stats returns the accumulated detection statistics.
func (d *Detector) Stats() Stats {
	s := Stats{
		Detections: d.detections,
		TotalTime:  d.totalTime.Seconds(),
	}
	if d.detections > 0 {
		s.AvgTime = (d.totalTime / time.Duration(d.detections)).Seconds()
	}
	return s
}

// Reset clears the accumulated statistics.
func (d *Detector) Reset() {
	d.detections = 0
	d.totalTime = 0
}
