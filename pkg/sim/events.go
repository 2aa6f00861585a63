package sim

import "time"

// LogEntry is one record of the simulation journal. The controller
// appends an entry for every observable action: allocations, blocks,
// detection runs, recovery outcomes, and run markers.
type LogEntry struct {
	Iteration   int       `json:"iteration" bson:"iteration"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`
	Message     string    `json:"message" bson:"message"`
	SystemState string    `json:"system_state" bson:"system_state"`
}

// EventSink receives journal entries as the controller records them.
// Sinks are called synchronously on the controller's goroutine and must
// not block.
type EventSink interface {
	Record(LogEntry)
}

// SinkFunc adapts a function to the [EventSink] interface.
type SinkFunc func(LogEntry)

// Record calls f(e).
func (f SinkFunc) Record(e LogEntry) { f(e) }
