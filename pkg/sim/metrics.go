package sim

import "time"

// Metrics aggregates detection and recovery counters for one simulation.
type Metrics struct {
	TotalDetections     int
	DeadlocksFound      int
	TotalDetectionTime  time.Duration
	TotalRecoveryTime   time.Duration
	ProcessesTerminated int
}

// AvgDetectionTime returns the mean detection latency, or 0 when no
// detection has run.
func (m Metrics) AvgDetectionTime() time.Duration {
	if m.TotalDetections == 0 {
		return 0
	}
	return m.TotalDetectionTime / time.Duration(m.TotalDetections)
}

// AvgRecoveryTime returns the mean recovery duration per found deadlock,
// or 0 when none was found.
func (m Metrics) AvgRecoveryTime() time.Duration {
	if m.DeadlocksFound == 0 {
		return 0
	}
	return m.TotalRecoveryTime / time.Duration(m.DeadlocksFound)
}

// Info returns the wire form with durations in seconds.
func (m Metrics) Info() MetricsInfo {
	return MetricsInfo{
		TotalDetections:     m.TotalDetections,
		DeadlocksFound:      m.DeadlocksFound,
		TotalRecoveryTime:   m.TotalRecoveryTime.Seconds(),
		TotalDetectionTime:  m.TotalDetectionTime.Seconds(),
		ProcessesTerminated: m.ProcessesTerminated,
		AvgDetectionTime:    m.AvgDetectionTime().Seconds(),
		AvgRecoveryTime:     m.AvgRecoveryTime().Seconds(),
	}
}

// MetricsInfo is the wire form of the metrics used in reports. Time
// totals and averages are in seconds.
type MetricsInfo struct {
	TotalDetections     int     `json:"total_detections" bson:"total_detections"`
	DeadlocksFound      int     `json:"deadlocks_found" bson:"deadlocks_found"`
	TotalRecoveryTime   float64 `json:"total_recovery_time" bson:"total_recovery_time"`
	TotalDetectionTime  float64 `json:"total_detection_time" bson:"total_detection_time"`
	ProcessesTerminated int     `json:"processes_terminated" bson:"processes_terminated"`
	AvgDetectionTime    float64 `json:"avg_detection_time" bson:"avg_detection_time"`
	AvgRecoveryTime     float64 `json:"avg_recovery_time" bson:"avg_recovery_time"`
}
