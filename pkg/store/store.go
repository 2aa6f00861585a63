// Package store archives completed simulation runs.
//
// A run archive keeps the full outcome of a simulation (scenario name,
// configuration, final report, and the closing snapshot) under a stable
// identifier so past runs can be listed and re-rendered. The package
// defines the Store interface with implementations for different
// backends:
//   - memory: in-memory storage for development and testing
//   - mongo: MongoDB-backed storage for persistent deployments
//
// # Usage
//
// Create a store:
//
//	// Development
//	st := store.NewMemoryStore()
//
//	// Production
//	st, err := store.NewMongoStore(ctx, "mongodb://localhost:27017", "")
//
// Archive and retrieve runs:
//
//	rec := store.NewRunRecord("Simple Two-Process Deadlock", cfg, report, snap)
//	if err := st.SaveRun(ctx, rec); err != nil {
//	    return err
//	}
//
//	rec, err := st.GetRun(ctx, id)
//	if errors.Is(err, errors.ErrCodeRunNotFound) {
//	    // No such run.
//	}
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/sim"
)

// RunRecord is one archived simulation run. The field tags keep the
// JSON wire form and the stored document in sync.
type RunRecord struct {
	ID           string       `json:"id" bson:"_id"`
	ScenarioName string       `json:"scenario_name" bson:"scenario_name"`
	Config       sim.Config   `json:"config" bson:"config"`
	Report       sim.Report   `json:"report" bson:"report"`
	Snapshot     sim.Snapshot `json:"snapshot" bson:"snapshot"`
	CreatedAt    time.Time    `json:"created_at" bson:"created_at"`
}

// NewRunRecord assembles a record for a finished run with a fresh
// identifier and timestamp.
func NewRunRecord(scenarioName string, cfg sim.Config, report sim.Report, snap sim.Snapshot) RunRecord {
	return RunRecord{
		ID:           uuid.NewString(),
		ScenarioName: scenarioName,
		Config:       cfg,
		Report:       report,
		Snapshot:     snap,
		CreatedAt:    time.Now().UTC(),
	}
}

// Store is the interface for run archive backends.
type Store interface {
	// SaveRun stores a record, replacing any previous record with the
	// same ID.
	SaveRun(ctx context.Context, rec RunRecord) error

	// GetRun retrieves a record by ID. Returns an ErrCodeRunNotFound
	// error when no record exists.
	GetRun(ctx context.Context, id string) (RunRecord, error)

	// ListRuns returns all records, newest first.
	ListRuns(ctx context.Context) ([]RunRecord, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}
