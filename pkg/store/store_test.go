package store

import (
	"context"
	"reflect"
	"testing"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/errors"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/sim"
)

func sampleRecord(id, scenario string) RunRecord {
	rec := NewRunRecord(scenario, sim.Config{DetectionStrategy: "periodic"}, sim.Report{
		Summary: sim.Summary{TotalIterations: 3, SystemFinalState: "Safe"},
	}, sim.Snapshot{SystemState: "Safe"})
	if id != "" {
		rec.ID = id
	}
	return rec
}

func TestNewRunRecord(t *testing.T) {
	rec := NewRunRecord("Crossed Locks", sim.Config{RecoveryStrategy: "cost"}, sim.Report{}, sim.Snapshot{})

	if rec.ID == "" {
		t.Fatal("NewRunRecord() ID is empty")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("NewRunRecord() CreatedAt is zero")
	}
	if rec.ScenarioName != "Crossed Locks" {
		t.Errorf("ScenarioName = %q, want %q", rec.ScenarioName, "Crossed Locks")
	}
	if rec.Config.RecoveryStrategy != "cost" {
		t.Errorf("Config.RecoveryStrategy = %q, want %q", rec.Config.RecoveryStrategy, "cost")
	}

	other := NewRunRecord("Crossed Locks", sim.Config{}, sim.Report{}, sim.Snapshot{})
	if other.ID == rec.ID {
		t.Errorf("NewRunRecord() reused ID %q", rec.ID)
	}
}

func TestMemoryStoreSaveGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	rec := sampleRecord("run-1", "Crossed Locks")
	if err := s.SaveRun(ctx, rec); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	got, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if !reflect.DeepEqual(got, rec) {
		t.Errorf("GetRun() = %+v, want %+v", got, rec)
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.GetRun(context.Background(), "nope")
	if !errors.Is(err, errors.ErrCodeRunNotFound) {
		t.Errorf("GetRun() error = %v, want code %s", err, errors.ErrCodeRunNotFound)
	}
}

func TestMemoryStoreSaveEmptyID(t *testing.T) {
	s := NewMemoryStore()

	err := s.SaveRun(context.Background(), RunRecord{})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("SaveRun() error = %v, want code %s", err, errors.ErrCodeInvalidInput)
	}
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, id := range []string{"run-1", "run-2", "run-3"} {
		if err := s.SaveRun(ctx, sampleRecord(id, "Crossed Locks")); err != nil {
			t.Fatalf("SaveRun(%s) error = %v", id, err)
		}
	}

	recs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}

	var ids []string
	for _, rec := range recs {
		ids = append(ids, rec.ID)
	}
	want := []string{"run-3", "run-2", "run-1"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ListRuns() order = %v, want %v", ids, want)
	}
}

func TestMemoryStoreListEmpty(t *testing.T) {
	recs, err := NewMemoryStore().ListRuns(context.Background())
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("ListRuns() returned %d records, want 0", len(recs))
	}
}

func TestMemoryStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.SaveRun(ctx, sampleRecord("run-1", "first")); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if err := s.SaveRun(ctx, sampleRecord("run-1", "second")); err != nil {
		t.Fatalf("SaveRun() overwrite error = %v", err)
	}

	recs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("ListRuns() returned %d records, want 1", len(recs))
	}
	if recs[0].ScenarioName != "second" {
		t.Errorf("ScenarioName = %q, want %q", recs[0].ScenarioName, "second")
	}
}

func TestMemoryStoreClose(t *testing.T) {
	if err := NewMemoryStore().Close(context.Background()); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
