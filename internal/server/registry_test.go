package server

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/errors"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/sim"
)

func newTestEntry(t *testing.T, id string) *simEntry {
	t.Helper()

	ctrl, err := buildController(sim.Config{}, log.NewWithOptions(io.Discard, log.Options{}))
	if err != nil {
		t.Fatalf("buildController: %v", err)
	}
	now := time.Now()
	return &simEntry{id: id, ctrl: ctrl, createdAt: now, lastUsed: now}
}

func TestRegistryAddGet(t *testing.T) {
	r := newRegistry(time.Hour)
	r.add(newTestEntry(t, "sim-1"))

	e, err := r.get("sim-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e.id != "sim-1" {
		t.Errorf("id = %q, want %q", e.id, "sim-1")
	}
	if got := r.count(); got != 1 {
		t.Errorf("count = %d, want 1", got)
	}
}

func TestRegistryGetMissing(t *testing.T) {
	r := newRegistry(time.Hour)

	_, err := r.get("ghost")
	if err == nil {
		t.Fatal("expected error for unknown id")
	}
	if !errors.Is(err, errors.ErrCodeSimulationNotFound) {
		t.Errorf("error code = %q, want %q", errors.GetCode(err), errors.ErrCodeSimulationNotFound)
	}
}

func TestRegistryRemove(t *testing.T) {
	r := newRegistry(time.Hour)
	r.add(newTestEntry(t, "sim-1"))

	if err := r.remove("sim-1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := r.count(); got != 0 {
		t.Errorf("count = %d, want 0", got)
	}
	if err := r.remove("sim-1"); !errors.Is(err, errors.ErrCodeSimulationNotFound) {
		t.Errorf("second remove error = %v, want SIMULATION_NOT_FOUND", err)
	}
}

func TestRegistrySweep(t *testing.T) {
	r := newRegistry(time.Minute)

	fresh := newTestEntry(t, "fresh")
	stale := newTestEntry(t, "stale")
	stale.lastUsed = time.Now().Add(-time.Hour)
	r.add(fresh)
	r.add(stale)

	if removed := r.sweep(time.Now()); removed != 1 {
		t.Errorf("sweep removed %d, want 1", removed)
	}
	if _, err := r.get("stale"); err == nil {
		t.Error("stale entry survived the sweep")
	}
	if _, err := r.get("fresh"); err != nil {
		t.Errorf("fresh entry was swept: %v", err)
	}
}

func TestRegistrySweepDisabled(t *testing.T) {
	r := newRegistry(-1)

	old := newTestEntry(t, "old")
	old.lastUsed = time.Now().Add(-24 * time.Hour)
	r.add(old)

	if removed := r.sweep(time.Now()); removed != 0 {
		t.Errorf("sweep removed %d, want 0 with expiry disabled", removed)
	}
}

func TestRegistryGetRefreshesIdleClock(t *testing.T) {
	r := newRegistry(time.Minute)

	e := newTestEntry(t, "sim-1")
	e.lastUsed = time.Now().Add(-time.Hour)
	r.add(e)

	if _, err := r.get("sim-1"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if removed := r.sweep(time.Now()); removed != 0 {
		t.Errorf("sweep removed %d, want 0 after get refreshed the entry", removed)
	}
}
