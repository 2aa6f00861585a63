package recovery

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/detect"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/errors"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/sim"
)

// crossedController builds the two-process crossed deadlock: P1 holds
// R1 and wants R2, P2 holds R2 and wants R1.
func crossedController(t *testing.T) *sim.Controller {
	t.Helper()
	c, err := sim.NewController(sim.Config{DetectionStrategy: "periodic"}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, pid := range []string{"P1", "P2"} {
		if _, err := c.AddProcess(pid, 0, 0); err != nil {
			t.Fatal(err)
		}
	}
	for _, rid := range []string{"R1", "R2"} {
		if _, err := c.AddResource(rid, 1, ""); err != nil {
			t.Fatal(err)
		}
	}
	for _, req := range [][2]string{{"P1", "R1"}, {"P2", "R2"}, {"P1", "R2"}, {"P2", "R1"}} {
		if _, err := c.Request(req[0], req[1]); err != nil {
			t.Fatal(err)
		}
	}
	return c
}

// ringController builds a three-process ring: each process holds one
// resource and wants the next one's.
func ringController(t *testing.T, priorities [3]int, pause bool) *sim.Controller {
	t.Helper()
	c, err := sim.NewController(sim.Config{DetectionStrategy: "periodic"}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, pid := range []string{"P1", "P2", "P3"} {
		if _, err := c.AddProcess(pid, priorities[i], 0); err != nil {
			t.Fatal(err)
		}
		if pause {
			time.Sleep(2 * time.Millisecond)
		}
	}
	for _, rid := range []string{"R1", "R2", "R3"} {
		if _, err := c.AddResource(rid, 1, ""); err != nil {
			t.Fatal(err)
		}
	}
	holds := [][2]string{{"P1", "R1"}, {"P2", "R2"}, {"P3", "R3"}}
	wants := [][2]string{{"P1", "R2"}, {"P2", "R3"}, {"P3", "R1"}}
	for _, req := range append(holds, wants...) {
		if _, err := c.Request(req[0], req[1]); err != nil {
			t.Fatal(err)
		}
	}
	return c
}

// deadlocked marks every cycle member, mirroring what the controller
// does between detection and recovery.
func deadlocked(t *testing.T, c *sim.Controller) []string {
	t.Helper()
	pids := c.WaitForGraph().Deadlocked()
	for _, pid := range pids {
		p, _ := c.Process(pid)
		if err := p.Transition(sim.EventDetectCycle); err != nil {
			t.Fatalf("detect_cycle on %s: %v", pid, err)
		}
	}
	return pids
}

func TestNew(t *testing.T) {
	m, err := New("")
	if err != nil {
		t.Fatalf("New(\"\") error: %v", err)
	}
	if m.Strategy() != DefaultStrategy {
		t.Errorf("Strategy() = %q, want %q", m.Strategy(), DefaultStrategy)
	}

	if _, err := New("roulette"); !errors.Is(err, errors.ErrCodeInvalidStrategy) {
		t.Errorf("New(roulette) error = %v, want INVALID_STRATEGY", err)
	}
}

func TestStrategies(t *testing.T) {
	want := []string{"cost", "priority", "resources", "time"}
	if got := Strategies(); !slices.Equal(got, want) {
		t.Errorf("Strategies() = %v, want %v", got, want)
	}
	for _, name := range want {
		if !ValidStrategy(name) {
			t.Errorf("ValidStrategy(%q) = false", name)
		}
	}
	if ValidStrategy("roulette") {
		t.Error("ValidStrategy(roulette) = true")
	}
}

func TestRecoverTwoProcessCycle(t *testing.T) {
	c := crossedController(t)
	pids := deadlocked(t, c)

	m, err := New("cost")
	if err != nil {
		t.Fatal(err)
	}
	report, err := m.Recover(c, pids)
	if err != nil {
		t.Fatalf("Recover error: %v", err)
	}

	// Two processes, so the cycle only counts as broken once both die.
	if !slices.Equal(report.Victims, []string{"P1", "P2"}) {
		t.Errorf("Victims = %v, want [P1 P2]", report.Victims)
	}
	if report.TerminatedCount != 2 {
		t.Errorf("TerminatedCount = %d, want 2", report.TerminatedCount)
	}
	if !slices.Equal(report.ResourcesReleased, []string{"R1", "R2"}) {
		t.Errorf("ResourcesReleased = %v, want [R1 R2]", report.ResourcesReleased)
	}
	if len(report.Unblocked) != 0 {
		t.Errorf("Unblocked = %v, want empty", report.Unblocked)
	}
	if !report.Success {
		t.Error("Success = false")
	}
	if report.RecoveryTimeMS < 0 {
		t.Errorf("RecoveryTimeMS = %v, want >= 0", report.RecoveryTimeMS)
	}

	for _, pid := range []string{"P1", "P2"} {
		p, _ := c.Process(pid)
		if !p.Is(sim.Terminated) {
			t.Errorf("%s state = %s, want Terminated", pid, p.State())
		}
		if p.VictimCount() != 1 {
			t.Errorf("%s victim count = %d, want 1", pid, p.VictimCount())
		}
	}
	for _, rid := range []string{"R1", "R2"} {
		r, _ := c.Resource(rid)
		if r.Available() != r.Total() {
			t.Errorf("%s not fully released: %d/%d", rid, r.Available(), r.Total())
		}
	}
	if m.Recoveries() != 1 {
		t.Errorf("Recoveries() = %d, want 1", m.Recoveries())
	}
}

func TestRecoverByPriority(t *testing.T) {
	c := ringController(t, [3]int{3, 5, 7}, false)
	pids := deadlocked(t, c)

	m, err := New("priority")
	if err != nil {
		t.Fatal(err)
	}
	report, err := m.Recover(c, pids)
	if err != nil {
		t.Fatalf("Recover error: %v", err)
	}

	// Least important first: P3 (7), then P2 (5). With one of three
	// processes left deadlocked the cycle counts as broken.
	if !slices.Equal(report.Victims, []string{"P3", "P2"}) {
		t.Errorf("Victims = %v, want [P3 P2]", report.Victims)
	}

	// P1 wanted R2, freed when P2 died, so it resumes running.
	if !slices.Equal(report.Unblocked, []string{"P1"}) {
		t.Errorf("Unblocked = %v, want [P1]", report.Unblocked)
	}
	p1, _ := c.Process("P1")
	if !p1.Is(sim.Running) {
		t.Errorf("P1 state = %s, want Running", p1.State())
	}
	if got := p1.Held(); !slices.Equal(got, []string{"R1", "R2"}) {
		t.Errorf("P1 held = %v, want [R1 R2]", got)
	}
}

func TestRecoverByTime(t *testing.T) {
	c := ringController(t, [3]int{5, 5, 5}, true)
	pids := deadlocked(t, c)

	m, err := New("time")
	if err != nil {
		t.Fatal(err)
	}
	report, err := m.Recover(c, pids)
	if err != nil {
		t.Fatalf("Recover error: %v", err)
	}

	// Youngest first: P3 was created last, then P2.
	if !slices.Equal(report.Victims, []string{"P3", "P2"}) {
		t.Errorf("Victims = %v, want [P3 P2]", report.Victims)
	}
}

func TestRecoverByResources(t *testing.T) {
	c := ringController(t, [3]int{5, 5, 5}, false)
	if _, err := c.AddResource("R4", 1, ""); err != nil {
		t.Fatal(err)
	}

	// Give P2 a second held resource before marking the cycle.
	p2, _ := c.Process("P2")
	r4, _ := c.Resource("R4")
	r4.Allocate("P2")
	p2.AllocateResource("R4")

	pids := deadlocked(t, c)

	m, err := New("resources")
	if err != nil {
		t.Fatal(err)
	}
	report, err := m.Recover(c, pids)
	if err != nil {
		t.Fatalf("Recover error: %v", err)
	}

	// Fewest held first: P1 (1), then P3 (1); P2 holds two and survives.
	if !slices.Equal(report.Victims, []string{"P1", "P3"}) {
		t.Errorf("Victims = %v, want [P1 P3]", report.Victims)
	}
	if !slices.Equal(report.Unblocked, []string{"P2"}) {
		t.Errorf("Unblocked = %v, want [P2]", report.Unblocked)
	}
}

func TestRecoverCostPrefersRepeatVictims(t *testing.T) {
	c := crossedController(t)

	// P2 was victimized before, lowering its termination cost.
	p2, _ := c.Process("P2")
	p2.MarkVictim()

	pids := deadlocked(t, c)

	m, err := New("cost")
	if err != nil {
		t.Fatal(err)
	}
	report, err := m.Recover(c, pids)
	if err != nil {
		t.Fatalf("Recover error: %v", err)
	}
	if !slices.Equal(report.Victims, []string{"P2", "P1"}) {
		t.Errorf("Victims = %v, want [P2 P1]", report.Victims)
	}
}

func TestRecoverSurvivorStaysBlocked(t *testing.T) {
	// P1 and P2 deadlock on R1/R2 while P3 is blocked on R3, which P4
	// keeps holding. P3 and P4 pad the process count so one victim
	// breaks the two-process cycle.
	c, err := sim.NewController(sim.Config{DetectionStrategy: "periodic"}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, pid := range []string{"P1", "P2", "P3", "P4"} {
		if _, err := c.AddProcess(pid, 0, 0); err != nil {
			t.Fatal(err)
		}
	}
	for _, rid := range []string{"R1", "R2", "R3"} {
		if _, err := c.AddResource(rid, 1, ""); err != nil {
			t.Fatal(err)
		}
	}
	for _, req := range [][2]string{
		{"P1", "R1"}, {"P2", "R2"}, {"P4", "R3"},
		{"P1", "R2"}, {"P2", "R1"}, {"P3", "R3"},
	} {
		if _, err := c.Request(req[0], req[1]); err != nil {
			t.Fatal(err)
		}
	}

	pids := deadlocked(t, c)
	if !slices.Equal(pids, []string{"P1", "P2"}) {
		t.Fatalf("deadlocked = %v, want [P1 P2]", pids)
	}

	m, err := New("cost")
	if err != nil {
		t.Fatal(err)
	}
	report, err := m.Recover(c, pids)
	if err != nil {
		t.Fatalf("Recover error: %v", err)
	}

	// One victim of four processes leaves the remainder below half.
	if !slices.Equal(report.Victims, []string{"P1"}) {
		t.Errorf("Victims = %v, want [P1]", report.Victims)
	}

	// P2 wanted R1, freed by P1's death.
	if !slices.Equal(report.Unblocked, []string{"P2"}) {
		t.Errorf("Unblocked = %v, want [P2]", report.Unblocked)
	}
	p2, _ := c.Process("P2")
	if !p2.Is(sim.Running) {
		t.Errorf("P2 state = %s, want Running", p2.State())
	}

	// P3 is untouched by recovery and stays blocked on R3.
	p3, _ := c.Process("P3")
	if !p3.Is(sim.Blocked) {
		t.Errorf("P3 state = %s, want Blocked", p3.State())
	}
}

func TestCycleBroken(t *testing.T) {
	tests := []struct {
		remaining int
		total     int
		want      bool
	}{
		{0, 2, true},
		{1, 2, false},
		{1, 3, true},
		{2, 3, false},
		{1, 4, true},
		{2, 4, false},
	}
	for _, tt := range tests {
		if got := cycleBroken(tt.remaining, tt.total); got != tt.want {
			t.Errorf("cycleBroken(%d, %d) = %v, want %v", tt.remaining, tt.total, got, tt.want)
		}
	}
}

func TestRecoverThroughController(t *testing.T) {
	m, err := New("cost")
	if err != nil {
		t.Fatal(err)
	}
	c, err := sim.NewController(sim.Config{DetectionStrategy: "periodic"}, detect.New(), m)
	if err != nil {
		t.Fatal(err)
	}

	sc := sim.Examples()[0]
	if err := sc.Apply(c); err != nil {
		t.Fatal(err)
	}

	report, err := c.Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if report.Summary.SystemFinalState != "Safe" {
		t.Errorf("SystemFinalState = %q, want Safe", report.Summary.SystemFinalState)
	}
	if report.Metrics.DeadlocksFound != 1 {
		t.Errorf("DeadlocksFound = %d, want 1", report.Metrics.DeadlocksFound)
	}
	if report.Metrics.ProcessesTerminated != 2 {
		t.Errorf("ProcessesTerminated = %d, want 2", report.Metrics.ProcessesTerminated)
	}
	for _, info := range report.Processes {
		if info.State != "Terminated" {
			t.Errorf("%s state = %q, want Terminated", info.PID, info.State)
		}
	}
	if m.Recoveries() != 1 {
		t.Errorf("Recoveries() = %d, want 1", m.Recoveries())
	}
}
