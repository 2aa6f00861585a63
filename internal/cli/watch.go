package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/detect"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/pipeline"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/recovery"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/sim"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/viz"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/viz/surface"
)

// watchOpts holds the command-line flags for the watch command.
type watchOpts struct {
	steps     int
	detect    string
	interval  float64
	recovery  string
	frameTime time.Duration
}

// watchCommand creates the watch command: a live terminal view of a
// running simulation.
func (c *CLI) watchCommand() *cobra.Command {
	opts := watchOpts{}

	cmd := &cobra.Command{
		Use:   "watch [scenario file]",
		Short: "Watch a simulation run live in the terminal",
		Long: `Watch a scenario run step by step in the terminal.

The view shows each process with its state and holdings, and the
wait-for graph redrawn every iteration. The simulation advances on a
timer; pause it to step manually.

Keys: space pauses and resumes, n advances one step while paused,
q quits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().IntVar(&opts.steps, "steps", 0, "iteration cap (0 uses the scenario's maximum)")
	cmd.Flags().StringVar(&opts.detect, "detect", "", "override detection strategy: immediate, periodic, cpu_threshold")
	cmd.Flags().Float64Var(&opts.interval, "interval", 0, "override detection interval in seconds")
	cmd.Flags().StringVar(&opts.recovery, "recover", "", "override recovery strategy: priority, random, cost, resource_preemption")
	cmd.Flags().DurationVar(&opts.frameTime, "delay", 500*time.Millisecond, "time between iterations")

	return cmd
}

func (c *CLI) runWatch(ctx context.Context, input string, opts *watchOpts) error {
	sc, err := sim.LoadScenario(input)
	if err != nil {
		return err
	}
	if opts.detect != "" {
		sc.DetectionStrategy = opts.detect
	}
	if opts.interval > 0 {
		sc.DetectionInterval = opts.interval
	}
	if opts.recovery != "" {
		sc.RecoveryStrategy = opts.recovery
	}

	cfg := sc.Config()
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return err
	}

	// Log lines would tear the alternate screen; keep the engine quiet
	// and read the journal through an event sink instead.
	silent := log.New(io.Discard)
	feed := &eventFeed{max: eventFeedSize}
	rec, err := recovery.New(cfg.RecoveryStrategy, recovery.WithLogger(silent))
	if err != nil {
		return err
	}
	ctrl, err := sim.NewController(cfg, detect.New(detect.WithLogger(silent)), rec,
		sim.WithLogger(silent), sim.WithEventSink(feed))
	if err != nil {
		return err
	}
	if err := sc.Apply(ctrl); err != nil {
		return err
	}

	steps := opts.steps
	if steps <= 0 {
		steps = cfg.MaxIterations
	}

	p := tea.NewProgram(newWatchModel(sc.Name, ctrl, feed, steps, opts.frameTime),
		tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("watch: %w", err)
	}

	m, ok := final.(watchModel)
	if !ok {
		return nil
	}
	printSuccess("Watched %d iterations of %s", m.snap.Iteration, m.scenario)
	printKeyValue("Final state", stateStyle(m.snap.SystemState).Render(m.snap.SystemState))
	return nil
}

// =============================================================================
// WatchModel - Live simulation view
// =============================================================================

// tickMsg drives one simulation frame.
type tickMsg time.Time

// eventFeedSize is how many journal entries the event pane keeps.
const eventFeedSize = 5

// eventFeed keeps the newest journal entries for the event pane. The
// controller records entries synchronously from the update loop, so no
// locking is needed.
type eventFeed struct {
	entries []sim.LogEntry
	max     int
}

func (f *eventFeed) Record(e sim.LogEntry) {
	f.entries = append(f.entries, e)
	if len(f.entries) > f.max {
		f.entries = f.entries[len(f.entries)-f.max:]
	}
}

// watchModel is the bubbletea model for the live simulation view.
type watchModel struct {
	ctrl      *sim.Controller
	scenario  string
	feed      *eventFeed
	steps     int
	frameTime time.Duration

	pids   []string
	snap   sim.Snapshot
	paused bool
	done   bool
	width  int
	height int
}

func newWatchModel(scenario string, ctrl *sim.Controller, feed *eventFeed, steps int, frameTime time.Duration) watchModel {
	return watchModel{
		ctrl:      ctrl,
		scenario:  scenario,
		feed:      feed,
		steps:     steps,
		frameTime: frameTime,
		pids:      ctrl.ProcessIDs(),
		snap:      ctrl.Snapshot(),
		width:     80,
		height:    24,
	}
}

func (m watchModel) Init() tea.Cmd {
	return m.tick()
}

func (m watchModel) tick() tea.Cmd {
	return tea.Tick(m.frameTime, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "n":
			if m.paused && !m.done {
				m.advance()
			}
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		if !m.paused && !m.done {
			m.advance()
		}
		if m.done {
			return m, nil
		}
		return m, m.tick()
	}
	return m, nil
}

// advance steps the controller once and refreshes the view state.
func (m *watchModel) advance() {
	if !m.ctrl.Step() || m.ctrl.Iteration() >= m.steps {
		m.done = true
	}
	m.snap = m.ctrl.Snapshot()
}

func (m watchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Deadlock Watch: " + m.scenario))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("iteration %d/%d · system %s",
		m.snap.Iteration, m.steps,
		stateStyle(m.snap.SystemState).Render(m.snap.SystemState)))
	switch {
	case m.done:
		b.WriteString(StyleDim.Render("  finished"))
	case m.paused:
		b.WriteString(StyleWarning.Render("  paused"))
	}
	b.WriteString("\n\n")

	b.WriteString(m.processTable())
	b.WriteString("\n\n")
	b.WriteString(StyleDim.Render("Wait-for graph"))
	b.WriteString("\n")
	b.WriteString(m.graphView())
	b.WriteString("\n")
	b.WriteString(m.eventView())
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("space pause/resume  n step  q quit"))

	return b.String()
}

// eventView renders the newest journal entries, oldest first.
func (m watchModel) eventView() string {
	if len(m.feed.entries) == 0 {
		return StyleDim.Render("no events yet")
	}
	var b strings.Builder
	for i, e := range m.feed.entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(StyleDim.Render(fmt.Sprintf("[%3d] ", e.Iteration)))
		b.WriteString(e.Message)
	}
	return b.String()
}

func (m watchModel) processTable() string {
	rows := [][]string{}
	for _, pid := range m.pids {
		info, ok := m.snap.Processes[pid]
		if !ok {
			continue
		}
		rows = append(rows, []string{
			pid,
			info.State,
			strconv.Itoa(info.Priority),
			joinOrDash(info.Held),
			joinOrDash(info.Requested),
			strconv.Itoa(info.VictimCount),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("PID", "State", "Priority", "Holds", "Wants", "Victim").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row >= len(rows) {
				return lipgloss.NewStyle()
			}
			if col == 1 {
				return stateStyle(rows[row][1])
			}
			if rows[row][1] == string(sim.Terminated) {
				return StyleDim
			}
			return lipgloss.NewStyle()
		})

	return t.Render()
}

// graphView draws the wait-for graph as block art sized to the window.
func (m watchModel) graphView() string {
	cols := m.width - 4
	if cols < 20 {
		cols = 20
	}
	if cols > 100 {
		cols = 100
	}
	rows := m.height - len(m.pids) - eventFeedSize - 13
	if rows < 8 {
		rows = 8
	}
	if rows > 24 {
		rows = 24
	}

	s := surface.NewTerm(cols, rows)
	rend := viz.NewRenderer(s,
		append([]viz.RendererOption{viz.WithTheme(termTheme())},
			pipeline.TermGeometry(s.Width(), s.Height())...)...)
	rend.RenderWaitForGraph(m.snap.WFG)
	return s.String()
}

// termTheme adapts the dark theme for inline terminal drawing: no
// background fill, so the terminal's own background shows through.
func termTheme() viz.Theme {
	t := viz.DarkTheme()
	t.Background = ""
	return t
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "—"
	}
	return strings.Join(items, ",")
}
