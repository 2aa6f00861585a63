package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/cache"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/detect"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/errors"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/httputil"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/pipeline"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/recovery"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/sim"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/store"
)

// defaultRunName labels archived runs of simulations assembled over the
// API rather than loaded from a scenario file.
const defaultRunName = "custom"

// ============================================================================
// Payloads
// ============================================================================

type healthResponse struct {
	Status            string `json:"status"`
	ActiveSimulations int    `json:"active_simulations"`
}

type createResponse struct {
	SimulationID string     `json:"simulation_id"`
	Status       string     `json:"status"`
	Config       sim.Config `json:"config"`
}

type processRequest struct {
	PID           string `json:"pid"`
	Priority      int    `json:"priority"`
	ExecutionTime int64  `json:"execution_time"`
}

type processResponse struct {
	Status  string          `json:"status"`
	Process sim.ProcessInfo `json:"process"`
}

type resourceRequest struct {
	RID       string `json:"rid"`
	Instances int    `json:"instances"`
	Type      string `json:"resource_type"`
}

type resourceResponse struct {
	Status   string           `json:"status"`
	Resource sim.ResourceInfo `json:"resource"`
}

type allocationRequest struct {
	Process  string `json:"process"`
	Resource string `json:"resource"`
}

type allocationResponse struct {
	Status           string `json:"status"`
	AllocationResult string `json:"allocation_result,omitempty"`
	ProcessState     string `json:"process_state"`
	SystemState      string `json:"system_state"`
}

type runRequest struct {
	Steps int    `json:"steps"`
	Name  string `json:"name"`
}

type runResponse struct {
	Status string     `json:"status"`
	RunID  string     `json:"run_id,omitempty"`
	Report sim.Report `json:"report"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// runSummary is the list form of an archived run; the full record is
// available under /api/runs/{id}.
type runSummary struct {
	ID              string    `json:"id"`
	ScenarioName    string    `json:"scenario_name"`
	TotalIterations int       `json:"total_iterations"`
	FinalState      string    `json:"final_state"`
	DeadlocksFound  int       `json:"deadlocks_found"`
	CreatedAt       time.Time `json:"created_at"`
}

type listRunsResponse struct {
	Runs  []runSummary `json:"runs"`
	Count int          `json:"count"`
}

// ============================================================================
// Handlers
// ============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, healthResponse{
		Status:            "healthy",
		ActiveSimulations: s.reg.count(),
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var cfg sim.Config
	if err := decodeOptional(w, r, &cfg); err != nil {
		httputil.Error(w, err)
		return
	}

	ctrl, err := buildController(cfg, s.logger)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	now := time.Now()
	e := &simEntry{
		id:        uuid.NewString(),
		ctrl:      ctrl,
		createdAt: now,
		lastUsed:  now,
	}
	s.reg.add(e)

	s.logger.Info("created simulation", "id", e.id)
	httputil.JSON(w, http.StatusCreated, createResponse{
		SimulationID: e.id,
		Status:       "created",
		Config:       ctrl.Config(),
	})
}

func (s *Server) handleAddProcess(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}

	var req processRequest
	if err := httputil.Decode(w, r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	e.mu.Lock()
	p, err := e.ctrl.AddProcess(req.PID, req.Priority,
		time.Duration(req.ExecutionTime)*time.Millisecond)
	if err != nil {
		e.mu.Unlock()
		httputil.Error(w, err)
		return
	}
	info := p.Info()
	e.mu.Unlock()

	httputil.JSON(w, http.StatusCreated, processResponse{
		Status:  "success",
		Process: info,
	})
}

func (s *Server) handleAddResource(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}

	var req resourceRequest
	if err := httputil.Decode(w, r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	e.mu.Lock()
	res, err := e.ctrl.AddResource(req.RID, req.Instances, req.Type)
	if err != nil {
		e.mu.Unlock()
		httputil.Error(w, err)
		return
	}
	info := res.Info()
	e.mu.Unlock()

	httputil.JSON(w, http.StatusCreated, resourceResponse{
		Status:   "success",
		Resource: info,
	})
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}

	var req allocationRequest
	if err := httputil.Decode(w, r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	e.mu.Lock()
	granted, err := e.ctrl.Request(req.Process, req.Resource)
	if err != nil {
		e.mu.Unlock()
		httputil.Error(w, err)
		return
	}
	resp := allocationResponse{
		Status:      "success",
		SystemState: string(e.ctrl.SystemState()),
	}
	if p, ok := e.ctrl.Process(req.Process); ok {
		resp.ProcessState = string(p.State())
	}
	e.mu.Unlock()

	if granted {
		resp.AllocationResult = "allocated"
	} else {
		resp.AllocationResult = "blocked"
	}
	httputil.JSON(w, http.StatusOK, resp)
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}

	var req allocationRequest
	if err := httputil.Decode(w, r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	e.mu.Lock()
	err := e.ctrl.Release(req.Process, req.Resource)
	if err != nil {
		e.mu.Unlock()
		httputil.Error(w, err)
		return
	}
	resp := allocationResponse{
		Status:      "success",
		SystemState: string(e.ctrl.SystemState()),
	}
	if p, ok := e.ctrl.Process(req.Process); ok {
		resp.ProcessState = string(p.State())
	}
	e.mu.Unlock()

	httputil.JSON(w, http.StatusOK, resp)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}

	var req runRequest
	if err := decodeOptional(w, r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if req.Name == "" {
		req.Name = defaultRunName
	}

	e.mu.Lock()
	report, err := e.ctrl.Run(r.Context(), req.Steps)
	if err != nil {
		e.mu.Unlock()
		httputil.Error(w, err)
		return
	}
	rec := store.NewRunRecord(req.Name, e.ctrl.Config(), report, e.ctrl.Snapshot())
	e.mu.Unlock()

	if err := s.store.SaveRun(r.Context(), rec); err != nil {
		s.logger.Warn("archive run", "id", rec.ID, "err", err)
		rec.ID = ""
	}

	httputil.JSON(w, http.StatusOK, runResponse{
		Status: "complete",
		RunID:  rec.ID,
		Report: report,
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}

	e.mu.Lock()
	snap := e.ctrl.Snapshot()
	e.mu.Unlock()

	httputil.JSON(w, http.StatusOK, snap)
}

func (s *Server) handleWFG(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}

	e.mu.Lock()
	snap := e.ctrl.WaitForGraph().Snapshot()
	e.mu.Unlock()

	httputil.JSON(w, http.StatusOK, snap)
}

func (s *Server) handleRenderWFG(w http.ResponseWriter, r *http.Request) {
	s.renderDiagram(w, r, pipeline.KindWFG)
}

func (s *Server) handleRenderStates(w http.ResponseWriter, r *http.Request) {
	s.renderDiagram(w, r, pipeline.KindStates)
}

// renderDiagram renders the simulation's current diagram of the given
// kind as SVG. Rendered bytes are cached per simulation, keyed by the
// diagram content, so repeated polls of an unchanged graph hit the
// cache.
func (s *Server) renderDiagram(w http.ResponseWriter, r *http.Request, kind string) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}

	opts, err := renderOptions(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	opts.Kinds = []string{kind}

	e.mu.Lock()
	graph := e.ctrl.WaitForGraph().Snapshot()
	states := e.ctrl.StateDiagram()
	e.mu.Unlock()

	runner := pipeline.NewRunner(s.cache, cache.NewScopedKeyer(s.keyer, "sim:"+e.id+":"), s.logger)
	artifacts, err := runner.Render(r.Context(), graph, states, opts)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[pipeline.ArtifactName(kind, pipeline.FormatSVG)])
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}

	e.mu.Lock()
	e.ctrl.Reset()
	e.mu.Unlock()

	s.logger.Info("reset simulation", "id", e.id)
	httputil.JSON(w, http.StatusOK, statusResponse{Status: "reset"})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.reg.remove(id); err != nil {
		httputil.Error(w, err)
		return
	}

	s.logger.Info("deleted simulation", "id", id)
	httputil.JSON(w, http.StatusOK, statusResponse{Status: "deleted"})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	summaries := make([]runSummary, 0, len(runs))
	for _, rec := range runs {
		summaries = append(summaries, runSummary{
			ID:              rec.ID,
			ScenarioName:    rec.ScenarioName,
			TotalIterations: rec.Report.Summary.TotalIterations,
			FinalState:      rec.Report.Summary.SystemFinalState,
			DeadlocksFound:  rec.Report.Metrics.DeadlocksFound,
			CreatedAt:       rec.CreatedAt,
		})
	}

	httputil.JSON(w, http.StatusOK, listRunsResponse{
		Runs:  summaries,
		Count: len(summaries),
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, rec)
}

// ============================================================================
// Helpers
// ============================================================================

// entry resolves the {id} route parameter to a live simulation, writing
// the 404 envelope itself when there is none.
func (s *Server) entry(w http.ResponseWriter, r *http.Request) (*simEntry, bool) {
	e, err := s.reg.get(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return nil, false
	}
	return e, true
}

// decodeOptional decodes the body into v, treating an absent body as an
// empty payload.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) error {
	if r.ContentLength == 0 {
		return nil
	}
	return httputil.Decode(w, r, v)
}

// buildController assembles a controller with its detection and
// recovery modules from a validated config.
func buildController(cfg sim.Config, logger *log.Logger) (*sim.Controller, error) {
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	rec, err := recovery.New(cfg.RecoveryStrategy, recovery.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	det := detect.New(detect.WithLogger(logger))
	return sim.NewController(cfg, det, rec, sim.WithLogger(logger))
}

// renderOptions builds render options from the width, height, and theme
// query parameters.
func renderOptions(r *http.Request) (pipeline.Options, error) {
	opts := pipeline.Options{
		Formats: []string{pipeline.FormatSVG},
		Theme:   r.URL.Query().Get("theme"),
	}

	var err error
	if opts.Width, err = intParam(r, "width"); err != nil {
		return opts, err
	}
	if opts.Height, err = intParam(r, "height"); err != nil {
		return opts, err
	}
	return opts, nil
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid %s %q", name, raw)
	}
	return n, nil
}
