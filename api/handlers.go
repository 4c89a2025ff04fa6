/*
handlers.go - HTTP API handlers for the food balance service

PURPOSE:
  Exposes the balance-sheet engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Datasets:
    GET    /api/datasets                 List datasets (metadata only)
    POST   /api/datasets                 Create dataset from long-format JSON
    GET    /api/datasets/{id}            Get dataset with full sheet
    DELETE /api/datasets/{id}            Delete dataset and its runs
    GET    /api/datasets/{id}/ratios     SSR/IDR (type, per_item, items params)
    GET    /api/datasets/{id}/audit      Supply=use identity audit

  Runs:
    GET    /api/datasets/{id}/runs       List runs for a dataset
    POST   /api/datasets/{id}/runs       Execute a scenario against a dataset
    GET    /api/runs/{id}                Get run with result sheet

  Scenarios:
    GET    /api/scenarios                List preset scenario definitions

  Curves:
    GET    /api/curves                   Generate an adoption-curve series

  Admin:
    POST   /api/admin/seed               Load the demo dataset
    POST   /api/reset                    Clear all data (dev only)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (duplicate id)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - seed.go: Demo dataset loader
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/arable/foodbalance/cube"
	"github.com/arable/foodbalance/curve"
	"github.com/arable/foodbalance/dataset"
	"github.com/arable/foodbalance/food"
	"github.com/arable/foodbalance/scenario"
)

const timeFormat = time.RFC3339

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store dataset.Store
	Log   *slog.Logger
}

// NewHandler creates a new handler with the given store.
func NewHandler(store dataset.Store, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{Store: store, Log: log}
}

// =============================================================================
// DATASET HANDLERS
// =============================================================================

// ListDatasets returns all datasets (metadata only).
func (h *Handler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := h.Store.ListDatasets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list datasets", err)
		return
	}
	dtos := make([]DatasetDTO, len(datasets))
	for i, d := range datasets {
		dtos[i] = toDatasetDTO(d, false)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateDataset stores a new dataset from long-format input.
func (h *Handler) CreateDataset(w http.ResponseWriter, r *http.Request) {
	var req CreateDatasetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "Dataset id is required", nil)
		return
	}

	in := food.SupplyInput{Elements: req.Elements}
	for _, it := range req.Items {
		in.Items = append(in.Items, cube.Coord(it))
	}
	for _, y := range req.Years {
		in.Years = append(in.Years, cube.Year(y))
	}
	for _, rg := range req.Regions {
		in.Regions = append(in.Regions, cube.Coord(rg))
	}

	sheet, err := food.Supply(in)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sheet data", err)
		return
	}

	d := dataset.Dataset{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   time.Now().UTC(),
		Sheet:       sheet,
	}
	if err := h.Store.SaveDataset(r.Context(), d); err != nil {
		if errors.Is(err, dataset.ErrDuplicateID) {
			writeError(w, http.StatusConflict, "Dataset already exists", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to save dataset", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDatasetDTO(d, true))
}

// GetDataset returns a dataset with its full sheet.
func (h *Handler) GetDataset(w http.ResponseWriter, r *http.Request) {
	d, ok := h.loadDataset(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toDatasetDTO(d, true))
}

// DeleteDataset removes a dataset and its runs.
func (h *Handler) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteDataset(r.Context(), id); err != nil {
		if errors.Is(err, dataset.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Dataset not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete dataset", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// GetRatios computes SSR or IDR for a dataset.
// Query params: type=ssr|idr (default ssr), per_item=true, items=Beef,Lamb
func (h *Handler) GetRatios(w http.ResponseWriter, r *http.Request) {
	d, ok := h.loadDataset(w, r)
	if !ok {
		return
	}

	opt := food.RatioOptions{
		PerItem: r.URL.Query().Get("per_item") == "true",
	}
	if items := r.URL.Query().Get("items"); items != "" {
		for _, it := range strings.Split(items, ",") {
			opt.Items = append(opt.Items, cube.Coord(strings.TrimSpace(it)))
		}
	}

	var (
		t   *cube.Table
		err error
	)
	switch kind := r.URL.Query().Get("type"); kind {
	case "", "ssr":
		t, err = d.Sheet.SSR(opt)
	case "idr":
		t, err = d.Sheet.IDR(opt)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown ratio type %q", kind), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to compute ratio", err)
		return
	}
	writeJSON(w, http.StatusOK, toTableDTO(t))
}

// GetAudit runs the supply=use identity audit on a dataset.
func (h *Handler) GetAudit(w http.ResponseWriter, r *http.Request) {
	d, ok := h.loadDataset(w, r)
	if !ok {
		return
	}
	rep, err := d.Sheet.Audit(food.AuditOptions{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to audit dataset", err)
		return
	}
	writeJSON(w, http.StatusOK, toAuditDTO(rep))
}

func (h *Handler) loadDataset(w http.ResponseWriter, r *http.Request) (dataset.Dataset, bool) {
	id := chi.URLParam(r, "id")
	d, err := h.Store.GetDataset(r.Context(), id)
	if errors.Is(err, dataset.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Dataset not found", err)
		return dataset.Dataset{}, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load dataset", err)
		return dataset.Dataset{}, false
	}
	return d, true
}

// =============================================================================
// RUN HANDLERS
// =============================================================================

// ListRuns returns all runs for a dataset (metadata only).
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	runs, err := h.Store.ListRuns(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}
	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run, false)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateRun executes a scenario against a dataset and stores the result.
// The scenario is either a preset (scenario_id) or an inline YAML
// definition.
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var def *scenario.Definition
	switch {
	case req.ScenarioID != "":
		preset, ok := scenario.Preset(req.ScenarioID)
		if !ok {
			writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
			return
		}
		def = preset
	case req.Definition != "":
		parsed, err := scenario.ParseBytes([]byte(req.Definition))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid scenario definition", err)
			return
		}
		def = parsed
	default:
		writeError(w, http.StatusBadRequest, "scenario_id or definition is required", nil)
		return
	}

	d, ok := h.loadDataset(w, r)
	if !ok {
		return
	}
	result, err := def.Apply(d.Sheet)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Scenario failed", err)
		return
	}
	for _, warn := range result.Warnings {
		h.Log.Warn("scenario warning",
			"dataset", d.ID, "scenario", def.ID,
			"code", string(warn.Code), "message", warn.Message)
	}

	raw, err := def.Marshal()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to serialize definition", err)
		return
	}
	runID := req.RunID
	if runID == "" {
		runID = fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	run := dataset.Run{
		ID:         runID,
		DatasetID:  d.ID,
		ScenarioID: def.ID,
		Definition: string(raw),
		Warnings:   result.Warnings,
		CreatedAt:  time.Now().UTC(),
		Result:     result.Sheet,
	}
	if err := h.Store.SaveRun(r.Context(), run); err != nil {
		if errors.Is(err, dataset.ErrDuplicateID) {
			writeError(w, http.StatusConflict, "Run already exists", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to save run", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRunDTO(run, true))
}

// GetRun returns a run with its result sheet.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := h.Store.GetRun(r.Context(), id)
	if errors.Is(err, dataset.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Run not found", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load run", err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(run, true))
}

// =============================================================================
// SCENARIO AND CURVE HANDLERS
// =============================================================================

// ListScenarios returns the preset scenario definitions.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	presets := scenario.Presets()
	dtos := make([]ScenarioDTO, len(presets))
	for i, p := range presets {
		dtos[i] = toScenarioDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurve generates an adoption-curve series.
// Query params: shape, y0, y1, y2, y3, c_init, c_end
func (h *Handler) GetCurve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	intParam := func(name string) (int, error) {
		return strconv.Atoi(q.Get(name))
	}
	floatParam := func(name string, def float64) (float64, error) {
		if q.Get(name) == "" {
			return def, nil
		}
		return strconv.ParseFloat(q.Get(name), 64)
	}

	y0, err0 := intParam("y0")
	y1, err1 := intParam("y1")
	y2, err2 := intParam("y2")
	y3, err3 := intParam("y3")
	cInit, err4 := floatParam("c_init", 1)
	cEnd, err5 := floatParam("c_end", 1)
	for _, err := range []error{err0, err1, err2, err3, err4, err5} {
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid curve parameters", err)
			return
		}
	}

	t, err := curve.Shape(q.Get("shape")).Series(y0, y1, y2, y3, cInit, cEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to generate curve", err)
		return
	}
	writeJSON(w, http.StatusOK, toTableDTO(t))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ResetDatabase clears all data. Development and demo use only.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
