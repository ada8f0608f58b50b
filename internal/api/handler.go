package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/san-kum/hydrosim/internal/kinetics"
	"github.com/san-kum/hydrosim/internal/storage"
)

const maxBodyBytes = 1 << 20

// Simulator runs one set of conditions.
type Simulator interface {
	Simulate(ctx context.Context, c kinetics.Conditions) (*kinetics.Result, error)
}

// Config holds the request defaults of a handler.
type Config struct {
	// Defaults fill fields missing from a simulate request.
	Defaults kinetics.Conditions
	// Integrator is recorded with saved runs.
	Integrator string
	// MaxTimeFinal caps the horizon of a request in minutes; 0 disables it.
	MaxTimeFinal float64
	// Timeout bounds one simulation; 0 leaves only the request context.
	Timeout time.Duration
}

// Handler provides the HTTP API endpoints.
type Handler struct {
	sim     Simulator
	repo    storage.Repository
	cfg     Config
	metrics *Metrics
	logger  *slog.Logger
}

// NewHandler creates a handler. repo may be nil, in which case the run
// endpoints are not registered.
func NewHandler(sim Simulator, repo storage.Repository, cfg Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		sim:     sim,
		repo:    repo,
		cfg:     cfg,
		metrics: NewMetrics(),
		logger:  logger,
	}
}

// RegisterRoutes sets up all API routes.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
	r.HandleFunc("/rates", h.handleRates).Methods("GET")
	r.HandleFunc("/simulate", h.handleSimulate).Methods("POST")
	r.Handle("/metrics", h.metrics.Handler()).Methods("GET")

	if h.repo != nil {
		r.HandleFunc("/runs", h.handleListRuns).Methods("GET")
		r.HandleFunc("/runs/{id}", h.handleGetRun).Methods("GET")
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response", "err", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRates returns both rate tables keyed by temperature.
func (h *Handler) handleRates(w http.ResponseWriter, r *http.Request) {
	tables := make(map[string]map[string]kinetics.RateConstants, len(kinetics.Polymers))
	for _, p := range kinetics.Polymers {
		byTemp := make(map[string]kinetics.RateConstants)
		for temp, k := range kinetics.Table(p) {
			byTemp[strconv.FormatFloat(temp, 'g', -1, 64)] = k
		}
		tables[p.String()] = byTemp
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"temperatures": kinetics.CalibrationTemperatures(),
		"tables":       tables,
	})
}

func (h *Handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.metrics.observe(outcomeBadRequest, 0)
		respondError(w, http.StatusBadRequest, fmt.Sprintf("malformed request: %v", err))
		return
	}
	c := req.apply(h.cfg.Defaults)
	if h.cfg.MaxTimeFinal > 0 && c.TimeFinal > h.cfg.MaxTimeFinal {
		h.metrics.observe(outcomeBadRequest, 0)
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("time_final %g exceeds the limit of %g min", c.TimeFinal, h.cfg.MaxTimeFinal))
		return
	}

	ctx := r.Context()
	if h.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := h.sim.Simulate(ctx, c)
	elapsed := time.Since(start)

	var tempErr *kinetics.InvalidTemperatureError
	switch {
	case errors.As(err, &tempErr):
		h.metrics.observe(outcomeInvalid, elapsed)
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":   tempErr.Error(),
			"allowed": tempErr.Allowed,
		})
		return
	case errors.Is(err, kinetics.ErrInvalidConditions):
		h.metrics.observe(outcomeInvalid, elapsed)
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, context.DeadlineExceeded):
		h.metrics.observe(outcomeTimeout, elapsed)
		respondError(w, http.StatusServiceUnavailable, "simulation timed out")
		return
	case errors.Is(err, context.Canceled):
		h.metrics.observe(outcomeTimeout, elapsed)
		h.logger.Info("simulation canceled by client", "temperature", c.Temperature)
		return
	case err != nil:
		h.metrics.observe(outcomeError, elapsed)
		h.logger.Error("simulation failed", "temperature", c.Temperature, "err", err)
		respondError(w, http.StatusInternalServerError, "simulation failed")
		return
	}
	h.metrics.observe(outcomeOK, elapsed)

	if req.Save && h.repo != nil {
		id, err := h.repo.Save(storage.RunMetadata{Conditions: c, Integrator: h.cfg.Integrator}, result)
		if err != nil {
			h.logger.Error("saving run", "err", err)
			respondError(w, http.StatusInternalServerError, "failed to save run")
			return
		}
		w.Header().Set("Location", "/runs/"+id)
		w.Header().Set("X-Run-ID", id)
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.repo.List()
	if err != nil {
		h.logger.Error("listing runs", "err", err)
		respondError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	respondJSON(w, http.StatusOK, runs)
}

func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	meta, err := h.repo.Load(id)
	if err == nil {
		var data storage.ExportData
		data.Run = *meta
		data.Columns, data.Times, data.Rows, err = h.repo.LoadSeries(id)
		if err == nil {
			respondJSON(w, http.StatusOK, data)
			return
		}
	}

	if errors.Is(err, storage.ErrRunNotFound) {
		respondError(w, http.StatusNotFound, "run not found")
		return
	}
	h.logger.Error("loading run", "id", id, "err", err)
	respondError(w, http.StatusInternalServerError, "failed to load run")
}
