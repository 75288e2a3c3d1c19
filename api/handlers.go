/*
handlers.go - HTTP API handlers for the accruals service

PURPOSE:
  Exposes report generation over REST. Handles the multipart workbook
  upload, runs the pipeline, records run history, and streams the finished
  workbook back.

ENDPOINTS:
  Reports:
    POST   /api/reports/build   Upload the four source workbooks, get the
                                generated report workbook back

  Runs:
    GET    /api/runs            Run history, newest first
    GET    /api/runs/{id}       One run

  Health:
    GET    /api/health          Liveness check

UPLOAD CONTRACT:
  multipart/form-data with one file per source report:
    activity_lifecycle   Activity Lifecycle workbook
    payment_tracker      GBD Payment Tracker workbook
    country_codes        Country Codes workbook
    activities_table     Activities Table workbook

REQUEST FLOW:
  1. Parse and stage the uploads in a per-run temp directory
  2. Record the run as started
  3. Run the pipeline (ingest -> engine -> export)
  4. Mark the run completed or failed
  5. Stream the workbook, or the error as JSON

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Missing uploads, invalid multipart body
  - 404: Unknown run id
  - 422: Source data rejected by the engine (bad cell types, join keys,
         unknown activities, reversed date ranges)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - pipeline: The build itself
*/
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warp/mdf-accruals/accruals"
	"github.com/warp/mdf-accruals/config"
	"github.com/warp/mdf-accruals/ingest"
	"github.com/warp/mdf-accruals/pipeline"
	"github.com/warp/mdf-accruals/store/sqlite"
	"github.com/warp/mdf-accruals/table"
)

// uploadFields maps multipart field names to source report names.
var uploadFields = map[string]string{
	"activity_lifecycle": ingest.ReportActivityLifecycle,
	"payment_tracker":    ingest.ReportPaymentTracker,
	"country_codes":      ingest.ReportCountryCodes,
	"activities_table":   ingest.ReportActivitiesTable,
}

// maxUploadBytes bounds the in-memory part of the multipart parse; larger
// uploads spill to disk.
const maxUploadBytes = 64 << 20

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Config config.Config
	Log    zerolog.Logger
}

// NewHandler creates a new handler with the given store and configuration.
func NewHandler(store *sqlite.Store, cfg config.Config, log zerolog.Logger) *Handler {
	return &Handler{Store: store, Config: cfg, Log: log}
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// BuildReport runs a report generation from the uploaded workbooks.
// POST /api/reports/build
func (h *Handler) BuildReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart body", err)
		return
	}

	workDir, err := os.MkdirTemp("", "accruals-run-")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to stage uploads", err)
		return
	}
	defer os.RemoveAll(workDir)

	inputs, err := stageUploads(r, workDir)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing or unreadable upload", err)
		return
	}

	runID := uuid.New().String()
	if err := h.Store.RecordStart(ctx, runID, time.Now()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record run", err)
		return
	}
	log := h.Log.With().Str("run_id", runID).Logger()

	cfg := h.Config
	cfg.Report.OutputDir = workDir

	result, err := pipeline.Run(cfg, log, inputs)
	if err != nil {
		log.Error().Err(err).Msg("report generation failed")
		if storeErr := h.Store.Fail(ctx, runID, err); storeErr != nil {
			log.Error().Err(storeErr).Msg("failed to record run failure")
		}
		writeError(w, buildErrorStatus(err), "Report generation failed", err)
		return
	}

	if err := h.Store.Complete(ctx, runID, result.InputRows, result.OutputRows, filepath.Base(result.OutputPath)); err != nil {
		log.Error().Err(err).Msg("failed to record run completion")
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(result.OutputPath)))
	w.Header().Set("X-Run-ID", runID)
	http.ServeFile(w, r, result.OutputPath)
}

// stageUploads writes each expected upload into dir and returns the pipeline
// inputs keyed by report name.
func stageUploads(r *http.Request, dir string) (pipeline.Inputs, error) {
	inputs := make(pipeline.Inputs, len(uploadFields))
	for field, report := range uploadFields {
		src, _, err := r.FormFile(field)
		if err != nil {
			return nil, fmt.Errorf("upload %q: %w", field, err)
		}
		path := filepath.Join(dir, field+".xlsx")
		dst, err := os.Create(path)
		if err != nil {
			src.Close()
			return nil, err
		}
		_, err = io.Copy(dst, src)
		src.Close()
		if closeErr := dst.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return nil, fmt.Errorf("stage %q: %w", field, err)
		}
		inputs[report] = path
	}
	return inputs, nil
}

// buildErrorStatus distinguishes bad source data from internal failures.
func buildErrorStatus(err error) int {
	switch {
	case errors.Is(err, table.ErrTypeMismatch),
		errors.Is(err, table.ErrColumnSubset),
		errors.Is(err, table.ErrJoinKey),
		errors.Is(err, accruals.ErrActivityNotFound),
		errors.Is(err, accruals.ErrDateOrder):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// =============================================================================
// RUN HANDLERS
// =============================================================================

// ListRuns returns the run history, newest first.
// GET /api/runs?limit=50
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = parsed
	}

	runs, err := h.Store.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTOs(runs))
}

// GetRun returns a single run.
// GET /api/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := h.Store.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Run not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(*run))
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports liveness.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthDTO{Status: "ok", AccrualYear: h.Config.AccrualYear})
}
