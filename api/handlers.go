/*
handlers.go - HTTP API handlers for the attendance engine

PURPOSE:
  Exposes reconciliation, roster and snapshot history via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to the engine.

ENDPOINTS:
  Report:
    GET    /api/report                 Reconcile now, full report
    GET    /api/report/summary         Reconcile now, counts only
    GET    /api/report/export?format=  Reconcile now, download csv|xlsx|json

  Roster:
    GET    /api/roster                 Members with photo availability
    GET    /api/roster/{id}/photo      Reference photo bytes

  Runs:
    GET    /api/runs?limit=            Snapshot list, newest first
    POST   /api/runs                   Reconcile now and persist
    GET    /api/runs/{id}              Persisted snapshot with rows
    GET    /api/runs/{id}/export       Download persisted snapshot

REQUEST FLOW:
  Every report endpoint runs the engine, which reloads roster and duration
  records from disk. There is no cache: a request always sees current input.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid query parameter
  - 404: Unknown run or photo
  - 500: Malformed duration source, storage failure
  - 503: Configuration error (missing or empty roster, bad settings)

SEE ALSO:
  - dto.go: Response data structures
  - dashboard.go: HTML view
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/export"
	"github.com/warp/attendance-engine/roster"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine         *attendance.Engine
	Roster         *roster.Dir
	Store          attendance.RunStore
	DurationSource string
	Logger         *zap.Logger
}

// NewHandler creates a handler. The engine's roster source should be rosterDir.
func NewHandler(engine *attendance.Engine, rosterDir *roster.Dir, store attendance.RunStore, durationSource string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Engine:         engine,
		Roster:         rosterDir,
		Store:          store,
		DurationSource: durationSource,
		Logger:         logger,
	}
}

// Snapshotter returns the snapshot writer shared with the scheduler.
func (h *Handler) Snapshotter() *attendance.Snapshotter {
	return &attendance.Snapshotter{
		Engine:         h.Engine,
		Store:          h.Store,
		RosterRoot:     h.Roster.Root,
		DurationSource: h.DurationSource,
	}
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetReport reconciles now and returns every row.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.Engine.Run(r.Context())
	if err != nil {
		h.writeRunError(w, "Failed to reconcile attendance", err)
		return
	}
	writeJSON(w, http.StatusOK, export.ToReportJSON(report))
}

// GetSummary reconciles now and returns only the counts.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	report, err := h.Engine.Run(r.Context())
	if err != nil {
		h.writeRunError(w, "Failed to reconcile attendance", err)
		return
	}
	writeJSON(w, http.StatusOK, export.ToSummaryJSON(report.Summary))
}

// ExportReport reconciles now and streams a download.
func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid format", err)
		return
	}

	report, err := h.Engine.Run(r.Context())
	if err != nil {
		h.writeRunError(w, "Failed to reconcile attendance", err)
		return
	}
	h.writeDownload(w, format, report)
}

// =============================================================================
// ROSTER HANDLERS
// =============================================================================

// ListRoster returns roster members and whether each has a photo.
func (h *Handler) ListRoster(w http.ResponseWriter, r *http.Request) {
	members, err := h.Roster.LoadRoster(r.Context())
	if err != nil {
		h.writeRunError(w, "Failed to load roster", err)
		return
	}

	dtos := make([]RosterEntryDTO, len(members))
	for i, m := range members {
		dtos[i] = RosterEntryDTO{Identifier: string(m.Identifier)}
		if _, ok := h.Roster.Photo(m.Identifier); ok {
			dtos[i].HasPhoto = true
			dtos[i].PhotoURL = photoURL(m.Identifier)
		}
	}
	writeJSON(w, http.StatusOK, RosterResponse{Root: h.Roster.Root, Members: dtos})
}

// GetPhoto serves the first reference photo for a member.
func (h *Handler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id := attendance.Identifier(urlParam(r, "id"))

	path, ok := h.Roster.Photo(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Photo not found", nil)
		return
	}
	http.ServeFile(w, r, path)
}

// =============================================================================
// RUN HANDLERS
// =============================================================================

// ListRuns returns persisted snapshots, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", fmt.Errorf("limit must be a non-negative integer, got %q", v))
			return
		}
		limit = n
	}

	runs, err := h.Store.ListRuns(r.Context(), limit)
	if err != nil {
		h.writeRunError(w, "Failed to list runs", err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTOs(runs))
}

// CreateRun reconciles now and persists the result.
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Snapshotter().Snapshot(r.Context())
	if err != nil {
		h.writeRunError(w, "Failed to create snapshot", err)
		return
	}

	h.logger().Info("snapshot saved",
		zap.String("run_id", string(run.ID)),
		zap.Int("total", run.Summary.Total),
	)
	writeJSON(w, http.StatusCreated, toRunDTO(*run, true))
}

// GetRun returns one persisted snapshot with its rows.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Store.GetRun(r.Context(), attendance.RunID(urlParam(r, "id")))
	if err != nil {
		h.writeRunError(w, "Failed to load run", err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(*run, true))
}

// ExportRun downloads a persisted snapshot.
func (h *Handler) ExportRun(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid format", err)
		return
	}

	run, err := h.Store.GetRun(r.Context(), attendance.RunID(urlParam(r, "id")))
	if err != nil {
		h.writeRunError(w, "Failed to load run", err)
		return
	}
	h.writeDownload(w, format, run.Report())
}

// =============================================================================
// HELPERS
// =============================================================================

// writeDownload renders into a buffer first so a failed export still gets a
// JSON error rather than a truncated file.
func (h *Handler) writeDownload(w http.ResponseWriter, format export.Format, report *attendance.Report) {
	var buf bytes.Buffer
	if err := export.Write(&buf, format, report); err != nil {
		h.logger().Error("export failed", zap.String("format", string(format)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to export report", err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, format.Filename()))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// writeRunError maps engine and store errors to HTTP status codes.
func (h *Handler) writeRunError(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status >= 500 {
		h.logger().Error(message, zap.Error(err))
	}
	writeError(w, status, message, err)
}

func statusFor(err error) int {
	switch {
	case attendance.IsNotFound(err):
		return http.StatusNotFound
	case attendance.IsConfiguration(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// urlParam returns a decoded route parameter.
func urlParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}

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
