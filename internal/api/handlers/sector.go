package handlers

import (
	"net/http"
	"regexp"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/radezheng/marco/internal/contracts"
	"github.com/radezheng/marco/internal/pipeline"
	"github.com/radezheng/marco/pkg/logger"
)

// boardCodePattern matches Eastmoney industry board codes
var boardCodePattern = regexp.MustCompile(`^BK\d{4}$`)

// SectorDefaults carries the strategy-configured query defaults
type SectorDefaults struct {
	TopN       int
	MatrixDays int
	MatrixTopK int
}

// SectorHandler serves CN sector rotation endpoints
// ⭐ SSOT: 板块 API 只在这里
type SectorHandler struct {
	snapshots *pipeline.Snapshots
	defaults  SectorDefaults
	logger    *logger.Logger
}

// NewSectorHandler creates a new sector handler
func NewSectorHandler(snapshots *pipeline.Snapshots, defaults SectorDefaults, log *logger.Logger) *SectorHandler {
	return &SectorHandler{
		snapshots: snapshots,
		defaults:  defaults,
		logger:    log,
	}
}

// GetOverview returns the rotation overview for a date
// GET /api/sectors/overview?date=YYYY-MM-DD&top=N
func (h *SectorHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requested, ok := parseDateParam(r, "date")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid 'date' format (expected YYYY-MM-DD)")
		return
	}

	topN, ok := parseIntParam(r, "top", h.defaults.TopN)
	if !ok || topN <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid 'top' (expected positive integer)")
		return
	}

	overview, err := h.snapshots.SectorOverview(ctx, requested, topN)
	if err != nil {
		h.logger.WithError(err).Error("板块总览查询失败")
		respondError(w, http.StatusInternalServerError, "Failed to build sector overview")
		return
	}

	respondJSON(w, http.StatusOK, overview)
}

// GetMatrix returns the sector × date strength heatmap
// GET /api/sectors/matrix?date=&days=&top=&direction=in|out|abs
func (h *SectorHandler) GetMatrix(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requested, ok := parseDateParam(r, "date")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid 'date' format (expected YYYY-MM-DD)")
		return
	}

	days, ok := parseIntParam(r, "days", h.defaults.MatrixDays)
	if !ok || days <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid 'days' (expected positive integer)")
		return
	}
	topK, ok := parseIntParam(r, "top", h.defaults.MatrixTopK)
	if !ok || topK <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid 'top' (expected positive integer)")
		return
	}

	direction := contracts.MatrixDirection(r.URL.Query().Get("direction"))
	if direction == "" {
		direction = contracts.DirectionInflow
	}
	if !direction.Valid() {
		respondError(w, http.StatusBadRequest, "Invalid 'direction' (valid: in, out, abs)")
		return
	}

	matrix, err := h.snapshots.SectorMatrix(ctx, requested, days, topK, direction)
	if err != nil {
		h.logger.WithError(err).Error("板块热力图查询失败")
		respondError(w, http.StatusInternalServerError, "Failed to build sector matrix")
		return
	}

	respondJSON(w, http.StatusOK, matrix)
}

// GetBreadth returns the live up-ratio of a board's constituents
// GET /api/sectors/{code}/breadth
func (h *SectorHandler) GetBreadth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := mux.Vars(r)["code"]

	if !boardCodePattern.MatchString(code) {
		respondError(w, http.StatusBadRequest, "Invalid board code (expected BKxxxx)")
		return
	}

	breadth, err := h.snapshots.SectorBreadth(ctx, code)
	if err != nil {
		h.logger.WithError(err).WithField("code", code).Error("板块广度查询失败")
		respondError(w, http.StatusBadGateway, "Failed to fetch constituents")
		return
	}

	respondJSON(w, http.StatusOK, breadth)
}

// parseIntParam reads an optional integer query parameter.
func parseIntParam(r *http.Request, name string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
