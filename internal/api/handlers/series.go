package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/radezheng/marco/internal/contracts"
	"github.com/radezheng/marco/internal/pipeline"
	"github.com/radezheng/marco/pkg/logger"
)

// knownSeries is the set of queryable series keys (raw + derived)
var knownSeries = map[string]bool{
	contracts.SeriesWALCL:    true,
	contracts.SeriesTGA:      true,
	contracts.SeriesRRP:      true,
	contracts.SeriesSOFR:     true,
	contracts.SeriesEFFR:     true,
	contracts.SeriesIORB:     true,
	contracts.SeriesDGS10:    true,
	contracts.SeriesVIX:      true,
	contracts.SeriesVXV:      true,
	contracts.SeriesHYOAS:    true,
	contracts.SeriesUSDBroad: true,

	contracts.SeriesLiquidityLevel:  true,
	contracts.SeriesLiquidityDeltaW: true,
	contracts.SeriesFundingSpread:   true,
	contracts.SeriesTreasuryVol20D:  true,
	contracts.SeriesVIXSlope:        true,
}

// defaultSeriesWindowDays bounds an unqualified series query (1 年)
const defaultSeriesWindowDays = 365

// SeriesHandler serves raw and derived observation series
// ⭐ SSOT: 序列查询 API 只在这里
type SeriesHandler struct {
	snapshots *pipeline.Snapshots
	logger    *logger.Logger
}

// NewSeriesHandler creates a new series handler
func NewSeriesHandler(snapshots *pipeline.Snapshots, log *logger.Logger) *SeriesHandler {
	return &SeriesHandler{
		snapshots: snapshots,
		logger:    log,
	}
}

// Get returns one series' points for charting
// GET /api/observations/{key}?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *SeriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := mux.Vars(r)["key"]

	if !knownSeries[key] {
		respondError(w, http.StatusNotFound, "Unknown series key")
		return
	}

	fromPtr, ok := parseDateParam(r, "from")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid 'from' format (expected YYYY-MM-DD)")
		return
	}
	toPtr, ok := parseDateParam(r, "to")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid 'to' format (expected YYYY-MM-DD)")
		return
	}

	to := contracts.DateOf(time.Now())
	if toPtr != nil {
		to = *toPtr
	}
	from := to.AddDate(0, 0, -defaultSeriesWindowDays)
	if fromPtr != nil {
		from = *fromPtr
	}
	if from.After(to) {
		respondError(w, http.StatusBadRequest, "'from' must not be after 'to'")
		return
	}

	points, err := h.snapshots.Series(ctx, key, from, to)
	if err != nil {
		h.logger.WithError(err).WithField("series", key).Error("序列查询失败")
		respondError(w, http.StatusInternalServerError, "Failed to query series")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"series_key": key,
		"from":       from.Format("2006-01-02"),
		"to":         to.Format("2006-01-02"),
		"count":      len(points),
		"points":     points,
	})
}
