package handlers

import (
	"errors"
	"net/http"

	"github.com/radezheng/marco/internal/pipeline"
	"github.com/radezheng/marco/pkg/logger"
)

// SnapshotHandler serves the macro snapshot endpoints
// ⭐ SSOT: 宏观快照 API 只在这里
type SnapshotHandler struct {
	snapshots *pipeline.Snapshots
	logger    *logger.Logger
}

// NewSnapshotHandler creates a new snapshot handler
func NewSnapshotHandler(snapshots *pipeline.Snapshots, log *logger.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		snapshots: snapshots,
		logger:    log,
	}
}

// Get returns the full macro snapshot for a date
// GET /api/snapshot?date=YYYY-MM-DD (date omitted → latest)
func (h *SnapshotHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requested, ok := parseDateParam(r, "date")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid 'date' format (expected YYYY-MM-DD)")
		return
	}

	snapshot, err := h.snapshots.Build(ctx, requested)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoObservations) {
			respondError(w, http.StatusNotFound, "No observations available yet, run ingest first")
			return
		}
		h.logger.WithError(err).Error("快照构建失败")
		respondError(w, http.StatusInternalServerError, "Failed to build snapshot")
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}
