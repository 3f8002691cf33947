package handlers

import (
	"net/http"

	"github.com/radezheng/marco/internal/scheduler"
	"github.com/radezheng/marco/pkg/logger"
)

// JobsHandler exposes scheduler state over HTTP
// ⭐ SSOT: 调度器 API 只在这里
type JobsHandler struct {
	scheduler *scheduler.Scheduler
	logger    *logger.Logger
}

// NewJobsHandler creates a new scheduler jobs handler
func NewJobsHandler(sched *scheduler.Scheduler, log *logger.Logger) *JobsHandler {
	return &JobsHandler{
		scheduler: sched,
		logger:    log,
	}
}

// List returns stats for every registered job
// GET /api/scheduler/jobs
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		respondError(w, http.StatusNotFound, "Scheduler is not running in this process")
		return
	}

	stats := h.scheduler.Stats()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(stats),
		"jobs":  stats,
	})
}
