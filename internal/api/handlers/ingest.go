package handlers

import (
	"net/http"

	"github.com/radezheng/marco/internal/pipeline"
	"github.com/radezheng/marco/pkg/logger"
)

// Broadcaster pushes events to connected realtime clients
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

// IngestHandler triggers pipeline runs over HTTP
// ⭐ SSOT: 手动 ingest 入口只在这里
type IngestHandler struct {
	runner *pipeline.Runner
	hub    Broadcaster
	logger *logger.Logger
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(runner *pipeline.Runner, hub Broadcaster, log *logger.Logger) *IngestHandler {
	return &IngestHandler{
		runner: runner,
		hub:    hub,
		logger: log,
	}
}

// Run executes one full ingest-and-classify cycle synchronously
// POST /api/ingest/run
// 单序列失败不算整体失败，结果里的 errors 字段按 key 列出。
func (h *IngestHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	h.logger.Info("手动触发 ingest")

	result, err := h.runner.Run(ctx)
	if err != nil {
		h.logger.WithError(err).Error("ingest 运行失败")
		respondJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":  err.Error(),
			"result": result,
		})
		return
	}

	if h.hub != nil {
		h.hub.Broadcast("ingest_completed", result)
	}

	respondJSON(w, http.StatusOK, result)
}
