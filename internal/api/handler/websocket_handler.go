package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/loadforge/loadforge/internal/config"
	"github.com/loadforge/loadforge/internal/runservice"
	"go.uber.org/zap"
)

// WebSocketHandler streams a run's live snapshot over a WebSocket
// connection, one message per tick, until the run finishes or the
// client disconnects.
type WebSocketHandler struct {
	registry *runservice.Registry
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a handler with origin validation against cfg.
func NewWebSocketHandler(registry *runservice.Registry, logger *zap.Logger, cfg *config.Config) *WebSocketHandler {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			return cfg.IsWebSocketOriginAllowed(origin)
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	return &WebSocketHandler{registry: registry, logger: logger, upgrader: upgrader}
}

// LiveRun streams the run's snapshot once per second via WebSocket.
// GET /ws/runs/:id
func (h *WebSocketHandler) LiveRun(c *gin.Context) {
	runID := c.Param("id")

	run, err := h.registry.Get(runID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Info("websocket connection established", zap.String("run_id", runID))

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	done := make(chan struct{})
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				close(done)
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			h.logger.Info("websocket connection closed by client", zap.String("run_id", runID))
			return
		case <-ticker.C:
			view := run.View()
			if err := conn.WriteJSON(view); err != nil {
				h.logger.Error("failed to send snapshot", zap.Error(err))
				return
			}
			if view.Status != runservice.StatusRunning {
				h.logger.Info("run finished, closing websocket", zap.String("run_id", runID))
				return
			}
		}
	}
}
