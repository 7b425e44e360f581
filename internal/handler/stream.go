package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/syedismail7230/Authai/internal/models"
)

const heartbeatInterval = 15 * time.Second

// Wire names of the stream events, kept from the original client contract.
var eventNames = map[models.EventKind]string{
	models.EventUpdate:   "job_update",
	models.EventComplete: "job_complete",
	models.EventError:    "job_error",
}

// StreamJobEvents serves the job's progress stream over server-sent events.
// The subscription is released when the client disconnects or after the
// terminal event, whichever comes first.
func (h *Handler) StreamJobEvents(c *gin.Context) {
	jobID := c.Param("id")

	sub, err := h.analyzer.Subscribe(jobID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		h.logger.Error("Failed to subscribe", zap.String("job_id", jobID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to subscribe"})
		return
	}
	defer sub.Close()

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(c.Writer, ": ping\n\n")
			flusher.Flush()
		case ev, open := <-sub.C:
			if !open {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				h.logger.Warn("Failed to marshal progress event",
					zap.String("job_id", jobID), zap.Error(err))
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", eventNames[ev.Kind], payload)
			flusher.Flush()
			if ev.Kind.Terminal() {
				return
			}
		}
	}
}
