package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/localbrowser/internal/shared/utils"
)

const maxLogEntries = 100

// PanelLogEntry is one log line from the panel frontend
type PanelLogEntry struct {
	PanelID   string         `json:"panel_id"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context"`
	Timestamp string         `json:"timestamp"`
}

// PanelLogRequest is a batch of frontend log lines
type PanelLogRequest struct {
	Entries []PanelLogEntry `json:"entries"`
}

// StreamLogs forwards frontend log lines into the server log
func (h *Handlers) StreamLogs(c *gin.Context) {
	var req PanelLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid log request format"})
		return
	}
	if len(req.Entries) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "no log entries provided"})
		return
	}
	if len(req.Entries) > maxLogEntries {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "error": "too many log entries"})
		return
	}

	logger := h.logger.With(zap.String("source", "frontend"))
	processed := 0
	for _, entry := range req.Entries {
		if err := utils.ValidateString(entry.Message, "message", utils.MaxPathLength); err != nil {
			logger.Debug("Dropped frontend log entry", zap.Error(err))
			continue
		}
		logEntry(logger, entry)
		processed++
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"entries_received":  len(req.Entries),
		"entries_processed": processed,
	})
}

func logEntry(logger *zap.Logger, entry PanelLogEntry) {
	fields := make([]zap.Field, 0, len(entry.Context)+2)
	fields = append(fields,
		zap.String("panel_id", entry.PanelID),
		zap.String("frontend_timestamp", entry.Timestamp),
	)
	for key, value := range entry.Context {
		switch v := value.(type) {
		case string:
			fields = append(fields, zap.String(key, v))
		case float64:
			fields = append(fields, zap.Float64(key, v))
		case bool:
			fields = append(fields, zap.Bool(key, v))
		default:
			fields = append(fields, zap.Any(key, v))
		}
	}

	switch entry.Level {
	case "error":
		logger.Error(entry.Message, fields...)
	case "warn":
		logger.Warn(entry.Message, fields...)
	case "debug":
		logger.Debug(entry.Message, fields...)
	default:
		logger.Info(entry.Message, fields...)
	}
}
