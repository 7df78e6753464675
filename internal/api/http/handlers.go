package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/localbrowser/internal/domain/location"
	"github.com/GriffinCanCode/localbrowser/internal/domain/panel"
	"github.com/GriffinCanCode/localbrowser/internal/domain/state"
	"github.com/GriffinCanCode/localbrowser/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/localbrowser/internal/shared/types"
)

// Version is reported by the root endpoint
const Version = "0.1.0"

// Discoverer lists the local servers a panel may target
type Discoverer interface {
	Discover(ctx context.Context) ([]types.PortEntry, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	codec      location.Codec
	discoverer Discoverer
	store      *state.Manager
	tracker    *panel.Tracker
	metrics    *HandlerMetrics
	logger     *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(
	codec location.Codec,
	discoverer Discoverer,
	store *state.Manager,
	tracker *panel.Tracker,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		codec:      codec,
		discoverer: discoverer,
		store:      store,
		tracker:    tracker,
		metrics:    NewHandlerMetrics(metrics),
		logger:     logger,
	}
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "jupyterlab-local-browser",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		h.logger.Warn("State store unhealthy", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "degraded",
			"state":  gin.H{"error": err.Error()},
			"panels": h.tracker.Len(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"state":   stats,
		"panels":  h.tracker.Len(),
		"metrics": h.metrics.Snapshot(),
	})
}

// OpenPorts returns the discoverable local servers as [port, label] pairs
func (h *Handlers) OpenPorts(c *gin.Context) {
	done := h.metrics.TrackDiscovery()

	entries, err := h.discoverer.Discover(c.Request.Context())
	if err != nil {
		h.logger.Error("Port discovery failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "port discovery failed"})
		return
	}
	done(len(entries))

	if entries == nil {
		entries = []types.PortEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// PanelInfo describes one open panel
type PanelInfo struct {
	ID    string `json:"id"`
	State string `json:"state"`
	Port  string `json:"port"`
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// ListPanels lists the open panels
func (h *Handlers) ListPanels(c *gin.Context) {
	ids := h.tracker.IDs()
	panels := make([]PanelInfo, 0, len(ids))
	for _, panelID := range ids {
		p, ok := h.tracker.Get(panelID)
		if !ok {
			continue
		}
		panels = append(panels, PanelInfo{
			ID:    p.ID(),
			State: p.State().String(),
			Port:  p.Selection().Port,
			URL:   p.URL(),
			Title: p.Title(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"panels": panels,
		"count":  len(panels),
	})
}

// ClosePanel closes an open panel. Its stored location is kept.
func (h *Handlers) ClosePanel(c *gin.Context) {
	panelID := c.Param("id")
	if !h.tracker.Close(panelID) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "panel not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
