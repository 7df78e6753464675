package ws

import (
	"context"
	"errors"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/localbrowser/internal/domain/location"
	"github.com/GriffinCanCode/localbrowser/internal/domain/panel"
	"github.com/GriffinCanCode/localbrowser/internal/domain/state"
	"github.com/GriffinCanCode/localbrowser/internal/shared/id"
	"github.com/GriffinCanCode/localbrowser/internal/shared/types"
	"github.com/GriffinCanCode/localbrowser/internal/shared/utils"
)

// Recorder receives WebSocket metrics
type Recorder interface {
	IncWSConnections()
	DecWSConnections()
	RecordWSMessage(direction, msgType string)
}

// Handler manages panel WebSocket connections
type Handler struct {
	tracker  *panel.Tracker
	logger   *zap.Logger
	metrics  Recorder
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler
func NewHandler(tracker *panel.Tracker, logger *zap.Logger, metrics Recorder) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		tracker: tracker,
		logger:  logger,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // the server binds to loopback by default
			},
		},
	}
}

// HandleConnection upgrades the request and runs the panel until the socket
// closes
func (h *Handler) HandleConnection(c *gin.Context) {
	panelID := c.Query("id")
	if panelID == "" {
		panelID = id.NewPanelID().String()
	}
	if err := state.ValidateID(panelID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	ws.SetReadLimit(utils.MaxMessageSize)

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	conn := &peer{ws: ws, metrics: h.metrics}
	logger := h.logger.With(zap.String("panel_id", panelID))
	ctx := c.Request.Context()

	if err := conn.send(types.WSMessage{Type: "hello", ID: panelID}); err != nil {
		ws.Close()
		return
	}

	p, err := h.tracker.Open(ctx, panelID, conn, conn)
	if err != nil {
		logger.Warn("Failed to open panel", zap.Error(err))
		conn.sendError(err.Error())
		ws.Close()
		return
	}

	logger.Debug("Panel connected", zap.Bool("generated_id", id.IsPanelID(panelID)))

	defer func() {
		// close the socket first so pending writes fail fast
		ws.Close()
		h.tracker.Release(p)
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}

		var msg types.WSMessage
		if err := sonic.Unmarshal(data, &msg); err != nil {
			conn.sendError("invalid message")
			continue
		}
		if h.metrics != nil {
			h.metrics.RecordWSMessage("in", msg.Type)
		}
		if err := utils.ValidateMessage(msg); err != nil {
			conn.sendError(err.Error())
			continue
		}

		if err := h.dispatch(ctx, p, conn, msg); err != nil {
			if errors.Is(err, panel.ErrClosed) {
				conn.sendError("panel was opened elsewhere")
				return
			}
			conn.sendError(err.Error())
		}
	}
}

func (h *Handler) dispatch(ctx context.Context, p *panel.Panel, conn *peer, msg types.WSMessage) error {
	switch msg.Type {
	case "load":
		if p.Closed() {
			return panel.ErrClosed
		}
		p.Frame().Load(panel.LoadEvent{Href: msg.Href, Title: msg.Title})
		return nil
	case "toolbar":
		return p.ToolbarChanged(ctx, panel.Selection{
			Mode: location.ParseMode(msg.Mode),
			Port: msg.Port,
			Path: msg.Path,
		})
	case "reload":
		return p.Reload()
	case "ping":
		return conn.send(types.WSMessage{Type: "pong"})
	default:
		return errors.New("unknown message type")
	}
}
