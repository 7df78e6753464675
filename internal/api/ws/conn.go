package ws

import (
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"github.com/GriffinCanCode/localbrowser/internal/domain/panel"
	"github.com/GriffinCanCode/localbrowser/internal/shared/types"
)

const writeWait = 10 * time.Second

// peer serialises writes and adapts a socket to panel.Navigator and panel.View
type peer struct {
	ws      *websocket.Conn
	metrics Recorder

	mu sync.Mutex
}

func (c *peer) send(msg types.WSMessage) error {
	data, err := sonic.Marshal(msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	if c.metrics != nil {
		c.metrics.RecordWSMessage("out", msg.Type)
	}
	return nil
}

func (c *peer) sendError(message string) error {
	return c.send(types.WSMessage{Type: "error", Message: message})
}

func (c *peer) Navigate(url string) error {
	return c.send(types.WSMessage{Type: "navigate", URL: url})
}

func (c *peer) ShowPorts(entries []types.PortEntry) {
	c.send(types.WSMessage{Type: "ports", Ports: entries})
}

func (c *peer) ShowSelection(sel panel.Selection) {
	c.send(types.WSMessage{
		Type: "selection",
		Mode: string(sel.Mode),
		Port: sel.Port,
		Path: sel.Path,
	})
}

func (c *peer) ShowTitle(title string) {
	c.send(types.WSMessage{Type: "title", Title: title})
}
