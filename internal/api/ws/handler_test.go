package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/localbrowser/internal/domain/location"
	"github.com/GriffinCanCode/localbrowser/internal/domain/panel"
	"github.com/GriffinCanCode/localbrowser/internal/domain/state"
	"github.com/GriffinCanCode/localbrowser/internal/shared/types"
)

const landing = "/jupyterlab-local-browser/public/index.html"

type staticDirectory struct {
	entries []types.PortEntry
}

func (d staticDirectory) Poll(context.Context) ([]types.PortEntry, error) {
	return d.entries, nil
}

type wsRecorder struct {
	mu       sync.Mutex
	active   int
	messages map[string]int
}

func (r *wsRecorder) IncWSConnections() { r.mu.Lock(); r.active++; r.mu.Unlock() }
func (r *wsRecorder) DecWSConnections() { r.mu.Lock(); r.active--; r.mu.Unlock() }
func (r *wsRecorder) RecordWSMessage(direction, msgType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.messages == nil {
		r.messages = map[string]int{}
	}
	r.messages[direction+":"+msgType]++
}

func (r *wsRecorder) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *wsRecorder) Count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.messages[key]
}

type testServer struct {
	url     string
	tracker *panel.Tracker
	store   *state.Manager
	metrics *wsRecorder
}

func newTestServer(t *testing.T, dir panel.Directory) *testServer {
	t.Helper()
	return newLoggedTestServer(t, dir, nil)
}

func newLoggedTestServer(t *testing.T, dir panel.Directory, logger *zap.Logger) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := state.NewManager(state.NewMemoryBackend())
	tracker := panel.NewTracker(panel.Config{
		Codec:        location.NewCodec("/"),
		Store:        store,
		Directory:    dir,
		PollInterval: 20 * time.Millisecond,
		FullToolbar:  true,
	})
	metrics := &wsRecorder{}

	router := gin.New()
	router.GET("/jupyterlab-local-browser/panels/stream", NewHandler(tracker, logger, metrics).HandleConnection)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		tracker.CloseAll()
		srv.Close()
	})

	return &testServer{
		url:     "ws" + strings.TrimPrefix(srv.URL, "http") + "/jupyterlab-local-browser/panels/stream",
		tracker: tracker,
		store:   store,
		metrics: metrics,
	}
}

type client struct {
	t    *testing.T
	conn *websocket.Conn
}

func (s *testServer) dial(t *testing.T, panelID string) *client {
	t.Helper()
	url := s.url
	if panelID != "" {
		url += "?id=" + panelID
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &client{t: t, conn: conn}
}

func (c *client) send(msg types.WSMessage) {
	c.t.Helper()
	data, err := sonic.Marshal(msg)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteMessage(websocket.TextMessage, data))
}

// expect reads until a message of the given type arrives, skipping others
func (c *client) expect(msgType string) types.WSMessage {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := c.conn.ReadMessage()
		require.NoError(c.t, err, "waiting for %q", msgType)
		var msg types.WSMessage
		require.NoError(c.t, sonic.Unmarshal(data, &msg))
		if msg.Type == msgType {
			return msg
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	assert.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

func TestHandshakeShowsLanding(t *testing.T) {
	srv := newTestServer(t, nil)
	c := srv.dial(t, "lb-ws")

	hello := c.expect("hello")
	assert.Equal(t, "lb-ws", hello.ID)

	ports := c.expect("ports")
	require.Len(t, ports.Ports, 1)
	assert.Equal(t, "_placeholder", ports.Ports[0].Port)

	sel := c.expect("selection")
	assert.Equal(t, "_placeholder", sel.Port)

	nav := c.expect("navigate")
	assert.Equal(t, landing, nav.URL)

	waitFor(t, func() bool { return srv.tracker.Len() == 1 })
	assert.Equal(t, 1, srv.metrics.Active())
}

func TestHandshakeAssignsID(t *testing.T) {
	srv := newTestServer(t, nil)
	c := srv.dial(t, "")

	hello := c.expect("hello")
	assert.True(t, strings.HasPrefix(hello.ID, "lb-"), hello.ID)
	c.expect("navigate")

	waitFor(t, func() bool {
		_, ok := srv.tracker.Get(hello.ID)
		return ok
	})
}

func TestConnectLogsWhetherIDWasGenerated(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	srv := newLoggedTestServer(t, nil, zap.New(core))

	hello := srv.dial(t, "").expect("hello")
	srv.dial(t, "custom-panel").expect("hello")

	waitFor(t, func() bool { return logs.FilterMessage("Panel connected").Len() == 2 })
	generated := map[string]bool{}
	for _, e := range logs.FilterMessage("Panel connected").All() {
		fields := e.ContextMap()
		generated[fields["panel_id"].(string)] = fields["generated_id"].(bool)
	}
	assert.Equal(t, map[string]bool{hello.ID: true, "custom-panel": false}, generated)
}

func TestInvalidIDRejected(t *testing.T) {
	srv := newTestServer(t, nil)
	_, resp, err := websocket.DefaultDialer.Dial(srv.url+"?id=../etc", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestToolbarLoadAndRestore(t *testing.T) {
	srv := newTestServer(t, nil)
	c := srv.dial(t, "lb-ws")
	c.expect("navigate")

	c.send(types.WSMessage{Type: "toolbar", Mode: "relative", Port: "9000", Path: "app?x=1"})
	nav := c.expect("navigate")
	assert.Equal(t, "/proxy/9000/app?x=1", nav.URL)

	c.send(types.WSMessage{Type: "load", Href: "http://127.0.0.1:8888/proxy/9000/app?x=1", Title: "<b>App</b>"})
	sel := c.expect("selection")
	assert.Equal(t, "9000", sel.Port)
	assert.Equal(t, "app?x=1", sel.Path)
	assert.Equal(t, "App", c.expect("title").Title)

	waitFor(t, func() bool {
		loc, ok, err := srv.store.Fetch(context.Background(), "lb-ws")
		return err == nil && ok && loc.Port == "9000"
	})

	c.conn.Close()
	waitFor(t, func() bool { return srv.tracker.Len() == 0 })
	waitFor(t, func() bool { return srv.metrics.Active() == 0 })

	again := srv.dial(t, "lb-ws")
	nav = again.expect("navigate")
	assert.Equal(t, "/proxy/9000/app?x=1", nav.URL)
}

func TestReloadAndPing(t *testing.T) {
	srv := newTestServer(t, nil)
	c := srv.dial(t, "lb-ws")
	c.expect("navigate")

	c.send(types.WSMessage{Type: "reload"})
	assert.Equal(t, landing, c.expect("navigate").URL)

	c.send(types.WSMessage{Type: "ping"})
	c.expect("pong")

	waitFor(t, func() bool { return srv.metrics.Count("in:ping") == 1 })
	assert.GreaterOrEqual(t, srv.metrics.Count("out:navigate"), 2)
}

func TestUnknownAndMalformedMessages(t *testing.T) {
	srv := newTestServer(t, nil)
	c := srv.dial(t, "lb-ws")
	c.expect("navigate")

	c.send(types.WSMessage{Type: "teleport"})
	assert.Equal(t, "unknown message type", c.expect("error").Message)

	require.NoError(t, c.conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	assert.Equal(t, "invalid message", c.expect("error").Message)

	c.send(types.WSMessage{Type: "toolbar", Port: "9000", Path: strings.Repeat("a", 5000)})
	assert.Contains(t, c.expect("error").Message, "path must not exceed")

	c.send(types.WSMessage{Type: "toolbar", Mode: "absolute", Port: "absolute", Path: "x"})
	assert.Contains(t, c.expect("error").Message, "invalid port")

	// connection still usable
	c.send(types.WSMessage{Type: "ping"})
	c.expect("pong")
}

func TestTakeoverClosesPreviousConnection(t *testing.T) {
	srv := newTestServer(t, nil)
	first := srv.dial(t, "lb-ws")
	first.expect("navigate")

	second := srv.dial(t, "lb-ws")
	second.expect("navigate")

	first.send(types.WSMessage{Type: "reload"})
	assert.Equal(t, "panel was opened elsewhere", first.expect("error").Message)

	// the surviving panel is the second one
	p, ok := srv.tracker.Get("lb-ws")
	require.True(t, ok)
	assert.False(t, p.Closed())

	second.send(types.WSMessage{Type: "ping"})
	second.expect("pong")
}

func TestPollsReachClient(t *testing.T) {
	dir := staticDirectory{entries: []types.PortEntry{
		{Port: "_placeholder", Label: "Select a Port"},
		{Port: "9000", Label: "web"},
	}}
	srv := newTestServer(t, dir)
	c := srv.dial(t, "lb-ws")

	c.expect("ports") // initial sentinel-only list
	ports := c.expect("ports")
	require.Len(t, ports.Ports, 2)
	assert.Equal(t, "9000", ports.Ports[1].Port)
}
