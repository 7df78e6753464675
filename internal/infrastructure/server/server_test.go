package server

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/localbrowser/internal/infrastructure/config"
	"github.com/GriffinCanCode/localbrowser/internal/shared/types"
)

func testConfig(base string) *config.Config {
	cfg := config.Default()
	cfg.Server.BaseURL = base
	cfg.Browser.ProxyHost = "127.0.0.1"
	cfg.Browser.PollInterval = time.Hour
	cfg.State.Backend = "memory"
	cfg.Logging.Level = "error"
	cfg.RateLimit.Enabled = false
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *httptest.Server) {
	t.Helper()
	srv, err := NewServer(cfg)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		assert.NoError(t, srv.Close())
	})
	return srv, ts
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestRoutes(t *testing.T) {
	_, ts := newTestServer(t, testConfig("/lab/"))

	tests := []struct {
		name     string
		path     string
		want     int
		contains string
	}{
		{"root", "/", http.StatusOK, "online"},
		{"health", "/health", http.StatusOK, "healthy"},
		{"landing page", "/lab/jupyterlab-local-browser/public/index.html", http.StatusOK, "<html"},
		{"state list", "/lab/jupyterlab-local-browser/state", http.StatusOK, `"ids"`},
		{"panels", "/lab/jupyterlab-local-browser/panels", http.StatusOK, `"count":0`},
		{"bad proxy port", "/lab/proxy/notaport/", http.StatusBadRequest, "invalid proxy port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := get(t, ts.URL+tt.path)
			assert.Equal(t, tt.want, status, body)
			assert.Contains(t, body, tt.contains)
		})
	}

	// recorded by the middleware after the requests above
	status, body := get(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "localbrowser_http_requests_total")
	assert.Contains(t, body, `path="/health"`)
}

func TestProxyRoute(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "upstream saw "+r.URL.Path)
	}))
	defer upstream.Close()
	_, port, err := net.SplitHostPort(strings.TrimPrefix(upstream.URL, "http://"))
	require.NoError(t, err)

	_, ts := newTestServer(t, testConfig("/"))

	status, body := get(t, ts.URL+"/proxy/"+port+"/app/page")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "upstream saw /app/page", body)

	status, body = get(t, ts.URL+"/proxy/absolute/"+port+"/app/page")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "upstream saw /proxy/absolute/"+port+"/app/page", body)
}

func TestPanelStream(t *testing.T) {
	srv, ts := newTestServer(t, testConfig("/"))

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/jupyterlab-local-browser/panels/stream?id=lb-srv"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var hello types.WSMessage
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "hello", hello.Type)
	assert.Equal(t, "lb-srv", hello.ID)

	assert.Eventually(t, func() bool {
		return srv.Tracker().Len() == 1
	}, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool {
		return srv.Tracker().Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSelfURL(t *testing.T) {
	tests := []struct {
		host, port, base string
		want             string
	}{
		{"127.0.0.1", "8888", "/", "http://127.0.0.1:8888/"},
		{"0.0.0.0", "9000", "/user/alice", "http://127.0.0.1:9000/user/alice/"},
		{"::", "8888", "/", "http://[::1]:8888/"},
		{"localhost", "8888", "lab", "http://localhost:8888/lab/"},
	}
	for _, tt := range tests {
		cfg := config.Default()
		cfg.Server.Host, cfg.Server.Port, cfg.Server.BaseURL = tt.host, tt.port, tt.base
		assert.Equal(t, tt.want, selfURL(cfg))
	}
}

func TestNewServerRejectsUnknownBackend(t *testing.T) {
	cfg := testConfig("/")
	cfg.State.Backend = "redis"

	_, err := NewServer(cfg)
	assert.Error(t, err)
}
