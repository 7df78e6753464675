package proxy

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/localbrowser/internal/domain/location"
)

type echo struct {
	Path    string `json:"path"`
	RawPath string `json:"raw_path"`
	Query   string `json:"query"`
	Host    string `json:"host"`
	Prefix  string `json:"prefix"`
	FwdHost string `json:"fwd_host"`
}

type recorder struct {
	mu   sync.Mutex
	seen []string
}

func (r *recorder) RecordProxy(mode, status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, mode+"/"+status)
}

func upstream(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(echo{
			Path:    r.URL.Path,
			RawPath: r.URL.EscapedPath(),
			Query:   r.URL.RawQuery,
			Host:    r.Host,
			Prefix:  r.Header.Get("X-Forwarded-Prefix"),
			FwdHost: r.Header.Get("X-Forwarded-Host"),
		})
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return u.Port()
}

func newRouter(base string, rec Recorder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	codec := location.NewCodec(base)
	h := New(Config{Codec: codec, Host: "127.0.0.1", Metrics: rec})

	router := gin.New()
	router.Any(codec.ProxyPrefix()+"*rest", h.Handle)
	return router
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Host = "lab.example:8888"
	router.ServeHTTP(w, req)
	return w
}

func TestProxyRewritesPerMode(t *testing.T) {
	port := upstream(t)
	rec := &recorder{}
	router := newRouter("/lab/", rec)

	tests := []struct {
		name     string
		path     string
		wantPath string
		wantRaw  string
		wantQ    string
		prefix   string
	}{
		{
			name:     "relative strips prefix",
			path:     "/lab/proxy/" + port + "/app/index.html?x=1",
			wantPath: "/app/index.html",
			wantRaw:  "/app/index.html",
			wantQ:    "x=1",
			prefix:   "/lab/proxy/" + port,
		},
		{
			name:     "relative root without trailing slash",
			path:     "/lab/proxy/" + port,
			wantPath: "/",
			wantRaw:  "/",
			prefix:   "/lab/proxy/" + port,
		},
		{
			name:     "relative keeps escaping",
			path:     "/lab/proxy/" + port + "/files/a%2Fb%20c",
			wantPath: "/files/a/b c",
			wantRaw:  "/files/a%2Fb%20c",
			prefix:   "/lab/proxy/" + port,
		},
		{
			name:     "relative forwards a path shaped like the landing page",
			path:     "/lab/proxy/" + port + "/jupyterlab-local-browser/public/index.html",
			wantPath: "/jupyterlab-local-browser/public/index.html",
			wantRaw:  "/jupyterlab-local-browser/public/index.html",
			prefix:   "/lab/proxy/" + port,
		},
		{
			name:     "absolute forwards full path",
			path:     "/lab/proxy/absolute/" + port + "/app?y=2",
			wantPath: "/lab/proxy/absolute/" + port + "/app",
			wantRaw:  "/lab/proxy/absolute/" + port + "/app",
			wantQ:    "y=2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(router, tt.path)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var got echo
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.wantPath, got.Path)
			assert.Equal(t, tt.wantRaw, got.RawPath)
			assert.Equal(t, tt.wantQ, got.Query)
			assert.Equal(t, tt.prefix, got.Prefix)
			assert.Equal(t, net.JoinHostPort("127.0.0.1", port), got.Host)
			assert.Equal(t, "lab.example:8888", got.FwdHost)
		})
	}

	assert.Contains(t, rec.seen, "relative/200")
	assert.Contains(t, rec.seen, "absolute/200")
}

func TestProxyRejectsBadPorts(t *testing.T) {
	router := newRouter("/", nil)

	for _, path := range []string{
		"/proxy/",
		"/proxy/abc/",
		"/proxy/0/",
		"/proxy/70000/",
		"/proxy/080/",
		"/proxy/absolute/",
		"/proxy/_placeholder/",
	} {
		t.Run(path, func(t *testing.T) {
			w := get(router, path)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"success":false`)
		})
	}
}

func TestProxyUpstreamDown(t *testing.T) {
	// grab a free port, then release it
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := strconv.Itoa(l.Addr().(*net.TCPAddr).Port)
	l.Close()

	rec := &recorder{}
	w := get(newRouter("/", rec), "/proxy/"+port+"/")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"upstream unavailable"}`, w.Body.String())
	assert.Equal(t, []string{"relative/502"}, rec.seen)
}
