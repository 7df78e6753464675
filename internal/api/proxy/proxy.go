// Package proxy forwards <base>proxy/[absolute/]<port>/<path> to a server
// listening on that port.
//
// Relative mode strips the prefix and forwards /<path>. Absolute mode
// forwards the request path unchanged, for servers that know they live
// under the prefix.
package proxy

import (
	"errors"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/localbrowser/internal/domain/location"
)

// ErrInvalidPort is returned for a missing, non-numeric or out of range port
var ErrInvalidPort = errors.New("invalid proxy port")

// Recorder receives one observation per proxied request
type Recorder interface {
	RecordProxy(mode, status string, d time.Duration)
}

// Config configures the proxy
type Config struct {
	Codec location.Codec
	// Host is the upstream host name, usually localhost
	Host      string
	Transport http.RoundTripper
	Logger    *zap.Logger
	Metrics   Recorder
}

// Handler is the reverse proxy endpoint
type Handler struct {
	codec     location.Codec
	host      string
	transport http.RoundTripper
	logger    *zap.Logger
	metrics   Recorder
}

// New creates a proxy handler
func New(cfg Config) *Handler {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		codec:     cfg.Codec,
		host:      host,
		transport: transport,
		logger:    logger,
		metrics:   cfg.Metrics,
	}
}

// Target resolves a request path to the proxied location
func (h *Handler) Target(escapedPath string) (location.Location, error) {
	loc, ok := h.codec.DecodeProxyPath(escapedPath)
	if !ok || !location.ValidPort(loc.Port) {
		return location.Location{}, ErrInvalidPort
	}
	return loc, nil
}

// Handle proxies the request
func (h *Handler) Handle(c *gin.Context) {
	start := time.Now()
	r := c.Request

	loc, err := h.Target(r.URL.EscapedPath())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	upstream := net.JoinHostPort(h.host, loc.Port)
	proxy := &httputil.ReverseProxy{
		Transport: h.transport,
		Director: func(req *http.Request) {
			req.URL.Scheme = "http"
			req.URL.Host = upstream
			if loc.Mode == location.Relative {
				setEscapedPath(req.URL, "/"+loc.Path)
				req.Header.Set("X-Forwarded-Prefix", strings.TrimSuffix(h.codec.ProxyPrefix(), "/")+"/"+loc.Port)
			}
			req.Header.Set("X-Forwarded-Host", r.Host)
			if req.Header.Get("X-Forwarded-Proto") == "" {
				if r.TLS != nil {
					req.Header.Set("X-Forwarded-Proto", "https")
				} else {
					req.Header.Set("X-Forwarded-Proto", "http")
				}
			}
			req.Host = upstream
		},
		ErrorHandler: func(w http.ResponseWriter, req *http.Request, err error) {
			h.logger.Warn("Proxy error",
				zap.String("upstream", upstream),
				zap.String("path", req.URL.Path),
				zap.Error(err),
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"success":false,"error":"upstream unavailable"}`))
		},
	}

	proxy.ServeHTTP(c.Writer, r)

	if h.metrics != nil {
		h.metrics.RecordProxy(string(loc.Mode), strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

func setEscapedPath(u *url.URL, escaped string) {
	if p, err := url.PathUnescape(escaped); err == nil {
		u.Path = p
		u.RawPath = escaped
		if u.EscapedPath() != escaped {
			u.RawPath = ""
		}
		return
	}
	u.Path = escaped
	u.RawPath = ""
}
