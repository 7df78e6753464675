package location

import (
	"net/url"
	"strings"
)

const (
	// ExtensionSegment namespaces the extension's own routes under the base URL
	ExtensionSegment = "jupyterlab-local-browser"

	landingSuffix = ExtensionSegment + "/public/index.html"
	proxySegment  = "proxy/"
	absoluteTag   = "absolute/"
)

// Codec encodes and decodes proxy URLs under one base path
type Codec struct {
	base string
}

// NewCodec creates a codec for the given base URL. Only its path is used.
func NewCodec(baseURL string) Codec {
	return Codec{base: BasePath(baseURL)}
}

// BasePath extracts the path of a base URL, normalised to "/.../"
func BasePath(baseURL string) string {
	p := baseURL
	if u, err := url.Parse(baseURL); err == nil {
		p = u.Path
	}
	p = "/" + strings.Trim(p, "/")
	if p != "/" {
		p += "/"
	}
	return p
}

// Base returns the normalised base path
func (c Codec) Base() string {
	return c.base
}

// LandingPath is the path of the page shown when nothing is selected
func (c Codec) LandingPath() string {
	return c.base + landingSuffix
}

// ProxyPrefix is the path under which proxied targets live
func (c Codec) ProxyPrefix() string {
	return c.base + proxySegment
}

// Encode composes the frame URL path for loc
func (c Codec) Encode(loc Location) string {
	if loc.IsUnselected() {
		return c.LandingPath()
	}

	var sb strings.Builder
	sb.WriteString(c.ProxyPrefix())
	if loc.Mode == Absolute {
		sb.WriteString(absoluteTag)
	}
	sb.WriteString(loc.Port)
	sb.WriteByte('/')
	sb.WriteString(strings.TrimLeft(loc.Path, "/"))
	sb.WriteString(loc.Query)
	sb.WriteString(loc.Fragment)
	return sb.String()
}

// Decode recovers the location from the frame's current href
func (c Codec) Decode(href string) Location {
	u, err := url.Parse(href)
	if err != nil {
		return Landing()
	}

	p := u.EscapedPath()
	if strings.Contains(p, "/"+landingSuffix) {
		return Landing()
	}

	loc, ok := c.DecodeProxyPath(p)
	if !ok {
		return Landing()
	}
	if u.RawQuery != "" || u.ForceQuery {
		loc.Query = "?" + u.RawQuery
	}
	if u.Fragment != "" || strings.HasSuffix(href, "#") {
		loc.Fragment = "#" + u.EscapedFragment()
	}
	return loc
}

// DecodeProxyPath parses an escaped request path under the proxy prefix.
// Unlike Decode it does not treat the landing path specially.
func (c Codec) DecodeProxyPath(escapedPath string) (Location, bool) {
	rest, ok := strings.CutPrefix(escapedPath, c.ProxyPrefix())
	if !ok {
		return Location{}, false
	}

	mode := Relative
	if tail, found := strings.CutPrefix(rest, absoluteTag); found {
		mode = Absolute
		rest = tail
	}

	port, path, _ := strings.Cut(rest, "/")
	if port == "" || port == Unselected {
		return Location{}, false
	}
	return Location{Mode: mode, Port: port, Path: path}, true
}
