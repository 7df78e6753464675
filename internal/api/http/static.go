package http

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
)

//go:embed public
var publicFS embed.FS

const gzipMinSize = 512

// Static serves the landing page assets under prefix. Files come from dir
// when set, otherwise from the embedded copy.
func Static(prefix, dir string) (gin.HandlerFunc, error) {
	var files http.FileSystem
	if dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("static dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("static dir %s is not a directory", dir)
		}
		files = http.Dir(dir)
	} else {
		sub, err := fs.Sub(publicFS, "public")
		if err != nil {
			return nil, err
		}
		files = http.FS(sub)
	}

	gzip, err := gzhttp.NewWrapper(gzhttp.MinSize(gzipMinSize))
	if err != nil {
		return nil, err
	}

	serve := http.StripPrefix(prefix, http.FileServer(files))
	handler := gzip(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// FileServer redirects ".../index.html" to ".../"; the landing URL
		// must load as is
		if strings.HasSuffix(r.URL.Path, "/index.html") {
			u := *r.URL
			u.Path = strings.TrimSuffix(u.Path, "index.html")
			u.RawPath = ""
			r = r.Clone(r.Context())
			r.URL = &u
		}
		serve.ServeHTTP(w, r)
	}))
	return gin.WrapH(handler), nil
}
