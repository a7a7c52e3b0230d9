package proxy

import (
	"bytes"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"
)

// NewSPAHandler serves files from fsys. Any path that does not name a file
// gets the index document with status 200 so client side routes resolve.
func NewSPAHandler(fsys fs.FS, index string) http.Handler {
	if index == "" {
		index = "index.html"
	}
	files := http.FileServer(http.FS(fsys))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name != "" && name != index {
			if info, err := fs.Stat(fsys, name); err == nil && !info.IsDir() {
				files.ServeHTTP(w, r)
				return
			}
		}
		serveIndex(w, r, fsys, index)
	})
}

func serveIndex(w http.ResponseWriter, r *http.Request, fsys fs.FS, index string) {
	data, err := fs.ReadFile(fsys, index)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, index, time.Time{}, bytes.NewReader(data))
}
