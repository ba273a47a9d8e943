// Package static serves the browser UI files. It never touches the engine;
// the simulation runs the same whether or not anything is served.
package static

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// contentTypes maps file extensions to the types the reference server
// sends. Anything outside this table is a 404.
var contentTypes = map[string]string{
	"js":   "text/javascript",
	"html": "text/html",
	"txt":  "text/plain",
	"css":  "text/css",
	"png":  "text/png",
	"svg":  "image/svg+xml",
}

type Handler struct {
	dir    string
	logger *zap.Logger
}

func NewHandler(dir string, logger *zap.Logger) *Handler {
	return &Handler{dir: dir, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Path
	if url == "/" {
		url = "/index.html"
	}
	if url == "/favicon.ico" {
		url = "/favicon.svg"
	}

	contentType := contentTypeFor(url)
	if contentType == "" {
		h.notFound(w, url)
		return
	}

	file, err := os.ReadFile(filepath.Join(h.dir, filepath.Clean(url)))
	if err != nil {
		h.notFound(w, url)
		return
	}

	h.logger.Debug("Serving file",
		zap.String("url", url),
		zap.String("content_type", contentType))
	w.Header().Set("Content-Type", contentType)
	w.Write(file)
}

func (h *Handler) notFound(w http.ResponseWriter, url string) {
	h.logger.Debug("Not found", zap.String("url", url))
	w.Header().Set("Content-Type", contentTypes["txt"])
	w.WriteHeader(http.StatusNotFound)
	io.WriteString(w, "404 Not Found")
}

func contentTypeFor(url string) string {
	parts := strings.Split(url, ".")
	if len(parts) <= 1 {
		return ""
	}
	return contentTypes[parts[len(parts)-1]]
}
