package webui

import (
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"smartsummarizer/webui/static"
)

// AssetConfig controls how the page's files are served.
type AssetConfig struct {
	// Prefix is where scripts and styles live; the page itself is at "/".
	Prefix string

	// MaxAge is the public cache lifetime for assets. Zero disables caching.
	// The page is never cached, so a new build shows up on reload.
	MaxAge time.Duration
}

func DefaultAssetConfig() AssetConfig {
	return AssetConfig{Prefix: "/static", MaxAge: time.Hour}
}

// Explicit types for the files the page ships, independent of the host's
// mime database.
var assetTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "text/javascript; charset=utf-8",
}

// Assets serves files from an fs.FS under a URL prefix plus index.html at "/".
type Assets struct {
	fsys   fs.FS
	prefix string
	maxAge time.Duration
	files  http.Handler
}

// NewAssets serves the embedded page.
func NewAssets(cfg AssetConfig) *Assets {
	return NewAssetsFS(static.Files, cfg)
}

func NewAssetsFS(fsys fs.FS, cfg AssetConfig) *Assets {
	prefix := "/" + strings.Trim(cfg.Prefix, "/")
	if prefix == "/" {
		prefix = DefaultAssetConfig().Prefix
	}
	return &Assets{
		fsys:   fsys,
		prefix: prefix,
		maxAge: cfg.MaxAge,
		files:  http.StripPrefix(prefix, http.FileServerFS(fsys)),
	}
}

// ServeHTTP serves one file below the prefix. Directories are not listed.
func (a *Assets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, a.prefix+"/")
	if name == "" || strings.HasSuffix(name, "/") || !fs.ValidPath(name) {
		http.NotFound(w, r)
		return
	}
	if fi, err := fs.Stat(a.fsys, name); err != nil || fi.IsDir() {
		http.NotFound(w, r)
		return
	}

	a.setHeaders(w, name, a.maxAge)
	a.files.ServeHTTP(w, r)
}

func (a *Assets) serveIndex(w http.ResponseWriter, r *http.Request) {
	a.setHeaders(w, "index.html", 0)
	http.ServeFileFS(w, r, a.fsys, "index.html")
}

func (a *Assets) setHeaders(w http.ResponseWriter, name string, maxAge time.Duration) {
	if ct, ok := assetTypes[strings.ToLower(path.Ext(name))]; ok {
		w.Header().Set("Content-Type", ct)
	}
	if maxAge > 0 {
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds())))
	} else {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	}
}

// RegisterRoutes mounts the page at "/" and the assets under the prefix.
func (a *Assets) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET "+a.prefix+"/", a)
	mux.HandleFunc("GET /{$}", a.serveIndex)
}
