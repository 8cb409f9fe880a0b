// RetailSight - Retail Household Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailsight

package api

import (
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/tomtom215/retailsight/internal/logging"
)

const (
	indexPage = "index.html"
	dataPage  = "data.html"
)

// StaticHandler serves the front-end. "/" maps to index.html and "/data" to
// data.html; unknown paths get index.html with a 404 status.
type StaticHandler struct {
	files fs.FS
}

// NewStaticHandler serves files from dir.
func NewStaticHandler(dir string) *StaticHandler {
	return NewStaticHandlerFS(os.DirFS(dir))
}

// NewStaticHandlerFS serves files from fsys.
func NewStaticHandlerFS(fsys fs.FS) *StaticHandler {
	return &StaticHandler{files: fsys}
}

// ServeHTTP implements http.Handler.
func (s *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")

	switch name {
	case "":
		s.servePage(w, r, indexPage)
		return
	case "data":
		s.servePage(w, r, dataPage)
		return
	}

	if s.isFile(name) {
		setStaticCacheControl(w, name)
		http.ServeFileFS(w, r, s.files, name)
		return
	}

	s.serveFallback(w, r)
}

func (s *StaticHandler) servePage(w http.ResponseWriter, r *http.Request, page string) {
	if !s.isFile(page) {
		s.serveFallback(w, r)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
	http.ServeFileFS(w, r, s.files, page)
}

// serveFallback writes index.html with 404, or a plain 404 when it is missing.
func (s *StaticHandler) serveFallback(w http.ResponseWriter, r *http.Request) {
	body, err := fs.ReadFile(s.files, indexPage)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusNotFound)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(body); err != nil {
		logging.Debug().Err(err).Msg("Failed to write fallback page")
	}
}

func (s *StaticHandler) isFile(name string) bool {
	info, err := fs.Stat(s.files, name)
	return err == nil && info.Mode().IsRegular()
}

func setStaticCacheControl(w http.ResponseWriter, name string) {
	switch path.Ext(name) {
	case ".js", ".css":
		w.Header().Set("Cache-Control", "public, max-age=86400")
	case ".png", ".svg", ".jpg", ".webp", ".ico":
		w.Header().Set("Cache-Control", "public, max-age=604800")
	case ".html":
		w.Header().Set("Cache-Control", "public, max-age=300")
	}
}
