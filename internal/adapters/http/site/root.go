// Package site serves the embedded wildlife dashboard.
package site

import (
	"context"
	"errors"
	"net/http"
)

// ErrMissingIndex is reported when the embedded page is absent.
var ErrMissingIndex = errors.New("dashboard index missing")

// Register attaches the dashboard routes to mux: the page at "/" and its
// assets under "/assets/".
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	root := NewRootHandler()
	mux.HandleFunc("GET /{$}", root.HandleRoot)
	mux.Handle("GET /assets/", http.FileServer(FS()))
}

// RootHandler serves the dashboard page.
type RootHandler struct {
	index []byte
}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	index, _ := staticFS.ReadFile("static/index.html")
	return &RootHandler{index: index}
}

// HandleRoot handles GET / requests.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	if len(h.index) == 0 {
		http.Error(w, ErrMissingIndex.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(h.index)
}
