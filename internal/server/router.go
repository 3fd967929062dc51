// Package server exposes the local HTTP API the editor integrates with.
package server

import "net/http"

// NewRouter creates and configures the HTTP router.
func NewRouter(h *Handlers, ratePerMin int) http.Handler {
	mux := &http.ServeMux{}
	mux.HandleFunc("GET /api/health", h.health)
	mux.HandleFunc("POST /api/paste", h.paste)
	mux.HandleFunc("POST /api/resolve", h.resolveNode)
	mux.HandleFunc("DELETE /api/resolve/{node}", h.releaseNode)
	mux.HandleFunc("GET /api/images", h.listImages)
	mux.HandleFunc("DELETE /api/images/{id}", h.deleteImage)
	mux.HandleFunc("GET /img/{token}", h.serveImage)
	return logRequests(rateLimit(ratePerMin, mux))
}
