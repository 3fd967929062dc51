package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/maruel/mdpaste/internal/imgref"
	"github.com/maruel/mdpaste/internal/imgstore"
	"github.com/maruel/mdpaste/internal/paste"
	"github.com/maruel/mdpaste/internal/resolve"
)

// maxRequestBytes bounds API request bodies. Pasted payloads arrive
// base64-encoded in JSON, so leave headroom above the raw 2 MiB cap.
const maxRequestBytes = 8 << 20

// Handlers serves the local mdpaste API.
type Handlers struct {
	Store    imgstore.Store
	Pipeline *paste.Pipeline
	Resolver *resolve.Resolver
	Arena    *resolve.Arena
	Version  string
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeBody reads and decodes a JSON request body into input. Reports false
// after writing the error response.
func decodeBody(w http.ResponseWriter, r *http.Request, input any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	body, err := io.ReadAll(r.Body)
	if err2 := r.Body.Close(); err == nil {
		err = err2
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_BODY", "Failed to read request body")
		return false
	}
	d := json.NewDecoder(bytes.NewReader(body))
	d.DisallowUnknownFields()
	if err := d.Decode(input); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_BODY", "Invalid request body")
		return false
	}
	return true
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": h.Version})
}

type pasteResponse struct {
	// Snippets are the markdown image nodes to insert at the caret, one
	// per stored image. Empty means the paste carried no image and the
	// editor's default handling should run.
	Snippets []string `json:"snippets"`
}

func (h *Handlers) paste(w http.ResponseWriter, r *http.Request) {
	var ev paste.Event
	if !decodeBody(w, r, &ev) {
		return
	}
	snippets := h.Pipeline.Capture(r.Context(), ev)
	if snippets == nil {
		snippets = []string{}
	}
	writeJSON(w, http.StatusOK, pasteResponse{Snippets: snippets})
}

type resolveRequest struct {
	// Node identifies the rendered image node; it keys the later release.
	Node string `json:"node"`
	// Src is the image source from the markdown node.
	Src string `json:"src"`
}

func (h *Handlers) resolveNode(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Node == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELD", "node is required")
		return
	}
	ref, ok := imgref.Parse(req.Src)
	if !ok {
		writeError(w, http.StatusBadRequest, "NOT_MANAGED", "src is not a clipboard-image reference")
		return
	}
	writeJSON(w, http.StatusOK, h.Resolver.Resolve(r.Context(), req.Node, ref))
}

func (h *Handlers) releaseNode(w http.ResponseWriter, r *http.Request) {
	h.Resolver.Release(r.PathValue("node"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) listImages(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list images", "err", err)
		writeError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to list images")
		return
	}
	if records == nil {
		records = []imgstore.Record{}
	}
	writeJSON(w, http.StatusOK, map[string][]imgstore.Record{"images": records})
}

func (h *Handlers) deleteImage(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Store.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to delete image", "id", r.PathValue("id"), "err", err)
		writeError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to delete image")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

// serveImage serves the bytes behind an ephemeral URL. Tokens are revoked
// when their node is released, so a 404 here just means the document moved
// on.
func (h *Handlers) serveImage(w http.ResponseWriter, r *http.Request) {
	data, mt, ok := h.Arena.Get(r.PathValue("token"))
	if !ok {
		http.Error(w, "unknown or expired image token", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", string(mt))
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(data); err != nil {
		slog.DebugContext(r.Context(), "Failed to write image", "err", err)
	}
}
