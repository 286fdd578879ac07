// Package api provides the HTTP API handlers for the Expressora
// recognition system.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/expressora/expressora/internal/store"
)

// VocabHandler handles HTTP requests for vocabulary resources.
type VocabHandler struct {
	store *store.Store
}

// NewVocabHandler creates a new VocabHandler with the given store.
func NewVocabHandler(s *store.Store) *VocabHandler {
	return &VocabHandler{store: s}
}

// ServeHTTP routes between the collection and item endpoints.
// Expected paths: /api/vocab or /api/vocab/{id}
func (h *VocabHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/vocab")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodPatch:
		h.patch(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type createGlossRequest struct {
	Label  string `json:"label"`
	Kind   string `json:"kind"`
	Origin string `json:"origin"`
}

type patchGlossRequest struct {
	Enabled *bool `json:"enabled"`
}

type glossResponse struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Kind      string `json:"kind"`
	Origin    string `json:"origin"`
	Enabled   bool   `json:"enabled"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type listVocabResponse struct {
	Glosses []glossResponse `json:"glosses"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toGlossResponse converts a store.Gloss to a glossResponse.
func toGlossResponse(g *store.Gloss) glossResponse {
	return glossResponse{
		ID:        g.ID,
		Label:     g.Label,
		Kind:      string(g.Kind),
		Origin:    g.Origin,
		Enabled:   g.Enabled,
		CreatedAt: g.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: g.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/vocab and returns the whole vocabulary.
func (h *VocabHandler) list(w http.ResponseWriter, r *http.Request) {
	glosses, err := h.store.Glosses().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list vocabulary")
		return
	}

	response := listVocabResponse{
		Glosses: make([]glossResponse, 0, len(glosses)),
	}
	for _, g := range glosses {
		response.Glosses = append(response.Glosses, toGlossResponse(g))
	}

	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/vocab and adds a vocabulary entry.
func (h *VocabHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createGlossRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Label == "" {
		writeError(w, http.StatusBadRequest, "Label is required")
		return
	}

	kind := store.GlossKind(req.Kind)
	if kind == "" {
		kind = store.KindGloss
	}
	if kind != store.KindGloss && kind != store.KindLetter {
		writeError(w, http.StatusBadRequest, "Invalid gloss kind")
		return
	}

	origin := req.Origin
	if origin == "" {
		origin = "FSL"
	}

	gloss := &store.Gloss{
		Label:   req.Label,
		Kind:    kind,
		Origin:  origin,
		Enabled: true,
	}

	if err := h.store.Glosses().Create(gloss); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create gloss")
		return
	}

	writeJSON(w, http.StatusCreated, toGlossResponse(gloss))
}

// patch handles PATCH /api/vocab/{id}; only the enabled flag is mutable.
func (h *VocabHandler) patch(w http.ResponseWriter, r *http.Request, id string) {
	var req patchGlossRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	if err := h.store.Glosses().SetEnabled(id, *req.Enabled); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gloss not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update gloss")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// delete handles DELETE /api/vocab/{id}.
func (h *VocabHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Glosses().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gloss not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete gloss")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
