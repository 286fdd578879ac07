package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/expressora/expressora/internal/store"
)

// SequencesHandler handles HTTP requests for the recognition history.
type SequencesHandler struct {
	store *store.Store
}

// NewSequencesHandler creates a new SequencesHandler with the given store.
func NewSequencesHandler(s *store.Store) *SequencesHandler {
	return &SequencesHandler{store: s}
}

// ServeHTTP routes between the collection and item endpoints.
// Expected paths: /api/sequences or /api/sequences/{id}
func (h *SequencesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sequences")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type sequenceResponse struct {
	ID         string   `json:"id"`
	Kind       string   `json:"kind"`
	Tokens     []string `json:"tokens"`
	Origin     string   `json:"origin"`
	Confidence float64  `json:"confidence"`
	Tone       string   `json:"tone"`
	CreatedAt  string   `json:"created_at"`
}

type listSequencesResponse struct {
	Sequences []sequenceResponse `json:"sequences"`
}

// toSequenceResponse converts a store.Sequence to a sequenceResponse.
func toSequenceResponse(s *store.Sequence) sequenceResponse {
	return sequenceResponse{
		ID:         s.ID,
		Kind:       string(s.Kind),
		Tokens:     s.Tokens,
		Origin:     s.Origin,
		Confidence: s.Confidence,
		Tone:       s.Tone,
		CreatedAt:  s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// list handles GET /api/sequences?limit=N, newest first.
func (h *SequencesHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	sequences, err := h.store.Sequences().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sequences")
		return
	}

	response := listSequencesResponse{
		Sequences: make([]sequenceResponse, 0, len(sequences)),
	}
	for _, s := range sequences {
		response.Sequences = append(response.Sequences, toSequenceResponse(s))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/sequences/{id}.
func (h *SequencesHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	seq, err := h.store.Sequences().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Sequence not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get sequence")
		return
	}

	writeJSON(w, http.StatusOK, toSequenceResponse(seq))
}

// delete handles DELETE /api/sequences/{id}.
func (h *SequencesHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Sequences().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Sequence not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete sequence")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
