package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/expressora/expressora/internal/store"
)

// newTestStore creates a Store backed by a temp-file database.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "expressora-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(tmpDir)
	})

	s, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func createVocabEntry(t *testing.T, h *VocabHandler, label string) glossResponse {
	t.Helper()

	body, _ := json.Marshal(createGlossRequest{Label: label})
	req := httptest.NewRequest(http.MethodPost, "/api/vocab", bytes.NewBuffer(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("create %q: status = %d, want 201", label, rec.Code)
	}

	var created glossResponse
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("create %q: decode: %v", label, err)
	}
	return created
}

func TestVocabCreateAndList(t *testing.T) {
	h := NewVocabHandler(newTestStore(t))

	created := createVocabEntry(t, h, "HELLO")
	if created.ID == "" {
		t.Fatal("created gloss has no ID")
	}
	if created.Kind != "gloss" {
		t.Errorf("kind = %q, want the gloss default", created.Kind)
	}
	if created.Origin != "FSL" {
		t.Errorf("origin = %q, want the FSL default", created.Origin)
	}
	if !created.Enabled {
		t.Error("new entries should start enabled")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/vocab", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d, want 200", rec.Code)
	}
	var list listVocabResponse
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("list: decode: %v", err)
	}
	if len(list.Glosses) != 1 || list.Glosses[0].Label != "HELLO" {
		t.Errorf("list = %+v, want the single created entry", list.Glosses)
	}
}

func TestVocabCreateValidation(t *testing.T) {
	h := NewVocabHandler(newTestStore(t))

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "invalid json", body: "{nope", want: http.StatusBadRequest},
		{name: "missing label", body: `{"kind":"gloss"}`, want: http.StatusBadRequest},
		{name: "bad kind", body: `{"label":"HELLO","kind":"emoji"}`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/api/vocab", bytes.NewBufferString(tt.body))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.name, rec.Code, tt.want)
		}
	}
}

func TestVocabPatchEnabled(t *testing.T) {
	s := newTestStore(t)
	h := NewVocabHandler(s)

	created := createVocabEntry(t, h, "HELLO")

	req := httptest.NewRequest(http.MethodPatch, "/api/vocab/"+created.ID,
		bytes.NewBufferString(`{"enabled":false}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("patch: status = %d, want 204", rec.Code)
	}

	gloss, err := s.Glosses().GetByLabel("HELLO")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if gloss.Enabled {
		t.Error("gloss should be disabled after patch")
	}
}

func TestVocabPatchValidation(t *testing.T) {
	h := NewVocabHandler(newTestStore(t))

	// Body without the enabled field has nothing to apply.
	req := httptest.NewRequest(http.MethodPatch, "/api/vocab/some-id",
		bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty patch: status = %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPatch, "/api/vocab/missing-id",
		bytes.NewBufferString(`{"enabled":true}`))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing id: status = %d, want 404", rec.Code)
	}
}

func TestVocabDelete(t *testing.T) {
	s := newTestStore(t)
	h := NewVocabHandler(s)

	created := createVocabEntry(t, h, "HELLO")

	req := httptest.NewRequest(http.MethodDelete, "/api/vocab/"+created.ID, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d, want 204", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/vocab/"+created.ID, nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("double delete: status = %d, want 404", rec.Code)
	}
}

func TestVocabMethodNotAllowed(t *testing.T) {
	h := NewVocabHandler(newTestStore(t))

	req := httptest.NewRequest(http.MethodPut, "/api/vocab/some-id", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}
