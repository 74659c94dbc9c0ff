package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kozaktomas/snapx/internal/database"
)

func matchRequest(id, body string) *http.Request {
	req := httptest.NewRequest("POST", "/api/v1/collections/"+id+"/find-my-photos", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return requestWithChiParams(req, map[string]string{"id": id})
}

func TestMatchHandler_FindMyPhotos(t *testing.T) {
	env := newTestEnv(t)
	created := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	env.store.AddImage(database.Image{
		ID:             "img-a",
		CollectionID:   testCollectionID,
		URL:            "https://cdn.example.com/a.jpg",
		FaceEmbeddings: [][]float32{{0.3, 0, 0, 0}},
		CreatedAt:      created,
	})
	env.store.AddImage(database.Image{
		ID:             "img-b",
		CollectionID:   testCollectionID,
		URL:            "https://cdn.example.com/b.jpg",
		FaceEmbeddings: [][]float32{{0.9, 0, 0, 0}},
		CreatedAt:      created,
	})
	handler := NewMatchHandler(env.service, zap.NewNop())

	recorder := httptest.NewRecorder()
	handler.FindMyPhotos(recorder, matchRequest(testCollectionID, `{"descriptor":[0,0,0,0]}`))

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, "application/json")

	var result []MatchResponse
	parseJSONResponse(t, recorder, &result)
	if len(result) != 1 {
		t.Fatalf("expected 1 match, got %d: %s", len(result), recorder.Body.String())
	}
	if result[0].ID != "img-a" || result[0].URL != "https://cdn.example.com/a.jpg" {
		t.Errorf("unexpected match %+v", result[0])
	}
	if !result[0].CreatedAt.Equal(created) {
		t.Errorf("created_at = %v, want %v", result[0].CreatedAt, created)
	}
	if result[0].Distance < 0.29 || result[0].Distance > 0.31 {
		t.Errorf("distance = %v, want about 0.3", result[0].Distance)
	}
}

func TestMatchHandler_EmptyResults(t *testing.T) {
	env := newTestEnv(t)
	handler := NewMatchHandler(env.service, zap.NewNop())

	for _, id := range []string{testCollectionID, "6a2b4c1d-0000-4000-8000-000000000000", "garbage"} {
		recorder := httptest.NewRecorder()
		handler.FindMyPhotos(recorder, matchRequest(id, `{"descriptor":[0,0,0,0]}`))

		assertStatusCode(t, recorder, http.StatusOK)
		if strings.TrimSpace(recorder.Body.String()) != "[]" {
			t.Errorf("%s: expected empty array, got %s", id, recorder.Body.String())
		}
	}
}

func TestMatchHandler_InvalidRequests(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{"malformed json", `{"descriptor":`, errInvalidRequestBody},
		{"descriptor not an array", `{"descriptor":"abc"}`, errInvalidRequestBody},
		{"missing descriptor", `{}`, "descriptor is required"},
		{"empty descriptor", `{"descriptor":[]}`, "descriptor is required"},
	}

	env := newTestEnv(t)
	handler := NewMatchHandler(env.service, zap.NewNop())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			handler.FindMyPhotos(recorder, matchRequest(testCollectionID, tt.body))

			assertStatusCode(t, recorder, http.StatusBadRequest)
			assertJSONError(t, recorder, tt.wantError)
		})
	}

	t.Run("wrong dimension", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.FindMyPhotos(recorder, matchRequest(testCollectionID, `{"descriptor":[0.1,0.2]}`))
		assertStatusCode(t, recorder, http.StatusBadRequest)
	})
}

func TestMatchHandler_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.store.ListImagesError = errors.New("timeout")
	handler := NewMatchHandler(env.service, zap.NewNop())

	recorder := httptest.NewRecorder()
	handler.FindMyPhotos(recorder, matchRequest(testCollectionID, `{"descriptor":[0,0,0,0]}`))

	assertStatusCode(t, recorder, http.StatusInternalServerError)
}
