package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kozaktomas/snapx/internal/config"
	"github.com/kozaktomas/snapx/internal/database"
	"github.com/kozaktomas/snapx/internal/database/mock"
	"github.com/kozaktomas/snapx/internal/gallery"
	"github.com/kozaktomas/snapx/internal/storage"
)

const (
	testCollectionID = "0b7e3a52-3f0c-4f43-9d0a-6a1f2f1b9c11"
	testOwnerID      = "owner-1"
)

// testConfig creates a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{PublicURL: "https://snapx.example.com"},
		Ingest: config.IngestConfig{MaxUploadBytes: 10 << 20},
	}
}

// testEnv bundles a service over in-memory backends
type testEnv struct {
	cfg     *config.Config
	store   *mock.MockStore
	objects *storage.MemoryStore
	service *gallery.Service
}

// newTestEnv creates a service with one collection owned by testOwnerID
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithLogger(t, zap.NewNop())
}

// newTestEnvWithLogger is newTestEnv with the service logging to log
func newTestEnvWithLogger(t *testing.T, log *zap.Logger) *testEnv {
	t.Helper()
	store := mock.NewMockStore()
	store.AddCollection(database.Collection{
		ID:          testCollectionID,
		Name:        "Wedding",
		Description: "June 2026",
		OwnerID:     testOwnerID,
		CreatedAt:   time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
	})
	objects := storage.NewMemoryStore("https://cdn.example.com")
	svc := gallery.NewService(store, objects, gallery.Config{Dimension: 4, Threshold: 0.6, MaxFiles: 5, Workers: 2}, log)
	return &testEnv{cfg: testConfig(), store: store, objects: objects, service: svc}
}

// asPrincipal attaches an authenticated principal to the request
func asPrincipal(r *http.Request, id string) *http.Request {
	return r.WithContext(gallery.WithPrincipal(r.Context(), gallery.Principal{ID: id}))
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// jsonBody encodes v as a request body
func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to encode body: %v", err)
	}
	return bytes.NewReader(data)
}

// pngBytes returns a small encoded PNG
func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 3, 2))); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

// multipartFile is one file part of a test upload
type multipartFile struct {
	field    string
	filename string
	data     []byte
}

// multipartBody builds a multipart request body and returns it with its content type
func multipartBody(t *testing.T, fields map[string]string, files []multipartFile) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.filename)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		part.Write(f.data)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%v'", expectedMessage, result["error"])
	}
}
