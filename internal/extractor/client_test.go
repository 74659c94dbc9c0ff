package extractor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExtractFaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed/face" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("expected multipart request, got %s", r.Header.Get("Content-Type"))
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "image-bytes" {
			t.Errorf("file content = %q", data)
		}
		if ct := header.Header.Get("Content-Type"); ct != "image/jpeg" {
			t.Errorf("part content type = %q, want image/jpeg", ct)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(FaceResponse{
			FacesCount: 2,
			Faces: []FaceDetection{
				{FaceIndex: 0, Dim: 2, Embedding: []float32{0.1, 0.2}},
				{FaceIndex: 1, Dim: 2, Embedding: []float32{0.3, 0.4}},
			},
			Model: "buffalo_l",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL + "/")
	faces, err := client.ExtractFaces(context.Background(), []byte("image-bytes"), "image/jpeg")
	if err != nil {
		t.Fatalf("ExtractFaces() error = %v", err)
	}
	if len(faces) != 2 {
		t.Fatalf("got %d faces, want 2", len(faces))
	}
	if faces[1][0] != 0.3 {
		t.Errorf("faces[1] = %v", faces[1])
	}
}

func TestExtractFacesNoFaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"faces_count":0,"faces":[],"model":"buffalo_l"}`))
	}))
	defer server.Close()

	faces, err := NewClient(server.URL).ExtractFaces(context.Background(), []byte("x"), "")
	if err != nil {
		t.Fatalf("ExtractFaces() error = %v", err)
	}
	if faces == nil || len(faces) != 0 {
		t.Errorf("faces = %v, want empty non-nil", faces)
	}
}

func TestExtractFacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).ExtractFaces(context.Background(), []byte("x"), "image/png")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error = %q, want status code", err.Error())
	}
}

func TestExtractFacesEmptyEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"faces_count":1,"faces":[{"face_index":0,"embedding":[]}]}`))
	}))
	defer server.Close()

	if _, err := NewClient(server.URL).ExtractFaces(context.Background(), []byte("x"), "image/png"); err == nil {
		t.Error("expected error for empty embedding")
	}
}
