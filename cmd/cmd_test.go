package cmd

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFindImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.jpg", "a.PNG", "notes.txt", "day1/c.jpeg", "day1/deep/d.webp"} {
		writeFile(t, filepath.Join(dir, name), "x")
	}
	if err := os.MkdirAll(filepath.Join(dir, "empty.jpg"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := findImages(dir, defaultIngestPattern)
	if err != nil {
		t.Fatalf("findImages() error = %v", err)
	}
	want := []string{"a.PNG", "b.jpg", "day1/c.jpeg", "day1/deep/d.webp"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("findImages() = %v, want %v", got, want)
	}

	got, err = findImages(dir, "day1/**/*")
	if err != nil {
		t.Fatalf("findImages() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("findImages(day1) = %v, want 2 files", got)
	}

	if _, err := findImages(dir, "[unclosed"); err == nil {
		t.Error("findImages() should reject an invalid pattern")
	}
}

func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faces.yaml")
	writeFile(t, path, `
./ceremony/a.jpg:
  - [0.1, 0.2]
  - [0.3, 0.4]
party/b.jpg: []
`)

	m, err := loadManifest(path)
	if err != nil {
		t.Fatalf("loadManifest() error = %v", err)
	}
	if len(m["ceremony/a.jpg"]) != 2 {
		t.Errorf("expected 2 faces for ceremony/a.jpg, got %v", m["ceremony/a.jpg"])
	}

	got, err := m.embeddingsJSON([]string{"party/b.jpg", "ceremony/a.jpg", "missing.jpg"})
	if err != nil {
		t.Fatalf("embeddingsJSON() error = %v", err)
	}
	want := `[[],[[0.1,0.2],[0.3,0.4]],[]]`
	if got != want {
		t.Errorf("embeddingsJSON() = %s, want %s", got, want)
	}
}

func TestLoadManifestErrors(t *testing.T) {
	m, err := loadManifest("")
	if err != nil || len(m) != 0 {
		t.Errorf("loadManifest(\"\") = %v, %v; want empty manifest", m, err)
	}

	if _, err := loadManifest(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing manifest")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, path, "a.jpg: not-a-list\n")
	if _, err := loadManifest(path); err == nil {
		t.Error("expected error for malformed manifest")
	}
}

func TestChunk(t *testing.T) {
	files := []string{"1", "2", "3", "4", "5"}
	got := chunk(files, 2)
	want := [][]string{{"1", "2"}, {"3", "4"}, {"5"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("chunk() = %v, want %v", got, want)
	}
	if got := chunk(nil, 3); len(got) != 0 {
		t.Errorf("chunk(nil) = %v", got)
	}
}

func TestReadDescriptor(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "plain.json")
	wrapped := filepath.Join(dir, "wrapped.json")
	bad := filepath.Join(dir, "bad.json")
	writeFile(t, plain, "[0.5, -0.25]\n")
	writeFile(t, wrapped, `  {"descriptor": [1, 2, 3]}`)
	writeFile(t, bad, `{"descriptor": "x"}`)

	got, err := readDescriptor(plain)
	if err != nil || !reflect.DeepEqual(got, []float64{0.5, -0.25}) {
		t.Errorf("readDescriptor(plain) = %v, %v", got, err)
	}
	got, err = readDescriptor(wrapped)
	if err != nil || !reflect.DeepEqual(got, []float64{1, 2, 3}) {
		t.Errorf("readDescriptor(wrapped) = %v, %v", got, err)
	}
	if _, err := readDescriptor(bad); err == nil {
		t.Error("expected error for malformed descriptor")
	}
}

func TestLogMigrations(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logMigrations(zap.New(core), []string{"001_init.sql", "002_faces.sql"})

	entries := logs.FilterMessage("applied migration").All()
	if len(entries) != 2 {
		t.Fatalf("applied migration entries = %d, want 2", len(entries))
	}
	if got := entries[1].ContextMap()["version"]; got != "002_faces.sql" {
		t.Errorf("version = %v, want 002_faces.sql", got)
	}

	core, logs = observer.New(zap.DebugLevel)
	logMigrations(zap.New(core), nil)
	if logs.FilterMessage("store schema is up to date").Len() != 1 {
		t.Error("expected up-to-date entry when nothing was applied")
	}
}
