package migrate

import (
	"testing"
	"testing/fstest"
)

func TestPending(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/002_faces.sql": {Data: []byte("SELECT 2")},
		"migrations/001_init.sql":  {Data: []byte("SELECT 1")},
		"migrations/003_more.sql":  {Data: []byte("SELECT 3")},
		"migrations/README.md":     {Data: []byte("docs")},
	}

	files, err := pending(fsys, "migrations", map[string]bool{"002_faces.sql": true})
	if err != nil {
		t.Fatalf("pending() error = %v", err)
	}

	want := []string{"001_init.sql", "003_more.sql"}
	if len(files) != len(want) {
		t.Fatalf("pending() = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("pending()[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestPendingMissingDir(t *testing.T) {
	if _, err := pending(fstest.MapFS{}, "migrations", nil); err == nil {
		t.Error("expected error for missing migrations directory")
	}
}
