package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kozaktomas/snapx/internal/constants"
	"github.com/kozaktomas/snapx/internal/database"
)

func TestShareHandler_Page(t *testing.T) {
	env := newTestEnv(t)
	handler := NewShareHandler(env.cfg, env.service, zap.NewNop())

	req := requestWithChiParams(httptest.NewRequest("GET", "/share/"+testCollectionID, nil),
		map[string]string{"id": testCollectionID})
	recorder := httptest.NewRecorder()
	handler.Page(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, "text/html; charset=utf-8")

	body := recorder.Body.String()
	for _, want := range []string{
		`<meta property="og:title" content="Wedding">`,
		`<meta property="og:description" content="June 2026">`,
		`<meta property="og:url" content="https://snapx.example.com/collections/` + testCollectionID + `">`,
		`<meta property="og:image" content="` + strings.Split(constants.SharePlaceholderImage, "?")[0],
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %s\n%s", want, body)
		}
	}
}

func TestShareHandler_EscapesCollectionText(t *testing.T) {
	env := newTestEnv(t)
	const id = "11111111-2222-4333-8444-555555555555"
	env.store.AddCollection(database.Collection{
		ID:            id,
		Name:          `"><script>alert(1)</script>`,
		OwnerID:       testOwnerID,
		CoverImageURL: "https://cdn.example.com/covers/x.png",
	})
	handler := NewShareHandler(env.cfg, env.service, zap.NewNop())

	req := requestWithChiParams(httptest.NewRequest("GET", "/share/"+id, nil), map[string]string{"id": id})
	recorder := httptest.NewRecorder()
	handler.Page(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	body := recorder.Body.String()
	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Error("collection name was not escaped")
	}
	if !strings.Contains(body, "View event gallery on SnapX") {
		t.Error("expected default description")
	}
	if !strings.Contains(body, `content="https://cdn.example.com/covers/x.png"`) {
		t.Error("expected cover image in preview")
	}
}

func TestShareHandler_NotFound(t *testing.T) {
	env := newTestEnv(t)
	handler := NewShareHandler(env.cfg, env.service, zap.NewNop())

	req := requestWithChiParams(httptest.NewRequest("GET", "/share/nope", nil), map[string]string{"id": "nope"})
	recorder := httptest.NewRecorder()
	handler.Page(recorder, req)

	assertStatusCode(t, recorder, http.StatusNotFound)
}
