package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kozaktomas/snapx/internal/snaperrors"
)

func TestHealthCheck(t *testing.T) {
	recorder := httptest.NewRecorder()
	HealthCheck(recorder, httptest.NewRequest("GET", "/api/v1/health", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, "application/json")

	var result map[string]string
	parseJSONResponse(t, recorder, &result)
	if result["status"] != "ok" {
		t.Errorf("expected status 'ok', got '%s'", result["status"])
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", snaperrors.NewInvalidInputError("name", "name is required"), http.StatusBadRequest},
		{"forbidden", snaperrors.NewForbiddenError(""), http.StatusForbidden},
		{"not found", snaperrors.NewNotFoundError("collection", ""), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("loading: %w", snaperrors.ErrNotFound), http.StatusNotFound},
		{"upstream", snaperrors.NewUpstreamError("list images", errors.New("boom")), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusForError(tt.err); got != tt.want {
				t.Errorf("statusForError() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRespondServiceError_HidesInternalDetails(t *testing.T) {
	recorder := httptest.NewRecorder()
	respondServiceError(recorder, zap.NewNop(), snaperrors.NewUpstreamError("query", errors.New("password=hunter2")))

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	assertJSONError(t, recorder, "internal server error")
}

func TestSanitizeForLog(t *testing.T) {
	if got := sanitizeForLog("a\nb\rc"); got != "abc" {
		t.Errorf("sanitizeForLog() = %q, want %q", got, "abc")
	}
}
