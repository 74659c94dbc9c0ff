package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kozaktomas/snapx/internal/constants"
	"github.com/kozaktomas/snapx/internal/gallery"
)

// MatchHandler handles the guest face search endpoint
type MatchHandler struct {
	service *gallery.Service
	log     *zap.Logger
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(svc *gallery.Service, log *zap.Logger) *MatchHandler {
	return &MatchHandler{service: svc, log: log}
}

// FindMyPhotosRequest carries the guest's face descriptor
type FindMyPhotosRequest struct {
	Descriptor []float64 `json:"descriptor"`
}

// FindMyPhotos returns the collection images containing the submitted face
func (h *MatchHandler) FindMyPhotos(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxQueryBodySize)

	var req FindMyPhotosRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	matches, err := h.service.FindMatches(r.Context(), chi.URLParam(r, "id"), req.Descriptor)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	result := make([]MatchResponse, 0, len(matches))
	for _, m := range matches {
		result = append(result, matchToResponse(m))
	}
	respondJSON(w, http.StatusOK, result)
}
