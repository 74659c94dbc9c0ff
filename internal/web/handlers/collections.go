package handlers

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kozaktomas/snapx/internal/config"
	"github.com/kozaktomas/snapx/internal/constants"
	"github.com/kozaktomas/snapx/internal/gallery"
)

// CollectionsHandler handles collection endpoints
type CollectionsHandler struct {
	config  *config.Config
	service *gallery.Service
	log     *zap.Logger
}

// NewCollectionsHandler creates a new collections handler
func NewCollectionsHandler(cfg *config.Config, svc *gallery.Service, log *zap.Logger) *CollectionsHandler {
	return &CollectionsHandler{
		config:  cfg,
		service: svc,
		log:     log,
	}
}

// CreateCollectionRequest is the JSON form of a create request
type CreateCollectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create creates a collection from a multipart form (name, description,
// cover) or a JSON body without a cover.
func (h *CollectionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxCollectionBodySize)

	var in gallery.CreateCollectionInput
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(constants.MaxCollectionBodySize); err != nil {
			respondError(w, http.StatusBadRequest, "failed to parse multipart form")
			return
		}
		defer r.MultipartForm.RemoveAll()

		in.Name = r.FormValue("name")
		in.Description = r.FormValue("description")
		if covers := r.MultipartForm.File[constants.CoverFormField]; len(covers) > 0 {
			cover := gallery.FileHeaderUpload(covers[0])
			in.Cover = &cover
		}
	} else {
		var req CreateCollectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, errInvalidRequestBody)
			return
		}
		in.Name = req.Name
		in.Description = req.Description
	}

	c, err := h.service.CreateCollection(r.Context(), gallery.PrincipalFrom(r.Context()), in)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, h.collectionToResponse(c))
}

// List returns the caller's collections, newest first
func (h *CollectionsHandler) List(w http.ResponseWriter, r *http.Request) {
	collections, err := h.service.ListCollections(r.Context(), gallery.PrincipalFrom(r.Context()))
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	result := make([]CollectionResponse, 0, len(collections))
	for _, c := range collections {
		resp := h.collectionToResponse(&c.Collection)
		count := c.ImageCount
		resp.ImageCount = &count
		result = append(result, resp)
	}
	respondJSON(w, http.StatusOK, result)
}

// Get returns public collection metadata
func (h *CollectionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetCollection(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, h.collectionToResponse(c))
}

// Delete removes a collection with all of its images
func (h *CollectionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.DeleteCollection(r.Context(), gallery.PrincipalFrom(r.Context()), id); err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "collection deleted"})
}
