package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kozaktomas/snapx/internal/config"
	"github.com/kozaktomas/snapx/internal/constants"
	"github.com/kozaktomas/snapx/internal/gallery"
)

// multipartMemory is the part of an upload kept in memory, the rest spills to temp files.
const multipartMemory = 32 << 20

// ImagesHandler handles image upload and listing endpoints
type ImagesHandler struct {
	config  *config.Config
	service *gallery.Service
	log     *zap.Logger
}

// NewImagesHandler creates a new images handler
func NewImagesHandler(cfg *config.Config, svc *gallery.Service, log *zap.Logger) *ImagesHandler {
	return &ImagesHandler{
		config:  cfg,
		service: svc,
		log:     log,
	}
}

// Upload ingests the files of a multipart request into a collection.
// Per-file failures are reported next to the created images.
func (h *ImagesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "id")
	principal := gallery.PrincipalFrom(r.Context())
	if err := h.service.AuthorizeIngest(r.Context(), principal, collectionID); err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	limit := h.config.Ingest.MaxUploadBytes
	if limit <= 0 {
		limit = constants.MaxUploadSize
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[constants.ImagesFormField]
	headers = append(headers, r.MultipartForm.File[constants.ImagesFormField+"[]"]...)
	files := make([]gallery.Upload, 0, len(headers))
	for _, fh := range headers {
		files = append(files, gallery.FileHeaderUpload(fh))
	}

	result, err := h.service.Ingest(r.Context(), principal, collectionID, files, r.FormValue(constants.EmbeddingsFormField))
	if err != nil && result == nil {
		respondServiceError(w, h.log, err)
		return
	}

	resp := ingestToResponse(result)
	if err != nil {
		status := statusForError(err)
		resp.Error = errorMessage(err, status)
		if status == http.StatusInternalServerError {
			h.log.Error("upload failed", zap.String("collection_id", sanitizeForLog(collectionID)), zap.Error(err))
		}
		respondJSON(w, status, resp)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

// List returns the images of a collection, newest first
func (h *ImagesHandler) List(w http.ResponseWriter, r *http.Request) {
	images, err := h.service.ListImages(r.Context(), gallery.PrincipalFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	result := make([]ImageResponse, 0, len(images))
	for _, img := range images {
		result = append(result, imageToResponse(img))
	}
	respondJSON(w, http.StatusOK, result)
}
