package handlers

import (
	"net/http"
	"time"

	"github.com/kozaktomas/snapx/internal/database"
	"github.com/kozaktomas/snapx/internal/facematch"
	"github.com/kozaktomas/snapx/internal/gallery"
)

// CollectionResponse represents a collection in API responses
type CollectionResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	CoverImageURL string    `json:"cover_image_url,omitempty"`
	OwnerID       string    `json:"owner_id"`
	ShareURL      string    `json:"share_url"`
	CreatedAt     time.Time `json:"created_at"`
	ImageCount    *int      `json:"image_count,omitempty"`
}

// ImageResponse represents an image in owner listings and upload results
type ImageResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	FaceCount int       `json:"face_count"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
}

// MatchResponse is one find-my-photos result
type MatchResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	Distance  float64   `json:"distance"`
}

// FailureResponse describes a file that could not be ingested
type FailureResponse struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// IngestResponse is the result of an image upload
type IngestResponse struct {
	Error    string            `json:"error,omitempty"`
	Images   []ImageResponse   `json:"images"`
	Failures []FailureResponse `json:"failures"`
}

func (h *CollectionsHandler) collectionToResponse(c *database.Collection) CollectionResponse {
	return CollectionResponse{
		ID:            c.ID,
		Name:          c.Name,
		Description:   c.Description,
		CoverImageURL: c.CoverImageURL,
		OwnerID:       c.OwnerID,
		ShareURL:      h.config.Server.CollectionURL(c.ID),
		CreatedAt:     c.CreatedAt,
	}
}

func imageToResponse(img database.Image) ImageResponse {
	return ImageResponse{
		ID:        img.ID,
		URL:       img.URL,
		CreatedAt: img.CreatedAt,
		FaceCount: img.FaceCount(),
		Width:     img.Width,
		Height:    img.Height,
	}
}

func matchToResponse(m facematch.Match) MatchResponse {
	return MatchResponse{
		ID:        m.ImageID,
		URL:       m.URL,
		CreatedAt: m.CreatedAt,
		Distance:  m.Distance,
	}
}

func ingestToResponse(res *gallery.IngestResult) IngestResponse {
	out := IngestResponse{
		Images:   make([]ImageResponse, 0, len(res.Images)),
		Failures: make([]FailureResponse, 0, len(res.Failures)),
	}
	for _, img := range res.Images {
		out.Images = append(out.Images, imageToResponse(img))
	}
	for _, f := range res.Failures {
		msg := "failed to store image"
		if statusForError(f.Err) != http.StatusInternalServerError {
			msg = f.Err.Error()
		}
		out.Failures = append(out.Failures, FailureResponse{
			Index:    f.Index,
			Filename: f.Filename,
			Error:    msg,
		})
	}
	return out
}
