package database

import (
	"time"
)

// Collection represents an event gallery owned by exactly one principal
type Collection struct {
	ID             string
	Name           string
	Description    string
	CoverImageURL  string // empty when no cover was uploaded
	CoverObjectKey string
	OwnerID        string
	CreatedAt      time.Time
}

// Image represents one uploaded photo together with the face embeddings
// extracted from it at ingestion time. Images are never updated.
type Image struct {
	ID             string
	CollectionID   string
	URL            string // opaque reference to the stored bytes
	ObjectKey      string // key in object storage, used for cleanup
	ContentType    string
	Width          int
	Height         int
	FaceEmbeddings [][]float32 // one entry per detected face, may be empty
	CreatedAt      time.Time
}

// FaceCount returns the number of faces detected in the image.
func (i *Image) FaceCount() int {
	return len(i.FaceEmbeddings)
}
