// Package constants provides shared constants used across the codebase.
package constants

// File upload constants
const (
	// MaxUploadSize is the default multipart memory limit in bytes (200MB)
	MaxUploadSize = 200 << 20

	// MaxQueryBodySize caps the JSON body of a find-my-photos request (1MB)
	MaxQueryBodySize = 1 << 20

	// MaxCollectionBodySize caps create-collection requests including the cover (20MB)
	MaxCollectionBodySize = 20 << 20
)

// Form field names used by the upload endpoints
const (
	// ImagesFormField holds the uploaded image files
	ImagesFormField = "images"

	// EmbeddingsFormField holds the JSON encoded embedding sets, one per file
	EmbeddingsFormField = "embeddings"

	// CoverFormField holds the optional collection cover image
	CoverFormField = "cover"
)
