// Package constants provides shared constants used across the codebase.
package constants

// Face matching constants
const (
	// DefaultEmbeddingDim is the descriptor length of the default face recognition model
	DefaultEmbeddingDim = 128

	// DefaultMatchThreshold is the default maximum euclidean distance for a face match
	// Lower values = stricter matching
	DefaultMatchThreshold = 0.6
)

// Ingestion constants
const (
	// DefaultMaxFilesPerUpload is the number of images accepted in one upload request
	DefaultMaxFilesPerUpload = 20

	// DefaultIngestWorkers is the number of files stored in parallel per upload request
	DefaultIngestWorkers = 4

	// CollectionObjectPrefix is the object storage prefix for collection images
	CollectionObjectPrefix = "collections"

	// CoverObjectPrefix is the object storage prefix for collection cover images
	CoverObjectPrefix = "covers"
)

// Collection constants
const (
	// MaxCollectionNameLength is the maximum collection name length in runes
	MaxCollectionNameLength = 200

	// MaxCollectionDescriptionLength is the maximum description length in runes
	MaxCollectionDescriptionLength = 2000

	// SharePlaceholderImage is used for share previews of collections without a cover
	SharePlaceholderImage = "https://via.placeholder.com/1200x630.png?text=SnapX+Event"
)
