package gallery

import (
	"bytes"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// Upload is one file submitted for ingestion. Open may be called more than once.
type Upload struct {
	Filename string
	Size     int64 // -1 when unknown
	Open     func() (io.ReadCloser, error)
}

// FileHeaderUpload wraps a multipart file part.
func FileHeaderUpload(fh *multipart.FileHeader) Upload {
	return Upload{
		Filename: fh.Filename,
		Size:     fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// FileUpload wraps a file on disk.
func FileUpload(path string) (Upload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Upload{}, err
	}
	return Upload{
		Filename: filepath.Base(path),
		Size:     info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// BytesUpload wraps an in-memory file.
func BytesUpload(filename string, data []byte) Upload {
	return Upload{
		Filename: filename,
		Size:     int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}
