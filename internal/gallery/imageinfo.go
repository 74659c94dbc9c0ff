package gallery

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/kozaktomas/snapx/internal/snaperrors"
)

// imageFormats maps decoder names to the stored content type and file extension.
var imageFormats = map[string]struct {
	contentType string
	ext         string
}{
	"jpeg": {"image/jpeg", ".jpg"},
	"png":  {"image/png", ".png"},
	"gif":  {"image/gif", ".gif"},
	"webp": {"image/webp", ".webp"},
	"bmp":  {"image/bmp", ".bmp"},
	"tiff": {"image/tiff", ".tiff"},
}

type imageInfo struct {
	ContentType string
	Ext         string
	Width       int
	Height      int
}

// probeImage reads only the image header to detect the format and dimensions.
func probeImage(r io.Reader) (imageInfo, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return imageInfo{}, snaperrors.NewInvalidInputError("images", "not a supported image")
	}
	f, ok := imageFormats[format]
	if !ok {
		return imageInfo{}, snaperrors.NewInvalidInputError("images", fmt.Sprintf("unsupported image format %q", format))
	}
	return imageInfo{
		ContentType: f.contentType,
		Ext:         f.ext,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}
