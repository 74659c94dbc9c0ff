package handlers

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kozaktomas/snapx/internal/config"
	"github.com/kozaktomas/snapx/internal/constants"
	"github.com/kozaktomas/snapx/internal/gallery"
)

const defaultShareDescription = "View event gallery on SnapX"

var shareTemplate = template.Must(template.New("share").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}} | SnapX</title>
<meta property="og:type" content="website">
<meta property="og:url" content="{{.TargetURL}}">
<meta property="og:title" content="{{.Title}}">
<meta property="og:description" content="{{.Description}}">
<meta property="og:image" content="{{.ImageURL}}">
<meta name="twitter:card" content="summary_large_image">
<meta name="twitter:url" content="{{.TargetURL}}">
<meta name="twitter:title" content="{{.Title}}">
<meta name="twitter:description" content="{{.Description}}">
<meta name="twitter:image" content="{{.ImageURL}}">
<meta http-equiv="refresh" content="1;url={{.TargetURL}}">
<style>
body { font-family: system-ui, -apple-system, sans-serif; background: #0f172a; color: white; display: flex; flex-direction: column; align-items: center; justify-content: center; height: 100vh; margin: 0; }
a { color: #93c5fd; }
</style>
</head>
<body>
<p>Redirecting to <a href="{{.TargetURL}}">{{.Title}}</a>...</p>
</body>
</html>
`))

type sharePage struct {
	Title       string
	Description string
	ImageURL    string
	TargetURL   string
}

// ShareHandler renders link previews for collections
type ShareHandler struct {
	config  *config.Config
	service *gallery.Service
	log     *zap.Logger
}

// NewShareHandler creates a new share handler
func NewShareHandler(cfg *config.Config, svc *gallery.Service, log *zap.Logger) *ShareHandler {
	return &ShareHandler{config: cfg, service: svc, log: log}
}

// Page renders an HTML page with OpenGraph and Twitter tags that forwards
// the visitor to the collection in the web client.
func (h *ShareHandler) Page(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetCollection(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			h.log.Error("share page failed", zap.Error(err))
			http.Error(w, "server error", status)
			return
		}
		http.Error(w, "collection not found", http.StatusNotFound)
		return
	}

	page := sharePage{
		Title:       c.Name,
		Description: c.Description,
		ImageURL:    c.CoverImageURL,
		TargetURL:   h.config.Server.CollectionURL(c.ID),
	}
	if page.Description == "" {
		page.Description = defaultShareDescription
	}
	if page.ImageURL == "" {
		page.ImageURL = constants.SharePlaceholderImage
	}

	var buf bytes.Buffer
	if err := shareTemplate.Execute(&buf, page); err != nil {
		h.log.Error("rendering share page", zap.Error(err))
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
