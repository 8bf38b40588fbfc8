package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/recipenav/recipenav/internal/logging"
	"github.com/recipenav/recipenav/internal/storage"
)

// UploadHandler serves stored recipe images when the local storage backend
// is active. With an object store the image reference is already a public
// URL and this endpoint goes unused.
type UploadHandler struct {
	Images storage.ImageOpener
}

// Serve handles GET /uploads/{file}.
func (h UploadHandler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.Images == nil {
		http.NotFound(w, r)
		return
	}

	name := r.PathValue("file")
	f, err := h.Images.Open(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		logging.FromContext(ctx).Error("open stored image", "error", err, "file", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	if ctype := mime.TypeByExtension(filepath.Ext(name)); ctype != "" {
		w.Header().Set("Content-Type", ctype)
	}

	if _, err := io.Copy(w, f); err != nil {
		logging.FromContext(ctx).Warn("stream stored image", "error", err, "file", name)
	}
}
