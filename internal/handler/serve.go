package handler

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Camillus83/ImageUploadAPI/internal/logger"
	"github.com/Camillus83/ImageUploadAPI/internal/utils"
)

// ServeImage streams an original's bytes by opaque token, passing through
// the stored content type.
func (h *Handler) ServeImage(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.images.ServeOriginal)
}

// ServeThumbnail streams a thumbnail's bytes by opaque token. Derived assets
// are always JPEG.
func (h *Handler) ServeThumbnail(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.images.ServeThumbnail)
}

// ServeExpiring streams the parent image of a live expiring link; expired
// links answer 410 and self-destruct.
func (h *Handler) ServeExpiring(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.expiry.Resolve)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, resolve func(token string) (io.ReadCloser, string, error)) {
	token := mux.Vars(r)["token"]

	rc, contentType, err := resolve(token)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	if _, err := io.Copy(w, rc); err != nil {
		// Headers are already written; just log the broken stream.
		logger.Log.Warn("failed to stream asset", "token", token, "error", err)
	}
}
