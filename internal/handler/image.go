package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/Camillus83/ImageUploadAPI/internal/middleware"
	"github.com/Camillus83/ImageUploadAPI/internal/utils"
)

// Upload accepts a multipart form with the image under "image_file".
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Public.MaxUploadSizeBytes)
	if err := r.ParseMultipartForm(h.cfg.Public.MaxUploadSizeBytes); err != nil {
		http.Error(w, "Upload too large or malformed", http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("image_file")
	if err != nil {
		http.Error(w, "Missing image_file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read upload", http.StatusBadRequest)
		return
	}

	result, err := h.images.Upload(user, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result)
}

func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	summaries, err := h.images.ListOwned(user)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, summaries)
}

func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := parseIntParam(mux.Vars(r)["id"], "image id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	summary, err := h.images.GetDetail(user, int64(id))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, summary)
}

func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := parseIntParam(mux.Vars(r)["id"], "image id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.images.Delete(user, int64(id)); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateExpiring(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := parseIntParam(mux.Vars(r)["id"], "image id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	type bodyJson struct {
		TimeToExpire int64 `validate:"required" json:"time_to_expire"`
	}
	var body bodyJson
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	expiring, err := h.expiry.Create(user, int64(id), body.TimeToExpire)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, map[string]string{"expiring_url": expiring.Url})
}

// parseIntParam parses an integer parameter and returns a meaningful error
func parseIntParam(param string, paramName string) (int, error) {
	val, err := strconv.Atoi(param)
	if err != nil {
		return 0, &paramError{paramName}
	}
	return val, nil
}

type paramError struct {
	name string
}

func (e *paramError) Error() string {
	return "invalid " + e.name + ": must be an integer"
}
