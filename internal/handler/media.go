package handler

import (
	"errors"
	"net/http"
	"strings"

	"postshare/internal/httputil"
	"postshare/internal/model"
	"postshare/internal/service"
	"postshare/internal/transport/http/middleware"
)

type MediaHandler struct {
	mediaService *service.MediaService
}

func NewMediaHandler(mediaService *service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// UploadPostImage handles POST /api/media/posts
// Accepts a multipart image, normalizes it, stores it in R2 and returns
// the public URL to use as a post's image_url.
func (h *MediaHandler) UploadPostImage(w http.ResponseWriter, r *http.Request) {
	if middleware.GetIdentityFromContext(r.Context()) == nil {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	maxFormSize := int64(model.MaxImageSizeBytes) + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
			return
		}
		if strings.Contains(err.Error(), "request body too large") {
			httputil.WriteError(w, http.StatusBadRequest, httputil.ErrCodeFileTooLarge, "Image exceeds 10MB limit")
			return
		}
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		httputil.WriteBadRequest(w, "image file is required")
		return
	}
	defer file.Close()

	res, err := h.mediaService.UploadPostImage(r.Context(), file, header)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrFileTooLarge):
			httputil.WriteError(w, http.StatusBadRequest, httputil.ErrCodeFileTooLarge, "Image exceeds 10MB limit")
		case errors.Is(err, model.ErrInvalidImageType):
			httputil.WriteError(w, http.StatusBadRequest, httputil.ErrCodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp")
		default:
			httputil.WriteInternalError(w, "Failed to upload image")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}
