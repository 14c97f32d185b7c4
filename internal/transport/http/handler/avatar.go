package handler

import (
	"net/http"

	"github.com/shop-accounts-api/internal/application/account"
	"github.com/shop-accounts-api/internal/transport/http/middleware"
)

// maxAvatarBytes caps avatar uploads at 5 MiB.
const maxAvatarBytes = 5 << 20

var allowedAvatarTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// AvatarHandler manages the caller's profile image.
type AvatarHandler struct {
	svc account.Service
}

func NewAvatarHandler(svc account.Service) *AvatarHandler {
	return &AvatarHandler{svc: svc}
}

// Upload accepts a multipart form with an "avatar" file field.
func (h *AvatarHandler) Upload(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeErrorMsg(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes)
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid multipart form or file too large")
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "avatar file field is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedAvatarTypes[contentType] {
		writeErrorMsg(w, http.StatusBadRequest, "avatar must be a jpeg, png, or webp image")
		return
	}

	avatar, err := h.svc.UploadAvatar(r.Context(), claims.UserID, file, contentType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "avatar uploaded", avatar)
}

func (h *AvatarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeErrorMsg(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.DeleteAvatar(r.Context(), claims.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "avatar removed", nil)
}
