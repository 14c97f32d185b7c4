package handler

import (
	"encoding/json"
	"net/http"

	"github.com/shop-accounts-api/internal/application/account"
	"github.com/shop-accounts-api/internal/pkg/validate"
	"github.com/shop-accounts-api/internal/transport/http/middleware"
)

// TwoFactorHandler manages TOTP enrollment on the caller's account.
type TwoFactorHandler struct {
	svc account.Service
}

func NewTwoFactorHandler(svc account.Service) *TwoFactorHandler {
	return &TwoFactorHandler{svc: svc}
}

// Enable starts enrollment and returns the otpauth URI plus a QR code the
// client renders for the authenticator app.
func (h *TwoFactorHandler) Enable(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeErrorMsg(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	enrollment, err := h.svc.Enable2FA(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "scan the QR code and confirm with a generated code", enrollment)
}

func (h *TwoFactorHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeErrorMsg(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		Code string `json:"code" validate:"required,len=6,numeric"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.Confirm2FA(r.Context(), claims.UserID, req.Code); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "two-factor authentication enabled", nil)
}

func (h *TwoFactorHandler) Disable(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeErrorMsg(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req account.Disable2FARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.Disable2FA(r.Context(), claims.UserID, req); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "two-factor authentication disabled", nil)
}
