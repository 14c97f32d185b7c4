package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shop-accounts-api/internal/application/account"
	"github.com/shop-accounts-api/internal/domain"
	"github.com/shop-accounts-api/internal/pkg/validate"
	"github.com/shop-accounts-api/internal/transport/http/middleware"
)

// UserHandler handles profile and account lifecycle endpoints.
type UserHandler struct {
	svc     account.Service
	cookies CookieConfig
}

func NewUserHandler(svc account.Service, cookies CookieConfig) *UserHandler {
	return &UserHandler{svc: svc, cookies: cookies}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeErrorMsg(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	u, err := h.svc.GetProfile(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "", u)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeErrorMsg(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	u, err := h.svc.UpdateProfile(r.Context(), claims.UserID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "profile updated", u)
}

// List returns a page of active users. Admin only.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	cursor := r.URL.Query().Get("cursor")
	users, next, err := h.svc.ListUsers(r.Context(), limit, cursor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "", map[string]interface{}{
		"users":       users,
		"next_cursor": next,
	})
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeErrorMsg(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req account.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	pair, err := h.svc.ChangePassword(r.Context(), claims.UserID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	setAuthCookies(w, h.cookies, pair)
	writeOK(w, http.StatusOK, "password changed", pair)
}

func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeErrorMsg(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req account.DeleteAccountRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if err := h.svc.DeleteAccount(r.Context(), claims.UserID, req); err != nil {
		writeError(w, err)
		return
	}
	clearAuthCookies(w, h.cookies)
	writeOK(w, http.StatusOK, "account deactivated, check your email to restore it within 30 days", nil)
}

// RestoreAccount is public: the caller proves ownership with the emailed
// restore token.
func (h *UserHandler) RestoreAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.RestoreAccount(r.Context(), req.Token); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "account restored, you can log in again", nil)
}
