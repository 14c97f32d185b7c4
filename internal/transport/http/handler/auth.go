package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shop-accounts-api/internal/application/auth"
	"github.com/shop-accounts-api/internal/application/token"
	"github.com/shop-accounts-api/internal/domain"
	"github.com/shop-accounts-api/internal/pkg/validate"
	"github.com/shop-accounts-api/internal/transport/http/middleware"
)

// RefreshTokenCookie is where browser clients carry the refresh token.
const RefreshTokenCookie = "refresh_token"

// CookieConfig controls the auth cookies set for browser clients. Tokens
// are also returned in the response body for non-browser consumers.
type CookieConfig struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// AuthHandler handles registration, login, and credential recovery.
type AuthHandler struct {
	svc     auth.Service
	cookies CookieConfig
}

func NewAuthHandler(svc auth.Service, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{svc: svc, cookies: cookies}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	u, err := h.svc.Register(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, "registration successful, check your email for the verification code", u)
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	u, err := h.svc.VerifyEmail(r.Context(), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "email verified", u)
}

func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	err := h.svc.ResendVerification(r.Context(), req.Email)
	// the response never reveals whether the address is registered
	if err != nil && !errors.Is(err, domain.ErrConflict) {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "if the address is registered, a verification code has been sent", nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.Login(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	h.respondLogin(w, res)
}

func (h *AuthHandler) Verify2FA(w http.ResponseWriter, r *http.Request) {
	var req auth.Verify2FARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.Verify2FALogin(r.Context(), req.UserID, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	h.respondLogin(w, res)
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "if the address is registered, a password reset link has been sent", nil)
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req auth.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "password has been reset, please log in again", nil)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refresh := h.refreshToken(r)
	if refresh == "" {
		writeErrorMsg(w, http.StatusUnauthorized, "missing refresh token")
		return
	}
	pair, err := h.svc.Refresh(r.Context(), refresh)
	if err != nil {
		h.clearAuthCookies(w)
		writeError(w, err)
		return
	}
	h.setAuthCookies(w, pair)
	writeOK(w, http.StatusOK, "tokens refreshed", pair)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context(), h.refreshToken(r)); err != nil {
		writeError(w, err)
		return
	}
	h.clearAuthCookies(w)
	writeOK(w, http.StatusOK, "logged out", nil)
}

func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken string `json:"idToken" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.LoginWithGoogle(r.Context(), req.IDToken)
	if err != nil {
		writeError(w, err)
		return
	}
	h.respondLogin(w, res)
}

func (h *AuthHandler) FacebookLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccessToken string `json:"accessToken" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.LoginWithFacebook(r.Context(), req.AccessToken)
	if err != nil {
		writeError(w, err)
		return
	}
	h.respondLogin(w, res)
}

func (h *AuthHandler) respondLogin(w http.ResponseWriter, res *auth.LoginResult) {
	if res.TwoFactorRequired {
		writeOK(w, http.StatusOK, "two-factor code required", res)
		return
	}
	h.setAuthCookies(w, res.Tokens)
	writeOK(w, http.StatusOK, "login successful", res)
}

func (h *AuthHandler) refreshToken(r *http.Request) string {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.RefreshToken != "" {
		return req.RefreshToken
	}
	if c, err := r.Cookie(RefreshTokenCookie); err == nil {
		return c.Value
	}
	return ""
}

func (h *AuthHandler) setAuthCookies(w http.ResponseWriter, pair *token.Pair) {
	setAuthCookies(w, h.cookies, pair)
}

func (h *AuthHandler) clearAuthCookies(w http.ResponseWriter) {
	clearAuthCookies(w, h.cookies)
}

func setAuthCookies(w http.ResponseWriter, cfg CookieConfig, pair *token.Pair) {
	if pair == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(cfg.AccessTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/v1/auth",
		MaxAge:   int(cfg.RefreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearAuthCookies(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name: middleware.AccessTokenCookie, Value: "", Path: "/", MaxAge: -1,
		HttpOnly: true, Secure: cfg.Secure, SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name: RefreshTokenCookie, Value: "", Path: "/v1/auth", MaxAge: -1,
		HttpOnly: true, Secure: cfg.Secure, SameSite: http.SameSiteStrictMode,
	})
}
