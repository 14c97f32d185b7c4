package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shop-accounts-api/internal/application/account"
	"github.com/shop-accounts-api/internal/domain"
	"github.com/shop-accounts-api/internal/pkg/validate"
	"github.com/shop-accounts-api/internal/transport/http/middleware"
)

// AddressHandler manages the caller's saved shipping addresses.
type AddressHandler struct {
	svc account.Service
}

func NewAddressHandler(svc account.Service) *AddressHandler {
	return &AddressHandler{svc: svc}
}

func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeErrorMsg(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	list, err := h.svc.ListAddresses(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "", list)
}

func (h *AddressHandler) Add(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeErrorMsg(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	req, ok := decodeAddress(w, r)
	if !ok {
		return
	}
	list, err := h.svc.AddAddress(r.Context(), claims.UserID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, "address added", list)
}

func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeErrorMsg(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	req, ok := decodeAddress(w, r)
	if !ok {
		return
	}
	list, err := h.svc.UpdateAddress(r.Context(), claims.UserID, chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "address updated", list)
}

func (h *AddressHandler) Remove(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeErrorMsg(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	list, err := h.svc.RemoveAddress(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "address removed", list)
}

func decodeAddress(w http.ResponseWriter, r *http.Request) (domain.AddressRequest, bool) {
	var req domain.AddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if err := validate.Struct(req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	return req, true
}
