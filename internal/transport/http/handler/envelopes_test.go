package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shop-accounts-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestStatusFromErr(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("bad input: %w", domain.ErrBadRequest), http.StatusBadRequest},
		{fmt.Errorf("who are you: %w", domain.ErrUnauthorized), http.StatusUnauthorized},
		{fmt.Errorf("not yours: %w", domain.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("gone: %w", domain.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("taken: %w", domain.ErrConflict), http.StatusConflict},
		{fmt.Errorf("slow down: %w", domain.ErrRateLimited), http.StatusTooManyRequests},
		{fmt.Errorf("s3 sneezed: %w", domain.ErrUpstream), http.StatusBadGateway},
		{fmt.Errorf("something else"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFromErr(tc.err), "error: %v", tc.err)
	}
}

func TestWriteErrorSetsRetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, &domain.RateLimitedError{RetryAfter: 90 * time.Second})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "90", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestWriteOKEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeOK(rec, http.StatusCreated, "created", map[string]string{"id": "u1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true,"message":"created","data":{"id":"u1"}}`, rec.Body.String())
}
