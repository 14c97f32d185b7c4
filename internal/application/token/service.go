package token

import (
	"context"
	"fmt"
	"time"

	"github.com/shop-accounts-api/internal/domain"
	jwtinfra "github.com/shop-accounts-api/internal/infrastructure/jwt"
)

// Pair is one access/refresh token pair issued to a user.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Service interface {
	Issue(ctx context.Context, userID, role string) (*Pair, error)
	Rotate(ctx context.Context, refreshToken string) (*Pair, error)
	Revoke(ctx context.Context, refreshToken string) error
	RevokeAll(ctx context.Context, userID string) error
	VerifyAccess(tokenString string) (*jwtinfra.AccessClaims, error)
}

type refreshStore interface {
	Put(ctx context.Context, rec *domain.RefreshTokenRecord) error
	Get(ctx context.Context, token string) (*domain.RefreshTokenRecord, error)
	Delete(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type signer interface {
	SignAccess(userID, role string) (string, error)
	SignRefresh(userID string) (string, time.Time, error)
	VerifyAccess(tokenString string) (*jwtinfra.AccessClaims, error)
	VerifyRefresh(tokenString string) (*jwtinfra.RefreshClaims, error)
}

type service struct {
	refreshRepo refreshStore
	userRepo    userStore
	provider    signer
}

func NewService(refreshRepo refreshStore, userRepo userStore, provider signer) Service {
	return &service{refreshRepo: refreshRepo, userRepo: userRepo, provider: provider}
}

// Issue signs a new access/refresh pair and records the refresh token so
// it can later be rotated or revoked.
func (s *service) Issue(ctx context.Context, userID, role string) (*Pair, error) {
	access, err := s.provider.SignAccess(userID, role)
	if err != nil {
		return nil, err
	}
	refresh, expiresAt, err := s.provider.SignRefresh(userID)
	if err != nil {
		return nil, err
	}
	rec := &domain.RefreshTokenRecord{
		Token:     refresh,
		UserID:    userID,
		ExpiresAt: expiresAt.Unix(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.refreshRepo.Put(ctx, rec); err != nil {
		return nil, err
	}
	return &Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Rotate trades a valid refresh token for a fresh pair. The presented
// token is deleted before the new pair is issued, so each refresh token
// can be used exactly once.
func (s *service) Rotate(ctx context.Context, refreshToken string) (*Pair, error) {
	claims, err := s.provider.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	rec, err := s.refreshRepo.Get(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh token revoked: %w", domain.ErrUnauthorized)
	}
	if rec.ExpiresAt < time.Now().Unix() {
		_ = s.refreshRepo.Delete(ctx, refreshToken)
		return nil, fmt.Errorf("refresh token expired: %w", domain.ErrUnauthorized)
	}
	u, err := s.userRepo.Get(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("refresh token owner not found: %w", domain.ErrUnauthorized)
	}
	if !u.IsActive {
		return nil, fmt.Errorf("account deactivated: %w", domain.ErrForbidden)
	}
	if err := s.refreshRepo.Delete(ctx, refreshToken); err != nil {
		return nil, err
	}
	return s.Issue(ctx, u.UserID, u.Role)
}

func (s *service) Revoke(ctx context.Context, refreshToken string) error {
	return s.refreshRepo.Delete(ctx, refreshToken)
}

// RevokeAll invalidates every outstanding refresh token for the user.
// Used after password changes and account deletion.
func (s *service) RevokeAll(ctx context.Context, userID string) error {
	return s.refreshRepo.DeleteByUser(ctx, userID)
}

func (s *service) VerifyAccess(tokenString string) (*jwtinfra.AccessClaims, error) {
	return s.provider.VerifyAccess(tokenString)
}
