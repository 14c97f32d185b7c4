package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shop-accounts-api/internal/config"
	"github.com/shop-accounts-api/internal/domain"
	"github.com/shop-accounts-api/internal/pkg/id"
)

// AccessClaims is the payload of a short-lived access token.
type AccessClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a rotating refresh token. Role is
// deliberately absent; it is re-read from the user record on rotation.
type RefreshClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Provider signs and verifies HS256 JWTs. Access and refresh tokens use
// independent secrets so a leaked refresh secret cannot mint access tokens.
type Provider struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewProvider(cfg *config.Config) *Provider {
	return &Provider{
		accessSecret:  []byte(cfg.JWTAccessSecret),
		refreshSecret: []byte(cfg.JWTRefreshSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
	}
}

// RefreshTTL exposes the refresh token lifetime so callers can stamp the
// matching expiry on the persisted record.
func (p *Provider) RefreshTTL() time.Duration { return p.refreshTTL }

func (p *Provider) SignAccess(userID, role string) (string, error) {
	if len(p.accessSecret) == 0 {
		return "", fmt.Errorf("jwt access secret not set: %w", domain.ErrConfiguration)
	}
	now := time.Now()
	claims := AccessClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(p.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.accessSecret)
}

// SignRefresh returns the signed refresh token together with its expiry
// so the caller can persist a matching record.
func (p *Provider) SignRefresh(userID string) (string, time.Time, error) {
	if len(p.refreshSecret) == 0 {
		return "", time.Time{}, fmt.Errorf("refresh token secret not set: %w", domain.ErrConfiguration)
	}
	now := time.Now()
	expiresAt := now.Add(p.refreshTTL)
	claims := RefreshClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti makes every refresh token unique even within one
			// second, so a rotated token never equals its predecessor.
			ID:        id.New(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.refreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (p *Provider) VerifyAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := p.verify(tokenStr, claims, p.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (p *Provider) VerifyRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := p.verify(tokenStr, claims, p.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (p *Provider) verify(tokenStr string, claims jwt.Claims, secret []byte) error {
	if len(secret) == 0 {
		return fmt.Errorf("jwt secret not set: %w", domain.ErrConfiguration)
	}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return fmt.Errorf("invalid or expired token: %w", domain.ErrUnauthorized)
	}
	if !token.Valid {
		return fmt.Errorf("invalid token claims: %w", domain.ErrUnauthorized)
	}
	return nil
}
