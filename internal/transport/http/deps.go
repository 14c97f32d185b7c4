package http

import (
	"context"
	"log/slog"

	"github.com/shop-accounts-api/internal/domain"
	"github.com/shop-accounts-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/shop-accounts-api/internal/infrastructure/jwt"
	rediskv "github.com/shop-accounts-api/internal/infrastructure/redis"
	s3infra "github.com/shop-accounts-api/internal/infrastructure/s3"
	"github.com/shop-accounts-api/internal/infrastructure/smtp"
	"github.com/shop-accounts-api/internal/infrastructure/sns"
)

// OAuthVerifier resolves a provider token into profile claims.
type OAuthVerifier interface {
	Verify(ctx context.Context, token string) (*domain.OAuthProfile, error)
}

// Deps holds all infrastructure dependencies for the router. Google and
// Facebook may be nil when the provider is not configured; the matching
// login endpoints then answer with a configuration error.
type Deps struct {
	UserRepo    *dynamo.UserRepo
	RefreshRepo *dynamo.RefreshTokenRepo
	AuthState   *rediskv.AuthState
	Mailer      smtp.Mailer
	SMSSender   sns.SMSSender
	JWTProvider *jwtinfra.Provider
	AvatarStore *s3infra.AvatarStore
	Google      OAuthVerifier
	Facebook    OAuthVerifier
	Logger      *slog.Logger
}
