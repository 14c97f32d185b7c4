package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shop-accounts-api/internal/domain"
	"github.com/shop-accounts-api/internal/pkg/id"
)

func (s *service) LoginWithGoogle(ctx context.Context, idToken string) (*LoginResult, error) {
	if s.google == nil {
		return nil, fmt.Errorf("google login not configured: %w", domain.ErrConfiguration)
	}
	profile, err := s.google.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return s.handleOAuth(ctx, profile)
}

func (s *service) LoginWithFacebook(ctx context.Context, accessToken string) (*LoginResult, error) {
	if s.facebook == nil {
		return nil, fmt.Errorf("facebook login not configured: %w", domain.ErrConfiguration)
	}
	profile, err := s.facebook.Verify(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return s.handleOAuth(ctx, profile)
}

// handleOAuth resolves a verified provider profile to a local account:
// match on provider ID first, then on email (linking the provider ID),
// and finally create a fresh account. A profile without an email address
// is rejected up front. Provider-asserted emails count as verified.
func (s *service) handleOAuth(ctx context.Context, profile *domain.OAuthProfile) (*LoginResult, error) {
	if profile.Email == "" {
		return nil, fmt.Errorf("provider did not share an email address: %w", domain.ErrBadRequest)
	}

	u, err := s.lookupByProvider(ctx, profile)
	if err != nil {
		return nil, err
	}

	if u == nil {
		existing, err := s.users.GetByEmail(ctx, normalizeEmail(profile.Email))
		if err == nil {
			if err := s.linkProvider(ctx, existing, profile); err != nil {
				return nil, err
			}
			u = existing
		}
	}

	if u == nil {
		created, err := s.createFromProfile(ctx, profile)
		if err != nil {
			return nil, err
		}
		u = created
	}

	if !u.IsActive {
		return nil, fmt.Errorf("account deactivated: %w", domain.ErrForbidden)
	}
	if u.IsTwoFactorEnabled {
		return &LoginResult{TwoFactorRequired: true, UserID: u.UserID}, nil
	}
	return s.completeLogin(ctx, u)
}

func (s *service) lookupByProvider(ctx context.Context, profile *domain.OAuthProfile) (*domain.User, error) {
	var (
		u   *domain.User
		err error
	)
	switch profile.Provider {
	case domain.ProviderGoogle:
		u, err = s.users.GetByGoogleID(ctx, profile.ExternalID)
	case domain.ProviderFacebook:
		u, err = s.users.GetByFacebookID(ctx, profile.ExternalID)
	default:
		return nil, fmt.Errorf("unknown oauth provider %q: %w", profile.Provider, domain.ErrBadRequest)
	}
	if err != nil {
		// "not linked yet" falls through to the email match; anything
		// else must not, or a store outage mints a duplicate account.
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func (s *service) linkProvider(ctx context.Context, u *domain.User, profile *domain.OAuthProfile) error {
	updates := map[string]interface{}{
		"is_email_verified": true,
	}
	switch profile.Provider {
	case domain.ProviderGoogle:
		updates["google_id"] = profile.ExternalID
		u.GoogleID = profile.ExternalID
	case domain.ProviderFacebook:
		updates["facebook_id"] = profile.ExternalID
		u.FacebookID = profile.ExternalID
	}
	if u.Avatar == nil && profile.AvatarURL != "" {
		avatar := &domain.Avatar{URL: profile.AvatarURL}
		updates["avatar"] = avatar
		u.Avatar = avatar
	}
	u.IsEmailVerified = true
	return s.users.Update(ctx, u.UserID, updates)
}

func (s *service) createFromProfile(ctx context.Context, profile *domain.OAuthProfile) (*domain.User, error) {
	username, err := s.uniqueUsername(ctx, profile.Email)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u := &domain.User{
		UserID:          id.New(),
		Username:        username,
		Email:           normalizeEmail(profile.Email),
		Role:            domain.RoleCustomer,
		FirstName:       profile.FirstName,
		LastName:        profile.LastName,
		IsEmailVerified: true,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if profile.AvatarURL != "" {
		u.Avatar = &domain.Avatar{URL: profile.AvatarURL}
	}
	switch profile.Provider {
	case domain.ProviderGoogle:
		u.GoogleID = profile.ExternalID
	case domain.ProviderFacebook:
		u.FacebookID = profile.ExternalID
	}
	if err := s.users.Put(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// uniqueUsername derives a username from the email local part, keeping
// only lowercase letters and digits, then probes for collisions.
func (s *service) uniqueUsername(ctx context.Context, email string) (string, error) {
	local := normalizeEmail(email)
	if at := strings.Index(local, "@"); at >= 0 {
		local = local[:at]
	}
	var b strings.Builder
	for _, r := range local {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	base := b.String()
	if base == "" {
		base = "user"
	}

	candidate := base
	for i := 1; i <= 50; i++ {
		if _, err := s.users.GetByUsername(ctx, candidate); err != nil {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
	return "", fmt.Errorf("could not allocate a unique username for %s: %w", email, domain.ErrConflict)
}
