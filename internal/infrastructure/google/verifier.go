package google

import (
	"context"
	"fmt"

	"github.com/shop-accounts-api/internal/domain"
	"google.golang.org/api/idtoken"
)

// Verifier verifies Google ID tokens against a specific client ID.
type Verifier struct {
	clientID string
}

func NewVerifier(clientID string) *Verifier {
	return &Verifier{clientID: clientID}
}

// Verify validates the Google ID token and returns the profile claims.
// Returns a domain.ErrUnauthorized-wrapped error if the token is invalid.
func (v *Verifier) Verify(ctx context.Context, token string) (*domain.OAuthProfile, error) {
	p, err := idtoken.Validate(ctx, token, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("invalid google token: %w", domain.ErrUnauthorized)
	}
	email, _ := p.Claims["email"].(string)
	firstName, _ := p.Claims["given_name"].(string)
	lastName, _ := p.Claims["family_name"].(string)
	picture, _ := p.Claims["picture"].(string)
	return &domain.OAuthProfile{
		Provider:   domain.ProviderGoogle,
		ExternalID: p.Subject,
		Email:      email,
		FirstName:  firstName,
		LastName:   lastName,
		AvatarURL:  picture,
	}, nil
}
