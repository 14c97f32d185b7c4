package facebook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shop-accounts-api/internal/domain"
)

const graphURL = "https://graph.facebook.com/v19.0/me"

// Verifier resolves a Facebook user access token into profile claims
// via the Graph API. Requests carry an appsecret_proof so that tokens
// stolen from the client cannot be replayed against our app.
type Verifier struct {
	appSecret string
	client    *http.Client
}

func NewVerifier(appSecret string) *Verifier {
	return &Verifier{
		appSecret: appSecret,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type graphProfile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Picture   struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

// Verify validates the Facebook access token and returns the profile claims.
// Returns a domain.ErrUnauthorized-wrapped error if the token is invalid.
func (v *Verifier) Verify(ctx context.Context, token string) (*domain.OAuthProfile, error) {
	q := url.Values{}
	q.Set("fields", "id,email,first_name,last_name,picture.type(large)")
	q.Set("access_token", token)
	q.Set("appsecret_proof", v.proof(token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, graphURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build facebook request: %w", err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: facebook graph api: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("invalid facebook token: %w", domain.ErrUnauthorized)
	}

	var p graphProfile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: decode facebook profile: %v", domain.ErrUpstream, err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("invalid facebook token: %w", domain.ErrUnauthorized)
	}
	return &domain.OAuthProfile{
		Provider:   domain.ProviderFacebook,
		ExternalID: p.ID,
		Email:      p.Email,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		AvatarURL:  p.Picture.Data.URL,
	}, nil
}

func (v *Verifier) proof(token string) string {
	mac := hmac.New(sha256.New, []byte(v.appSecret))
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}
