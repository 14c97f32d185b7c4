package domain

// OAuth provider names. Used as the discriminator when linking external
// identities to a user record.
const (
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

// OAuthProfile is the narrow, verified identity an OAuth adapter hands to
// the account lifecycle. Adapters at the callback boundary are responsible
// for validating the provider token before constructing one.
type OAuthProfile struct {
	Provider   string
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
	AvatarURL  string
}
