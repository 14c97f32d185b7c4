package domain

import "time"

// User roles.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
	RoleVendor   = "vendor"
)

// ValidRole reports whether role is one of the known role names.
func ValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleAdmin, RoleVendor:
		return true
	}
	return false
}

// Avatar is a reference to a blob-stored profile image. Key is the object
// key used to delete the blob; it is empty for externally hosted images
// adopted from an OAuth provider.
type Avatar struct {
	URL string `json:"url" dynamodbav:"url"`
	Key string `json:"-" dynamodbav:"key"`
}

type User struct {
	UserID       string  `json:"id" dynamodbav:"user_id"`
	Username     string  `json:"username" dynamodbav:"username"`
	Email        string  `json:"email" dynamodbav:"email"`
	Phone        *string `json:"phone,omitempty" dynamodbav:"phone"`
	PasswordHash string  `json:"-" dynamodbav:"password_hash"`
	Role         string  `json:"role" dynamodbav:"role"`
	FirstName    string  `json:"first_name" dynamodbav:"first_name"`
	LastName     string  `json:"last_name" dynamodbav:"last_name"`
	Avatar       *Avatar `json:"avatar,omitempty" dynamodbav:"avatar"`

	Addresses []Address `json:"addresses,omitempty" dynamodbav:"addresses"`

	IsEmailVerified           bool       `json:"is_email_verified" dynamodbav:"is_email_verified"`
	VerificationCode          string     `json:"-" dynamodbav:"verification_code"`
	VerificationCodeExpiresAt *time.Time `json:"-" dynamodbav:"verification_code_expires_at"`

	IsTwoFactorEnabled  bool   `json:"is_two_factor_enabled" dynamodbav:"is_two_factor_enabled"`
	TwoFactorSecret     string `json:"-" dynamodbav:"two_factor_secret"`
	TwoFactorTempSecret string `json:"-" dynamodbav:"two_factor_temp_secret"`

	// omitempty keeps unlinked users out of the provider-ID GSIs, whose
	// key attributes reject empty strings.
	GoogleID   string `json:"-" dynamodbav:"google_id,omitempty"`
	FacebookID string `json:"-" dynamodbav:"facebook_id,omitempty"`

	IsActive  bool       `json:"is_active" dynamodbav:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty" dynamodbav:"last_login"`
	CreatedAt time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// HasPassword reports whether the account carries a password credential.
// OAuth-only accounts have none and skip current-password re-entry checks.
func (u *User) HasPassword() bool { return u.PasswordHash != "" }

type RegisterRequest struct {
	Username  string  `json:"username" validate:"required,alphanum,min=3,max=30"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=6,max=72"`
	FirstName string  `json:"first_name" validate:"required,min=2"`
	LastName  string  `json:"last_name" validate:"required,min=2"`
	Phone     *string `json:"phone" validate:"omitempty,e164"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=2"`
	LastName  *string `json:"last_name" validate:"omitempty,min=2"`
	Phone     *string `json:"phone" validate:"omitempty,e164"`
}
