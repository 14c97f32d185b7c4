package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shop-accounts-api/internal/application/token"
	"github.com/shop-accounts-api/internal/domain"
	"github.com/shop-accounts-api/internal/infrastructure/smtp"
	"github.com/shop-accounts-api/internal/pkg/id"
	pkgtoken "github.com/shop-accounts-api/internal/pkg/token"
)

const resetTokenBytes = 20

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Verify2FARequest struct {
	UserID string `json:"userId" validate:"required"`
	Code   string `json:"code" validate:"required,len=6,numeric"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72"`
}

// LoginResult is what a successful credential check produces. When the
// account has two-factor enabled, Tokens is nil and TwoFactorRequired is
// set; the client must follow up with the user's current OTP code.
type LoginResult struct {
	User              *domain.User `json:"user,omitempty"`
	Tokens            *token.Pair  `json:"tokens,omitempty"`
	TwoFactorRequired bool         `json:"twoFactorRequired,omitempty"`
	UserID            string       `json:"userId,omitempty"`
}

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)
	VerifyEmail(ctx context.Context, code string) (*domain.User, error)
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Verify2FALogin(ctx context.Context, userID, code string) (*LoginResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, rawToken, newPassword string) error
	Refresh(ctx context.Context, refreshToken string) (*token.Pair, error)
	Logout(ctx context.Context, refreshToken string) error
	LoginWithGoogle(ctx context.Context, idToken string) (*LoginResult, error)
	LoginWithFacebook(ctx context.Context, accessToken string) (*LoginResult, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error)
	GetByFacebookID(ctx context.Context, facebookID string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type authState interface {
	SetVerificationCode(ctx context.Context, email, code string) error
	GetEmailByVerificationCode(ctx context.Context, code string) (string, bool, error)
	DeleteVerificationCode(ctx context.Context, email string) error
	SetPasswordResetToken(ctx context.Context, tokenHash string, rec domain.PasswordResetRecord) error
	GetPasswordReset(ctx context.Context, tokenHash string) (*domain.PasswordResetRecord, bool, error)
	DeletePasswordResetToken(ctx context.Context, tokenHash string) error
	CheckFailedLoginAttempts(ctx context.Context, email string) error
	RecordFailedLogin(ctx context.Context, email string) error
	ClearFailedLoginAttempts(ctx context.Context, email string) error
	CheckFailed2FAAttempts(ctx context.Context, userID string) error
	RecordFailed2FAAttempt(ctx context.Context, userID string) error
	ClearFailed2FAAttempts(ctx context.Context, userID string) error
}

type passwordVault interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

type otpVerifier interface {
	Verify(secret, code string) bool
}

type oauthVerifier interface {
	Verify(ctx context.Context, token string) (*domain.OAuthProfile, error)
}

type service struct {
	users     userStore
	state     authState
	tokens    token.Service
	mail      smtp.Mailer
	vault     passwordVault
	otp       otpVerifier
	google    oauthVerifier
	facebook  oauthVerifier
	appName   string
	clientURL string
	log       *slog.Logger
}

type ServiceDeps struct {
	Users     userStore
	State     authState
	Tokens    token.Service
	Mailer    smtp.Mailer
	Vault     passwordVault
	OTP       otpVerifier
	Google    oauthVerifier
	Facebook  oauthVerifier
	AppName   string
	ClientURL string
	Logger    *slog.Logger
}

func NewService(deps ServiceDeps) Service {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &service{
		users:     deps.Users,
		state:     deps.State,
		tokens:    deps.Tokens,
		mail:      deps.Mailer,
		vault:     deps.Vault,
		otp:       deps.OTP,
		google:    deps.Google,
		facebook:  deps.Facebook,
		appName:   deps.AppName,
		clientURL: deps.ClientURL,
		log:       log,
	}
}

// Register creates an unverified account and emails the verification code.
func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	email := normalizeEmail(req.Email)
	username := normalizeUsername(req.Username)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("username already taken: %w", domain.ErrConflict)
	}

	hash, err := s.vault.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	code, err := pkgtoken.NewVerificationCode()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	expiry := now.Add(24 * time.Hour)
	u := &domain.User{
		UserID:                    id.New(),
		Username:                  username,
		Email:                     email,
		PasswordHash:              hash,
		Role:                      domain.RoleCustomer,
		FirstName:                 strings.TrimSpace(req.FirstName),
		LastName:                  strings.TrimSpace(req.LastName),
		Phone:                     req.Phone,
		VerificationCode:          code,
		VerificationCodeExpiresAt: &expiry,
		IsActive:                  true,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}
	if err := s.users.Put(ctx, u); err != nil {
		return nil, err
	}
	if err := s.state.SetVerificationCode(ctx, email, code); err != nil {
		s.log.Warn("storing verification code failed", "email", email, "error", err)
	}

	subject, body := smtp.VerificationEmail(s.appName, u.FirstName, code)
	if err := s.mail.SendEmail(email, subject, body); err != nil {
		s.log.Error("verification email failed", "email", email, "error", err)
	}
	return u, nil
}

// VerifyEmail consumes the verification code and marks the account verified.
func (s *service) VerifyEmail(ctx context.Context, code string) (*domain.User, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	email, ok, err := s.state.GetEmailByVerificationCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("invalid or expired verification code: %w", domain.ErrBadRequest)
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("invalid or expired verification code: %w", domain.ErrBadRequest)
	}
	if u.IsEmailVerified {
		return nil, fmt.Errorf("email already verified: %w", domain.ErrConflict)
	}
	if u.VerificationCode != code {
		return nil, fmt.Errorf("invalid or expired verification code: %w", domain.ErrBadRequest)
	}
	if u.VerificationCodeExpiresAt != nil && u.VerificationCodeExpiresAt.Before(time.Now()) {
		return nil, fmt.Errorf("invalid or expired verification code: %w", domain.ErrBadRequest)
	}

	if err := s.users.Update(ctx, u.UserID, map[string]interface{}{
		"is_email_verified":            true,
		"verification_code":            "",
		"verification_code_expires_at": nil,
	}); err != nil {
		return nil, err
	}
	if err := s.state.DeleteVerificationCode(ctx, email); err != nil {
		s.log.Warn("deleting verification code failed", "email", email, "error", err)
	}

	subject, body := smtp.WelcomeEmail(s.appName, u.FirstName)
	if err := s.mail.SendEmail(email, subject, body); err != nil {
		s.log.Error("welcome email failed", "email", email, "error", err)
	}
	u.IsEmailVerified = true
	u.VerificationCode = ""
	u.VerificationCodeExpiresAt = nil
	return u, nil
}

// ResendVerification issues a fresh code. It succeeds silently for unknown
// addresses so the endpoint cannot be used to probe registered emails.
func (s *service) ResendVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.log.Info("resend verification for unknown email", "email", email)
		return nil
	}
	if u.IsEmailVerified {
		return fmt.Errorf("email already verified: %w", domain.ErrConflict)
	}

	code, err := pkgtoken.NewVerificationCode()
	if err != nil {
		return err
	}
	expiry := time.Now().UTC().Add(24 * time.Hour)
	if err := s.users.Update(ctx, u.UserID, map[string]interface{}{
		"verification_code":            code,
		"verification_code_expires_at": expiry.Format(time.RFC3339),
	}); err != nil {
		return err
	}
	if err := s.state.SetVerificationCode(ctx, email, code); err != nil {
		s.log.Warn("storing verification code failed", "email", email, "error", err)
	}

	subject, body := smtp.VerificationEmail(s.appName, u.FirstName, code)
	if err := s.mail.SendEmail(email, subject, body); err != nil {
		return fmt.Errorf("%w: sending verification email: %v", domain.ErrUpstream, err)
	}
	return nil
}

// Login checks credentials against the account looked up by email.
// Failed attempts count toward a per-email lockout.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	email := normalizeEmail(req.Email)
	if err := s.state.CheckFailedLoginAttempts(ctx, email); err != nil {
		return nil, err
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.recordFailedLogin(ctx, email)
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if !u.HasPassword() {
		s.recordFailedLogin(ctx, email)
		return nil, fmt.Errorf("account uses social login: %w", domain.ErrUnauthorized)
	}
	if !s.vault.Verify(req.Password, u.PasswordHash) {
		s.recordFailedLogin(ctx, email)
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if !u.IsActive {
		return nil, fmt.Errorf("account deactivated: %w", domain.ErrForbidden)
	}
	if !u.IsEmailVerified {
		return nil, fmt.Errorf("email not verified: %w", domain.ErrForbidden)
	}

	if err := s.state.ClearFailedLoginAttempts(ctx, email); err != nil {
		s.log.Warn("clearing failed login counter failed", "email", email, "error", err)
	}

	if u.IsTwoFactorEnabled {
		return &LoginResult{TwoFactorRequired: true, UserID: u.UserID}, nil
	}
	return s.completeLogin(ctx, u)
}

// Verify2FALogin finishes a login that was answered with TwoFactorRequired.
func (s *service) Verify2FALogin(ctx context.Context, userID, code string) (*LoginResult, error) {
	if err := s.state.CheckFailed2FAAttempts(ctx, userID); err != nil {
		return nil, err
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if !u.IsActive {
		return nil, fmt.Errorf("account deactivated: %w", domain.ErrForbidden)
	}
	if !u.IsTwoFactorEnabled || u.TwoFactorSecret == "" {
		return nil, fmt.Errorf("two-factor not enabled: %w", domain.ErrBadRequest)
	}
	if !s.otp.Verify(u.TwoFactorSecret, code) {
		if err := s.state.RecordFailed2FAAttempt(ctx, userID); err != nil {
			s.log.Warn("recording failed 2fa attempt failed", "user_id", userID, "error", err)
		}
		return nil, fmt.Errorf("invalid verification code: %w", domain.ErrUnauthorized)
	}
	if err := s.state.ClearFailed2FAAttempts(ctx, userID); err != nil {
		s.log.Warn("clearing failed 2fa counter failed", "user_id", userID, "error", err)
	}
	return s.completeLogin(ctx, u)
}

// ForgotPassword emails a single-use reset link. Unknown addresses succeed
// silently; only a hash of the token is stored server side.
func (s *service) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.log.Info("password reset for unknown email", "email", email)
		return nil
	}
	if !u.IsActive {
		s.log.Info("password reset for deactivated account", "user_id", u.UserID)
		return nil
	}

	raw, err := pkgtoken.NewSecret(resetTokenBytes)
	if err != nil {
		return err
	}
	rec := domain.PasswordResetRecord{Email: email, UserID: u.UserID}
	if err := s.state.SetPasswordResetToken(ctx, pkgtoken.Hash(raw), rec); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.clientURL, raw)
	subject, body := smtp.PasswordResetEmail(s.appName, u.FirstName, resetURL)
	if err := s.mail.SendEmail(email, subject, body); err != nil {
		return fmt.Errorf("%w: sending password reset email: %v", domain.ErrUpstream, err)
	}
	return nil
}

// ResetPassword consumes the reset token, sets the new password, and
// revokes every outstanding refresh token for the account.
func (s *service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	tokenHash := pkgtoken.Hash(rawToken)
	rec, ok, err := s.state.GetPasswordReset(ctx, tokenHash)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("invalid or expired reset token: %w", domain.ErrBadRequest)
	}
	u, err := s.users.Get(ctx, rec.UserID)
	if err != nil {
		return fmt.Errorf("invalid or expired reset token: %w", domain.ErrBadRequest)
	}
	if !u.IsActive {
		return fmt.Errorf("account deactivated: %w", domain.ErrForbidden)
	}
	if u.HasPassword() && s.vault.Verify(newPassword, u.PasswordHash) {
		return fmt.Errorf("new password must differ from the current one: %w", domain.ErrBadRequest)
	}

	hash, err := s.vault.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.Update(ctx, u.UserID, map[string]interface{}{
		"password_hash": hash,
	}); err != nil {
		return err
	}
	if err := s.state.DeletePasswordResetToken(ctx, tokenHash); err != nil {
		s.log.Warn("deleting reset token failed", "user_id", u.UserID, "error", err)
	}
	if err := s.tokens.RevokeAll(ctx, u.UserID); err != nil {
		s.log.Warn("revoking refresh tokens failed", "user_id", u.UserID, "error", err)
	}

	subject, body := smtp.PasswordChangedEmail(s.appName, u.FirstName)
	if err := s.mail.SendEmail(u.Email, subject, body); err != nil {
		s.log.Error("password changed email failed", "user_id", u.UserID, "error", err)
	}
	return nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*token.Pair, error) {
	return s.tokens.Rotate(ctx, refreshToken)
}

func (s *service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokens.Revoke(ctx, refreshToken)
}

func (s *service) completeLogin(ctx context.Context, u *domain.User) (*LoginResult, error) {
	pair, err := s.tokens.Issue(ctx, u.UserID, u.Role)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := s.users.Update(ctx, u.UserID, map[string]interface{}{
		"last_login": now.Format(time.RFC3339),
	}); err != nil {
		s.log.Warn("updating last login failed", "user_id", u.UserID, "error", err)
	}
	u.LastLogin = &now
	return &LoginResult{User: u, Tokens: pair}, nil
}

func (s *service) recordFailedLogin(ctx context.Context, email string) {
	if err := s.state.RecordFailedLogin(ctx, email); err != nil {
		s.log.Warn("recording failed login failed", "email", email, "error", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeUsername lowercases on the way in; the username GSI holds
// lowercased values, so uniqueness is case-insensitive.
func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
