package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shop-accounts-api/internal/application/token"
	"github.com/shop-accounts-api/internal/domain"
	jwtinfra "github.com/shop-accounts-api/internal/infrastructure/jwt"
	"github.com/shop-accounts-api/internal/pkg/password"
	pkgtoken "github.com/shop-accounts-api/internal/pkg/token"
	pkgtotp "github.com/shop-accounts-api/internal/pkg/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	args := m.Called(ctx, googleID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByFacebookID(ctx context.Context, facebookID string) (*domain.User, error) {
	args := m.Called(ctx, facebookID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}

type mockAuthState struct{ mock.Mock }

func (m *mockAuthState) SetVerificationCode(ctx context.Context, email, code string) error {
	return m.Called(ctx, email, code).Error(0)
}
func (m *mockAuthState) GetEmailByVerificationCode(ctx context.Context, code string) (string, bool, error) {
	args := m.Called(ctx, code)
	return args.String(0), args.Bool(1), args.Error(2)
}
func (m *mockAuthState) DeleteVerificationCode(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}
func (m *mockAuthState) SetPasswordResetToken(ctx context.Context, tokenHash string, rec domain.PasswordResetRecord) error {
	return m.Called(ctx, tokenHash, rec).Error(0)
}
func (m *mockAuthState) GetPasswordReset(ctx context.Context, tokenHash string) (*domain.PasswordResetRecord, bool, error) {
	args := m.Called(ctx, tokenHash)
	if rec, _ := args.Get(0).(*domain.PasswordResetRecord); rec != nil {
		return rec, args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}
func (m *mockAuthState) DeletePasswordResetToken(ctx context.Context, tokenHash string) error {
	return m.Called(ctx, tokenHash).Error(0)
}
func (m *mockAuthState) CheckFailedLoginAttempts(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}
func (m *mockAuthState) RecordFailedLogin(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}
func (m *mockAuthState) ClearFailedLoginAttempts(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}
func (m *mockAuthState) CheckFailed2FAAttempts(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}
func (m *mockAuthState) RecordFailed2FAAttempt(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}
func (m *mockAuthState) ClearFailed2FAAttempts(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, htmlBody string) error {
	return m.Called(to, subject, htmlBody).Error(0)
}

type mockTokenService struct{ mock.Mock }

func (m *mockTokenService) Issue(ctx context.Context, userID, role string) (*token.Pair, error) {
	args := m.Called(ctx, userID, role)
	if p, _ := args.Get(0).(*token.Pair); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTokenService) Rotate(ctx context.Context, refreshToken string) (*token.Pair, error) {
	args := m.Called(ctx, refreshToken)
	if p, _ := args.Get(0).(*token.Pair); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTokenService) Revoke(ctx context.Context, refreshToken string) error {
	return m.Called(ctx, refreshToken).Error(0)
}
func (m *mockTokenService) RevokeAll(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}
func (m *mockTokenService) VerifyAccess(tokenString string) (*jwtinfra.AccessClaims, error) {
	args := m.Called(tokenString)
	if c, _ := args.Get(0).(*jwtinfra.AccessClaims); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- fixtures ---

type fixture struct {
	users  *mockUserStore
	state  *mockAuthState
	tokens *mockTokenService
	mail   *mockMailer
	vault  *password.Vault
	otp    *pkgtotp.Engine
	svc    Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:  new(mockUserStore),
		state:  new(mockAuthState),
		tokens: new(mockTokenService),
		mail:   new(mockMailer),
		vault:  password.NewVault(4),
		otp:    pkgtotp.NewEngine("ShopAccounts"),
	}
	f.svc = NewService(ServiceDeps{
		Users:     f.users,
		State:     f.state,
		Tokens:    f.tokens,
		Mailer:    f.mail,
		Vault:     f.vault,
		OTP:       f.otp,
		AppName:   "ShopAccounts",
		ClientURL: "https://shop.example.com",
	})
	return f
}

func (f *fixture) verifiedUser(t *testing.T, plaintext string) *domain.User {
	t.Helper()
	hash, err := f.vault.Hash(plaintext)
	require.NoError(t, err)
	return &domain.User{
		UserID:          "u1",
		Username:        "alice",
		Email:           "alice@example.com",
		PasswordHash:    hash,
		Role:            domain.RoleCustomer,
		FirstName:       "Alice",
		LastName:        "Smith",
		IsEmailVerified: true,
		IsActive:        true,
	}
}

// --- registration ---

func TestRegisterCreatesUnverifiedUser(t *testing.T) {
	f := newFixture(t)
	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	f.users.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)

	var created *domain.User
	f.users.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.User) }).
		Return(nil)
	f.state.On("SetVerificationCode", mock.Anything, "alice@example.com", mock.AnythingOfType("string")).Return(nil)
	f.mail.On("SendEmail", "alice@example.com", mock.Anything, mock.Anything).Return(nil)

	u, err := f.svc.Register(context.Background(), domain.RegisterRequest{
		Username:  "alice",
		Email:     "Alice@Example.com",
		Password:  "hunter22",
		FirstName: "Alice",
		LastName:  "Smith",
	})
	require.NoError(t, err)

	require.NotNil(t, created)
	assert.Equal(t, "alice@example.com", created.Email, "email is stored lowercased")
	assert.NotEmpty(t, created.UserID)
	assert.Equal(t, domain.RoleCustomer, created.Role)
	assert.False(t, created.IsEmailVerified)
	assert.True(t, created.IsActive)
	assert.Len(t, created.VerificationCode, 8)
	assert.NotEqual(t, "hunter22", created.PasswordHash)
	assert.True(t, f.vault.Verify("hunter22", created.PasswordHash))
	assert.Equal(t, created, u)

	f.mail.AssertCalled(t, "SendEmail", "alice@example.com", mock.Anything, mock.Anything)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(f.verifiedUser(t, "x"), nil)

	_, err := f.svc.Register(context.Background(), domain.RegisterRequest{
		Username: "alice2", Email: "alice@example.com", Password: "hunter22",
		FirstName: "Alice", LastName: "Smith",
	})
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestRegisterDuplicateUsername(t *testing.T) {
	f := newFixture(t)
	f.users.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	f.users.On("GetByUsername", mock.Anything, "alice").Return(f.verifiedUser(t, "x"), nil)

	_, err := f.svc.Register(context.Background(), domain.RegisterRequest{
		Username: "alice", Email: "new@example.com", Password: "hunter22",
		FirstName: "Alice", LastName: "Smith",
	})
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestRegisterUsernameUniquenessIgnoresCase(t *testing.T) {
	f := newFixture(t)
	f.users.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	f.users.On("GetByUsername", mock.Anything, "alice").Return(f.verifiedUser(t, "x"), nil)

	_, err := f.svc.Register(context.Background(), domain.RegisterRequest{
		Username: "Alice", Email: "new@example.com", Password: "hunter22",
		FirstName: "Alice", LastName: "Smith",
	})
	assert.True(t, errors.Is(err, domain.ErrConflict), "lookups go through the lowercased username")
}

func TestRegisterLowercasesUsername(t *testing.T) {
	f := newFixture(t)
	f.users.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	f.users.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)

	var created *domain.User
	f.users.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.User) }).
		Return(nil)
	f.state.On("SetVerificationCode", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.mail.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Register(context.Background(), domain.RegisterRequest{
		Username: "AlIcE", Email: "new@example.com", Password: "hunter22",
		FirstName: "Alice", LastName: "Smith",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", created.Username)
}

// --- email verification ---

func TestVerifyEmail(t *testing.T) {
	f := newFixture(t)
	u := f.verifiedUser(t, "hunter22")
	u.IsEmailVerified = false
	u.VerificationCode = "A1B2C3D4"
	expiry := time.Now().Add(time.Hour)
	u.VerificationCodeExpiresAt = &expiry

	f.state.On("GetEmailByVerificationCode", mock.Anything, "A1B2C3D4").Return("alice@example.com", true, nil)
	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(u, nil)
	f.users.On("Update", mock.Anything, "u1", mock.Anything).Return(nil)
	f.state.On("DeleteVerificationCode", mock.Anything, "alice@example.com").Return(nil)
	f.mail.On("SendEmail", "alice@example.com", mock.Anything, mock.Anything).Return(nil)

	got, err := f.svc.VerifyEmail(context.Background(), "a1b2c3d4")
	require.NoError(t, err)
	assert.True(t, got.IsEmailVerified)
	assert.Empty(t, got.VerificationCode)
}

func TestVerifyEmailUnknownCode(t *testing.T) {
	f := newFixture(t)
	f.state.On("GetEmailByVerificationCode", mock.Anything, "WRONGCOD").Return("", false, nil)

	_, err := f.svc.VerifyEmail(context.Background(), "WRONGCOD")
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestVerifyEmailExpiredCode(t *testing.T) {
	f := newFixture(t)
	u := f.verifiedUser(t, "hunter22")
	u.IsEmailVerified = false
	u.VerificationCode = "A1B2C3D4"
	expiry := time.Now().Add(-time.Hour)
	u.VerificationCodeExpiresAt = &expiry

	f.state.On("GetEmailByVerificationCode", mock.Anything, "A1B2C3D4").Return("alice@example.com", true, nil)
	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(u, nil)

	_, err := f.svc.VerifyEmail(context.Background(), "A1B2C3D4")
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestResendVerificationUnknownEmailIsSilent(t *testing.T) {
	f := newFixture(t)
	f.users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, domain.ErrNotFound)

	assert.NoError(t, f.svc.ResendVerification(context.Background(), "ghost@example.com"))
	f.mail.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything)
}

// --- login ---

func TestLoginSuccess(t *testing.T) {
	f := newFixture(t)
	u := f.verifiedUser(t, "hunter22")

	f.state.On("CheckFailedLoginAttempts", mock.Anything, "alice@example.com").Return(nil)
	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(u, nil)
	f.state.On("ClearFailedLoginAttempts", mock.Anything, "alice@example.com").Return(nil)
	f.tokens.On("Issue", mock.Anything, "u1", domain.RoleCustomer).
		Return(&token.Pair{AccessToken: "at", RefreshToken: "rt"}, nil)
	f.users.On("Update", mock.Anything, "u1", mock.Anything).Return(nil)

	res, err := f.svc.Login(context.Background(), LoginRequest{Email: "Alice@Example.COM", Password: "hunter22"})
	require.NoError(t, err)
	assert.False(t, res.TwoFactorRequired)
	assert.Equal(t, "at", res.Tokens.AccessToken)
	assert.NotNil(t, res.User.LastLogin)

	f.users.AssertCalled(t, "GetByEmail", mock.Anything, "alice@example.com")
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t)
	u := f.verifiedUser(t, "hunter22")

	f.state.On("CheckFailedLoginAttempts", mock.Anything, "alice@example.com").Return(nil)
	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(u, nil)
	f.state.On("RecordFailedLogin", mock.Anything, "alice@example.com").Return(nil)

	_, err := f.svc.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "wrong"})
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	f.state.AssertCalled(t, "RecordFailedLogin", mock.Anything, "alice@example.com")
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newFixture(t)
	f.state.On("CheckFailedLoginAttempts", mock.Anything, "ghost@example.com").Return(nil)
	f.users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, domain.ErrNotFound)
	f.state.On("RecordFailedLogin", mock.Anything, "ghost@example.com").Return(nil)

	_, err := f.svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "whatever"})
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLoginLockedOut(t *testing.T) {
	f := newFixture(t)
	f.state.On("CheckFailedLoginAttempts", mock.Anything, "alice@example.com").
		Return(&domain.RateLimitedError{RetryAfter: 10 * time.Minute})

	_, err := f.svc.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "hunter22"})
	assert.True(t, errors.Is(err, domain.ErrRateLimited))
	f.users.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestLoginDeactivatedAccount(t *testing.T) {
	f := newFixture(t)
	u := f.verifiedUser(t, "hunter22")
	u.IsActive = false

	f.state.On("CheckFailedLoginAttempts", mock.Anything, "alice@example.com").Return(nil)
	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(u, nil)

	_, err := f.svc.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "hunter22"})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestLoginUnverifiedEmail(t *testing.T) {
	f := newFixture(t)
	u := f.verifiedUser(t, "hunter22")
	u.IsEmailVerified = false

	f.state.On("CheckFailedLoginAttempts", mock.Anything, "alice@example.com").Return(nil)
	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(u, nil)

	_, err := f.svc.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "hunter22"})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestLoginWithTwoFactorDefersTokens(t *testing.T) {
	f := newFixture(t)
	u := f.verifiedUser(t, "hunter22")
	u.IsTwoFactorEnabled = true
	u.TwoFactorSecret = "SECRET"

	f.state.On("CheckFailedLoginAttempts", mock.Anything, "alice@example.com").Return(nil)
	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(u, nil)
	f.state.On("ClearFailedLoginAttempts", mock.Anything, "alice@example.com").Return(nil)

	res, err := f.svc.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.True(t, res.TwoFactorRequired)
	assert.Equal(t, "u1", res.UserID)
	assert.Nil(t, res.Tokens)
	f.tokens.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything, mock.Anything)
}

// --- 2FA login ---

func TestVerify2FALogin(t *testing.T) {
	f := newFixture(t)
	enrollment, err := f.otp.Enroll("alice@example.com")
	require.NoError(t, err)

	u := f.verifiedUser(t, "hunter22")
	u.IsTwoFactorEnabled = true
	u.TwoFactorSecret = enrollment.Secret

	f.state.On("CheckFailed2FAAttempts", mock.Anything, "u1").Return(nil)
	f.users.On("Get", mock.Anything, "u1").Return(u, nil)
	f.state.On("ClearFailed2FAAttempts", mock.Anything, "u1").Return(nil)
	f.tokens.On("Issue", mock.Anything, "u1", domain.RoleCustomer).
		Return(&token.Pair{AccessToken: "at", RefreshToken: "rt"}, nil)
	f.users.On("Update", mock.Anything, "u1", mock.Anything).Return(nil)

	code, err := pkgtotp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)

	res, err := f.svc.Verify2FALogin(context.Background(), "u1", code)
	require.NoError(t, err)
	assert.NotNil(t, res.Tokens)
}

func TestVerify2FALoginWrongCode(t *testing.T) {
	f := newFixture(t)
	enrollment, err := f.otp.Enroll("alice@example.com")
	require.NoError(t, err)

	u := f.verifiedUser(t, "hunter22")
	u.IsTwoFactorEnabled = true
	u.TwoFactorSecret = enrollment.Secret

	f.state.On("CheckFailed2FAAttempts", mock.Anything, "u1").Return(nil)
	f.users.On("Get", mock.Anything, "u1").Return(u, nil)
	f.state.On("RecordFailed2FAAttempt", mock.Anything, "u1").Return(nil)

	_, err = f.svc.Verify2FALogin(context.Background(), "u1", "000000")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	f.state.AssertCalled(t, "RecordFailed2FAAttempt", mock.Anything, "u1")
}

// --- password reset ---

func TestForgotPasswordStoresHashedToken(t *testing.T) {
	f := newFixture(t)
	u := f.verifiedUser(t, "hunter22")

	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(u, nil)

	var storedHash string
	f.state.On("SetPasswordResetToken", mock.Anything, mock.AnythingOfType("string"),
		domain.PasswordResetRecord{Email: "alice@example.com", UserID: "u1"}).
		Run(func(args mock.Arguments) { storedHash = args.String(1) }).
		Return(nil)

	var mailBody string
	f.mail.On("SendEmail", "alice@example.com", mock.Anything, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { mailBody = args.String(2) }).
		Return(nil)

	require.NoError(t, f.svc.ForgotPassword(context.Background(), "alice@example.com"))

	require.NotEmpty(t, storedHash)
	assert.NotContains(t, mailBody, storedHash, "mail carries the raw token, never its hash")
	assert.Contains(t, mailBody, "https://shop.example.com/reset-password?token=")
}

func TestForgotPasswordUnknownEmailIsSilent(t *testing.T) {
	f := newFixture(t)
	f.users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, domain.ErrNotFound)

	assert.NoError(t, f.svc.ForgotPassword(context.Background(), "ghost@example.com"))
	f.mail.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestForgotPasswordMailFailureSurfaces(t *testing.T) {
	f := newFixture(t)
	u := f.verifiedUser(t, "hunter22")

	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(u, nil)
	f.state.On("SetPasswordResetToken", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.mail.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	err := f.svc.ForgotPassword(context.Background(), "alice@example.com")
	assert.True(t, errors.Is(err, domain.ErrUpstream))
}

func TestResetPassword(t *testing.T) {
	f := newFixture(t)
	u := f.verifiedUser(t, "old-pass")
	raw := "rawtoken"

	f.state.On("GetPasswordReset", mock.Anything, pkgtoken.Hash(raw)).
		Return(&domain.PasswordResetRecord{Email: "alice@example.com", UserID: "u1"}, true, nil)
	f.users.On("Get", mock.Anything, "u1").Return(u, nil)

	var updates map[string]interface{}
	f.users.On("Update", mock.Anything, "u1", mock.Anything).
		Run(func(args mock.Arguments) { updates = args.Get(2).(map[string]interface{}) }).
		Return(nil)
	f.state.On("DeletePasswordResetToken", mock.Anything, pkgtoken.Hash(raw)).Return(nil)
	f.tokens.On("RevokeAll", mock.Anything, "u1").Return(nil)
	f.mail.On("SendEmail", "alice@example.com", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, f.svc.ResetPassword(context.Background(), raw, "new-pass"))

	require.Contains(t, updates, "password_hash")
	assert.True(t, f.vault.Verify("new-pass", updates["password_hash"].(string)))
	f.tokens.AssertCalled(t, "RevokeAll", mock.Anything, "u1")
}

func TestResetPasswordInvalidToken(t *testing.T) {
	f := newFixture(t)
	f.state.On("GetPasswordReset", mock.Anything, mock.Anything).Return(nil, false, nil)

	err := f.svc.ResetPassword(context.Background(), "bogus", "new-pass")
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestResetPasswordRejectsSamePassword(t *testing.T) {
	f := newFixture(t)
	u := f.verifiedUser(t, "same-pass")
	raw := "rawtoken"

	f.state.On("GetPasswordReset", mock.Anything, pkgtoken.Hash(raw)).
		Return(&domain.PasswordResetRecord{Email: "alice@example.com", UserID: "u1"}, true, nil)
	f.users.On("Get", mock.Anything, "u1").Return(u, nil)

	err := f.svc.ResetPassword(context.Background(), raw, "same-pass")
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	f.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

// --- oauth login ---

type mockOAuthVerifier struct{ mock.Mock }

func (m *mockOAuthVerifier) Verify(ctx context.Context, tokenString string) (*domain.OAuthProfile, error) {
	args := m.Called(ctx, tokenString)
	if p, _ := args.Get(0).(*domain.OAuthProfile); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (f *fixture) withGoogle(google *mockOAuthVerifier) *fixture {
	f.svc = NewService(ServiceDeps{
		Users:     f.users,
		State:     f.state,
		Tokens:    f.tokens,
		Mailer:    f.mail,
		Vault:     f.vault,
		OTP:       f.otp,
		Google:    google,
		AppName:   "ShopAccounts",
		ClientURL: "https://shop.example.com",
	})
	return f
}

func TestLoginWithGoogleNotConfigured(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.LoginWithGoogle(context.Background(), "id-token")
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestLoginWithGoogleCreatesAccount(t *testing.T) {
	google := new(mockOAuthVerifier)
	f := newFixture(t).withGoogle(google)

	google.On("Verify", mock.Anything, "id-token").Return(&domain.OAuthProfile{
		Provider:   domain.ProviderGoogle,
		ExternalID: "g-123",
		Email:      "Bob.Jones@example.com",
		FirstName:  "Bob",
		LastName:   "Jones",
		AvatarURL:  "https://lh3.example.com/photo.jpg",
	}, nil)
	f.users.On("GetByGoogleID", mock.Anything, "g-123").Return(nil, domain.ErrNotFound)
	f.users.On("GetByEmail", mock.Anything, "bob.jones@example.com").Return(nil, domain.ErrNotFound)
	f.users.On("GetByUsername", mock.Anything, "bobjones").Return(nil, domain.ErrNotFound)

	var created *domain.User
	f.users.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.User) }).
		Return(nil)
	f.tokens.On("Issue", mock.Anything, mock.AnythingOfType("string"), domain.RoleCustomer).
		Return(&token.Pair{AccessToken: "at", RefreshToken: "rt"}, nil)
	f.users.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	res, err := f.svc.LoginWithGoogle(context.Background(), "id-token")
	require.NoError(t, err)

	require.NotNil(t, created)
	assert.Equal(t, "bobjones", created.Username, "username derives from the email local part")
	assert.Equal(t, "bob.jones@example.com", created.Email)
	assert.Equal(t, "g-123", created.GoogleID)
	assert.True(t, created.IsEmailVerified, "provider-asserted emails count as verified")
	assert.False(t, created.HasPassword())
	require.NotNil(t, created.Avatar)
	assert.Empty(t, created.Avatar.Key, "external avatars have no blob to delete")
	assert.NotNil(t, res.Tokens)
}

func TestLoginWithGoogleLinksExistingAccountByEmail(t *testing.T) {
	google := new(mockOAuthVerifier)
	f := newFixture(t).withGoogle(google)
	u := f.verifiedUser(t, "hunter22")

	google.On("Verify", mock.Anything, "id-token").Return(&domain.OAuthProfile{
		Provider:   domain.ProviderGoogle,
		ExternalID: "g-123",
		Email:      "alice@example.com",
	}, nil)
	f.users.On("GetByGoogleID", mock.Anything, "g-123").Return(nil, domain.ErrNotFound)
	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(u, nil)

	var linkUpdates map[string]interface{}
	f.users.On("Update", mock.Anything, "u1", mock.Anything).
		Run(func(args mock.Arguments) {
			if linkUpdates == nil {
				linkUpdates = args.Get(2).(map[string]interface{})
			}
		}).
		Return(nil)
	f.tokens.On("Issue", mock.Anything, "u1", domain.RoleCustomer).
		Return(&token.Pair{AccessToken: "at", RefreshToken: "rt"}, nil)

	res, err := f.svc.LoginWithGoogle(context.Background(), "id-token")
	require.NoError(t, err)

	assert.Equal(t, "g-123", linkUpdates["google_id"])
	assert.Equal(t, true, linkUpdates["is_email_verified"])
	assert.Equal(t, "u1", res.User.UserID)
	f.users.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestLoginWithGoogleRejectsProfileWithoutEmail(t *testing.T) {
	google := new(mockOAuthVerifier)
	f := newFixture(t).withGoogle(google)

	google.On("Verify", mock.Anything, "id-token").Return(&domain.OAuthProfile{
		Provider:   domain.ProviderGoogle,
		ExternalID: "g-123",
	}, nil)

	_, err := f.svc.LoginWithGoogle(context.Background(), "id-token")
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	f.users.AssertNotCalled(t, "GetByGoogleID", mock.Anything, mock.Anything)
	f.users.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestLoginWithGooglePropagatesLookupFailure(t *testing.T) {
	google := new(mockOAuthVerifier)
	f := newFixture(t).withGoogle(google)

	google.On("Verify", mock.Anything, "id-token").Return(&domain.OAuthProfile{
		Provider:   domain.ProviderGoogle,
		ExternalID: "g-123",
		Email:      "alice@example.com",
	}, nil)
	f.users.On("GetByGoogleID", mock.Anything, "g-123").
		Return(nil, errors.New("dynamo throttled"))

	_, err := f.svc.LoginWithGoogle(context.Background(), "id-token")
	require.Error(t, err)
	f.users.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	f.users.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestLoginWithGoogleUsernameCollisionProbes(t *testing.T) {
	google := new(mockOAuthVerifier)
	f := newFixture(t).withGoogle(google)
	taken := f.verifiedUser(t, "x")

	google.On("Verify", mock.Anything, "id-token").Return(&domain.OAuthProfile{
		Provider:   domain.ProviderGoogle,
		ExternalID: "g-456",
		Email:      "alice@otherhost.com",
	}, nil)
	f.users.On("GetByGoogleID", mock.Anything, "g-456").Return(nil, domain.ErrNotFound)
	f.users.On("GetByEmail", mock.Anything, "alice@otherhost.com").Return(nil, domain.ErrNotFound)
	f.users.On("GetByUsername", mock.Anything, "alice").Return(taken, nil)
	f.users.On("GetByUsername", mock.Anything, "alice1").Return(nil, domain.ErrNotFound)

	var created *domain.User
	f.users.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.User) }).
		Return(nil)
	f.tokens.On("Issue", mock.Anything, mock.AnythingOfType("string"), domain.RoleCustomer).
		Return(&token.Pair{AccessToken: "at", RefreshToken: "rt"}, nil)
	f.users.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.LoginWithGoogle(context.Background(), "id-token")
	require.NoError(t, err)
	assert.Equal(t, "alice1", created.Username)
}

// --- logout ---

func TestLogoutWithoutTokenIsNoop(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.svc.Logout(context.Background(), ""))
	f.tokens.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything)
}
