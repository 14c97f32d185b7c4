package account

import (
	"context"
	"fmt"

	"github.com/shop-accounts-api/internal/domain"
	pkgtotp "github.com/shop-accounts-api/internal/pkg/totp"
)

// Enable2FA starts TOTP enrollment. The generated secret is held in a
// temporary slot and does not take effect until Confirm2FA proves the
// authenticator produces matching codes.
func (s *service) Enable2FA(ctx context.Context, userID string) (*pkgtotp.Enrollment, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.IsTwoFactorEnabled {
		return nil, fmt.Errorf("two-factor already enabled: %w", domain.ErrConflict)
	}

	enrollment, err := s.totp.Enroll(u.Email)
	if err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, userID, map[string]interface{}{
		"two_factor_temp_secret": enrollment.Secret,
	}); err != nil {
		return nil, err
	}
	return enrollment, nil
}

// Confirm2FA promotes the temporary secret once the user proves they can
// generate valid codes for it.
func (s *service) Confirm2FA(ctx context.Context, userID, code string) error {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if u.IsTwoFactorEnabled {
		return fmt.Errorf("two-factor already enabled: %w", domain.ErrConflict)
	}
	if u.TwoFactorTempSecret == "" {
		return fmt.Errorf("two-factor enrollment not started: %w", domain.ErrBadRequest)
	}
	if !s.totp.Verify(u.TwoFactorTempSecret, code) {
		return fmt.Errorf("invalid verification code: %w", domain.ErrBadRequest)
	}

	return s.users.Update(ctx, userID, map[string]interface{}{
		"is_two_factor_enabled":  true,
		"two_factor_secret":      u.TwoFactorTempSecret,
		"two_factor_temp_secret": "",
	})
}

// Disable2FA requires a fresh proof of possession: the current password
// (when the account has one) plus a valid OTP code. Failed codes count
// toward the same lockout as failed 2FA logins.
func (s *service) Disable2FA(ctx context.Context, userID string, req Disable2FARequest) error {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if !u.IsTwoFactorEnabled || u.TwoFactorSecret == "" {
		return fmt.Errorf("two-factor not enabled: %w", domain.ErrBadRequest)
	}
	if err := s.reauthenticate(ctx, u, req.Password, req.Code); err != nil {
		return err
	}

	return s.users.Update(ctx, userID, map[string]interface{}{
		"is_two_factor_enabled":  false,
		"two_factor_secret":      "",
		"two_factor_temp_secret": "",
	})
}

// reauthenticate checks password and OTP for sensitive operations on a
// 2FA-protected account. Accounts created via social login have no
// password, so only the OTP is required for them.
func (s *service) reauthenticate(ctx context.Context, u *domain.User, password, code string) error {
	if err := s.state.CheckFailed2FAAttempts(ctx, u.UserID); err != nil {
		return err
	}
	if u.HasPassword() {
		if password == "" {
			return fmt.Errorf("password required: %w", domain.ErrBadRequest)
		}
		if !s.vault.Verify(password, u.PasswordHash) {
			return fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
	}
	return s.requireOTP(ctx, u, code)
}

// requireOTP demands a valid current code from the account's enrolled
// authenticator. Failures count toward the same lockout as failed 2FA
// logins.
func (s *service) requireOTP(ctx context.Context, u *domain.User, code string) error {
	if err := s.state.CheckFailed2FAAttempts(ctx, u.UserID); err != nil {
		return err
	}
	if code == "" {
		return fmt.Errorf("verification code required: %w", domain.ErrBadRequest)
	}
	if !s.totp.Verify(u.TwoFactorSecret, code) {
		if err := s.state.RecordFailed2FAAttempt(ctx, u.UserID); err != nil {
			s.log.Warn("recording failed 2fa attempt failed", "user_id", u.UserID, "error", err)
		}
		return fmt.Errorf("invalid verification code: %w", domain.ErrUnauthorized)
	}
	if err := s.state.ClearFailed2FAAttempts(ctx, u.UserID); err != nil {
		s.log.Warn("clearing failed 2fa counter failed", "user_id", u.UserID, "error", err)
	}
	return nil
}
