package account

import (
	"context"
	"fmt"
	"time"

	"github.com/shop-accounts-api/internal/application/token"
	"github.com/shop-accounts-api/internal/domain"
	"github.com/shop-accounts-api/internal/infrastructure/smtp"
	pkgtoken "github.com/shop-accounts-api/internal/pkg/token"
)

const restorePeriod = 30 * 24 * time.Hour

// ChangePassword verifies the current password (and, on 2FA-protected
// accounts, a current OTP code), stores the new hash, and revokes every
// outstanding refresh token. The caller gets a fresh pair so the current
// session survives. Repeated failures are rate limited.
func (s *service) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) (*token.Pair, error) {
	if err := s.state.CheckPasswordChangeAttempts(ctx, userID); err != nil {
		return nil, err
	}
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.HasPassword() {
		s.recordPasswordChangeAttempt(ctx, userID)
		return nil, fmt.Errorf("account uses social login and has no password: %w", domain.ErrBadRequest)
	}
	if !s.vault.Verify(req.CurrentPassword, u.PasswordHash) {
		s.recordPasswordChangeAttempt(ctx, userID)
		return nil, fmt.Errorf("current password is incorrect: %w", domain.ErrUnauthorized)
	}
	if s.vault.Verify(req.NewPassword, u.PasswordHash) {
		s.recordPasswordChangeAttempt(ctx, userID)
		return nil, fmt.Errorf("new password must differ from the current one: %w", domain.ErrBadRequest)
	}
	if u.IsTwoFactorEnabled {
		if err := s.requireOTP(ctx, u, req.Code); err != nil {
			return nil, err
		}
	}

	hash, err := s.vault.Hash(req.NewPassword)
	if err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, userID, map[string]interface{}{
		"password_hash": hash,
	}); err != nil {
		return nil, err
	}
	if err := s.state.ClearPasswordChangeAttempts(ctx, userID); err != nil {
		s.log.Warn("clearing password change counter failed", "user_id", userID, "error", err)
	}
	if err := s.tokens.RevokeAll(ctx, userID); err != nil {
		s.log.Warn("revoking refresh tokens failed", "user_id", userID, "error", err)
	}

	subject, body := smtp.PasswordChangedEmail(s.appName, u.FirstName)
	if err := s.mail.SendEmail(u.Email, subject, body); err != nil {
		s.log.Error("password changed email failed", "user_id", userID, "error", err)
	}
	s.sendSecurityAlert(ctx, u, "Your "+s.appName+" password was just changed. If this wasn't you, contact support.")

	return s.tokens.Issue(ctx, userID, u.Role)
}

// DeleteAccount deactivates the account for 30 days before permanent
// removal. It demands the same proof as a password change: the current
// password plus, on 2FA-protected accounts, a current OTP code. A
// single-use restore link is emailed so the owner can undo the deletion
// during that window.
func (s *service) DeleteAccount(ctx context.Context, userID string, req DeleteAccountRequest) error {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if u.HasPassword() {
		if req.Password == "" {
			return fmt.Errorf("password required: %w", domain.ErrBadRequest)
		}
		if !s.vault.Verify(req.Password, u.PasswordHash) {
			return fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
	}
	if u.IsTwoFactorEnabled {
		if err := s.requireOTP(ctx, u, req.Code); err != nil {
			return err
		}
	}

	raw, err := pkgtoken.NewSecret(restoreTokenBytes)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	deleteAfter := now.Add(restorePeriod)
	if err := s.state.SetRestoreToken(ctx, pkgtoken.Hash(raw), domain.RestoreRecord{
		UserID:      userID,
		DeleteAfter: deleteAfter,
	}); err != nil {
		return err
	}
	if err := s.state.SetDeletionRecord(ctx, domain.DeletionRecord{
		UserID:      userID,
		Email:       u.Email,
		DeletedAt:   now,
		DeleteAfter: deleteAfter,
	}); err != nil {
		return err
	}

	if err := s.users.Update(ctx, userID, map[string]interface{}{
		"is_active": false,
	}); err != nil {
		return err
	}
	if err := s.tokens.RevokeAll(ctx, userID); err != nil {
		s.log.Warn("revoking refresh tokens failed", "user_id", userID, "error", err)
	}

	restoreURL := fmt.Sprintf("%s/restore-account?token=%s", s.clientURL, raw)
	subject, body := smtp.AccountDeletedEmail(s.appName, u.FirstName, restoreURL)
	if err := s.mail.SendEmail(u.Email, subject, body); err != nil {
		s.log.Error("account deleted email failed", "user_id", userID, "error", err)
	}
	s.sendSecurityAlert(ctx, u, "Your "+s.appName+" account was deactivated and will be deleted in 30 days. Check your email to restore it.")
	return nil
}

// RestoreAccount reactivates a soft-deleted account. The restore token is
// single use.
func (s *service) RestoreAccount(ctx context.Context, rawToken string) error {
	tokenHash := pkgtoken.Hash(rawToken)
	rec, ok, err := s.state.GetRestore(ctx, tokenHash)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("invalid or expired restore token: %w", domain.ErrBadRequest)
	}
	u, err := s.users.Get(ctx, rec.UserID)
	if err != nil {
		return fmt.Errorf("invalid or expired restore token: %w", domain.ErrBadRequest)
	}
	if u.IsActive {
		return fmt.Errorf("account is already active: %w", domain.ErrConflict)
	}

	if err := s.users.Update(ctx, u.UserID, map[string]interface{}{
		"is_active": true,
	}); err != nil {
		return err
	}
	if err := s.state.DeleteRestoreToken(ctx, tokenHash); err != nil {
		s.log.Warn("deleting restore token failed", "user_id", u.UserID, "error", err)
	}
	if err := s.state.DeleteDeletionRecord(ctx, u.UserID); err != nil {
		s.log.Warn("deleting deletion record failed", "user_id", u.UserID, "error", err)
	}

	subject, body := smtp.AccountRestoredEmail(s.appName, u.FirstName)
	if err := s.mail.SendEmail(u.Email, subject, body); err != nil {
		s.log.Error("account restored email failed", "user_id", u.UserID, "error", err)
	}
	return nil
}

func (s *service) recordPasswordChangeAttempt(ctx context.Context, userID string) {
	if err := s.state.RecordPasswordChangeAttempt(ctx, userID); err != nil {
		s.log.Warn("recording password change attempt failed", "user_id", userID, "error", err)
	}
}

// sendSecurityAlert pushes a best-effort SMS to the account's phone, when
// one is on file.
func (s *service) sendSecurityAlert(ctx context.Context, u *domain.User, message string) {
	if s.sms == nil || u.Phone == nil || *u.Phone == "" {
		return
	}
	if err := s.sms.SendSMS(ctx, *u.Phone, message); err != nil {
		s.log.Warn("security alert sms failed", "user_id", u.UserID, "error", err)
	}
}
