package rediskv

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shop-accounts-api/internal/domain"
)

// Key namespaces. Every entry is independently time-boxed; counters use
// fixed windows armed by their first increment.
const (
	prefixVerify     = "verify:"       // email -> verification code, 24h
	prefixReset      = "pwd_reset:"    // sha256(token) -> reset record, 1h
	prefixRestore    = "restore:"      // sha256(token) -> restore record, 30d
	prefixDeleted    = "deleted:"      // user id -> deletion record, 30d
	prefixFailedAuth = "failed_login:" // email -> counter, 30m window
	prefixFailed2FA  = "failed_2fa:"   // user id -> counter, 15m window
	prefixPwdChange  = "pwd_change:"   // user id -> counter, 1h window
)

const (
	verificationTTL  = 24 * time.Hour
	resetTTL         = time.Hour
	restoreTTL       = 30 * 24 * time.Hour
	failedLoginTTL   = 30 * time.Minute
	failed2FATTL     = 15 * time.Minute
	pwdChangeTTL     = time.Hour
	maxFailedLogins  = 5
	maxFailed2FA     = 5
	maxPwdChangeTrys = 3
)

// AuthState provides the typed ephemeral-state operations of the account
// lifecycle on top of the generic Store.
type AuthState struct {
	*Store
}

func NewAuthState(client redis.UniversalClient) *AuthState {
	return &AuthState{Store: NewStore(client)}
}

// ── Verification codes ────────────────────────────────────────────────

func (a *AuthState) SetVerificationCode(ctx context.Context, email, code string) error {
	return a.Set(ctx, prefixVerify+email, code, verificationTTL)
}

// GetEmailByVerificationCode resolves a presented code back to the email
// it was issued for. Codes are short-lived and few, so a prefix scan with
// per-key comparison is adequate.
func (a *AuthState) GetEmailByVerificationCode(ctx context.Context, code string) (string, bool, error) {
	keys, err := a.ScanKeys(ctx, prefixVerify+"*")
	if err != nil {
		return "", false, err
	}
	for _, key := range keys {
		stored, ok, err := a.Get(ctx, key)
		if err != nil {
			return "", false, err
		}
		if ok && stored == code {
			return strings.TrimPrefix(key, prefixVerify), true, nil
		}
	}
	return "", false, nil
}

func (a *AuthState) DeleteVerificationCode(ctx context.Context, email string) error {
	return a.Delete(ctx, prefixVerify+email)
}

// ── Password reset tokens ─────────────────────────────────────────────

func (a *AuthState) SetPasswordResetToken(ctx context.Context, tokenHash string, rec domain.PasswordResetRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return a.Set(ctx, prefixReset+tokenHash, string(data), resetTTL)
}

func (a *AuthState) GetPasswordReset(ctx context.Context, tokenHash string) (*domain.PasswordResetRecord, bool, error) {
	data, ok, err := a.Get(ctx, prefixReset+tokenHash)
	if err != nil || !ok {
		return nil, false, err
	}
	var rec domain.PasswordResetRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, false, err
	}
	return &rec, true, nil
}

func (a *AuthState) DeletePasswordResetToken(ctx context.Context, tokenHash string) error {
	return a.Delete(ctx, prefixReset+tokenHash)
}

// ── Account restore tokens & deletion records ─────────────────────────

func (a *AuthState) SetRestoreToken(ctx context.Context, tokenHash string, rec domain.RestoreRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return a.Set(ctx, prefixRestore+tokenHash, string(data), restoreTTL)
}

func (a *AuthState) GetRestore(ctx context.Context, tokenHash string) (*domain.RestoreRecord, bool, error) {
	data, ok, err := a.Get(ctx, prefixRestore+tokenHash)
	if err != nil || !ok {
		return nil, false, err
	}
	var rec domain.RestoreRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, false, err
	}
	return &rec, true, nil
}

func (a *AuthState) DeleteRestoreToken(ctx context.Context, tokenHash string) error {
	return a.Delete(ctx, prefixRestore+tokenHash)
}

func (a *AuthState) SetDeletionRecord(ctx context.Context, rec domain.DeletionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return a.Set(ctx, prefixDeleted+rec.UserID, string(data), restoreTTL)
}

func (a *AuthState) GetDeletionRecord(ctx context.Context, userID string) (*domain.DeletionRecord, bool, error) {
	data, ok, err := a.Get(ctx, prefixDeleted+userID)
	if err != nil || !ok {
		return nil, false, err
	}
	var rec domain.DeletionRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, false, err
	}
	return &rec, true, nil
}

func (a *AuthState) DeleteDeletionRecord(ctx context.Context, userID string) error {
	return a.Delete(ctx, prefixDeleted+userID)
}

// ListDeletionRecords returns every pending deletion record. Keys that
// vanish between scan and read (TTL expiry) are skipped.
func (a *AuthState) ListDeletionRecords(ctx context.Context) ([]domain.DeletionRecord, error) {
	keys, err := a.ScanKeys(ctx, prefixDeleted+"*")
	if err != nil {
		return nil, err
	}
	recs := make([]domain.DeletionRecord, 0, len(keys))
	for _, key := range keys {
		data, ok, err := a.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		var rec domain.DeletionRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			continue
		}
		if rec.UserID == "" {
			rec.UserID = strings.TrimPrefix(key, prefixDeleted)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// ── Attempt counters ──────────────────────────────────────────────────

func (a *AuthState) CheckFailedLoginAttempts(ctx context.Context, email string) error {
	return a.checkCounter(ctx, prefixFailedAuth+email, maxFailedLogins)
}

func (a *AuthState) RecordFailedLogin(ctx context.Context, email string) error {
	_, err := a.Increment(ctx, prefixFailedAuth+email, failedLoginTTL)
	return err
}

func (a *AuthState) ClearFailedLoginAttempts(ctx context.Context, email string) error {
	return a.Delete(ctx, prefixFailedAuth+email)
}

func (a *AuthState) CheckFailed2FAAttempts(ctx context.Context, userID string) error {
	return a.checkCounter(ctx, prefixFailed2FA+userID, maxFailed2FA)
}

func (a *AuthState) RecordFailed2FAAttempt(ctx context.Context, userID string) error {
	_, err := a.Increment(ctx, prefixFailed2FA+userID, failed2FATTL)
	return err
}

func (a *AuthState) ClearFailed2FAAttempts(ctx context.Context, userID string) error {
	return a.Delete(ctx, prefixFailed2FA+userID)
}

func (a *AuthState) CheckPasswordChangeAttempts(ctx context.Context, userID string) error {
	return a.checkCounter(ctx, prefixPwdChange+userID, maxPwdChangeTrys)
}

func (a *AuthState) RecordPasswordChangeAttempt(ctx context.Context, userID string) error {
	_, err := a.Increment(ctx, prefixPwdChange+userID, pwdChangeTTL)
	return err
}

func (a *AuthState) ClearPasswordChangeAttempts(ctx context.Context, userID string) error {
	return a.Delete(ctx, prefixPwdChange+userID)
}

// checkCounter fails with a RateLimitedError carrying the remaining
// lockout once the counter reaches its threshold. Reads never increment;
// recording an attempt is the caller's explicit choice.
func (a *AuthState) checkCounter(ctx context.Context, key string, threshold int) error {
	v, ok, err := a.Get(ctx, key)
	if err != nil || !ok {
		return err
	}
	count, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	if count >= threshold {
		ttl, err := a.TTL(ctx, key)
		if err != nil {
			return err
		}
		return &domain.RateLimitedError{RetryAfter: ttl}
	}
	return nil
}

// ── Cleanup support ───────────────────────────────────────────────────

// PurgeUserKeys removes every residual ephemeral key for a user being
// hard-deleted. Absent keys are fine; Delete is idempotent.
func (a *AuthState) PurgeUserKeys(ctx context.Context, userID, email string) error {
	return a.Delete(ctx,
		prefixVerify+email,
		prefixDeleted+userID,
		prefixFailedAuth+email,
		prefixFailed2FA+userID,
		prefixPwdChange+userID,
	)
}

// Stats is a per-namespace live key count, reported by the periodic
// observability sweep.
type Stats struct {
	VerificationCodes int
	PasswordResets    int
	RestoreTokens     int
	DeletionRecords   int
	FailedLogins      int
	Failed2FA         int
	PasswordChanges   int
}

func (a *AuthState) CollectStats(ctx context.Context) (*Stats, error) {
	var (
		st  Stats
		err error
	)
	counts := []struct {
		pattern string
		dst     *int
	}{
		{prefixVerify + "*", &st.VerificationCodes},
		{prefixReset + "*", &st.PasswordResets},
		{prefixRestore + "*", &st.RestoreTokens},
		{prefixDeleted + "*", &st.DeletionRecords},
		{prefixFailedAuth + "*", &st.FailedLogins},
		{prefixFailed2FA + "*", &st.Failed2FA},
		{prefixPwdChange + "*", &st.PasswordChanges},
	}
	for _, c := range counts {
		if *c.dst, err = a.CountKeys(ctx, c.pattern); err != nil {
			return nil, err
		}
	}
	return &st, nil
}
