package cleanup

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shop-accounts-api/internal/domain"
	rediskv "github.com/shop-accounts-api/internal/infrastructure/redis"
)

type Service interface {
	SweepExpiredAccounts(ctx context.Context)
	ReportKVStats(ctx context.Context)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	HardDelete(ctx context.Context, userID string) error
}

type refreshStore interface {
	DeleteByUser(ctx context.Context, userID string) error
}

type authState interface {
	ListDeletionRecords(ctx context.Context) ([]domain.DeletionRecord, error)
	DeleteDeletionRecord(ctx context.Context, userID string) error
	PurgeUserKeys(ctx context.Context, userID, email string) error
	CollectStats(ctx context.Context) (*rediskv.Stats, error)
}

type avatarStore interface {
	Delete(ctx context.Context, key string) error
}

type service struct {
	users   userStore
	refresh refreshStore
	state   authState
	avatars avatarStore
	log     *slog.Logger
}

func NewService(users userStore, refresh refreshStore, state authState, avatars avatarStore, log *slog.Logger) Service {
	if log == nil {
		log = slog.Default()
	}
	return &service{users: users, refresh: refresh, state: state, avatars: avatars, log: log}
}

// SweepExpiredAccounts permanently removes accounts whose 30-day restore
// window has elapsed. A failure on one account is logged and the sweep
// moves on to the next.
func (s *service) SweepExpiredAccounts(ctx context.Context) {
	records, err := s.state.ListDeletionRecords(ctx)
	if err != nil {
		s.log.Error("listing deletion records failed", "error", err)
		return
	}

	now := time.Now().UTC()
	var deleted, failed int
	for _, rec := range records {
		if rec.DeleteAfter.After(now) {
			continue
		}
		if err := s.purgeAccount(ctx, rec); err != nil {
			failed++
			s.log.Error("purging account failed", "user_id", rec.UserID, "error", err)
			continue
		}
		deleted++
	}
	s.log.Info("account sweep finished", "candidates", len(records), "deleted", deleted, "failed", failed)
}

func (s *service) purgeAccount(ctx context.Context, rec domain.DeletionRecord) error {
	u, err := s.users.Get(ctx, rec.UserID)
	if err != nil {
		// A transient store failure must keep the deletion record alive
		// for the next sweep; only a confirmed missing user proceeds to
		// the KV purge.
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return s.state.PurgeUserKeys(ctx, rec.UserID, rec.Email)
	}

	// A restore could have landed after this record was read; an
	// active account is never purged.
	if u.IsActive {
		s.log.Warn("skipping purge of restored account", "user_id", rec.UserID)
		return s.state.DeleteDeletionRecord(ctx, rec.UserID)
	}
	if u.Avatar != nil && u.Avatar.Key != "" {
		if err := s.avatars.Delete(ctx, u.Avatar.Key); err != nil {
			s.log.Warn("deleting avatar blob failed", "user_id", rec.UserID, "error", err)
		}
	}
	if err := s.refresh.DeleteByUser(ctx, rec.UserID); err != nil {
		return err
	}
	if err := s.users.HardDelete(ctx, rec.UserID); err != nil {
		return err
	}
	return s.state.PurgeUserKeys(ctx, rec.UserID, rec.Email)
}

// ReportKVStats logs a snapshot of the auth-state keyspace for operators.
func (s *service) ReportKVStats(ctx context.Context) {
	stats, err := s.state.CollectStats(ctx)
	if err != nil {
		s.log.Error("collecting kv stats failed", "error", err)
		return
	}
	s.log.Info("auth state stats",
		"verification_codes", stats.VerificationCodes,
		"password_resets", stats.PasswordResets,
		"restore_tokens", stats.RestoreTokens,
		"deletion_records", stats.DeletionRecords,
		"failed_logins", stats.FailedLogins,
		"failed_2fa", stats.Failed2FA,
		"password_changes", stats.PasswordChanges,
	)
}
