package account

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shop-accounts-api/internal/application/token"
	"github.com/shop-accounts-api/internal/domain"
	s3infra "github.com/shop-accounts-api/internal/infrastructure/s3"
	"github.com/shop-accounts-api/internal/infrastructure/smtp"
	"github.com/shop-accounts-api/internal/infrastructure/sns"
	"github.com/shop-accounts-api/internal/pkg/id"
	pkgtotp "github.com/shop-accounts-api/internal/pkg/totp"
)

const restoreTokenBytes = 32

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
	Code            string `json:"code" validate:"omitempty,len=6,numeric"`
}

type Disable2FARequest struct {
	Password string `json:"password"`
	Code     string `json:"code" validate:"required,len=6,numeric"`
}

type DeleteAccountRequest struct {
	Password string `json:"password"`
	Code     string `json:"code" validate:"omitempty,len=6,numeric"`
}

type Service interface {
	GetProfile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error)
	ListUsers(ctx context.Context, limit int, cursor string) ([]domain.User, string, error)

	UploadAvatar(ctx context.Context, userID string, r io.Reader, contentType string) (*domain.Avatar, error)
	DeleteAvatar(ctx context.Context, userID string) error

	ListAddresses(ctx context.Context, userID string) ([]domain.Address, error)
	AddAddress(ctx context.Context, userID string, req domain.AddressRequest) ([]domain.Address, error)
	UpdateAddress(ctx context.Context, userID, addressID string, req domain.AddressRequest) ([]domain.Address, error)
	RemoveAddress(ctx context.Context, userID, addressID string) ([]domain.Address, error)

	Enable2FA(ctx context.Context, userID string) (*pkgtotp.Enrollment, error)
	Confirm2FA(ctx context.Context, userID, code string) error
	Disable2FA(ctx context.Context, userID string, req Disable2FARequest) error

	ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) (*token.Pair, error)
	DeleteAccount(ctx context.Context, userID string, req DeleteAccountRequest) error
	RestoreAccount(ctx context.Context, rawToken string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
}

type authState interface {
	SetRestoreToken(ctx context.Context, tokenHash string, rec domain.RestoreRecord) error
	GetRestore(ctx context.Context, tokenHash string) (*domain.RestoreRecord, bool, error)
	DeleteRestoreToken(ctx context.Context, tokenHash string) error
	SetDeletionRecord(ctx context.Context, rec domain.DeletionRecord) error
	DeleteDeletionRecord(ctx context.Context, userID string) error
	CheckFailed2FAAttempts(ctx context.Context, userID string) error
	RecordFailed2FAAttempt(ctx context.Context, userID string) error
	ClearFailed2FAAttempts(ctx context.Context, userID string) error
	CheckPasswordChangeAttempts(ctx context.Context, userID string) error
	RecordPasswordChangeAttempt(ctx context.Context, userID string) error
	ClearPasswordChangeAttempts(ctx context.Context, userID string) error
}

type passwordVault interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

type totpEngine interface {
	Enroll(account string) (*pkgtotp.Enrollment, error)
	Verify(secret, code string) bool
}

type avatarStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	users     userStore
	state     authState
	tokens    token.Service
	mail      smtp.Mailer
	sms       sns.SMSSender
	vault     passwordVault
	totp      totpEngine
	avatars   avatarStore
	appName   string
	clientURL string
	log       *slog.Logger
}

type ServiceDeps struct {
	Users     userStore
	State     authState
	Tokens    token.Service
	Mailer    smtp.Mailer
	SMS       sns.SMSSender
	Vault     passwordVault
	TOTP      totpEngine
	Avatars   avatarStore
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
		sms:       deps.SMS,
		vault:     deps.Vault,
		totp:      deps.TOTP,
		avatars:   deps.Avatars,
		appName:   deps.AppName,
		clientURL: deps.ClientURL,
		log:       log,
	}
}

func (s *service) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, fmt.Errorf("account deactivated: %w", domain.ErrForbidden)
	}
	return u, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
		u.LastName = *req.LastName
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
		u.Phone = req.Phone
	}
	if len(updates) == 0 {
		return u, nil
	}
	if err := s.users.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) ListUsers(ctx context.Context, limit int, cursor string) ([]domain.User, string, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.users.ScanPage(ctx, int32(limit), cursor)
}

func (s *service) UploadAvatar(ctx context.Context, userID string, r io.Reader, contentType string) (*domain.Avatar, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("avatars/%s/%d%s", userID, time.Now().UnixNano(), s3infra.ContentTypeExt(contentType))
	url, err := s.avatars.Upload(ctx, key, r, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: uploading avatar: %v", domain.ErrUpstream, err)
	}

	avatar := &domain.Avatar{URL: url, Key: key}
	if err := s.users.Update(ctx, userID, map[string]interface{}{"avatar": avatar}); err != nil {
		return nil, err
	}
	// previous blob is garbage once the record points elsewhere
	if u.Avatar != nil && u.Avatar.Key != "" && u.Avatar.Key != key {
		if err := s.avatars.Delete(ctx, u.Avatar.Key); err != nil {
			s.log.Warn("deleting old avatar failed", "user_id", userID, "key", u.Avatar.Key, "error", err)
		}
	}
	return avatar, nil
}

func (s *service) DeleteAvatar(ctx context.Context, userID string) error {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if u.Avatar == nil {
		return nil
	}
	if err := s.users.Update(ctx, userID, map[string]interface{}{"avatar": nil}); err != nil {
		return err
	}
	if u.Avatar.Key != "" {
		if err := s.avatars.Delete(ctx, u.Avatar.Key); err != nil {
			s.log.Warn("deleting avatar blob failed", "user_id", userID, "key", u.Avatar.Key, "error", err)
		}
	}
	return nil
}

func (s *service) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.Addresses, nil
}

func (s *service) AddAddress(ctx context.Context, userID string, req domain.AddressRequest) ([]domain.Address, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	addr := req.ToAddress()
	addr.AddressID = id.New()
	list := domain.AddAddress(u.Addresses, addr)
	if err := s.users.Update(ctx, userID, map[string]interface{}{"addresses": list}); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *service) UpdateAddress(ctx context.Context, userID, addressID string, req domain.AddressRequest) ([]domain.Address, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	list, ok := domain.UpdateAddress(u.Addresses, addressID, req.ToAddress())
	if !ok {
		return nil, fmt.Errorf("address not found: %w", domain.ErrNotFound)
	}
	if err := s.users.Update(ctx, userID, map[string]interface{}{"addresses": list}); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *service) RemoveAddress(ctx context.Context, userID, addressID string) ([]domain.Address, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	list, ok := domain.RemoveAddress(u.Addresses, addressID)
	if !ok {
		return nil, fmt.Errorf("address not found: %w", domain.ErrNotFound)
	}
	if err := s.users.Update(ctx, userID, map[string]interface{}{"addresses": list}); err != nil {
		return nil, err
	}
	return list, nil
}
