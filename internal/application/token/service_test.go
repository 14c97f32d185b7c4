package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shop-accounts-api/internal/config"
	"github.com/shop-accounts-api/internal/domain"
	jwtinfra "github.com/shop-accounts-api/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockRefreshStore struct{ mock.Mock }

func (m *mockRefreshStore) Put(ctx context.Context, rec *domain.RefreshTokenRecord) error {
	return m.Called(ctx, rec).Error(0)
}
func (m *mockRefreshStore) Get(ctx context.Context, token string) (*domain.RefreshTokenRecord, error) {
	args := m.Called(ctx, token)
	if rec, _ := args.Get(0).(*domain.RefreshTokenRecord); rec != nil {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockRefreshStore) Delete(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}
func (m *mockRefreshStore) DeleteByUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

func testProvider() *jwtinfra.Provider {
	return jwtinfra.NewProvider(&config.Config{
		JWTAccessSecret:  "access-secret",
		JWTRefreshSecret: "refresh-secret",
		AccessTokenTTL:   15 * time.Minute,
		RefreshTokenTTL:  7 * 24 * time.Hour,
	})
}

func activeUser() *domain.User {
	return &domain.User{UserID: "u1", Role: domain.RoleCustomer, IsActive: true}
}

// --- tests ---

func TestIssuePersistsRefreshRecord(t *testing.T) {
	refresh := new(mockRefreshStore)
	users := new(mockUserStore)
	svc := NewService(refresh, users, testProvider())

	var stored *domain.RefreshTokenRecord
	refresh.On("Put", mock.Anything, mock.AnythingOfType("*domain.RefreshTokenRecord")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.RefreshTokenRecord) }).
		Return(nil)

	pair, err := svc.Issue(context.Background(), "u1", domain.RoleCustomer)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	require.NotNil(t, stored)
	assert.Equal(t, pair.RefreshToken, stored.Token)
	assert.Equal(t, "u1", stored.UserID)
	assert.Greater(t, stored.ExpiresAt, time.Now().Unix())

	claims, err := svc.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, domain.RoleCustomer, claims.Role)
}

func TestRotateIssuesNewPairAndDeletesOld(t *testing.T) {
	refresh := new(mockRefreshStore)
	users := new(mockUserStore)
	svc := NewService(refresh, users, testProvider())

	refresh.On("Put", mock.Anything, mock.Anything).Return(nil)
	pair, err := svc.Issue(context.Background(), "u1", domain.RoleCustomer)
	require.NoError(t, err)

	refresh.On("Get", mock.Anything, pair.RefreshToken).Return(&domain.RefreshTokenRecord{
		Token:     pair.RefreshToken,
		UserID:    "u1",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, nil)
	refresh.On("Delete", mock.Anything, pair.RefreshToken).Return(nil)
	users.On("Get", mock.Anything, "u1").Return(activeUser(), nil)

	next, err := svc.Rotate(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)
	refresh.AssertCalled(t, "Delete", mock.Anything, pair.RefreshToken)
}

func TestRotateRejectsRevokedToken(t *testing.T) {
	refresh := new(mockRefreshStore)
	users := new(mockUserStore)
	svc := NewService(refresh, users, testProvider())

	refresh.On("Put", mock.Anything, mock.Anything).Return(nil)
	pair, err := svc.Issue(context.Background(), "u1", domain.RoleCustomer)
	require.NoError(t, err)

	// the record is gone: already rotated or revoked
	refresh.On("Get", mock.Anything, pair.RefreshToken).Return(nil, domain.ErrNotFound)

	_, err = svc.Rotate(context.Background(), pair.RefreshToken)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestRotateRejectsGarbageToken(t *testing.T) {
	refresh := new(mockRefreshStore)
	users := new(mockUserStore)
	svc := NewService(refresh, users, testProvider())

	_, err := svc.Rotate(context.Background(), "not-a-jwt")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestRotateRejectsDeactivatedUser(t *testing.T) {
	refresh := new(mockRefreshStore)
	users := new(mockUserStore)
	svc := NewService(refresh, users, testProvider())

	refresh.On("Put", mock.Anything, mock.Anything).Return(nil)
	pair, err := svc.Issue(context.Background(), "u1", domain.RoleCustomer)
	require.NoError(t, err)

	refresh.On("Get", mock.Anything, pair.RefreshToken).Return(&domain.RefreshTokenRecord{
		Token:     pair.RefreshToken,
		UserID:    "u1",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, nil)
	inactive := activeUser()
	inactive.IsActive = false
	users.On("Get", mock.Anything, "u1").Return(inactive, nil)

	_, err = svc.Rotate(context.Background(), pair.RefreshToken)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestRevokeAll(t *testing.T) {
	refresh := new(mockRefreshStore)
	users := new(mockUserStore)
	svc := NewService(refresh, users, testProvider())

	refresh.On("DeleteByUser", mock.Anything, "u1").Return(nil)
	require.NoError(t, svc.RevokeAll(context.Background(), "u1"))
	refresh.AssertCalled(t, "DeleteByUser", mock.Anything, "u1")
}
