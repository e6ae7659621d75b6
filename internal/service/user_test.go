package service

import (
	"context"
	"testing"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/dto"
	apperrors "github.com/Payphone-Digital/auth-service/internal/errors"
	"github.com/Payphone-Digital/auth-service/internal/model"
	"github.com/Payphone-Digital/auth-service/internal/repository"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newUserFixture(t *testing.T) (*UserService, *repository.MemoryUserRepository, *Argon2Hasher, *model.User) {
	t.Helper()
	logger.UseNop()

	repo := repository.NewMemoryUserRepository()
	hasher := NewArgon2Hasher(testArgon2Params())

	digest, err := hasher.Hash("pw1-secret")
	require.NoError(t, err)

	alice := &model.User{Email: "alice@x.io", Password: digest}
	require.NoError(t, repo.Create(context.Background(), alice))

	return NewUserService(repo, hasher), repo, hasher, alice
}

func TestUserService_GetByID(t *testing.T) {
	svc, _, _, alice := newUserFixture(t)

	res, err := svc.GetByID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.io", res.Email)

	_, err = svc.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestUserService_List(t *testing.T) {
	svc, repo, _, _ := newUserFixture(t)
	ctx := context.Background()

	for _, email := range []string{"bob@x.io", "carol@x.io"} {
		require.NoError(t, repo.Create(ctx, &model.User{Email: email, Password: "d", CreatedAt: time.Now()}))
	}

	users, total, pageTotal, err := svc.List(ctx, 2, 0, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, 2, pageTotal)
	assert.Len(t, users, 2)
}

func TestUserService_UpdateProfile(t *testing.T) {
	svc, _, _, alice := newUserFixture(t)
	ctx := context.Background()

	_, err := svc.UpdateProfile(ctx, "someone-else", alice.ID, &dto.UpdateProfileRequest{Name: strPtr("Mallory")})
	assert.ErrorIs(t, err, apperrors.ErrNotOwner)

	res, err := svc.UpdateProfile(ctx, alice.ID, alice.ID, &dto.UpdateProfileRequest{
		Name:     strPtr("Alice"),
		Location: strPtr("Lisbon"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", res.Profile.Name)
	assert.Equal(t, "Lisbon", res.Profile.Location)

	// Fields left out keep their value.
	res, err = svc.UpdateProfile(ctx, alice.ID, alice.ID, &dto.UpdateProfileRequest{Bio: strPtr("hi")})
	require.NoError(t, err)
	assert.Equal(t, "Alice", res.Profile.Name)
	assert.Equal(t, "hi", res.Profile.Bio)
}

func TestUserService_ChangePassword(t *testing.T) {
	svc, repo, hasher, alice := newUserFixture(t)
	ctx := context.Background()

	require.NoError(t, repo.UpdateRefreshHash(ctx, alice.ID, nil, strPtr("session-hash"), nil))

	tests := []struct {
		name    string
		actor   string
		req     dto.UpdatePasswordRequest
		wantErr error
	}{
		{
			name:    "another user",
			actor:   "mallory",
			req:     dto.UpdatePasswordRequest{CurrentPassword: "pw1-secret", NewPassword: "pw3-secret", ConfirmPassword: "pw3-secret"},
			wantErr: apperrors.ErrNotOwner,
		},
		{
			name:    "confirmation mismatch",
			actor:   alice.ID,
			req:     dto.UpdatePasswordRequest{CurrentPassword: "pw1-secret", NewPassword: "pw3-secret", ConfirmPassword: "pw4-secret"},
			wantErr: apperrors.ErrInvalidInput,
		},
		{
			name:    "wrong current password",
			actor:   alice.ID,
			req:     dto.UpdatePasswordRequest{CurrentPassword: "nope", NewPassword: "pw3-secret", ConfirmPassword: "pw3-secret"},
			wantErr: apperrors.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ChangePassword(ctx, tt.actor, alice.ID, &tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	u, err := repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.True(t, u.HasSession(), "rejected changes keep the session")

	err = svc.ChangePassword(ctx, alice.ID, alice.ID, &dto.UpdatePasswordRequest{
		CurrentPassword: "pw1-secret",
		NewPassword:     "pw3-secret",
		ConfirmPassword: "pw3-secret",
	})
	require.NoError(t, err)

	u, err = repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, hasher.Verify(u.Password, "pw3-secret"))
	assert.False(t, u.HasSession(), "changing the password ends the session")
}

func TestUserService_Delete(t *testing.T) {
	svc, repo, _, alice := newUserFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, "mallory", alice.ID), apperrors.ErrNotOwner)

	require.NoError(t, svc.Delete(ctx, alice.ID, alice.ID))
	_, err := repo.GetByID(ctx, alice.ID)
	assert.Error(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, alice.ID, alice.ID), apperrors.ErrUserNotFound)
}
