package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

func TestMemoryUserRepository_CreateAndLookup(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	u := &model.User{Email: "alice@x.io", Password: "digest"}
	require.NoError(t, repo.Create(ctx, u))
	require.NotEmpty(t, u.ID)

	byEmail, err := repo.GetByEmail(ctx, "alice@x.io")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.io", byID.Email)

	err = repo.Create(ctx, &model.User{Email: "alice@x.io", Password: "other"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	_, err = repo.GetByEmail(ctx, "nobody@x.io")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMemoryUserRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	u := &model.User{Email: "a@x.io", Password: "digest"}
	require.NoError(t, repo.Create(ctx, u))
	require.NoError(t, repo.UpdateRefreshHash(ctx, u.ID, nil, strPtr("h1"), nil))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	*got.RefreshTokenHash = "tampered"

	again, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "h1", *again.RefreshTokenHash)
}

func TestMemoryUserRepository_UpdateRefreshHash(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	u := &model.User{Email: "a@x.io", Password: "digest"}
	require.NoError(t, repo.Create(ctx, u))

	// A conditional write against an empty session never applies.
	assert.ErrorIs(t, repo.UpdateRefreshHash(ctx, u.ID, strPtr("h0"), strPtr("h1"), nil), ErrRefreshHashMismatch)

	require.NoError(t, repo.UpdateRefreshHash(ctx, u.ID, nil, strPtr("h1"), nil))
	require.NoError(t, repo.UpdateRefreshHash(ctx, u.ID, strPtr("h1"), strPtr("h2"), nil))
	assert.ErrorIs(t, repo.UpdateRefreshHash(ctx, u.ID, strPtr("h1"), strPtr("h3"), nil), ErrRefreshHashMismatch)

	require.NoError(t, repo.UpdateRefreshHash(ctx, u.ID, nil, nil, nil))
	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.HasSession())

	assert.ErrorIs(t, repo.UpdateRefreshHash(ctx, "ghost", nil, nil, nil), gorm.ErrRecordNotFound)
}

func TestMemoryUserRepository_UpdateRefreshHash_SingleWinner(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	u := &model.User{Email: "a@x.io", Password: "digest"}
	require.NoError(t, repo.Create(ctx, u))
	require.NoError(t, repo.UpdateRefreshHash(ctx, u.ID, nil, strPtr("h0"), nil))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			next := strPtr(time.Now().String())
			if err := repo.UpdateRefreshHash(ctx, u.ID, strPtr("h0"), next, nil); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestMemoryUserRepository_ListAndDelete(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	base := time.Now()
	for i, email := range []string{"a@x.io", "b@x.io", "c@y.io"} {
		require.NoError(t, repo.Create(ctx, &model.User{
			Email:     email,
			Password:  "digest",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	users, total, err := repo.List(ctx, 10, 0, "x.io")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, users, 2)
	assert.Equal(t, "b@x.io", users[0].Email)

	users, total, err = repo.List(ctx, 1, 1, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, users, 1)
	assert.Equal(t, "b@x.io", users[0].Email)

	users, _, err = repo.List(ctx, 10, 5, "")
	require.NoError(t, err)
	assert.Empty(t, users)

	require.NoError(t, repo.Delete(ctx, idOf(t, repo, "a@x.io")))
	_, err = repo.GetByEmail(ctx, "a@x.io")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// The email is free again after a hard delete.
	require.NoError(t, repo.Create(ctx, &model.User{Email: "a@x.io", Password: "digest"}))
}

func idOf(t *testing.T, repo *MemoryUserRepository, email string) string {
	t.Helper()
	u, err := repo.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	return u.ID
}

func TestMemoryUserRepository_CleanupExpiredRefreshTokens(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	expired := &model.User{Email: "old@x.io", Password: "d"}
	live := &model.User{Email: "new@x.io", Password: "d"}
	require.NoError(t, repo.Create(ctx, expired))
	require.NoError(t, repo.Create(ctx, live))
	require.NoError(t, repo.UpdateRefreshHash(ctx, expired.ID, nil, strPtr("h"), &past))
	require.NoError(t, repo.UpdateRefreshHash(ctx, live.ID, nil, strPtr("h"), &future))

	n, err := repo.CleanupExpiredRefreshTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, _ := repo.GetByID(ctx, live.ID)
	assert.True(t, got.HasSession())
}
