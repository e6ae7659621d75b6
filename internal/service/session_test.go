package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "github.com/Payphone-Digital/auth-service/internal/errors"
	"github.com/Payphone-Digital/auth-service/internal/model"
	"github.com/Payphone-Digital/auth-service/internal/repository"
	"github.com/Payphone-Digital/auth-service/pkg/cache"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	manager *SessionManager
	repo    *repository.MemoryUserRepository
	hasher  *Argon2Hasher
	codec   *TokenCodec
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	logger.UseNop()

	c := cache.NewCache()
	t.Cleanup(c.Close)

	repo := repository.NewMemoryUserRepository()
	hasher := NewArgon2Hasher(testArgon2Params())
	codec := NewTokenCodec(testJWTConfig())

	return &sessionFixture{
		manager: NewSessionManager(repo, hasher, codec, repository.NewMemoryTokenDenylist(c)),
		repo:    repo,
		hasher:  hasher,
		codec:   codec,
	}
}

func (f *sessionFixture) subject(t *testing.T, pair *TokenPair) string {
	t.Helper()
	claims, err := f.codec.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	return claims.Subject
}

func (f *sessionFixture) storedHash(t *testing.T, id string) *string {
	t.Helper()
	u, err := f.repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return u.RefreshTokenHash
}

func TestSessionManager_SignUp(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	pair, err := f.manager.SignUp(ctx, "alice@x.io", "pw1-secret", model.Profile{Name: "Alice"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)

	id := f.subject(t, pair)
	u, err := f.repo.GetByID(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, "alice@x.io", u.Email)
	assert.Equal(t, "Alice", u.Profile.Data().Name)
	assert.NotEqual(t, "pw1-secret", u.Password)
	assert.True(t, f.hasher.Verify(u.Password, "pw1-secret"))
	require.True(t, u.HasSession())
	assert.True(t, f.hasher.Verify(*u.RefreshTokenHash, pair.RefreshToken))
	assert.NotEqual(t, pair.RefreshToken, *u.RefreshTokenHash)
	require.NotNil(t, u.RefreshTokenExpires)

	_, err = f.manager.SignUp(ctx, "alice@x.io", "other-pw1", model.Profile{})
	assert.ErrorIs(t, err, apperrors.ErrEmailExists)
}

// duplicateOnCreate loses a sign-up race: the lookup misses but the insert
// hits the unique index.
type duplicateOnCreate struct {
	*repository.MemoryUserRepository
}

func (d duplicateOnCreate) Create(ctx context.Context, u *model.User) error {
	_ = d.MemoryUserRepository.Create(ctx, &model.User{Email: u.Email, Password: "x"})
	return d.MemoryUserRepository.Create(ctx, u)
}

func TestSessionManager_SignUp_DuplicateOnInsert(t *testing.T) {
	f := newSessionFixture(t)
	m := NewSessionManager(duplicateOnCreate{f.repo}, f.hasher, f.codec, nil)

	_, err := m.SignUp(context.Background(), "race@x.io", "pw1-secret", model.Profile{})
	assert.ErrorIs(t, err, apperrors.ErrEmailExists)
}

func TestSessionManager_SignIn(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	first, err := f.manager.SignUp(ctx, "alice@x.io", "pw1-secret", model.Profile{})
	require.NoError(t, err)
	id := f.subject(t, first)

	_, err = f.manager.SignIn(ctx, "nobody@x.io", "pw1-secret")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	_, err = f.manager.SignIn(ctx, "alice@x.io", "wrong-pw2")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	second, err := f.manager.SignIn(ctx, "alice@x.io", "pw1-secret")
	require.NoError(t, err)

	// Signing in replaces the earlier session.
	hash := f.storedHash(t, id)
	require.NotNil(t, hash)
	assert.True(t, f.hasher.Verify(*hash, second.RefreshToken))
	assert.False(t, f.hasher.Verify(*hash, first.RefreshToken))

	_, err = f.manager.RefreshTokens(ctx, id, first.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrAccessDenied)
}

func TestSessionManager_RefreshRotates(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	pair, err := f.manager.SignUp(ctx, "alice@x.io", "pw1-secret", model.Profile{})
	require.NoError(t, err)
	id := f.subject(t, pair)

	rotated, err := f.manager.RefreshTokens(ctx, id, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
	assert.True(t, f.hasher.Verify(*f.storedHash(t, id), rotated.RefreshToken))

	// The rotated-out token never works again.
	_, err = f.manager.RefreshTokens(ctx, id, pair.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrAccessDenied)

	again, err := f.manager.RefreshTokens(ctx, id, rotated.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, rotated.RefreshToken, again.RefreshToken)
}

func TestSessionManager_ConcurrentRefreshSingleWinner(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	pair, err := f.manager.SignUp(ctx, "alice@x.io", "pw1-secret", model.Profile{})
	require.NoError(t, err)
	id := f.subject(t, pair)

	const attempts = 2
	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		results = make([]*TokenPair, attempts)
		errs    = make([]error, attempts)
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = f.manager.RefreshTokens(ctx, id, pair.RefreshToken)
		}(i)
	}
	close(start)
	wg.Wait()

	var winner *TokenPair
	var denied int
	for i := 0; i < attempts; i++ {
		switch {
		case errs[i] == nil:
			require.Nil(t, winner, "more than one refresh succeeded")
			winner = results[i]
		case errors.Is(errs[i], apperrors.ErrAccessDenied):
			denied++
		default:
			t.Fatalf("unexpected error: %v", errs[i])
		}
	}

	require.NotNil(t, winner)
	assert.Equal(t, attempts-1, denied)
	assert.True(t, f.hasher.Verify(*f.storedHash(t, id), winner.RefreshToken))
}

func TestSessionManager_RefreshRejections(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	pair, err := f.manager.SignUp(ctx, "alice@x.io", "pw1-secret", model.Profile{})
	require.NoError(t, err)
	id := f.subject(t, pair)

	_, err = f.manager.RefreshTokens(ctx, "ghost", pair.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrAccessDenied)

	_, err = f.manager.RefreshTokens(ctx, id, "not-the-token")
	assert.ErrorIs(t, err, apperrors.ErrAccessDenied)
}

func TestSessionManager_LogoutIsFinalAndIdempotent(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	pair, err := f.manager.SignUp(ctx, "alice@x.io", "pw1-secret", model.Profile{})
	require.NoError(t, err)
	id := f.subject(t, pair)

	require.NoError(t, f.manager.Logout(ctx, id))
	assert.Nil(t, f.storedHash(t, id))

	// The refresh token is still unexpired but the session is gone.
	_, err = f.codec.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	_, err = f.manager.RefreshTokens(ctx, id, pair.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrAccessDenied)

	require.NoError(t, f.manager.Logout(ctx, id))
	require.NoError(t, f.manager.Logout(ctx, "ghost"))
}

func TestSessionManager_AliceScenario(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	p0, err := f.manager.SignUp(ctx, "alice@x.io", "pw1", model.Profile{})
	require.NoError(t, err)
	id := f.subject(t, p0)
	h0 := *f.storedHash(t, id)

	_, err = f.manager.SignIn(ctx, "alice@x.io", "pw2")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	assert.Equal(t, h0, *f.storedHash(t, id), "a failed sign-in must not touch the session")

	p1, err := f.manager.RefreshTokens(ctx, id, p0.RefreshToken)
	require.NoError(t, err)

	_, err = f.manager.RefreshTokens(ctx, id, p0.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrAccessDenied)

	require.NoError(t, f.manager.Logout(ctx, id))

	_, err = f.manager.RefreshTokens(ctx, id, p1.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrAccessDenied)
}

// failingStore breaks the refresh hash write.
type failingStore struct {
	*repository.MemoryUserRepository
}

func (failingStore) UpdateRefreshHash(context.Context, string, *string, *string, *time.Time) error {
	return errors.New("connection reset by peer")
}

func TestSessionManager_StoreFailureIsInternal(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	digest, err := f.hasher.Hash("pw1-secret")
	require.NoError(t, err)
	require.NoError(t, f.repo.Create(ctx, &model.User{Email: "alice@x.io", Password: digest}))

	m := NewSessionManager(failingStore{f.repo}, f.hasher, f.codec, nil)

	_, err = m.SignIn(ctx, "alice@x.io", "pw1-secret")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInternal)
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
	assert.NotContains(t, apperrors.GetErrorMessage(err), "connection reset")

	err = m.Logout(ctx, "any")
	assert.ErrorIs(t, err, apperrors.ErrInternal)
}

func TestSessionManager_AccessTokenRevocation(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	pair, err := f.manager.SignUp(ctx, "alice@x.io", "pw1-secret", model.Profile{})
	require.NoError(t, err)

	claims, err := f.codec.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)

	assert.False(t, f.manager.IsAccessTokenRevoked(ctx, claims.ID))
	require.NoError(t, f.manager.RevokeAccessToken(ctx, claims))
	assert.True(t, f.manager.IsAccessTokenRevoked(ctx, claims.ID))

	// Without a denylist nothing is ever revoked.
	bare := NewSessionManager(f.repo, f.hasher, f.codec, nil)
	require.NoError(t, bare.RevokeAccessToken(ctx, claims))
	assert.False(t, bare.IsAccessTokenRevoked(ctx, claims.ID))
}

type brokenDenylist struct{}

func (brokenDenylist) Revoke(context.Context, string, time.Duration) error {
	return errors.New("redis: connection refused")
}

func (brokenDenylist) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func TestSessionManager_DenylistFailure(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	m := NewSessionManager(f.repo, f.hasher, f.codec, brokenDenylist{})

	claims := &TokenClaims{}
	claims.ID = "jti-1"
	claims.ExpiresAt = nil
	require.NoError(t, m.RevokeAccessToken(ctx, claims), "tokens without expiry are skipped")

	pair, err := f.codec.IssuePair("u1", "a@x.io")
	require.NoError(t, err)
	access, err := f.codec.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)

	err = m.RevokeAccessToken(ctx, access)
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavailable)
	assert.False(t, m.IsAccessTokenRevoked(ctx, access.ID), "read failures fail open")
}
