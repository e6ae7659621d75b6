package service

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/Payphone-Digital/auth-service/internal/errors"
	"github.com/Payphone-Digital/auth-service/internal/model"
	"github.com/Payphone-Digital/auth-service/internal/repository"
	ctxutil "github.com/Payphone-Digital/auth-service/pkg/context"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CredentialStore is the persistence the session lifecycle needs. Absent
// records are gorm.ErrRecordNotFound, a taken email on Create is
// gorm.ErrDuplicatedKey and a lost conditional refresh hash update is
// repository.ErrRefreshHashMismatch.
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	UpdateRefreshHash(ctx context.Context, id string, expected, next *string, expiresAt *time.Time) error
}

// TokenDenylist remembers revoked access token ids until they expire.
type TokenDenylist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// SessionManager owns sign-up, sign-in, refresh rotation and logout. A user
// has at most one valid refresh token, identified by the hash stored on the
// user record.
type SessionManager struct {
	store    CredentialStore
	hasher   PasswordHasher
	codec    *TokenCodec
	denylist TokenDenylist
}

func NewSessionManager(store CredentialStore, hasher PasswordHasher, codec *TokenCodec, denylist TokenDenylist) *SessionManager {
	return &SessionManager{
		store:    store,
		hasher:   hasher,
		codec:    codec,
		denylist: denylist,
	}
}

// SignUp registers a new user and starts a session for it.
func (m *SessionManager) SignUp(ctx context.Context, email, password string, profile model.Profile) (*TokenPair, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "SignUp")

	logger.InfoWithContext(ctx, "User sign up attempt").
		String("email", email).
		Log()

	existing, err := m.store.GetByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		logger.WarnWithContext(ctx, "Email already registered").
			String("email", email).
			Log()
		return nil, apperrors.ErrEmailExists
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		logger.ErrorWithContext(ctx, "Failed to check email availability").
			String("email", email).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	digest, err := m.hasher.Hash(password)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to hash password").
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	user := &model.User{
		Email:    email,
		Password: digest,
		Profile:  datatypes.NewJSONType(profile),
	}
	if err := m.store.Create(ctx, user); err != nil {
		// Another sign-up may have taken the email after the lookup above.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrEmailExists
		}
		logger.ErrorWithContext(ctx, "Failed to create user").
			String("email", email).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	pair, err := m.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	logger.InfoWithContext(ctx, "User signed up successfully").
		String("user_id", user.ID).
		Log()
	logger.LogAuth(user.ID, "signup", true)

	return pair, nil
}

// SignIn checks the password and replaces any existing session with a new one.
func (m *SessionManager) SignIn(ctx context.Context, email, password string) (*TokenPair, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "SignIn")

	logger.InfoWithContext(ctx, "User sign in attempt").
		String("email", email).
		Log()

	user, err := m.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WarnWithContext(ctx, "Sign in for unknown email").
				String("email", email).
				Log()
			return nil, apperrors.ErrUserNotFound
		}
		logger.ErrorWithContext(ctx, "Failed to get user by email").
			String("email", email).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if !m.hasher.Verify(user.Password, password) {
		logger.WarnWithContext(ctx, "Invalid password").
			String("user_id", user.ID).
			Log()
		logger.LogAuth(user.ID, "signin", false)
		return nil, apperrors.ErrInvalidCredentials
	}

	pair, err := m.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	logger.InfoWithContext(ctx, "User signed in successfully").
		String("user_id", user.ID).
		Log()
	logger.LogAuth(user.ID, "signin", true)

	return pair, nil
}

// startSession issues a pair and stores its refresh hash unconditionally,
// overwriting whatever session the user had.
func (m *SessionManager) startSession(ctx context.Context, user *model.User) (*TokenPair, error) {
	pair, refreshHash, expiresAt, err := m.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := m.store.UpdateRefreshHash(ctx, user.ID, nil, &refreshHash, &expiresAt); err != nil {
		logger.ErrorWithContext(ctx, "Failed to store refresh token hash").
			String("user_id", user.ID).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	return pair, nil
}

func (m *SessionManager) issue(ctx context.Context, user *model.User) (*TokenPair, string, time.Time, error) {
	pair, err := m.codec.IssuePair(user.ID, user.Email)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to issue token pair").
			String("user_id", user.ID).
			Err(err).
			Log()
		return nil, "", time.Time{}, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	refreshHash, err := m.hasher.Hash(pair.RefreshToken)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to hash refresh token").
			String("user_id", user.ID).
			Err(err).
			Log()
		return nil, "", time.Time{}, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	return pair, refreshHash, time.Now().Add(m.codec.RefreshTTL()), nil
}

// RefreshTokens rotates the session: the presented refresh token must match
// the stored hash, and the new hash only lands if nobody rotated in between.
// Every rejection is the same ErrAccessDenied.
func (m *SessionManager) RefreshTokens(ctx context.Context, subjectID, presented string) (*TokenPair, error) {
	ctx = ctxutil.WithFunction(ctxutil.WithUserID(ctx, subjectID), "service", "RefreshTokens")

	logger.InfoWithContext(ctx, "Token refresh attempt").Log()

	user, err := m.store.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WarnWithContext(ctx, "Refresh for unknown user").Log()
			return nil, apperrors.ErrAccessDenied
		}
		logger.ErrorWithContext(ctx, "Failed to get user for refresh").
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if !user.HasSession() {
		logger.WarnWithContext(ctx, "Refresh without an active session").Log()
		logger.LogAuth(subjectID, "refresh", false)
		return nil, apperrors.ErrAccessDenied
	}

	if !m.hasher.Verify(*user.RefreshTokenHash, presented) {
		logger.WarnWithContext(ctx, "Refresh token does not match the active session").Log()
		logger.LogAuth(subjectID, "refresh", false)
		return nil, apperrors.ErrAccessDenied
	}

	pair, refreshHash, expiresAt, err := m.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	err = m.store.UpdateRefreshHash(ctx, user.ID, user.RefreshTokenHash, &refreshHash, &expiresAt)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshHashMismatch) || errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WarnWithContext(ctx, "Refresh lost the rotation race").Log()
			logger.LogAuth(subjectID, "refresh", false)
			return nil, apperrors.ErrAccessDenied
		}
		logger.ErrorWithContext(ctx, "Failed to rotate refresh token hash").
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Tokens refreshed successfully").Log()
	logger.LogAuth(subjectID, "refresh", true)

	return pair, nil
}

// Logout clears the refresh hash. Logging out twice, or as a user that no
// longer exists, is not an error.
func (m *SessionManager) Logout(ctx context.Context, subjectID string) error {
	ctx = ctxutil.WithFunction(ctxutil.WithUserID(ctx, subjectID), "service", "Logout")

	err := m.store.UpdateRefreshHash(ctx, subjectID, nil, nil, nil)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.ErrorWithContext(ctx, "Failed to clear refresh token hash").
			Err(err).
			Log()
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "User logged out").Log()
	logger.LogAuth(subjectID, "logout", true)

	return nil
}

// RevokeAccessToken puts the token's jti on the denylist until it would have
// expired anyway.
func (m *SessionManager) RevokeAccessToken(ctx context.Context, claims *TokenClaims) error {
	if m.denylist == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ctx = ctxutil.WithFunction(ctx, "service", "RevokeAccessToken")

	ttl := time.Until(claims.ExpiresAt.Time)
	if err := m.denylist.Revoke(ctx, claims.ID, ttl); err != nil {
		logger.ErrorWithContext(ctx, "Failed to revoke access token").
			String("jti", claims.ID).
			Err(err).
			Log()
		return apperrors.WrapError(apperrors.ErrServiceUnavailable, err)
	}
	return nil
}

// IsAccessTokenRevoked fails open: when the denylist cannot be read the token
// is treated as live and the failure is logged.
func (m *SessionManager) IsAccessTokenRevoked(ctx context.Context, jti string) bool {
	if m.denylist == nil || jti == "" {
		return false
	}

	revoked, err := m.denylist.IsRevoked(ctx, jti)
	if err != nil {
		logger.WarnWithContext(ctxutil.WithFunction(ctx, "service", "IsAccessTokenRevoked"), "Denylist lookup failed").
			String("jti", jti).
			Err(err).
			Log()
		return false
	}
	return revoked
}

// Codec exposes the token codec to the HTTP middleware.
func (m *SessionManager) Codec() *TokenCodec {
	return m.codec
}
