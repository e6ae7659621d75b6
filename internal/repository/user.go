package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/model"
	ctxutil "github.com/Payphone-Digital/auth-service/pkg/context"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrRefreshHashMismatch is returned by a conditional refresh hash update
// when the stored hash no longer equals the expected one.
var ErrRefreshHashMismatch = errors.New("refresh token hash mismatch")

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "GetByID")

	logger.DebugWithContext(ctx, "Getting user by ID").
		String("user_id", id).
		Log()

	// Check if context is cancelled
	if err := ctx.Err(); err != nil {
		logger.WarnWithContext(ctx, "Context cancelled before query").
			Err(err).
			Log()
		return nil, err
	}

	start := time.Now()
	var user model.User

	result := r.db.WithContext(ctx).Where("id = ?", id).First(&user)
	duration := time.Since(start)

	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			logger.ErrorWithContext(ctx, "Failed to get user by ID").
				String("user_id", id).
				Duration(duration).
				Err(result.Error).
				Log()
		}
		return nil, result.Error
	}

	logger.DebugWithContext(ctx, "User retrieved successfully").
		String("user_id", id).
		Duration(duration).
		Log()

	return &user, nil
}

// GetByEmail finds user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "GetByEmail")

	logger.DebugWithContext(ctx, "Getting user by email").
		String("email", email).
		Log()

	start := time.Now()
	var user model.User

	result := r.db.WithContext(ctx).Where("email = ?", email).First(&user)
	duration := time.Since(start)

	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			logger.ErrorWithContext(ctx, "Failed to get user by email").
				String("email", email).
				Duration(duration).
				Err(result.Error).
				Log()
		}
		return nil, result.Error
	}

	logger.DebugWithContext(ctx, "User retrieved successfully by email").
		String("user_id", user.ID).
		Duration(duration).
		Log()

	return &user, nil
}

// List returns one page of users ordered by creation, newest first, and the
// total number of users matching search.
func (r *UserRepository) List(ctx context.Context, limit, offset int, search string) ([]model.User, int64, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "List")

	logger.DebugWithContext(ctx, "Listing users").
		Int("limit", limit).
		Int("offset", offset).
		String("search", search).
		Log()

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	start := time.Now()
	var users []model.User
	var total int64

	query := r.db.WithContext(ctx).Model(&model.User{})
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("email ILIKE ? OR profile->>'name' ILIKE ?", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to count users").
			Err(err).
			Log()
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to fetch users").
			Int("limit", limit).
			Int("offset", offset).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return nil, 0, err
	}

	logger.InfoWithContext(ctx, "Users retrieved successfully").
		Int64("total", total).
		Int("returned_count", len(users)).
		Duration(time.Since(start)).
		Log()

	return users, total, nil
}

// Create inserts a new user. A taken email surfaces as gorm.ErrDuplicatedKey
// when the dialector translates errors.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "Create")

	logger.DebugWithContext(ctx, "Creating new user").
		String("email", user.Email).
		Log()

	start := time.Now()
	result := r.db.WithContext(ctx).Create(user)
	duration := time.Since(start)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			logger.WarnWithContext(ctx, "User email already taken").
				String("email", user.Email).
				Log()
			return result.Error
		}
		logger.ErrorWithContext(ctx, "Failed to create user").
			String("email", user.Email).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.InfoWithContext(ctx, "User created successfully").
		String("user_id", user.ID).
		Duration(duration).
		Log()

	return nil
}

// UpdateRefreshHash stores next as the user's refresh token hash. With a nil
// expected the write is unconditional. Otherwise it only applies while the
// stored hash still equals *expected, and ErrRefreshHashMismatch reports that
// another writer got there first.
func (r *UserRepository) UpdateRefreshHash(ctx context.Context, id string, expected, next *string, expiresAt *time.Time) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "UpdateRefreshHash")

	logger.DebugWithContext(ctx, "Updating refresh token hash").
		String("user_id", id).
		Bool("conditional", expected != nil).
		Bool("has_token", next != nil).
		Log()

	start := time.Now()
	query := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id)
	if expected != nil {
		query = query.Where("refresh_token_hash = ?", *expected)
	}

	result := query.Updates(map[string]interface{}{
		"refresh_token_hash":       next,
		"refresh_token_expires_at": expiresAt,
	})
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update refresh token hash").
			String("user_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	if result.RowsAffected == 0 {
		if expected != nil {
			logger.WarnWithContext(ctx, "Refresh token hash changed concurrently").
				String("user_id", id).
				Log()
			return ErrRefreshHashMismatch
		}
		return gorm.ErrRecordNotFound
	}

	logger.DebugWithContext(ctx, "Refresh token hash updated successfully").
		String("user_id", id).
		Duration(duration).
		Log()

	return nil
}

// UpdateProfile replaces the profile document of a user
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, profile model.Profile) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "UpdateProfile")

	start := time.Now()
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Update("profile", datatypes.NewJSONType(profile))
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update user profile").
			String("user_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	if result.RowsAffected == 0 {
		logger.WarnWithContext(ctx, "No user found to update").
			String("user_id", id).
			Log()
		return gorm.ErrRecordNotFound
	}

	logger.InfoWithContext(ctx, "User profile updated successfully").
		String("user_id", id).
		Duration(duration).
		Log()

	return nil
}

// UpdatePassword stores a new password hash and drops the refresh session
// in the same statement.
func (r *UserRepository) UpdatePassword(ctx context.Context, id string, hashedPassword string) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "UpdatePassword")

	start := time.Now()
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"password":                 hashedPassword,
		"refresh_token_hash":       nil,
		"refresh_token_expires_at": nil,
	})
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update user password").
			String("user_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	if result.RowsAffected == 0 {
		logger.WarnWithContext(ctx, "No user found to update password").
			String("user_id", id).
			Log()
		return gorm.ErrRecordNotFound
	}

	logger.InfoWithContext(ctx, "User password updated successfully").
		String("user_id", id).
		Duration(duration).
		Log()

	return nil
}

// CleanupExpiredRefreshTokens clears refresh hashes whose expiry has passed
func (r *UserRepository) CleanupExpiredRefreshTokens(ctx context.Context) (int64, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "CleanupExpiredRefreshTokens")

	start := time.Now()
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("refresh_token_expires_at IS NOT NULL AND refresh_token_expires_at < ?", time.Now()).
		Updates(map[string]interface{}{
			"refresh_token_hash":       nil,
			"refresh_token_expires_at": nil,
		})
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to cleanup expired refresh tokens").
			Duration(duration).
			Err(result.Error).
			Log()
		return 0, result.Error
	}

	if result.RowsAffected > 0 {
		logger.InfoWithContext(ctx, "Expired refresh tokens cleaned up").
			Int64("cleaned_count", result.RowsAffected).
			Duration(duration).
			Log()
	}

	return result.RowsAffected, nil
}

// Delete performs hard delete on user (permanent deletion)
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "Delete")

	logger.WarnWithContext(ctx, "Hard deleting user").
		String("user_id", id).
		Log()

	start := time.Now()
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.User{})
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to delete user").
			String("user_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.InfoWithContext(ctx, "User deleted successfully").
		String("user_id", id).
		Duration(duration).
		Log()

	return nil
}
