package service

import (
	"context"
	"errors"
	"math"

	"github.com/Payphone-Digital/auth-service/internal/dto"
	apperrors "github.com/Payphone-Digital/auth-service/internal/errors"
	"github.com/Payphone-Digital/auth-service/internal/model"
	ctxutil "github.com/Payphone-Digital/auth-service/pkg/context"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"gorm.io/gorm"
)

// UserStore is the persistence behind the user profile endpoints.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context, limit, offset int, search string) ([]model.User, int64, error)
	UpdateProfile(ctx context.Context, id string, profile model.Profile) error
	UpdatePassword(ctx context.Context, id string, hashedPassword string) error
	Delete(ctx context.Context, id string) error
}

type UserService struct {
	repoUser UserStore
	hasher   PasswordHasher
}

func NewUserService(repo UserStore, hasher PasswordHasher) *UserService {
	return &UserService{repoUser: repo, hasher: hasher}
}

func (s *UserService) lookup(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repoUser.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.InfoWithContext(ctx, "User not found").
				String("target_user_id", id).
				Log()
			return nil, apperrors.ErrUserNotFound
		}
		logger.ErrorWithContext(ctx, "Failed to get user by ID").
			String("target_user_id", id).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "GetByID")

	user, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	logger.DebugWithContext(ctx, "User retrieved successfully").
		String("target_user_id", id).
		Log()

	res := dto.ToUserResponse(user)
	return &res, nil
}

// List returns a page of users, the total match count and the page count.
func (s *UserService) List(ctx context.Context, limit, offset int, search string) ([]dto.UserResponse, int64, int, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "List")

	logger.InfoWithContext(ctx, "Get all users").
		Int("limit", limit).
		Int("offset", offset).
		String("search", search).
		Log()

	users, total, err := s.repoUser.List(ctx, limit, offset, search)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to get all users").
			Err(err).
			Log()
		return nil, 0, 0, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	pageTotal := 0
	if limit > 0 {
		pageTotal = int(math.Ceil(float64(total) / float64(limit)))
	}

	res := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		res = append(res, dto.ToUserResponse(&users[i]))
	}

	logger.InfoWithContext(ctx, "Users retrieved successfully").
		Int64("total", total).
		Int("page_total", pageTotal).
		Int("returned_count", len(res)).
		Log()

	return res, total, pageTotal, nil
}

// UpdateProfile applies a partial profile update. Only the owner may do it.
func (s *UserService) UpdateProfile(ctx context.Context, actorID, targetID string, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "UpdateProfile")

	if actorID != targetID {
		logger.WarnWithContext(ctx, "User attempted to update another account").
			String("target_user_id", targetID).
			Log()
		return nil, apperrors.ErrNotOwner
	}

	user, err := s.lookup(ctx, targetID)
	if err != nil {
		return nil, err
	}

	profile := req.Apply(user.Profile.Data())
	if err := s.repoUser.UpdateProfile(ctx, targetID, profile); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.ErrorWithContext(ctx, "Failed to update user profile").
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	updated, err := s.lookup(ctx, targetID)
	if err != nil {
		return nil, err
	}

	logger.InfoWithContext(ctx, "User profile updated successfully").Log()

	res := dto.ToUserResponse(updated)
	return &res, nil
}

// ChangePassword checks the current password, stores the new hash and ends
// the user's refresh session.
func (s *UserService) ChangePassword(ctx context.Context, actorID, targetID string, req *dto.UpdatePasswordRequest) error {
	ctx = ctxutil.WithFunction(ctx, "service", "ChangePassword")

	if actorID != targetID {
		logger.WarnWithContext(ctx, "User attempted to change another account's password").
			String("target_user_id", targetID).
			Log()
		return apperrors.ErrNotOwner
	}

	if req.NewPassword != req.ConfirmPassword {
		return apperrors.WrapError(apperrors.ErrInvalidInput, errors.New("password confirmation does not match"))
	}

	user, err := s.lookup(ctx, targetID)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(user.Password, req.CurrentPassword) {
		logger.WarnWithContext(ctx, "Current password is incorrect").Log()
		return apperrors.ErrInvalidCredentials
	}

	digest, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to hash password").
			Err(err).
			Log()
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.repoUser.UpdatePassword(ctx, targetID, digest); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		logger.ErrorWithContext(ctx, "Failed to update password").
			Err(err).
			Log()
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "User password updated successfully").Log()
	logger.LogAuth(targetID, "change_password", true)

	return nil
}

// Delete permanently removes the account. Only the owner may do it.
func (s *UserService) Delete(ctx context.Context, actorID, targetID string) error {
	ctx = ctxutil.WithFunction(ctx, "service", "Delete")

	if actorID != targetID {
		logger.WarnWithContext(ctx, "User attempted to delete another account").
			String("target_user_id", targetID).
			Log()
		return apperrors.ErrNotOwner
	}

	if err := s.repoUser.Delete(ctx, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		logger.ErrorWithContext(ctx, "Failed to delete user").
			Err(err).
			Log()
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "User deleted successfully").Log()

	return nil
}
