package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MemoryUserRepository keeps users in process. It reports the same errors as
// UserRepository so the services cannot tell them apart. Tests and local runs
// without a database use it.
type MemoryUserRepository struct {
	mu      sync.Mutex
	byID    map[string]*model.User
	byEmail map[string]string
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[string]*model.User),
		byEmail: make(map[string]string),
	}
}

// clone copies a user so callers never share the stored pointers.
func clone(u *model.User) *model.User {
	c := *u
	if u.RefreshTokenHash != nil {
		h := *u.RefreshTokenHash
		c.RefreshTokenHash = &h
	}
	if u.RefreshTokenExpires != nil {
		e := *u.RefreshTokenExpires
		c.RefreshTokenExpires = &e
	}
	return &c
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return clone(u), nil
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *MemoryUserRepository) List(ctx context.Context, limit, offset int, search string) ([]model.User, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	needle := strings.ToLower(search)
	matched := make([]model.User, 0, len(r.byID))
	for _, u := range r.byID {
		if needle != "" &&
			!strings.Contains(strings.ToLower(u.Email), needle) &&
			!strings.Contains(strings.ToLower(u.Profile.Data().Name), needle) {
			continue
		}
		matched = append(matched, *clone(u))
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return []model.User{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[user.Email]; taken {
		return gorm.ErrDuplicatedKey
	}

	if user.ID == "" {
		user.ID = model.NewID()
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	r.byID[user.ID] = clone(user)
	r.byEmail[user.Email] = user.ID
	return nil
}

// UpdateRefreshHash has the same compare-and-swap contract as
// UserRepository.UpdateRefreshHash. The mutex makes the compare and the
// write one step.
func (r *MemoryUserRepository) UpdateRefreshHash(ctx context.Context, id string, expected, next *string, expiresAt *time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		if expected != nil {
			return ErrRefreshHashMismatch
		}
		return gorm.ErrRecordNotFound
	}

	if expected != nil && (u.RefreshTokenHash == nil || *u.RefreshTokenHash != *expected) {
		return ErrRefreshHashMismatch
	}

	u.RefreshTokenHash = nil
	if next != nil {
		h := *next
		u.RefreshTokenHash = &h
	}
	u.RefreshTokenExpires = nil
	if expiresAt != nil {
		e := *expiresAt
		u.RefreshTokenExpires = &e
	}
	u.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryUserRepository) UpdateProfile(ctx context.Context, id string, profile model.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Profile = datatypes.NewJSONType(profile)
	u.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryUserRepository) UpdatePassword(ctx context.Context, id string, hashedPassword string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Password = hashedPassword
	u.RefreshTokenHash = nil
	u.RefreshTokenExpires = nil
	u.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryUserRepository) CleanupExpiredRefreshTokens(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var cleaned int64
	for _, u := range r.byID {
		if u.RefreshTokenExpires != nil && u.RefreshTokenExpires.Before(now) {
			u.RefreshTokenHash = nil
			u.RefreshTokenExpires = nil
			cleaned++
		}
	}
	return cleaned, nil
}

func (r *MemoryUserRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.byEmail, u.Email)
	delete(r.byID, id)
	return nil
}
