package model

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Profile holds the optional, user-editable fields stored as one jsonb column.
type Profile struct {
	Name               string `json:"name,omitempty"`
	PhotoURL           string `json:"photo_url,omitempty"`
	Location           string `json:"location,omitempty"`
	Bio                string `json:"bio,omitempty"`
	Website            string `json:"website,omitempty"`
	Github             string `json:"github,omitempty"`
	SkillsAndLanguages string `json:"skills_and_languages,omitempty"`
	Learning           string `json:"learning,omitempty"`
	HackingOn          string `json:"hacking_on,omitempty"`
}

// User is the credential record. RefreshTokenHash is nil while the user has
// no active session.
type User struct {
	ID                  string                      `gorm:"column:id;primaryKey;type:varchar(26)"`
	Email               string                      `gorm:"column:email;uniqueIndex;not null"`
	Password            string                      `gorm:"column:password;not null"`
	Profile             datatypes.JSONType[Profile] `gorm:"column:profile;type:jsonb"`
	RefreshTokenHash    *string                     `gorm:"column:refresh_token_hash;index:idx_users_refresh_token_hash,where:refresh_token_hash IS NOT NULL"`
	RefreshTokenExpires *time.Time                  `gorm:"column:refresh_token_expires_at;index:idx_users_token_cleanup,where:refresh_token_expires_at IS NOT NULL"`
	CreatedAt           time.Time                   `gorm:"column:created_at"`
	UpdatedAt           time.Time                   `gorm:"column:updated_at"`
}

// NewID returns a fresh lexicographically sortable identifier.
func NewID() string {
	return ulid.Make().String()
}

// BeforeCreate assigns the id when the caller left it empty.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID()
	}
	return nil
}

// HasSession reports whether a refresh token is currently valid for the user.
func (u *User) HasSession() bool {
	return u.RefreshTokenHash != nil && *u.RefreshTokenHash != ""
}
