package dto

import (
	"time"

	"github.com/Payphone-Digital/auth-service/internal/model"
)

// UpdateProfileRequest is a partial update: nil fields keep their value.
type UpdateProfileRequest struct {
	Name               *string `json:"name" binding:"omitempty,min=2,max=50"`
	PhotoURL           *string `json:"photo_url" binding:"omitempty,url,max=2048"`
	Location           *string `json:"location" binding:"omitempty,max=100"`
	Bio                *string `json:"bio" binding:"omitempty,max=500"`
	Website            *string `json:"website" binding:"omitempty,url,max=2048"`
	Github             *string `json:"github" binding:"omitempty,url,max=2048"`
	SkillsAndLanguages *string `json:"skills_and_languages" binding:"omitempty,max=500"`
	Learning           *string `json:"learning" binding:"omitempty,max=500"`
	HackingOn          *string `json:"hacking_on" binding:"omitempty,max=500"`
}

// Apply returns p with every field set in the request overwritten.
func (r UpdateProfileRequest) Apply(p model.Profile) model.Profile {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.Name, r.Name)
	set(&p.PhotoURL, r.PhotoURL)
	set(&p.Location, r.Location)
	set(&p.Bio, r.Bio)
	set(&p.Website, r.Website)
	set(&p.Github, r.Github)
	set(&p.SkillsAndLanguages, r.SkillsAndLanguages)
	set(&p.Learning, r.Learning)
	set(&p.HackingOn, r.HackingOn)
	return p
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required,max=128"`
	NewPassword     string `json:"new_password" binding:"required,password"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=NewPassword"`
}

// UserResponse is the public view of a user. It never carries the password
// or refresh token hash.
type UserResponse struct {
	ID        string        `json:"id"`
	Email     string        `json:"email"`
	Profile   model.Profile `json:"profile"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func ToUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Profile:   u.Profile.Data(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
