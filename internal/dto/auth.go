package dto

import "github.com/Payphone-Digital/auth-service/internal/model"

// ProfileRequest carries the optional profile fields accepted on sign up.
type ProfileRequest struct {
	Name               string `json:"name" binding:"omitempty,min=2,max=50"`
	PhotoURL           string `json:"photo_url" binding:"omitempty,url,max=2048"`
	Location           string `json:"location" binding:"omitempty,max=100"`
	Bio                string `json:"bio" binding:"omitempty,max=500"`
	Website            string `json:"website" binding:"omitempty,url,max=2048"`
	Github             string `json:"github" binding:"omitempty,url,max=2048"`
	SkillsAndLanguages string `json:"skills_and_languages" binding:"omitempty,max=500"`
	Learning           string `json:"learning" binding:"omitempty,max=500"`
	HackingOn          string `json:"hacking_on" binding:"omitempty,max=500"`
}

func (r ProfileRequest) ToModel() model.Profile {
	return model.Profile{
		Name:               r.Name,
		PhotoURL:           r.PhotoURL,
		Location:           r.Location,
		Bio:                r.Bio,
		Website:            r.Website,
		Github:             r.Github,
		SkillsAndLanguages: r.SkillsAndLanguages,
		Learning:           r.Learning,
		HackingOn:          r.HackingOn,
	}
}

type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,password"`
	ProfileRequest
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,max=128"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"` // Access token expiry in seconds
}
