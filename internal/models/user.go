package models

import "time"

type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Avatar       string    `json:"avatar"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserRef is the sender/participant projection embedded in messages,
// conversations and notifications.
type UserRef struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type UpdateProfileRequest struct {
	Username           string `json:"username,omitempty"`
	Avatar             string `json:"avatar,omitempty"`
	CurrentPassword    string `json:"current_password,omitempty"`
	NewPassword        string `json:"new_password,omitempty"`
	ConfirmNewPassword string `json:"confirm_new_password,omitempty"`
}

// UserListing is a user row decorated with live presence for GET /users.
type UserListing struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Online   bool   `json:"online"`
}
