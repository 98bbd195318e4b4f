package services

import (
	"context"
	"strings"

	"github.com/Digital231/lastDance/internal/auth"
	"github.com/Digital231/lastDance/internal/config"
	"github.com/Digital231/lastDance/internal/database"
	"github.com/Digital231/lastDance/internal/models"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	db  database.Database
	cfg *config.Config
}

func NewUserService(db database.Database, cfg *config.Config) *UserService {
	return &UserService{db: db, cfg: cfg}
}

func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.db.ListUsers(ctx)
}

func (s *UserService) GetUser(ctx context.Context, id int) (*models.User, error) {
	user, err := s.db.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// UpdateProfile applies username, avatar and/or password changes. A password
// change requires the current password and a matching confirmation.
func (s *UserService) UpdateProfile(ctx context.Context, userID int, req *models.UpdateProfileRequest) (*models.User, error) {
	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Username != "" {
		newUsername := strings.TrimSpace(req.Username)
		if fieldErr := auth.ValidateUsername(newUsername); fieldErr != nil {
			return nil, &RequestError{Msg: fieldErr.Msg}
		}
		existing, err := s.db.GetUserByUsername(ctx, newUsername)
		if err == nil && existing.ID != userID {
			return nil, &RequestError{Msg: "Username already taken."}
		}
		user.Username = newUsername
	}

	if req.Avatar != "" {
		user.Avatar = req.Avatar
	}

	if req.NewPassword != "" {
		if req.CurrentPassword == "" {
			return nil, &RequestError{Msg: "Current password is required to set a new password."}
		}
		if req.NewPassword != req.ConfirmNewPassword {
			return nil, &RequestError{Msg: "New password and confirmation do not match."}
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
			return nil, &RequestError{Msg: "Current password is incorrect"}
		}
		if fieldErr := auth.ValidatePassword(req.NewPassword, s.cfg.Chat.MinPasswordEntropy); fieldErr != nil {
			return nil, &RequestError{Msg: fieldErr.Msg}
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}

	if err := s.db.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}
