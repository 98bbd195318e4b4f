package services

import (
	"context"
	"testing"
	"time"

	"github.com/Digital231/lastDance/internal/config"
	"github.com/Digital231/lastDance/internal/database"
	"github.com/Digital231/lastDance/internal/database/fake"
	"github.com/Digital231/lastDance/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func userTestConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:    []byte("test-secret"),
			ExpiresIn: time.Hour,
		},
		Chat: config.ChatConfig{
			PublicRoom:         "chatRoom",
			MinPasswordEntropy: 40,
		},
	}
}

func TestGetUserStripsPasswordHash(t *testing.T) {
	db := fake.New()
	svc := NewUserService(db, userTestConfig())
	ctx := context.Background()

	alice := seedUser(t, db, "alice")

	user, err := svc.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.PasswordHash)

	_, err = svc.GetUser(ctx, 999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestListUsers(t *testing.T) {
	db := fake.New()
	svc := NewUserService(db, userTestConfig())

	seedUser(t, db, "carol")
	seedUser(t, db, "alice")
	seedUser(t, db, "bob")

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
	assert.Equal(t, "carol", users[2].Username)
}

func TestUpdateProfileUsernameAndAvatar(t *testing.T) {
	db := fake.New()
	svc := NewUserService(db, userTestConfig())
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	seedUser(t, db, "bobby")

	updated, err := svc.UpdateProfile(ctx, alice.ID, &models.UpdateProfileRequest{
		Username: "alice2",
		Avatar:   "https://example.com/a.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice2", updated.Username)
	assert.Equal(t, "https://example.com/a.png", updated.Avatar)

	var reqErr *RequestError
	_, err = svc.UpdateProfile(ctx, alice.ID, &models.UpdateProfileRequest{Username: "bobby"})
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "Username already taken.", reqErr.Msg)

	// Re-submitting your own current name is not a conflict.
	_, err = svc.UpdateProfile(ctx, alice.ID, &models.UpdateProfileRequest{Username: "alice2"})
	assert.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, alice.ID, &models.UpdateProfileRequest{Username: "ab"})
	assert.ErrorAs(t, err, &reqErr)
}

func TestUpdateProfilePasswordChange(t *testing.T) {
	db := fake.New()
	svc := NewUserService(db, userTestConfig())
	ctx := context.Background()

	alice := seedUser(t, db, "alice")

	var reqErr *RequestError
	_, err := svc.UpdateProfile(ctx, alice.ID, &models.UpdateProfileRequest{
		NewPassword:        "N3wSecret!",
		ConfirmNewPassword: "N3wSecret!",
	})
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "Current password is required to set a new password.", reqErr.Msg)

	_, err = svc.UpdateProfile(ctx, alice.ID, &models.UpdateProfileRequest{
		CurrentPassword:    "Password1!",
		NewPassword:        "N3wSecret!",
		ConfirmNewPassword: "different",
	})
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "New password and confirmation do not match.", reqErr.Msg)

	_, err = svc.UpdateProfile(ctx, alice.ID, &models.UpdateProfileRequest{
		CurrentPassword:    "wrong",
		NewPassword:        "N3wSecret!",
		ConfirmNewPassword: "N3wSecret!",
	})
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "Current password is incorrect", reqErr.Msg)

	// Weak replacement rejected even with correct current password.
	_, err = svc.UpdateProfile(ctx, alice.ID, &models.UpdateProfileRequest{
		CurrentPassword:    "Password1!",
		NewPassword:        "weak",
		ConfirmNewPassword: "weak",
	})
	assert.ErrorAs(t, err, &reqErr)

	updated, err := svc.UpdateProfile(ctx, alice.ID, &models.UpdateProfileRequest{
		CurrentPassword:    "Password1!",
		NewPassword:        "N3wSecret!",
		ConfirmNewPassword: "N3wSecret!",
	})
	require.NoError(t, err)
	assert.Empty(t, updated.PasswordHash)

	stored, err := db.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("N3wSecret!")))
}
