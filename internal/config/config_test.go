package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg := Load()

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, []byte("test-secret"), cfg.JWT.Secret)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpiresIn)
	assert.Equal(t, "chatRoom", cfg.Chat.PublicRoom)
	assert.Equal(t, 40, cfg.Chat.MinPasswordEntropy)
	assert.Equal(t, 90*time.Second, cfg.Chat.PresenceTTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 0, cfg.Redis.DB)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", ":9090")
	t.Setenv("JWT_EXPIRES_IN", "1h")
	t.Setenv("PUBLIC_ROOM", "lobby")
	t.Setenv("MIN_PASSWORD_ENTROPY", "50")
	t.Setenv("REDIS_DB", "3")

	cfg := Load()

	require.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.JWT.ExpiresIn)
	assert.Equal(t, "lobby", cfg.Chat.PublicRoom)
	assert.Equal(t, 50, cfg.Chat.MinPasswordEntropy)
	assert.Equal(t, 3, cfg.Redis.DB)
}
