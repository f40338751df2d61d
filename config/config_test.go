package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "SESSION_TTL", "COOKIE_SECURE", "CACHE_TTL", "PG_DSN", "LOGIN_RPS"} {
		t.Setenv(k, "")
	}

	c := Load()
	require.Equal(t, "3000", c.Port)
	require.Equal(t, 24*time.Hour, c.SessionTTL)
	require.False(t, c.CookieSecure)
	require.Equal(t, 30*time.Second, c.CacheTTL)
	require.Empty(t, c.PostgresDSN)
	require.Equal(t, 1.0, c.LoginRPS)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("COMMENT_QUOTA", "3")
	t.Setenv("LOGIN_RPS", "0.5")

	c := Load()
	require.Equal(t, "8080", c.Port)
	require.Equal(t, 2*time.Hour, c.SessionTTL)
	require.True(t, c.CookieSecure)
	require.Equal(t, 3, c.CommentQuota)
	require.Equal(t, 0.5, c.LoginRPS)
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("CACHE_TTL", "soon")
	t.Setenv("COMMENT_QUOTA", "many")
	t.Setenv("COOKIE_SECURE", "maybe")

	c := Load()
	require.Equal(t, 30*time.Second, c.CacheTTL)
	require.Equal(t, 50, c.CommentQuota)
	require.False(t, c.CookieSecure)
}
