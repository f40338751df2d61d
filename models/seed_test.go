package models_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"culturalevents/mocks"
	"culturalevents/models"
)

func TestSeedDemoUsers(t *testing.T) {
	ctx := context.Background()
	users := mocks.NewUserRepo()

	require.NoError(t, models.SeedDemoUsers(ctx, users, zap.NewNop()))
	require.NoError(t, models.SeedDemoUsers(ctx, users, zap.NewNop()))
	require.Len(t, users.Users, 2)

	u, err := users.ValidateCredentials(ctx, "user", "user123")
	require.NoError(t, err)
	require.False(t, u.IsAdmin)

	a, err := users.ValidateCredentials(ctx, "admin", "admin123")
	require.NoError(t, err)
	require.True(t, a.IsAdmin)
}

func TestSeedDemoUsers_KeepsExistingAccount(t *testing.T) {
	ctx := context.Background()
	users := mocks.NewUserRepo()
	existing := models.User{Username: "admin", Password: "not-a-hash", IsAdmin: false}
	require.NoError(t, users.Create(ctx, &existing))

	require.NoError(t, models.SeedDemoUsers(ctx, users, zap.NewNop()))

	got, err := users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	require.Equal(t, existing.ID, got.ID)
	require.False(t, got.IsAdmin)
}
