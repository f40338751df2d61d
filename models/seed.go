package models

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"culturalevents/utils"
)

type demoAccount struct {
	username string
	password string
	isAdmin  bool
}

var demoAccounts = []demoAccount{
	{username: "user", password: "user123", isAdmin: false},
	{username: "admin", password: "admin123", isAdmin: true},
}

// SeedDemoUsers creates the demo accounts that do not exist yet.
func SeedDemoUsers(ctx context.Context, users UserRepository, logger *zap.Logger) error {
	for _, acc := range demoAccounts {
		_, err := users.GetByUsername(ctx, acc.username)
		if err == nil {
			logger.Info("demo user already exists", zap.String("username", acc.username))
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("lookup %s: %w", acc.username, err)
		}

		hashed, err := utils.HashPassword(acc.password)
		if err != nil {
			return fmt.Errorf("hash %s: %w", acc.username, err)
		}
		u := User{Username: acc.username, Password: hashed, IsAdmin: acc.isAdmin}
		if err := users.Create(ctx, &u); err != nil {
			return fmt.Errorf("create %s: %w", acc.username, err)
		}
		logger.Info("created demo user", zap.String("username", acc.username), zap.Bool("isAdmin", acc.isAdmin))
	}
	return nil
}
