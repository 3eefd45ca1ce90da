// Package testutil holds the fixtures shared by the package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/docmaster/docmaster/core"
	"github.com/docmaster/docmaster/core/i18n"
	"github.com/docmaster/docmaster/core/user"
)

// Password is the password of every user created by CreateUser.
const Password = "Sup3r-Secret!"

// Config returns the configuration of test runs.
func Config() *core.Config {
	return &core.Config{
		AppName:                   "Docmaster",
		Env:                       "TEST",
		TestMode:                  true,
		SecretKey:                 "test-secret",
		DefaultFromEmailAddr:      "Docmaster <noreply@docmaster.digital>",
		FrontendBaseURL:           "https://docmaster.digital",
		PasswordResetTimeoutDelta: time.Hour,
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			LoginRateLimit:            100,
			LoginRateWindow:           time.Minute,
		},
	}
}

// CreateUser stores usr straight into the repository, skipping the service checks.
func CreateUser(t *testing.T, repo user.Repository, usr user.User, isActive bool, createdAt ...time.Time) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	if usr.Email == "" {
		usr.Email = usr.Username + "@docmaster.digital"
	}
	if usr.Language == "" {
		usr.Language = i18n.Russian
	}
	usr.CreatedAt = tstamp
	usr.UpdatedAt = tstamp
	usr.SetActive(isActive)
	if err := usr.SetPassword(Password); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}

	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}
