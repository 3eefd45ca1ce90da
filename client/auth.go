package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/docmaster/docmaster/core"
	"github.com/docmaster/docmaster/core/user"
)

type loginData struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

// Health returns the build of the backend.
func (g *Gateway) Health(ctx context.Context) (string, error) {
	env, err := g.do(ctx, request{method: http.MethodGet, path: "/health", anonymous: true})
	if err != nil {
		return "", err
	}
	var data struct {
		Status string `json:"status"`
		Build  string `json:"build"`
	}
	if err = env.Object("health", &data); err != nil {
		return "", err
	}
	return data.Build, nil
}

// Login signs in and stores the session.
func (g *Gateway) Login(ctx context.Context, username, password string) (user.User, error) {
	username = core.CleanString(username, true /* lower */)
	var flds []core.FieldError
	if username == "" {
		flds = append(flds, core.FieldError{Field: "username", Error: "обязательное поле"})
	}
	if password == "" {
		flds = append(flds, core.FieldError{Field: "password", Error: "обязательное поле"})
	}
	if len(flds) > 0 {
		return user.User{}, core.NewValidationError(nil, flds...)
	}

	env, err := g.do(ctx, request{
		method:    http.MethodPost,
		path:      "/auth/login",
		body:      map[string]string{"username": username, "password": password},
		anonymous: true,
	})
	if err != nil {
		return user.User{}, err
	}
	var data loginData
	if err = env.Object("login", &data); err != nil {
		return user.User{}, err
	}
	if err = g.session.Login(data.User, data.Token); err != nil {
		return user.User{}, errors.Wrap(err, "saving session")
	}
	return data.User, nil
}

func (g *Gateway) Logout() error {
	return g.session.Logout()
}

// PublicUsers lists the accounts offered on the login screen.
func (g *Gateway) PublicUsers(ctx context.Context) ([]user.Public, error) {
	env, err := g.do(ctx, request{method: http.MethodGet, path: "/auth/users", anonymous: true})
	if err != nil {
		return nil, err
	}
	users := make([]user.Public, 0)
	err = env.List("users", &users)
	return users, err
}

// Me returns the user of the token. It satisfies Validator.
func (g *Gateway) Me(ctx context.Context) (user.User, error) {
	env, err := g.do(ctx, request{method: http.MethodGet, path: "/auth/me"})
	if err != nil {
		return user.User{}, err
	}
	var usr user.User
	err = env.Object("user", &usr)
	return usr, err
}

var _ Validator = (*Gateway)(nil) // interface compliance check

// Refresh swaps the session token for a fresh one.
func (g *Gateway) Refresh(ctx context.Context) error {
	env, err := g.do(ctx, request{method: http.MethodPost, path: "/auth/refresh"})
	if err != nil {
		return err
	}
	var data loginData
	if err = env.Object("refresh", &data); err != nil {
		return err
	}
	if err = g.session.setToken(data.Token); err != nil {
		return err
	}
	return g.session.UpdateUser(data.User)
}

// RequestPasswordReset returns the message to show, the backend answers the same for unknown emails.
func (g *Gateway) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", core.NewValidationError(nil, core.FieldError{Field: "email", Error: "обязательное поле"})
	}
	env, err := g.do(ctx, request{
		method:    http.MethodPost,
		path:      "/auth/password-reset",
		body:      map[string]string{"email": email},
		anonymous: true,
	})
	return env.Message, err
}

func (g *Gateway) ConfirmPasswordReset(ctx context.Context, data user.ResetUserPassword) (string, error) {
	env, err := g.do(ctx, request{
		method:    http.MethodPost,
		path:      "/auth/password-reset-confirm",
		body:      data,
		anonymous: true,
	})
	return env.Message, err
}
