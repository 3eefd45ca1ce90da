package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/docmaster/docmaster/core/user"
)

// Users lists the accounts matching the query parameters (search, role, is_active, OP, ordering).
func (g *Gateway) Users(ctx context.Context, params url.Values) ([]user.User, error) {
	env, err := g.do(ctx, request{method: http.MethodGet, path: "/users", query: params})
	if err != nil {
		return nil, err
	}
	users := make([]user.User, 0)
	err = env.List("users", &users)
	return users, err
}

// UsersByRole answers with a bare array.
func (g *Gateway) UsersByRole(ctx context.Context, role user.Role) ([]user.User, error) {
	env, err := g.do(ctx, request{method: http.MethodGet, path: "/users/by-role/" + url.PathEscape(string(role))})
	if err != nil {
		return nil, err
	}
	users := make([]user.User, 0)
	err = env.List("users", &users)
	return users, err
}

func (g *Gateway) User(ctx context.Context, id string) (user.User, error) {
	env, err := g.do(ctx, request{method: http.MethodGet, path: "/users/" + url.PathEscape(id)})
	if err != nil {
		return user.User{}, err
	}
	var usr user.User
	err = env.Object("user", &usr)
	return usr, err
}

func (g *Gateway) CreateUser(ctx context.Context, nu user.NewUser) (user.User, error) {
	env, err := g.do(ctx, request{method: http.MethodPost, path: "/users", body: nu})
	if err != nil {
		return user.User{}, err
	}
	var usr user.User
	err = env.Object("user", &usr)
	return usr, err
}

// UpdateUser also refreshes the session when the signed-in user updated itself.
func (g *Gateway) UpdateUser(ctx context.Context, id string, uu user.UpdateUser) (user.User, error) {
	env, err := g.do(ctx, request{method: http.MethodPut, path: "/users/" + url.PathEscape(id), body: uu})
	if err != nil {
		return user.User{}, err
	}
	var usr user.User
	if err = env.Object("user", &usr); err != nil {
		return user.User{}, err
	}
	if me, ok := g.session.User(); ok && me.ID == usr.ID {
		err = g.session.UpdateUser(usr)
	}
	return usr, err
}

func (g *Gateway) DeactivateUser(ctx context.Context, id string) (user.User, error) {
	env, err := g.do(ctx, request{method: http.MethodDelete, path: "/users/" + url.PathEscape(id)})
	if err != nil {
		return user.User{}, err
	}
	var usr user.User
	err = env.Object("user", &usr)
	return usr, err
}

func (g *Gateway) RestoreUser(ctx context.Context, id string) (user.User, error) {
	env, err := g.do(ctx, request{method: http.MethodPost, path: "/users/" + url.PathEscape(id) + "/restore"})
	if err != nil {
		return user.User{}, err
	}
	var usr user.User
	err = env.Object("user", &usr)
	return usr, err
}

func (g *Gateway) UserStats(ctx context.Context) (user.Stats, error) {
	env, err := g.do(ctx, request{method: http.MethodGet, path: "/users/stats/dashboard"})
	if err != nil {
		return user.Stats{}, err
	}
	var stats user.Stats
	err = env.Object("stats", &stats)
	return stats, err
}
