package client

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/docmaster/docmaster/core"
	"github.com/docmaster/docmaster/core/iup"
	"github.com/docmaster/docmaster/core/user"
	logsvc "github.com/docmaster/docmaster/services/logger"
	testutil "github.com/docmaster/docmaster/tests"
)

func TestNewGateway_defaults(t *testing.T) {
	conf := testutil.Config()
	session, err := NewSession(NewMemoryStore())
	if err != nil {
		t.Fatalf("NewSession(): %v", err)
	}
	logger := logsvc.NewRollbarLogger(logsvc.NewConsole(io.Discard, conf), conf)

	gw := NewGateway(core.ClientConfig{}, session, logger)
	assert.Equal(t, "https://docmaster.digital/api", gw.baseURL)
	assert.Equal(t, 30*time.Second, gw.http.Timeout)

	gw = NewGateway(core.ClientConfig{BaseURL: " http://localhost:8000/api/ ", Timeout: 5 * time.Second}, session, logger)
	assert.Equal(t, "http://localhost:8000/api", gw.baseURL)
	assert.Equal(t, 5*time.Second, gw.http.Timeout)

	assert.Panics(t, func() { NewGateway(core.ClientConfig{}, nil, logger) })
}

func TestGateway_Login(t *testing.T) {
	tc := setup(t, map[string]http.HandlerFunc{
		"POST /api/auth/login": func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "" {
				t.Error("login must be anonymous")
			}
			ok(map[string]interface{}{"token": "new-token", "user": student})(w, r)
		},
	})
	tc.login(t, leader) // a stale session must not leak into anonymous calls

	usr, err := tc.gw.Login(context.Background(), " Student ", "pwd")
	if err != nil {
		t.Fatalf("Login(): %v", err)
	}
	assert.Equal(t, student.ID, usr.ID)
	assert.Equal(t, "new-token", tc.session.Token())
	cached, _ := tc.session.User()
	assert.Equal(t, student.ID, cached.ID)
	token, _ := tc.store.Get(keyToken)
	assert.Equal(t, "new-token", token)
}

func TestGateway_Login_localValidation(t *testing.T) {
	tc := setup(t, nil)

	_, err := tc.gw.Login(context.Background(), "  ", "")
	if err == nil {
		t.Fatal("want an error, got nil")
	}
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, 0, tc.api.total(), "no request sent")
}

func TestGateway_bearer(t *testing.T) {
	tc := setup(t, map[string]http.HandlerFunc{
		"GET /api/auth/me":    ok(map[string]interface{}{"user": student}),
		"GET /api/auth/users": ok(map[string]interface{}{"users": []user.Public{student.Public()}}),
		"GET /api/health":     ok(map[string]string{"status": "ok", "build": "abc"}),
	})
	tc.login(t, student)
	ctx := context.Background()

	_, err := tc.gw.Me(ctx)
	if err != nil {
		t.Fatalf("Me(): %v", err)
	}
	_, err = tc.gw.PublicUsers(ctx)
	if err != nil {
		t.Fatalf("PublicUsers(): %v", err)
	}
	build, err := tc.gw.Health(ctx)
	if err != nil {
		t.Fatalf("Health(): %v", err)
	}
	assert.Equal(t, "abc", build)

	assert.Equal(t, []string{"Bearer token-student", "", ""}, tc.api.auth)
}

func TestGateway_unauthorized(t *testing.T) {
	routes := map[string]http.HandlerFunc{
		"GET /api/users":                  fail(http.StatusUnauthorized, "invalid or expired jwt"),
		"PUT /api/iup/p1/stage/1":         fail(http.StatusUnauthorized, "user not authenticated"),
		"POST /api/iup/p1/stage/1/submit": fail(http.StatusUnauthorized, "user not authenticated"),
	}
	calls := []struct {
		name string
		call func(gw *Gateway) error
	}{
		{"list users", func(gw *Gateway) error { _, err := gw.Users(context.Background(), nil); return err }},
		{"save stage", func(gw *Gateway) error {
			_, err := gw.SaveStudentData(context.Background(), "p1", 1, iup.StudentData{TextData: "x"})
			return err
		}},
		{"submit", func(gw *Gateway) error {
			_, err := gw.StageAction(context.Background(), "p1", 1, iup.ActionSubmit, "")
			return err
		}},
	}
	for _, tt := range calls {
		t.Run(tt.name, func(t *testing.T) {
			tc := setup(t, routes)
			tc.login(t, student)

			err := tt.call(tc.gw)
			if err == nil {
				t.Fatal("want an error, got nil")
			}
			assert.Equal(t, KindUnauthorized, KindOf(err))
			assert.False(t, tc.session.Authenticated())
			token, _ := tc.store.Get(keyToken)
			raw, _ := tc.store.Get(keyUser)
			assert.Empty(t, token)
			assert.Empty(t, raw)
			assert.Equal(t, 1, tc.logouts, "login boundary reached")
		})
	}
}

func TestGateway_errors(t *testing.T) {
	tc := setup(t, map[string]http.HandlerFunc{
		"GET /api/users/u1": fail(http.StatusForbidden, "permission denied"),
		"POST /api/users": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"success": false, "message": "validation failed", "errors": map[string]string{"email": "неверный email"},
			})
		},
		"GET /api/users/stats/dashboard": fail(http.StatusInternalServerError, "pq: connection refused"),
		"GET /api/iup/p1/application": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>bad gateway</html>"))
		},
	})
	tc.login(t, leader)
	ctx := context.Background()

	_, err := tc.gw.User(ctx, "u1")
	assert.Equal(t, KindForbidden, KindOf(err))
	assert.Equal(t, "permission denied", UserMessage(err))

	_, err = tc.gw.CreateUser(ctx, user.NewUser{Username: "x"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("CreateUser() err = %v; want *APIError", err)
	}
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, map[string]string{"email": "неверный email"}, apiErr.Fields)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = tc.gw.UserStats(ctx)
	assert.Equal(t, KindServer, KindOf(err))
	assert.Equal(t, "Ошибка сервера. Попробуйте позже.", UserMessage(err), "server details are not shown")

	_, err = tc.gw.Application(ctx, "p1")
	assert.Equal(t, KindServer, KindOf(err))

	_, err = tc.gw.Plan(ctx, "nope")
	assert.Equal(t, KindNotFound, KindOf(err))

	assert.True(t, tc.session.Authenticated(), "only a 401 clears the session")
}

func TestGateway_network(t *testing.T) {
	tc := setup(t, nil)
	tc.login(t, student)
	tc.server.Close()

	_, err := tc.gw.Me(context.Background())
	if err == nil {
		t.Fatal("want an error, got nil")
	}
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.Equal(t, "Сервер недоступен. Проверьте подключение к сети.", UserMessage(errors.Wrap(err, "loading profile")))
	assert.True(t, tc.session.Authenticated(), "network errors keep the session")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tc.gw.Me(ctx)
	assert.Equal(t, context.Canceled, err)
}

func TestGateway_UpdateUser(t *testing.T) {
	updated := student
	updated.Phone = "+77011234567"
	other := leader
	tc := setup(t, map[string]http.HandlerFunc{
		"PUT /api/users/s1": ok(map[string]interface{}{"user": updated}),
		"PUT /api/users/l1": ok(map[string]interface{}{"user": other}),
	})
	tc.login(t, student)
	ctx := context.Background()

	_, err := tc.gw.UpdateUser(ctx, "l1", user.UpdateUser{})
	if err != nil {
		t.Fatalf("UpdateUser(): %v", err)
	}
	cached, _ := tc.session.User()
	assert.Equal(t, student.ID, cached.ID, "other users do not touch the session")

	_, err = tc.gw.UpdateUser(ctx, "s1", user.UpdateUser{})
	if err != nil {
		t.Fatalf("UpdateUser(): %v", err)
	}
	cached, _ = tc.session.User()
	assert.Equal(t, "+77011234567", cached.Phone)
}

func TestGateway_UsersByRole(t *testing.T) {
	tc := setup(t, map[string]http.HandlerFunc{
		"GET /api/users/by-role/magistrants": ok([]user.User{student}),
	})
	tc.login(t, leader)

	users, err := tc.gw.UsersByRole(context.Background(), user.RoleMagistrant)
	if err != nil {
		t.Fatalf("UsersByRole(): %v", err)
	}
	if assert.Len(t, users, 1) {
		assert.Equal(t, student.ID, users[0].ID)
	}
}

func TestGateway_Refresh(t *testing.T) {
	tc := setup(t, map[string]http.HandlerFunc{
		"POST /api/auth/refresh": ok(map[string]interface{}{"token": "fresh", "user": student}),
	})
	tc.login(t, student)

	if err := tc.gw.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh(): %v", err)
	}
	assert.Equal(t, "fresh", tc.session.Token())
	assert.Equal(t, []string{"Bearer token-student"}, tc.api.auth)
}
