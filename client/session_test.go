package client

import (
	"context"
	"errors"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/docmaster/docmaster/core/user"
)

type validatorFunc func(ctx context.Context) (user.User, error)

func (f validatorFunc) Me(ctx context.Context) (user.User, error) { return f(ctx) }

func TestSession(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"file": func(t *testing.T) Store {
			return NewFileStore(filepath.Join(t.TempDir(), "docmaster", "session.json"))
		},
	}
	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			s, err := NewSession(store)
			if err != nil {
				t.Fatalf("NewSession(): %v", err)
			}
			assert.False(t, s.Authenticated())
			_, ok := s.User()
			assert.False(t, ok)

			if err := s.Login(student, "tok"); err != nil {
				t.Fatalf("Login(): %v", err)
			}
			assert.True(t, s.Authenticated())
			usr, ok := s.User()
			assert.True(t, ok)
			assert.Equal(t, student.ID, usr.ID)

			// restored from the store
			restored, err := NewSession(store)
			if err != nil {
				t.Fatalf("NewSession(): %v", err)
			}
			assert.Equal(t, "tok", restored.Token())
			usr, _ = restored.User()
			assert.Equal(t, student.Username, usr.Username)

			updated := student
			updated.FatherName = "Петровна"
			if err := restored.UpdateUser(updated); err != nil {
				t.Fatalf("UpdateUser(): %v", err)
			}
			again, err := NewSession(store)
			if err != nil {
				t.Fatalf("NewSession(): %v", err)
			}
			usr, _ = again.User()
			assert.Equal(t, "Петровна", usr.FatherName)

			if err := again.Logout(); err != nil {
				t.Fatalf("Logout(): %v", err)
			}
			token, _ := store.Get(keyToken)
			raw, _ := store.Get(keyUser)
			assert.Empty(t, token)
			assert.Empty(t, raw)
			assert.False(t, again.Authenticated())

			// updating a signed-out session keeps it signed out
			if err := again.UpdateUser(student); err != nil {
				t.Fatalf("UpdateUser(): %v", err)
			}
			raw, _ = store.Get(keyUser)
			assert.Empty(t, raw)
		})
	}
}

func TestNewSession_corrupt(t *testing.T) {
	tests := []struct {
		name  string
		token string
		user  string
	}{
		{name: "token without user", token: "tok"},
		{name: "user without token", user: `{"id":"s1"}`},
		{name: "unreadable user", token: "tok", user: "{lol"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			_ = store.Set(keyToken, tt.token)
			_ = store.Set(keyUser, tt.user)

			s, err := NewSession(store)
			if err != nil {
				t.Fatalf("NewSession(): %v", err)
			}
			assert.False(t, s.Authenticated())
			token, _ := store.Get(keyToken)
			raw, _ := store.Get(keyUser)
			assert.Empty(t, token)
			assert.Empty(t, raw)
		})
	}
}

func TestSession_Login_emptyToken(t *testing.T) {
	s, err := NewSession(NewMemoryStore())
	if err != nil {
		t.Fatalf("NewSession(): %v", err)
	}
	assert.Error(t, s.Login(student, ""))
	assert.False(t, s.Authenticated())
}

func TestSession_Init(t *testing.T) {
	fresh := student
	fresh.LastName = "Смирнова"

	tests := []struct {
		name      string
		signedIn  bool
		validator validatorFunc
		wantErr   bool
		wantAuth  bool
		wantName  string
	}{
		{
			name:      "signed out: nothing to validate",
			validator: func(context.Context) (user.User, error) { return user.User{}, errors.New("validator called") },
		},
		{
			name:      "valid token refreshes the user",
			signedIn:  true,
			validator: func(context.Context) (user.User, error) { return fresh, nil },
			wantAuth:  true,
			wantName:  "Смирнова",
		},
		{
			name:      "rejected token clears the session",
			signedIn:  true,
			validator: func(context.Context) (user.User, error) { return user.User{}, &APIError{Status: 401} },
			wantErr:   true,
		},
		{
			name:      "empty user clears the session",
			signedIn:  true,
			validator: func(context.Context) (user.User, error) { return user.User{}, nil },
			wantErr:   true,
		},
		{
			name:      "network failure clears the session",
			signedIn:  true,
			validator: func(context.Context) (user.User, error) { return user.User{}, &networkError{errors.New("refused")} },
			wantErr:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSession(NewMemoryStore())
			if err != nil {
				t.Fatalf("NewSession(): %v", err)
			}
			if tt.signedIn {
				if err := s.Login(student, "tok"); err != nil {
					t.Fatalf("Login(): %v", err)
				}
			}

			err = s.Init(context.Background(), tt.validator)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.wantAuth, s.Authenticated())
			if tt.wantName != "" {
				usr, _ := s.User()
				assert.Equal(t, tt.wantName, usr.LastName)
			}
		})
	}
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path)

	v, err := store.Get("token")
	if err != nil {
		t.Fatalf("Get(): %v", err)
	}
	assert.Empty(t, v)

	if err := store.Set("token", "abc"); err != nil {
		t.Fatalf("Set(): %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat(): %v", err)
	}
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	v, err = store.Get("token")
	if err != nil {
		t.Fatalf("Get(): %v", err)
	}
	assert.Equal(t, "abc", v)

	if err := store.Delete("token", "user"); err != nil {
		t.Fatalf("Delete(): %v", err)
	}
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "empty store removes its file")

	// a corrupt file fails reads and is dropped on delete
	if err := ioutil.WriteFile(path, []byte("{lol"), 0600); err != nil {
		t.Fatalf("WriteFile(): %v", err)
	}
	_, err = store.Get("token")
	assert.Error(t, err)
	assert.NoError(t, store.Delete("token", "user"))
	_, err = store.Get("token")
	assert.NoError(t, err)
}

func TestSession_Init_nullUser(t *testing.T) {
	tc := setup(t, map[string]http.HandlerFunc{
		"GET /api/auth/me": ok(map[string]interface{}{"user": nil}),
	})
	tc.login(t, student)

	err := tc.session.Init(context.Background(), tc.gw)
	assert.Error(t, err)
	assert.False(t, tc.session.Authenticated())
	_, hasUser := tc.session.User()
	assert.False(t, hasUser)
	token, _ := tc.store.Get(keyToken)
	raw, _ := tc.store.Get(keyUser)
	assert.Empty(t, token)
	assert.Empty(t, raw)
}
