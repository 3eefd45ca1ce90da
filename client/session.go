// Package client talks to the docmaster API on behalf of one signed-in user.
package client

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/docmaster/docmaster/core/user"
)

const (
	keyToken = "token"
	keyUser  = "user"
)

// Validator confirms a stored token with the backend and returns its current user.
type Validator interface {
	Me(ctx context.Context) (user.User, error)
}

// Session is the signed-in user and its token. Both are persisted and cleared together.
type Session struct {
	mutex sync.RWMutex
	store Store
	token string
	user  *user.User
}

// NewSession restores the session saved in store. An unreadable user record clears the session.
func NewSession(store Store) (*Session, error) {
	s := &Session{store: store}

	token, err := store.Get(keyToken)
	if err != nil {
		return nil, errors.Wrap(err, "reading token")
	}
	raw, err := store.Get(keyUser)
	if err != nil {
		return nil, errors.Wrap(err, "reading user")
	}
	if token == "" || raw == "" {
		return s, s.clear()
	}

	var usr user.User
	if err = json.Unmarshal([]byte(raw), &usr); err != nil {
		return s, s.clear()
	}
	s.token, s.user = token, &usr
	return s, nil
}

func (s *Session) Token() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.token
}

// User returns the cached user, false when signed out.
func (s *Session) User() (user.User, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.user == nil {
		return user.User{}, false
	}
	return *s.user, true
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

func (s *Session) persistUser(usr user.User) error {
	raw, err := json.Marshal(usr)
	if err != nil {
		return errors.Wrap(err, "encoding user")
	}
	return errors.Wrap(s.store.Set(keyUser, string(raw)), "saving user")
}

func (s *Session) Login(usr user.User, token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.store.Set(keyToken, token); err != nil {
		return errors.Wrap(err, "saving token")
	}
	if err := s.persistUser(usr); err != nil {
		_ = s.store.Delete(keyToken, keyUser)
		return err
	}
	s.token, s.user = token, &usr
	return nil
}

// clear expects the lock to be held or the session to be unshared.
func (s *Session) clear() error {
	s.token, s.user = "", nil
	return errors.Wrap(s.store.Delete(keyToken, keyUser), "clearing session")
}

func (s *Session) Logout() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.clear()
}

// UpdateUser replaces the cached user record of a signed-in session.
func (s *Session) UpdateUser(usr user.User) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.token == "" {
		return nil
	}
	if err := s.persistUser(usr); err != nil {
		return err
	}
	s.user = &usr
	return nil
}

// setToken swaps the token of a refreshed session.
func (s *Session) setToken(token string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err := s.store.Set(keyToken, token); err != nil {
		return errors.Wrap(err, "saving token")
	}
	s.token = token
	return nil
}

// Init re-validates a restored token and refreshes the cached user.
// Any failure, network errors included, signs the session out and is returned.
func (s *Session) Init(ctx context.Context, v Validator) error {
	if !s.Authenticated() {
		return nil
	}
	usr, err := v.Me(ctx)
	if err == nil && usr.ID == "" {
		err = errors.New("backend returned no user")
	}
	if err != nil {
		if clearErr := s.Logout(); clearErr != nil {
			return clearErr
		}
		return errors.Wrap(err, "validating session")
	}
	return s.UpdateUser(usr)
}
