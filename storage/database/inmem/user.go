package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/docmaster/docmaster/core"
	"github.com/docmaster/docmaster/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func copyUser(usr user.User) user.User {
	if usr.Degrees != nil {
		usr.Degrees = append([]string{}, usr.Degrees...)
	}
	if usr.IsActive != nil {
		active := *usr.IsActive
		usr.IsActive = &active
	}
	return usr
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, copyUser(*u))
	}
	return users
}

func (repo *userRepository) CheckUsernameUniqueness(_ context.Context, username, email string, excludedUsers ...user.User) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excluded := make(map[string]struct{}, len(excludedUsers))
	for _, u := range excludedUsers {
		excluded[u.ID] = struct{}{}
	}

	for _, usr := range repo.db.table {
		if _, ok := excluded[usr.ID]; ok {
			continue
		}
		if username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	usr.ID = uuid.New().String()
	stored := copyUser(usr)
	repo.db.table[usr.ID] = &stored
	return copyUser(usr), nil
}

var userColumns = map[string]func(a, b user.User) int{
	"created_at": func(a, b user.User) int { return compareTime(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano()) },
	"updated_at": func(a, b user.User) int { return compareTime(a.UpdatedAt.UnixNano(), b.UpdatedAt.UnixNano()) },
	"last_login": func(a, b user.User) int { return compareTime(a.LastLogin.UnixNano(), b.LastLogin.UnixNano()) },
	"username":   func(a, b user.User) int { return strings.Compare(a.Username, b.Username) },
	"email":      func(a, b user.User) int { return strings.Compare(a.Email, b.Email) },
	"lastname":   func(a, b user.User) int { return strings.Compare(a.LastName, b.LastName) },
	"firstname":  func(a, b user.User) int { return strings.Compare(a.FirstName, b.FirstName) },
	"role":       func(a, b user.User) int { return strings.Compare(string(a.Role), string(b.Role)) },
}

func compareTime(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// QueryUsers orders by the given fields, then by newest first.
func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	users := make([]user.User, 0)
	for _, usr := range repo.query() {
		if filter.Match(usr) {
			users = append(users, usr)
		}
	}

	ordering = append(append([]core.DBOrdering{}, ordering...), core.DBOrdering{Field: "created_at"}, core.DBOrdering{Field: "username", Ascending: true})
	sort.SliceStable(users, func(i, j int) bool {
		for _, ord := range ordering {
			cmp, ok := userColumns[ord.Field]
			if !ok {
				continue
			}
			if c := cmp(users[i], users[j]); c != 0 {
				if ord.Ascending {
					return c < 0
				}
				return c > 0
			}
		}
		return false
	})
	return users, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.table[filter.ID]; ok {
			return copyUser(*usr), nil
		}
		return user.User{}, user.ErrNotFound
	}

	for _, usr := range repo.db.table {
		switch {
		case filter.Username != "":
			if usr.Username == filter.Username {
				return copyUser(*usr), nil
			}
		case filter.Email != "":
			if usr.Email == filter.Email {
				return copyUser(*usr), nil
			}
		case filter.UsernameOrEmail != "":
			if usr.Username == filter.UsernameOrEmail || usr.Email == filter.UsernameOrEmail {
				return copyUser(*usr), nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	stored := copyUser(usr)
	repo.db.table[usr.ID] = &stored
	return copyUser(usr), nil
}
