// Package inmemdb implements the repositories over in-memory maps. It backs the tests and `-db inmem` runs.
package inmemdb

import (
	"sync"

	"github.com/docmaster/docmaster/core/iup"
	"github.com/docmaster/docmaster/core/user"
)

type (
	DB struct {
		user *userTable
		plan *planTable
	}

	userTable struct {
		table map[string]*user.User
		mutex sync.RWMutex
	}

	planTable struct {
		table map[string]*iup.Plan
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		user: &userTable{table: make(map[string]*user.User)},
		plan: &planTable{table: make(map[string]*iup.Plan)},
	}
}

// Reset drops every row.
func (db *DB) Reset() {
	db.user.mutex.Lock()
	db.user.table = make(map[string]*user.User)
	db.user.mutex.Unlock()

	db.plan.mutex.Lock()
	db.plan.table = make(map[string]*iup.Plan)
	db.plan.mutex.Unlock()
}
