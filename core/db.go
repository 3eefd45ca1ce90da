package core

import (
	"context"
	"database/sql"
)

type (
	DBExecutor interface {
		Exec(query string, args ...interface{}) (sql.Result, error)
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
		Query(query string, args ...interface{}) (*sql.Rows, error)
		QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
		QueryRow(query string, args ...interface{}) *sql.Row
		QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	}

	DB interface {
		DBExecutor

		Begin() (*sql.Tx, error)
		BeginTx(context.Context, *sql.TxOptions) (*sql.Tx, error)
	}
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// MapOrderings translates API field names to column names.
// Orderings on unknown fields are dropped so that they never reach a query.
func MapOrderings(orderings []DBOrdering, columns map[string]string) []DBOrdering {
	mapped := make([]DBOrdering, 0, len(orderings))
	for _, ord := range orderings {
		if col, ok := columns[ord.Field]; ok {
			mapped = append(mapped, DBOrdering{Field: col, Ascending: ord.Ascending})
		}
	}
	return mapped
}
