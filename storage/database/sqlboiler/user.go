// Package boiledrepos implements the user repository with sqlboiler raw queries.
package boiledrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/types"

	"github.com/docmaster/docmaster/core"
	"github.com/docmaster/docmaster/core/i18n"
	"github.com/docmaster/docmaster/core/user"
)

const userColumns = `id, username, email, lastname, firstname, fathername, role, phone, whatsapp, language,
	program, degrees, supervisor_id, is_active, password_hash, created_at, updated_at, last_login`

// orderColumns whitelists the sortable columns.
var orderColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"last_login": "last_login",
	"username":   "username",
	"email":      "email",
	"lastname":   "lastname",
	"firstname":  "firstname",
	"role":       "role",
}

type userRow struct {
	ID           string            `boil:"id"`
	Username     null.String       `boil:"username"`
	Email        null.String       `boil:"email"`
	LastName     string            `boil:"lastname"`
	FirstName    string            `boil:"firstname"`
	FatherName   string            `boil:"fathername"`
	Role         string            `boil:"role"`
	Phone        string            `boil:"phone"`
	WhatsApp     string            `boil:"whatsapp"`
	Language     string            `boil:"language"`
	Program      string            `boil:"program"`
	Degrees      types.StringArray `boil:"degrees"`
	SupervisorID null.String       `boil:"supervisor_id"`
	IsActive     bool              `boil:"is_active"`
	PasswordHash null.Bytes        `boil:"password_hash"`
	CreatedAt    time.Time         `boil:"created_at"`
	UpdatedAt    time.Time         `boil:"updated_at"`
	LastLogin    null.Time         `boil:"last_login"`
}

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) user.Repository {
	return &userRepository{exec: exec}
}

func boil(usr user.User) userRow {
	degrees := types.StringArray(usr.Degrees)
	if degrees == nil {
		degrees = types.StringArray{}
	}
	return userRow{
		ID:           usr.ID,
		Username:     null.NewString(usr.Username, usr.Username != ""),
		Email:        null.NewString(usr.Email, usr.Email != ""),
		LastName:     usr.LastName,
		FirstName:    usr.FirstName,
		FatherName:   usr.FatherName,
		Role:         string(usr.Role),
		Phone:        usr.Phone,
		WhatsApp:     usr.WhatsApp,
		Language:     string(usr.Language),
		Program:      usr.Program,
		Degrees:      degrees,
		SupervisorID: null.NewString(usr.SupervisorID, usr.SupervisorID != ""),
		IsActive:     usr.Active(),
		PasswordHash: null.NewBytes(usr.PasswordHash, usr.PasswordHash != nil),
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func unboil(row userRow) user.User {
	usr := user.User{
		ID:           row.ID,
		Username:     row.Username.String,
		Email:        row.Email.String,
		LastName:     row.LastName,
		FirstName:    row.FirstName,
		FatherName:   row.FatherName,
		Role:         user.Role(row.Role),
		Phone:        row.Phone,
		WhatsApp:     row.WhatsApp,
		Language:     i18n.Language(row.Language),
		Program:      row.Program,
		SupervisorID: row.SupervisorID.String,
		PasswordHash: row.PasswordHash.Bytes,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if len(row.Degrees) > 0 {
		usr.Degrees = []string(row.Degrees)
	}
	if row.LastLogin.Valid {
		usr.LastLogin = row.LastLogin.Time.UTC()
	}
	usr.SetActive(row.IsActive)
	return usr
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	ids := make([]string, 0, len(excludedUsers))
	for _, u := range excludedUsers {
		ids = append(ids, u.ID)
	}

	var rows []userRow
	err := queries.Raw(
		`SELECT `+userColumns+` FROM "user" WHERE (username = $1 OR email = $2) AND NOT (id::text = ANY($3)) LIMIT 2`,
		username, email, pq.Array(ids),
	).Bind(ctx, repo.exec, &rows)
	if err != nil && errors.Cause(err) != sql.ErrNoRows {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, r := range rows {
		if username != "" && r.Username.String == username {
			return user.ErrUsernameExists
		}
	}
	for _, r := range rows {
		if email != "" && r.Email.String == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	r := boil(usr)
	_, err := queries.Raw(
		`INSERT INTO "user" (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		r.ID, r.Username, r.Email, r.LastName, r.FirstName, r.FatherName, r.Role, r.Phone, r.WhatsApp, r.Language,
		r.Program, r.Degrees, r.SupervisorID, r.IsActive, r.PasswordHash, r.CreatedAt, r.UpdatedAt, r.LastLogin,
	).ExecContext(ctx, repo.exec)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return unboil(r), nil
}

// whereClause builds the SQL conditions of a filter with their postgres placeholders.
func whereClause(filter *user.QueryFilter) (string, []interface{}) {
	if filter == nil {
		return "", nil
	}
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		conds = append(conds, fmt.Sprintf(
			"(username ILIKE %[1]s OR email ILIKE %[1]s OR lastname ILIKE %[1]s OR firstname ILIKE %[1]s OR fathername ILIKE %[1]s)", p))
	}
	if len(filter.Roles) > 0 {
		roles := make([]string, 0, len(filter.Roles))
		for _, r := range filter.Roles {
			roles = append(roles, string(r))
		}
		conds = append(conds, "role = ANY("+arg(pq.Array(roles))+")")
	}
	if filter.IsActive != nil {
		conds = append(conds, "is_active = "+arg(*filter.IsActive))
	}
	if filter.Program != "" {
		conds = append(conds, "program = "+arg(filter.Program))
	}
	if filter.Language != "" {
		conds = append(conds, "language = "+arg(string(filter.Language)))
	}
	if filter.SupervisorID != "" {
		conds = append(conds, "supervisor_id::text = "+arg(filter.SupervisorID))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderClause(ordering []core.DBOrdering) string {
	ordering = append(core.MapOrderings(ordering, orderColumns),
		core.DBOrdering{Field: "created_at"}, core.DBOrdering{Field: "username", Ascending: true})
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		parts = append(parts, ord.String())
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	where, args := whereClause(filter)

	var rows []userRow
	err := queries.Raw(`SELECT `+userColumns+` FROM "user"`+where+orderClause(ordering), args...).Bind(ctx, repo.exec, &rows)
	if err != nil && errors.Cause(err) != sql.ErrNoRows {
		return nil, errors.Wrap(err, "querying users")
	}

	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, unboil(r))
	}
	return users, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var (
		cond string
		arg  string
	)
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		cond, arg = "id = $1", filter.ID
	case filter.Username != "":
		cond, arg = "username = $1", filter.Username
	case filter.Email != "":
		cond, arg = "email = $1", filter.Email
	case filter.UsernameOrEmail != "":
		cond, arg = "(username = $1 OR email = $1)", filter.UsernameOrEmail
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := queries.Raw(`SELECT `+userColumns+` FROM "user" WHERE `+cond+` LIMIT 1`, arg).Bind(ctx, repo.exec, &row); err != nil {
		return user.User{}, trapNoRowsErr(err, "getting user")
	}
	return unboil(row), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	r := boil(usr)
	res, err := queries.Raw(
		`UPDATE "user" SET username = $2, email = $3, lastname = $4, firstname = $5, fathername = $6, role = $7,
			phone = $8, whatsapp = $9, language = $10, program = $11, degrees = $12, supervisor_id = $13,
			is_active = $14, password_hash = $15, updated_at = $16, last_login = $17
		WHERE id = $1`,
		r.ID, r.Username, r.Email, r.LastName, r.FirstName, r.FatherName, r.Role, r.Phone, r.WhatsApp, r.Language,
		r.Program, r.Degrees, r.SupervisorID, r.IsActive, r.PasswordHash, r.UpdatedAt, r.LastLogin,
	).ExecContext(ctx, repo.exec)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return unboil(r), nil
}
