package user

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/docmaster/docmaster/core"
	"github.com/docmaster/docmaster/core/grammar"
	"github.com/docmaster/docmaster/core/i18n"
)

type Role string

// Roles
const (
	RoleAdmin      Role = "admins"
	RoleSupervisor Role = "leaders"
	RoleMagistrant Role = "magistrants"
	RoleDoctorant  Role = "doctorants"
)

var (
	AllRoles     = []Role{RoleAdmin, RoleSupervisor, RoleMagistrant, RoleDoctorant}
	StudentRoles = []Role{RoleMagistrant, RoleDoctorant}

	roleLabels = map[Role]string{
		RoleAdmin:      "Администратор",
		RoleSupervisor: "Научный руководитель",
		RoleMagistrant: "Магистрант",
		RoleDoctorant:  "Докторант",
	}
)

func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

func (r Role) Label() string {
	if label, ok := roleLabels[r]; ok {
		return label
	}
	return string(r)
}

func (r Role) IsStudent() bool {
	return r == RoleMagistrant || r == RoleDoctorant
}

type User struct {
	ID           string        `json:"id"`
	Username     string        `json:"username"`
	Email        string        `json:"email"`
	LastName     string        `json:"lastname"`
	FirstName    string        `json:"firstname"`
	FatherName   string        `json:"fathername"`
	Role         Role          `json:"role"`
	Phone        string        `json:"phone"`
	WhatsApp     string        `json:"whatsapp"`
	Language     i18n.Language `json:"language"`
	Program      string        `json:"OP"`
	Degrees      []string      `json:"degree"`
	SupervisorID string        `json:"supervisor"`
	IsActive     *bool         `json:"is_active"`
	PasswordHash []byte        `json:"-"`
	CreatedAt    time.Time     `json:"created_at"` // UTC
	UpdatedAt    time.Time     `json:"updated_at"` // UTC
	LastLogin    time.Time     `json:"last_login"` // UTC
}

// FullName returns "Last First Father", skipping the missing parts.
func (u User) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{u.LastName, u.FirstName, u.FatherName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func (u User) Person() grammar.Person {
	return grammar.Person{LastName: u.LastName, FirstName: u.FirstName, FatherName: u.FatherName}
}

func (u User) MarshalJSON() ([]byte, error) {
	type alias User
	return json.Marshal(struct {
		alias
		FullName string `json:"fullName"`
	}{alias: alias(u), FullName: u.FullName()})
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) SetActive(active bool) { u.IsActive = &active }

func (u User) Active() bool { return u.IsActive == nil || *u.IsActive }

func (u User) IsAdmin() bool      { return u.Role == RoleAdmin }
func (u User) IsSupervisor() bool { return u.Role == RoleSupervisor }
func (u User) IsStudent() bool    { return u.Role.IsStudent() }

// Public is the subset of a User shown on the login picker.
type Public struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	Role      Role   `json:"role"`
	LastName  string `json:"lastname"`
	FirstName string `json:"firstname"`
}

func (u User) Public() Public {
	return Public{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName(),
		Role:      u.Role,
		LastName:  u.LastName,
		FirstName: u.FirstName,
	}
}

type Stats struct {
	Total        int          `json:"total"`
	Active       int          `json:"active"`
	Inactive     int          `json:"inactive"`
	ByRole       map[Role]int `json:"byRole"`
	Unsupervised int          `json:"unsupervised"` // students without a supervisor
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username        string        `json:"username" validate:"required,min=3,alphanum_"`
	Email           string        `json:"email" validate:"required,email"`
	LastName        string        `json:"lastname" validate:"required,notblank"`
	FirstName       string        `json:"firstname" validate:"required,notblank"`
	FatherName      string        `json:"fathername"`
	Role            Role          `json:"role" validate:"required,role"`
	Phone           string        `json:"phone" validate:"omitempty,phone"`
	WhatsApp        string        `json:"whatsapp" validate:"omitempty,phone"`
	Language        i18n.Language `json:"language" validate:"omitempty,language"`
	Program         string        `json:"OP"`
	Degrees         []string      `json:"degree" validate:"omitempty,degrees"`
	SupervisorID    string        `json:"supervisor"`
	Password        string        `json:"password" validate:"required"`
	PasswordConfirm string        `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) clean() {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.LastName = core.CleanString(nu.LastName)
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.FatherName = core.CleanString(nu.FatherName)
	nu.Phone = core.CleanString(nu.Phone)
	nu.WhatsApp = core.CleanString(nu.WhatsApp)
	nu.Program = core.CleanString(nu.Program)
	nu.Degrees = core.CleanStrings(nu.Degrees)
	nu.SupervisorID = core.CleanString(nu.SupervisorID)
	if nu.Language == "" {
		nu.Language = i18n.Russian
	}
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nu.clean()
	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.Username, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Empty fields keep their current value.
type UpdateUser struct {
	Username        string        `json:"username" validate:"omitempty,min=3,alphanum_"`
	Email           string        `json:"email" validate:"omitempty,email"`
	LastName        string        `json:"lastname"`
	FirstName       string        `json:"firstname"`
	FatherName      *string       `json:"fathername"`
	Role            Role          `json:"role" validate:"omitempty,role"`
	Phone           *string       `json:"phone" validate:"omitempty,phone"`
	WhatsApp        *string       `json:"whatsapp" validate:"omitempty,phone"`
	Language        i18n.Language `json:"language" validate:"omitempty,language"`
	Program         string        `json:"OP"`
	Degrees         []string      `json:"degree" validate:"omitempty,degrees"`
	SupervisorID    *string       `json:"supervisor"`
	IsActive        *bool         `json:"is_active"`
	Password        string        `json:"password" validate:"omitempty"`
	PasswordConfirm string        `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

// AdminOnly reports whether the update touches fields only admins may change.
func (uu UpdateUser) AdminOnly() bool {
	return uu.Username != "" || uu.Email != "" || uu.Role != "" || uu.Program != "" ||
		uu.Degrees != nil || uu.SupervisorID != nil || uu.IsActive != nil
}

func cleanPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := core.CleanString(*s)
	return &v
}

func (uu *UpdateUser) Validate(ctx context.Context, origUsr User, validate *validator.Validate, svc Service) error {
	uu.Username = core.CleanString(uu.Username, true /* lower */)
	uu.Email = core.CleanString(uu.Email, true /* lower */)
	uu.LastName = core.CleanString(uu.LastName)
	uu.FirstName = core.CleanString(uu.FirstName)
	uu.FatherName = cleanPtr(uu.FatherName)
	uu.Phone = cleanPtr(uu.Phone)
	uu.WhatsApp = cleanPtr(uu.WhatsApp)
	uu.SupervisorID = cleanPtr(uu.SupervisorID)
	uu.Program = core.CleanString(uu.Program)
	uu.Degrees = core.CleanStrings(uu.Degrees)

	if err := validate.Struct(uu); err != nil {
		return err
	}

	uname, email := origUsr.Username, origUsr.Email
	if uu.Username != "" {
		uname = uu.Username
	}
	if uu.Email != "" {
		email = uu.Email
	}
	if uname == origUsr.Username && email == origUsr.Email {
		return nil
	}
	return svc.CheckUniqueness(ctx, uname, email, origUsr)
}

// apply returns a copy of usr with the update applied.
func (uu UpdateUser) apply(usr User) User {
	if uu.Username != "" {
		usr.Username = uu.Username
	}
	if uu.Email != "" {
		usr.Email = uu.Email
	}
	if uu.LastName != "" {
		usr.LastName = uu.LastName
	}
	if uu.FirstName != "" {
		usr.FirstName = uu.FirstName
	}
	if uu.FatherName != nil {
		usr.FatherName = *uu.FatherName
	}
	if uu.Role != "" {
		usr.Role = uu.Role
	}
	if uu.Phone != nil {
		usr.Phone = *uu.Phone
	}
	if uu.WhatsApp != nil {
		usr.WhatsApp = *uu.WhatsApp
	}
	if uu.Language != "" {
		usr.Language = uu.Language
	}
	if uu.Program != "" {
		usr.Program = uu.Program
	}
	if uu.Degrees != nil {
		usr.Degrees = uu.Degrees
	}
	if uu.SupervisorID != nil {
		usr.SupervisorID = *uu.SupervisorID
	}
	if uu.IsActive != nil {
		usr.SetActive(*uu.IsActive)
	}
	if !usr.Role.IsStudent() {
		usr.Program = ""
		usr.SupervisorID = ""
	}
	if usr.Role != RoleSupervisor {
		usr.Degrees = nil
	}
	return usr
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

type QueryFilter struct {
	Search       string        `query:"search"`
	Roles        []Role        `query:"role"`
	IsActive     *bool         `query:"-"` // bound by the handler from ?is_active=
	Program      string        `query:"OP"`
	Language     i18n.Language `query:"language"`
	SupervisorID string        `query:"supervisor"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil &&
		qf.Program == "" && qf.Language == "" && qf.SupervisorID == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Program = core.CleanString(qf.Program)
	qf.SupervisorID = core.CleanString(qf.SupervisorID)
}

// Match reports whether usr satisfies every set field of the filter.
// Search is a case-insensitive match on the username, the email or any name part.
func (qf *QueryFilter) Match(usr User) bool {
	if qf == nil {
		return true
	}
	if qf.Search != "" {
		s := strings.ToLower(qf.Search)
		found := false
		for _, f := range []string{usr.Username, usr.Email, usr.LastName, usr.FirstName, usr.FatherName} {
			if strings.Contains(strings.ToLower(f), s) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(qf.Roles) > 0 {
		found := false
		for _, r := range qf.Roles {
			if usr.Role == r {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if qf.IsActive != nil && usr.Active() != *qf.IsActive {
		return false
	}
	if qf.Program != "" && usr.Program != qf.Program {
		return false
	}
	if qf.Language != "" && usr.Language != qf.Language {
		return false
	}
	if qf.SupervisorID != "" && usr.SupervisorID != qf.SupervisorID {
		return false
	}
	return true
}

// GetFilter selects a single User; the first non-empty field wins.
type GetFilter struct {
	ID              string
	Username        string
	Email           string
	UsernameOrEmail string
}
