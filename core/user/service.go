package user

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/docmaster/docmaster/core"
	"github.com/docmaster/docmaster/core/i18n"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
)

type (
	Repository interface {
		// CheckUsernameUniqueness returns ErrUsernameExists or ErrEmailExists when another user,
		// not part of excludedUsers, already holds the username or the email.
		CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields (see QueryFilter.Match).
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service interface {
		CheckUniqueness(ctx context.Context, uname, email string, exclUsers ...User) error
		Create(ctx context.Context, nu NewUser) (User, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		QueryPublic(ctx context.Context) ([]Public, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		GetByUsernameOrEmail(ctx context.Context, uname string) (User, error)
		ListByRole(ctx context.Context, role Role) ([]User, error)
		Supervisees(ctx context.Context, supervisorID string) ([]User, error)
		Update(ctx context.Context, id string, uu UpdateUser) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		Deactivate(ctx context.Context, id string) (User, error)
		Restore(ctx context.Context, id string) (User, error)
		Stats(ctx context.Context) (Stats, error)
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetUserPassword) error
	}

	service struct {
		repo     Repository
		mailSvc  core.EmailService
		tokenGen *tokenGenerator
		now      func() time.Time
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(mailSvc, "mailSvc"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()

	return &service{
		repo:     repo,
		mailSvc:  mailSvc,
		tokenGen: newTokenGenerator(conf.SecretKey, conf.PasswordResetTimeoutDelta),
		now:      time.Now,
	}
}

func (svc *service) CheckUniqueness(ctx context.Context, uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(ctx, uname, email, exclUsers...); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(nil, core.FieldError{Field: field, Error: errors.Cause(err).Error()})
	}
	return nil
}

// checkRoleFields validates the fields whose meaning depends on the role.
func (svc *service) checkRoleFields(ctx context.Context, usr User) error {
	var flds []core.FieldError

	if usr.Role.IsStudent() {
		if usr.Program == "" {
			flds = append(flds, core.FieldError{Field: "OP", Error: programMissingText})
		} else if !i18n.IsValidProgramForRole(usr.Program, string(usr.Role)) {
			flds = append(flds, core.FieldError{Field: "OP", Error: programText})
		}

		if usr.SupervisorID != "" {
			sup, err := svc.repo.GetUser(ctx, GetFilter{ID: usr.SupervisorID})
			switch {
			case errors.Cause(err) == ErrNotFound:
				flds = append(flds, core.FieldError{Field: "supervisor", Error: supervisorText})
			case err != nil:
				return errors.Wrap(err, "finding supervisor")
			case !sup.IsSupervisor():
				flds = append(flds, core.FieldError{Field: "supervisor", Error: supervisorText})
			}
		}
	}

	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := svc.now().UTC()
	usr := User{
		Username:   nu.Username,
		Email:      nu.Email,
		LastName:   nu.LastName,
		FirstName:  nu.FirstName,
		FatherName: nu.FatherName,
		Role:       nu.Role,
		Phone:      nu.Phone,
		WhatsApp:   nu.WhatsApp,
		Language:   nu.Language,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	usr.SetActive(true)
	if usr.Role.IsStudent() {
		usr.Program = nu.Program
		usr.SupervisorID = nu.SupervisorID
	}
	if usr.Role == RoleSupervisor {
		usr.Degrees = nu.Degrees
	}

	if err := svc.checkRoleFields(ctx, usr); err != nil {
		return User{}, err
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, ordering)
}

// QueryPublic lists the active users for the login picker, sorted by full name.
func (svc *service) QueryPublic(ctx context.Context) ([]Public, error) {
	users, err := svc.repo.QueryUsers(ctx, &QueryFilter{IsActive: core.BoolPtr(true)}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying active users")
	}
	public := make([]Public, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}
	sort.SliceStable(public, func(i, j int) bool { return public[i].FullName < public[j].FullName })
	return public, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{UsernameOrEmail: core.CleanString(uname, true /* lower */)})
}

func (svc *service) ListByRole(ctx context.Context, role Role) ([]User, error) {
	return svc.repo.QueryUsers(
		ctx,
		&QueryFilter{Roles: []Role{role}, IsActive: core.BoolPtr(true)},
		[]core.DBOrdering{{Field: "lastname", Ascending: true}, {Field: "firstname", Ascending: true}},
	)
}

func (svc *service) Supervisees(ctx context.Context, supervisorID string) ([]User, error) {
	if supervisorID == "" {
		return []User{}, nil
	}
	return svc.repo.QueryUsers(
		ctx,
		&QueryFilter{Roles: StudentRoles, IsActive: core.BoolPtr(true), SupervisorID: supervisorID},
		[]core.DBOrdering{{Field: "lastname", Ascending: true}, {Field: "firstname", Ascending: true}},
	)
}

func (svc *service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	orig, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return User{}, err
	}

	usr := uu.apply(orig)
	if usr.Role.IsStudent() && usr.SupervisorID == usr.ID {
		return User{}, core.NewValidationError(nil, core.FieldError{Field: "supervisor", Error: supervisorText})
	}
	if err = svc.checkRoleFields(ctx, usr); err != nil {
		return User{}, err
	}
	if uu.Password != "" {
		if err = usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "setting password")
		}
	}
	usr.UpdatedAt = svc.now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = svc.now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) setActive(ctx context.Context, id string, active bool) (User, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return User{}, err
	}
	usr.SetActive(active)
	usr.UpdatedAt = svc.now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// Deactivate is the soft delete of a User: deactivated users cannot log in.
func (svc *service) Deactivate(ctx context.Context, id string) (User, error) {
	return svc.setActive(ctx, id, false)
}

func (svc *service) Restore(ctx context.Context, id string) (User, error) {
	return svc.setActive(ctx, id, true)
}

func (svc *service) Stats(ctx context.Context) (Stats, error) {
	users, err := svc.repo.QueryUsers(ctx, nil, nil)
	if err != nil {
		return Stats{}, errors.Wrap(err, "querying users")
	}

	stats := Stats{ByRole: make(map[Role]int, len(AllRoles))}
	for _, r := range AllRoles {
		stats.ByRole[r] = 0
	}
	for _, u := range users {
		stats.Total++
		if u.Active() {
			stats.Active++
		} else {
			stats.Inactive++
		}
		stats.ByRole[u.Role]++
		if u.IsStudent() && u.SupervisorID == "" {
			stats.Unsupervised++
		}
	}
	return stats, nil
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.Active() {
		return ErrNotFound
	}
	go svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *service) sendPasswordResetMail(usr User) {
	token, err := svc.tokenGen.makeToken(usr)
	if err != nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject:      "Сброс пароля",
		TemplateName: "password_reset",
		TemplateData: map[string]string{
			"Name":     usr.FullName(),
			"Username": usr.Username,
			"UID":      EncodeUID(usr),
			"Token":    token,
		},
	})
}

func (svc *service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	id, err := decodeUID(data.UID)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "uid", Error: "invalid value"})
	}

	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewValidationError(nil, core.FieldError{Field: "uid", Error: "invalid value"})
		}
		return errors.Wrap(err, "finding user by ID")
	}

	if err = svc.tokenGen.verifyToken(usr, data.Token); err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "token", Error: fmt.Sprintf("%v", err)})
	}

	if err = usr.SetPassword(data.Password); err != nil {
		return errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = svc.now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return errors.Wrap(err, "updating user")
}
