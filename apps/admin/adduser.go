package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/docmaster/docmaster/core"
	"github.com/docmaster/docmaster/core/i18n"
	"github.com/docmaster/docmaster/core/user"
)

// addUser creates a user, or updates the role and the password of an existing one and reactivates it.
// Students get their study plan right away.
func (cli *commandLine) addUser(nu user.NewUser) error {
	ctx := context.Background()
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	if !nu.Role.Valid() {
		return errors.Errorf("invalid role %q", nu.Role)
	}
	if nu.Language == "" {
		nu.Language = i18n.Russian
	}

	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, nu.Username)
	switch {
	case err == nil:
		active := true
		usr, err = cli.usrSvc.Update(ctx, usr.ID, user.UpdateUser{
			Role:     nu.Role,
			Program:  nu.Program,
			IsActive: &active,
			Password: nu.Password,
		})
	case errors.Cause(err) == user.ErrNotFound:
		if err = cli.usrSvc.CheckUniqueness(ctx, nu.Username, nu.Email); err != nil {
			return err
		}
		usr, err = cli.usrSvc.Create(ctx, nu)
	}
	if err != nil {
		return err
	}

	if usr.IsStudent() {
		_, err = cli.iupSvc.EnsurePlan(ctx, usr)
	}
	return err
}
