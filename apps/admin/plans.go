package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/docmaster/docmaster/core"
	"github.com/docmaster/docmaster/core/iup"
	"github.com/docmaster/docmaster/core/user"
)

// systemAdmin is the actor of the maintenance commands.
var systemAdmin = user.User{ID: "admin-cli", Username: "admin-cli", Role: user.RoleAdmin}

// createPlans backfills the study plans of the active students who have none.
func (cli *commandLine) createPlans() (int, error) {
	ctx := context.Background()
	existing, err := cli.iupSvc.Query(ctx, systemAdmin, iup.QueryFilter{})
	if err != nil {
		return 0, errors.Wrap(err, "querying plans")
	}
	hasPlan := make(map[string]bool, len(existing))
	for _, p := range existing {
		hasPlan[p.Student.ID] = true
	}

	students, err := cli.usrSvc.Query(ctx, &user.QueryFilter{Roles: user.StudentRoles, IsActive: core.BoolPtr(true)}, nil)
	if err != nil {
		return 0, errors.Wrap(err, "querying students")
	}

	created := 0
	for _, s := range students {
		if hasPlan[s.ID] {
			continue
		}
		if _, err = cli.iupSvc.EnsurePlan(ctx, s); err != nil {
			return created, errors.Wrapf(err, "creating plan of %s", s.Username)
		}
		created++
	}
	return created, nil
}

func (cli *commandLine) sendDigest() (int, error) {
	return cli.iupSvc.SendDigest(context.Background())
}
