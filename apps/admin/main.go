// Command admin runs the maintenance tasks of docmaster: migrations, accounts and study plans.
package main

import (
	"context"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/docmaster/docmaster/core"
	"github.com/docmaster/docmaster/core/iup"
	"github.com/docmaster/docmaster/core/user"
	emailsvc "github.com/docmaster/docmaster/services/email"
	logsvc "github.com/docmaster/docmaster/services/logger"
	"github.com/docmaster/docmaster/storage/database"
	boiledrepos "github.com/docmaster/docmaster/storage/database/sqlboiler"
	sqlxrepos "github.com/docmaster/docmaster/storage/database/sqlx"
)

var logger core.Logger

func main() {
	conf := core.NewConfig()
	zl := logsvc.NewConsole(os.Stdout, conf).With().Str("component", "ADMIN").Logger()
	rlogger := logsvc.NewRollbarLogger(zl, conf)
	defer rlogger.Close()
	logger = rlogger

	// set up DB
	ctx := context.Background()
	errAndDie(database.CreateIfNotExist(ctx, conf))
	db, err := database.Open(ctx, conf)
	errAndDie(err)
	defer db.Close()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	core.ParseEmailTemplates(logger)
	usrSvc := user.NewService(boiledrepos.NewUserRepository(db), mailSvc, conf)
	iupSvc := iup.NewService(sqlxrepos.NewPlanRepository(sqlx.NewDb(db, "postgres")), usrSvc, mailSvc)

	// start CLI
	cli := commandLine{
		db:     db,
		usrSvc: usrSvc,
		iupSvc: iupSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		db.Close()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
