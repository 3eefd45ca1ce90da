// Package dig_container wires the API application with go.uber.org/dig.
package dig_container

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/docmaster/docmaster/apps/api/echo"
	"github.com/docmaster/docmaster/core"
	"github.com/docmaster/docmaster/core/iup"
	"github.com/docmaster/docmaster/core/user"
	emailsvc "github.com/docmaster/docmaster/services/email"
	logsvc "github.com/docmaster/docmaster/services/logger"
	"github.com/docmaster/docmaster/services/ratelimit"
	"github.com/docmaster/docmaster/services/scheduler"
	"github.com/docmaster/docmaster/storage/database"
	inmemdb "github.com/docmaster/docmaster/storage/database/inmem"
	boiledrepos "github.com/docmaster/docmaster/storage/database/sqlboiler"
	sqlxrepos "github.com/docmaster/docmaster/storage/database/sqlx"
)

// EngineInMemory keeps every record in memory; nothing survives a restart.
const EngineInMemory = "inmem"

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// CloseDBFunc releases the database connections.
	CloseDBFunc func() error

	Repositories struct {
		dig.Out
		Users   user.Repository
		Plans   iup.Repository
		CloseDB CloseDBFunc
	}

	ServerParams struct {
		dig.In
		Conf       *core.Config
		Logger     core.Logger
		UserSvc    user.Service
		IUPSvc     iup.Service
		Limiter    ratelimit.Limiter
		Validate   *validator.Validate
		Translator ut.Translator
	}
)

func newLogger(conf *core.Config) core.Logger {
	zl := logsvc.NewConsole(os.Stdout, conf).With().Str("component", "API").Logger()
	return logsvc.NewRollbarLogger(zl, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	zl := logsvc.NewConsole(os.Stdout, conf).With().Str("component", "DB").Caller().Logger()
	return logsvc.NewRollbarLogger(zl, conf)
}

func newRepositories(conf *core.Config, loggerParam DBLoggerParam) Repositories {
	if conf.Database.Engine == EngineInMemory {
		loggerParam.Logger.Warn("using the in-memory database: records are lost on restart")
		db := inmemdb.Open()
		return Repositories{
			Users:   inmemdb.NewUserRepository(db),
			Plans:   inmemdb.NewPlanRepository(db),
			CloseDB: func() error { return nil },
		}
	}

	setUp := func() (*sql.DB, error) {
		ctx := context.Background()
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}

		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return Repositories{
		Users:   boiledrepos.NewUserRepository(db),
		Plans:   sqlxrepos.NewPlanRepository(sqlx.NewDb(db, "postgres")),
		CloseDB: db.Close,
	}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

// newLimiter shares the login attempts through Redis when configured, in memory otherwise.
func newLimiter(conf *core.Config, logger core.Logger) ratelimit.Limiter {
	client, err := ratelimit.NewRedisClient(context.Background(), conf)
	if err != nil {
		logger.Warn(fmt.Sprintf("redis unavailable, limiting logins in memory: %v", err), err)
	}
	return ratelimit.New(client, conf)
}

func newScheduler(svc iup.Service, logger core.Logger, conf *core.Config) *scheduler.Scheduler {
	return scheduler.New(svc, logger, conf)
}

func newServer(p ServerParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:       p.Conf,
		Logger:     p.Logger,
		UserSvc:    p.UserSvc,
		IUPSvc:     p.IUPSvc,
		Limiter:    p.Limiter,
		Validate:   p.Validate,
		Translator: p.Translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRepositories))
	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(user.NewService))
	must(c.Provide(iup.NewService))
	must(c.Provide(newLimiter))
	must(c.Provide(newScheduler))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
