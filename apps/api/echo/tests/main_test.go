package tests

import (
	"io"
	"testing"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/docmaster/docmaster/apps/api/echo"
	"github.com/docmaster/docmaster/core"
	"github.com/docmaster/docmaster/core/i18n"
	"github.com/docmaster/docmaster/core/iup"
	"github.com/docmaster/docmaster/core/user"
	emailsvc "github.com/docmaster/docmaster/services/email"
	logsvc "github.com/docmaster/docmaster/services/logger"
	"github.com/docmaster/docmaster/services/ratelimit"
	inmemdb "github.com/docmaster/docmaster/storage/database/inmem"
	testutil "github.com/docmaster/docmaster/tests"
)

type testApp struct {
	app     *echoapi.Server
	conf    *core.Config
	usrRepo user.Repository
	usrSvc  user.Service
	iupSvc  iup.Service

	admin    user.User
	leader   user.User
	leader2  user.User
	student  user.User
	inactive user.User
}

func setup(t *testing.T, confOpts ...func(*core.Config)) *testApp {
	t.Helper()

	conf := testutil.Config()
	for _, opt := range confOpts {
		opt(conf)
	}

	// set up DB & repos
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	planRepo := inmemdb.NewPlanRepository(db)

	// set up services
	logger := logsvc.NewRollbarLogger(logsvc.NewConsole(io.Discard, conf), conf)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	emailsvc.ResetSentMessages()
	usrSvc := user.NewServiceMock(usrRepo, mailSvc, conf)
	iupSvc := iup.NewService(planRepo, usrSvc, mailSvc)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	ta := &testApp{
		conf:    conf,
		usrRepo: usrRepo,
		usrSvc:  usrSvc,
		iupSvc:  iupSvc,
	}
	ta.admin = testutil.CreateUser(t, usrRepo, user.User{Username: "admin", LastName: "Админов", FirstName: "Админ", Role: user.RoleAdmin}, true)
	ta.leader = testutil.CreateUser(t, usrRepo, user.User{Username: "leader", LastName: "Ахметов", FirstName: "Болат",
		FatherName: "Серикович", Role: user.RoleSupervisor, Degrees: []string{"candidate"}}, true)
	ta.leader2 = testutil.CreateUser(t, usrRepo, user.User{Username: "leader2", LastName: "Смирнов", FirstName: "Олег",
		Role: user.RoleSupervisor}, true)
	ta.student = testutil.CreateUser(t, usrRepo, user.User{Username: "student", LastName: "Иванова", FirstName: "Анна",
		FatherName: "Петровна", Role: user.RoleMagistrant, Program: "7M01503", SupervisorID: ta.leader.ID, Language: i18n.Russian}, true)
	ta.inactive = testutil.CreateUser(t, usrRepo, user.User{Username: "gone", LastName: "Ушедший", FirstName: "Пётр",
		Role: user.RoleDoctorant, Program: "8D01103"}, false)

	ta.app = echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         logger,
		UserSvc:        usrSvc,
		IUPSvc:         iupSvc,
		Limiter:        ratelimit.NewMemoryLimiter(conf.Server.LoginRateLimit, conf.Server.LoginRateWindow),
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	return ta
}

func (ta *testApp) token(t *testing.T, usr user.User) string {
	return getToken(t, ta.app, usr)
}
