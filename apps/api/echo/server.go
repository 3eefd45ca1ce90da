package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/segmentio/ksuid"

	"github.com/docmaster/docmaster/core"
	"github.com/docmaster/docmaster/core/iup"
	"github.com/docmaster/docmaster/core/user"
	"github.com/docmaster/docmaster/services/ratelimit"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		UserSvc    user.Service
		IUPSvc     iup.Service
		Limiter    ratelimit.Limiter
		Validate   *validator.Validate
		Translator ut.Translator

		DisableReqLogs bool
	}

	Server struct {
		app      *echo.Echo
		deps     ServerDeps
		jwt      *jwtAuth
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	vala.BeginValidation().Validate(
		vala.IsNotNil(deps.Conf, "deps.Conf"),
		vala.IsNotNil(deps.Logger, "deps.Logger"),
		vala.IsNotNil(deps.UserSvc, "deps.UserSvc"),
		vala.IsNotNil(deps.IUPSvc, "deps.IUPSvc"),
		vala.IsNotNil(deps.Validate, "deps.Validate"),
		vala.IsNotNil(deps.Translator, "deps.Translator"),
	).CheckAndPanic()

	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewMemoryLimiter(deps.Conf.Server.LoginRateLimit, deps.Conf.Server.LoginRateWindow)
	}

	s := &Server{
		app:      echo.New(),
		deps:     deps,
		jwt:      newJWTAuth(deps.Conf),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return ksuid.New().String() },
	}))
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{conf.FrontendBaseURL},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug && !conf.TestMode

	g := s.app.Group("/api")
	g.GET("/health", s.health)

	jwt := s.jwt.middleware()
	authed := []echo.MiddlewareFunc{jwt, activeUserMiddleware(s.deps.UserSvc)}

	registerAuthAPI(g, authed, s.jwt, s.deps)
	registerUserAPI(g, authed, s.deps)
	registerIUPAPI(g, authed, s.deps)
	registerDictionaryAPI(g)
}

// Start listens on the configured address. Errors are sent to Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address()); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

// SignalShutdown asks the application to shut down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

// GenerateToken returns a signed token for usr.
func (s *Server) GenerateToken(usr user.User) (string, error) {
	return s.jwt.generateToken(s.jwt.userClaims(usr))
}

func (s *Server) health(ctx echo.Context) error {
	return respond(ctx, http.StatusOK, echo.Map{"status": "ok", "build": s.deps.Conf.Build})
}
