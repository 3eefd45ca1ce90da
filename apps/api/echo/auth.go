package echoapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/docmaster/docmaster/core"
	"github.com/docmaster/docmaster/core/user"
	"github.com/docmaster/docmaster/services/ratelimit"
)

const (
	contextTokenKey = "userToken"
	contextUserKey  = "user"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64     `json:"oriat,omitempty"`
	Username     string    `json:"username,omitempty"`
	Email        string    `json:"email,omitempty"`
	Role         user.Role `json:"role,omitempty"`
	IsAdmin      bool      `json:"is_admin,omitempty"`
	IsSupervisor bool      `json:"is_supervisor,omitempty"`
	IsStudent    bool      `json:"is_student,omitempty"`
}

type jwtAuth struct {
	conf   middleware.JWTConfig
	issuer string
	expiry time.Duration
	// refresh is how long after the first login a token may still be refreshed
	refresh time.Duration
	now     func() time.Time // mockable
}

func newJWTAuth(conf *core.Config) *jwtAuth {
	return &jwtAuth{
		conf: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(Claims),
		},
		issuer:  conf.AppName,
		expiry:  conf.Server.JWTExpirationDelta,
		refresh: conf.Server.JWTRefreshExpirationDelta,
		now:     time.Now,
	}
}

func (a *jwtAuth) middleware() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(a.conf)
}

func (a *jwtAuth) userClaims(usr user.User, origIat ...int64) *Claims {
	now := a.now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.issuer,
			Subject:   usr.ID,
			ExpiresAt: now.Add(a.expiry).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Username:     usr.Username,
		Email:        usr.Email,
		Role:         usr.Role,
		IsAdmin:      usr.IsAdmin(),
		IsSupervisor: usr.IsSupervisor(),
		IsStudent:    usr.IsStudent(),
	}
}

// generateToken generates a signed JWT token string representing the user Claims.
func (a *jwtAuth) generateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(a.conf.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(a.conf.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func authenticate(ctx context.Context, uname, pwd string, svc user.Service) (user.User, error) {
	usr, err := svc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errAuthenticationFailed
		}
		return user.User{}, errors.Wrap(err, "finding user by username or email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return user.User{}, errAuthenticationFailed
	}
	if !usr.Active() {
		return user.User{}, errAccountDeactivated
	}
	usr, err = svc.SetLastLogin(ctx, usr)
	return usr, errors.Wrap(err, "setting lastLogin")
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}

// activeUserMiddleware loads the user of the token and rejects deactivated or deleted accounts.
// Must run after the JWT middleware.
func activeUserMiddleware(svc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
			if err != nil {
				if errors.Cause(err) == user.ErrNotFound {
					return errUnauthorized
				}
				return errors.Wrap(err, "finding user by ID")
			}
			if !usr.Active() {
				return errUnauthorized
			}
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		}
	}
}

func (a *jwtAuth) refreshToken(ctx echo.Context) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context user")
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.refresh)
	if a.now().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := a.generateToken(a.userClaims(usr, claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}

type authApi struct {
	svc      user.Service
	jwt      *jwtAuth
	validate *validator.Validate
	logger   core.Logger
}

func registerAuthAPI(g *echo.Group, authed []echo.MiddlewareFunc, auth *jwtAuth, deps ServerDeps) {
	api := authApi{
		svc:      deps.UserSvc,
		jwt:      auth,
		validate: deps.Validate,
		logger:   deps.Logger,
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/login", api.login, rateLimitMiddleware(deps.Limiter))
	ag.GET("/users", api.publicUsers)
	ag.POST("/password-reset", api.resetPassword, rateLimitMiddleware(deps.Limiter))
	ag.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	ag.GET("/me", api.me, authed...)
	ag.POST("/refresh", api.refreshToken, authed...)
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := authenticate(ctx.Request().Context(), data.Username, data.Password, api.svc)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := api.jwt.generateToken(api.jwt.userClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return respond(ctx, http.StatusOK, LoginResponse{Token: token, User: usr})
}

func (api *authApi) publicUsers(ctx echo.Context) error {
	users, err := api.svc.QueryPublic(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying public users")
	}
	return respond(ctx, http.StatusOK, echo.Map{"users": users})
}

func (api *authApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return respond(ctx, http.StatusOK, echo.Map{"user": usr})
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, err := api.jwt.refreshToken(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	usr, _ := getContextUser(ctx)
	return respond(ctx, http.StatusOK, LoginResponse{Token: token, User: usr})
}

func (api *authApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email)
	if err != nil && errors.Cause(err) != user.ErrNotFound {
		// do not return errors to attackers
		api.logger.Error("requesting password reset", errors.Wrap(err, "requesting password reset"))
	}
	return respond(ctx, http.StatusOK, nil,
		"Если указанный адрес связан с активной учётной записью, на него придёт письмо с инструкциями по сбросу пароля.")
}

func (api *authApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return respond(ctx, http.StatusOK, nil, "Пароль изменён.")
}

func rateLimitMiddleware(limiter ratelimit.Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			key := ctx.Path() + ":" + ctx.RealIP()
			if !limiter.Allow(ctx.Request().Context(), key) {
				return errTooManyRequests
			}
			return next(ctx)
		}
	}
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}
