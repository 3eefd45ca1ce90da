package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/docmaster/docmaster/core"
	"github.com/docmaster/docmaster/core/iup"
	"github.com/docmaster/docmaster/core/user"
)

var errUsrNotFoundInCtx = errors.New("user object not found in echo.Context")

type userApi struct {
	svc      user.Service
	iupSvc   iup.Service
	validate *validator.Validate
	logger   core.Logger
}

func registerUserAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := userApi{
		svc:      deps.UserSvc,
		iupSvc:   deps.IUPSvc,
		validate: deps.Validate,
		logger:   deps.Logger,
	}

	ug := g.Group("/users", authed...)
	ug.POST("", api.create, adminMiddleware())
	ug.GET("", api.query, adminMiddleware())
	ug.GET("/stats/dashboard", api.stats, adminMiddleware())
	ug.GET("/by-role/:role", api.byRole, roleMiddleware(user.RoleAdmin, user.RoleSupervisor))

	// detail endpoints
	dg := ug.Group("/:id", ctxUserOrAdminMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.POST("/restore", api.restore, adminMiddleware())
}

// ensurePlan creates the study plan of a new student. A failure does not undo the user,
// the plan is created again on the first visit.
func (api *userApi) ensurePlan(ctx echo.Context, usr user.User) {
	if !usr.IsStudent() || !usr.Active() {
		return
	}
	if _, err := api.iupSvc.EnsurePlan(ctx.Request().Context(), usr); err != nil {
		api.logger.Error("creating study plan", errors.Wrap(err, "ensuring plan"), usr)
	}
}

// Handlers

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	api.ensurePlan(ctx, usr)

	return respond(ctx, http.StatusCreated, echo.Map{"user": usr})
}

func (api *userApi) query(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return respond(ctx, http.StatusOK, echo.Map{"users": []user.User{}})
	}
	if active, err := strconv.ParseBool(ctx.QueryParam("is_active")); err == nil {
		filter.IsActive = &active
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	users, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return respond(ctx, http.StatusOK, echo.Map{"users": users})
}

func (api *userApi) stats(ctx echo.Context) error {
	stats, err := api.svc.Stats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing user stats")
	}
	return respond(ctx, http.StatusOK, stats)
}

// byRole answers with a bare array, the shape older clients expect.
func (api *userApi) byRole(ctx echo.Context) error {
	role := user.Role(ctx.Param("role"))
	if !role.Valid() {
		return core.NewValidationError(nil, core.FieldError{Field: "role", Error: "invalid role"})
	}

	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if ctxUsr.IsSupervisor() && !role.IsStudent() {
		return errHttpForbidden
	}

	users, err := api.svc.ListByRole(ctx.Request().Context(), role)
	if err != nil {
		return errors.Wrap(err, "listing users by role")
	}
	if ctxUsr.IsSupervisor() {
		// supervisors only see their own students
		own := make([]user.User, 0, len(users))
		for _, u := range users {
			if u.SupervisorID == ctxUsr.ID {
				own = append(own, u)
			}
		}
		users = own
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, ok := ctx.Get(contextObjectKey).(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	data := echo.Map{"user": usr}
	if usr.IsSupervisor() {
		students, err := api.svc.Supervisees(ctx.Request().Context(), usr.ID)
		if err != nil {
			return errors.Wrap(err, "listing supervisees")
		}
		ids := make([]string, 0, len(students))
		for _, s := range students {
			ids = append(ids, s.ID)
		}
		data["supervisees"] = ids
	}
	return respond(ctx, http.StatusOK, data)
}

func (api *userApi) update(ctx echo.Context) error {
	usr, ok := ctx.Get(contextObjectKey).(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}

	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.IsAdmin() && data.AdminOnly() {
		return errHttpForbidden
	}

	if err = data.Validate(ctx.Request().Context(), usr, api.validate, api.svc); err != nil {
		return err
	}

	usr, err = api.svc.Update(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	api.ensurePlan(ctx, usr)

	return respond(ctx, http.StatusOK, echo.Map{"user": usr})
}

func (api *userApi) destroy(ctx echo.Context) error {
	usr, ok := ctx.Get(contextObjectKey).(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	// ctxUser cannot deactivate themselves
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if usr.ID == ctxUsr.ID {
		return errHttpForbidden
	}

	usr, err = api.svc.Deactivate(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "deactivating user")
	}
	return respond(ctx, http.StatusOK, echo.Map{"user": usr}, "Пользователь деактивирован")
}

func (api *userApi) restore(ctx echo.Context) error {
	usr, ok := ctx.Get(contextObjectKey).(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	usr, err := api.svc.Restore(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "restoring user")
	}
	api.ensurePlan(ctx, usr)
	return respond(ctx, http.StatusOK, echo.Map{"user": usr}, "Пользователь восстановлен")
}
