package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/docmaster/docmaster/core/iup"
	"github.com/docmaster/docmaster/core/user"
)

type iupApi struct {
	svc iup.Service
}

func registerIUPAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := iupApi{svc: deps.IUPSvc}

	ig := g.Group("/iup", authed...)
	ig.GET("", api.query)
	ig.GET("/supervisees", api.supervisees, roleMiddleware(user.RoleSupervisor))
	ig.GET("/:id", api.retrieve)
	ig.GET("/:id/application", api.application)
	ig.PUT("/:id/stage/:n", api.saveStage)
	ig.POST("/:id/stage/:n/:action", api.stageAction)
}

type (
	StageUpdateRequest struct {
		StudentData     *iup.StudentData     `json:"studentData"`
		SupervisorEdits *iup.SupervisorEdits `json:"supervisorEdits"`
	}

	StageActionRequest struct {
		Comment string `json:"comment"`
	}
)

// Handlers

func (api *iupApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if usr.IsStudent() {
		plan, err := api.svc.GetForStudent(ctx.Request().Context(), usr, usr.ID)
		if err != nil {
			return errors.Wrap(err, "getting own plan")
		}
		return respond(ctx, http.StatusOK, echo.Map{"iup": plan})
	}

	var filter iup.QueryFilter
	if err = ctx.Bind(&filter); err != nil {
		return respond(ctx, http.StatusOK, echo.Map{"iups": []iup.Plan{}})
	}
	plans, err := api.svc.Query(ctx.Request().Context(), usr, filter)
	if err != nil {
		return errors.Wrap(err, "querying plans")
	}
	return respond(ctx, http.StatusOK, echo.Map{"iups": plans})
}

func (api *iupApi) supervisees(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	summaries, err := api.svc.Supervisees(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "listing supervisees")
	}
	return respond(ctx, http.StatusOK, echo.Map{"iups": summaries})
}

func (api *iupApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	plan, err := api.svc.GetByID(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting plan")
	}
	return respond(ctx, http.StatusOK, echo.Map{"iup": plan})
}

// application renders the printable application; `?format=text` answers with the bare document.
func (api *iupApi) application(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	doc, err := api.svc.Application(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "rendering application")
	}
	if ctx.QueryParam("format") == "text" {
		return ctx.String(http.StatusOK, doc)
	}
	return respond(ctx, http.StatusOK, echo.Map{"document": doc})
}

func (api *iupApi) saveStage(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	n, err := stageParam(ctx)
	if err != nil {
		return err
	}

	var data StageUpdateRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StageUpdateRequest")
	}

	var plan iup.Plan
	switch {
	case usr.IsStudent():
		if data.StudentData == nil {
			return iup.ErrPayloadEmpty
		}
		plan, err = api.svc.SaveStudentData(ctx.Request().Context(), usr, ctx.Param("id"), n, *data.StudentData)
	case usr.IsSupervisor():
		if data.SupervisorEdits == nil {
			return iup.ErrPayloadEmpty
		}
		plan, err = api.svc.SaveSupervisorEdits(ctx.Request().Context(), usr, ctx.Param("id"), n, *data.SupervisorEdits)
	default:
		return errHttpForbidden
	}
	if err != nil {
		return errors.Wrap(err, "saving stage")
	}
	return respond(ctx, http.StatusOK, echo.Map{"iup": plan})
}

func (api *iupApi) stageAction(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	n, err := stageParam(ctx)
	if err != nil {
		return err
	}

	var data StageActionRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StageActionRequest")
	}

	c, id := ctx.Request().Context(), ctx.Param("id")
	var plan iup.Plan
	switch iup.Action(ctx.Param("action")) {
	case iup.ActionSubmit:
		plan, err = api.svc.Submit(c, usr, id, n)
	case iup.ActionApprove:
		plan, err = api.svc.Approve(c, usr, id, n, data.Comment)
	case iup.ActionReview:
		plan, err = api.svc.TakeReview(c, usr, id, n)
	case iup.ActionReject:
		plan, err = api.svc.Reject(c, usr, id, n, data.Comment)
	case iup.ActionResume:
		plan, err = api.svc.Resume(c, usr, id, n)
	case iup.ActionReceipt:
		plan, err = api.svc.ConfirmReceipt(c, usr, id, n)
	default:
		return errHttpNotFound
	}
	if err != nil {
		return errors.Wrapf(err, "applying %s", ctx.Param("action"))
	}
	return respond(ctx, http.StatusOK, echo.Map{"iup": plan})
}
