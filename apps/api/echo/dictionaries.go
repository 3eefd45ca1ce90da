package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/docmaster/docmaster/core/i18n"
	"github.com/docmaster/docmaster/core/iup"
	"github.com/docmaster/docmaster/core/user"
)

func registerDictionaryAPI(g *echo.Group) {
	dg := g.Group("/dictionaries")
	dg.GET("/programs", programs)
	dg.GET("/degrees", degrees)
	dg.GET("/statuses", statuses)
}

func language(ctx echo.Context) i18n.Language {
	if lang := i18n.Language(ctx.QueryParam("language")); lang.Valid() {
		return lang
	}
	return i18n.Russian
}

// programs lists the programs of ?role= (magistrants by default) as select options.
func programs(ctx echo.Context) error {
	role := user.Role(ctx.QueryParam("role"))
	if !role.IsStudent() {
		role = user.RoleMagistrant
	}
	tmpl := i18n.Template(ctx.QueryParam("template"))
	if !tmpl.Valid() {
		tmpl = i18n.TemplateFull
	}
	return respond(ctx, http.StatusOK, i18n.SelectOptions(string(role), language(ctx), tmpl))
}

func degrees(ctx echo.Context) error {
	tmpl := i18n.DegreeTemplate(ctx.QueryParam("template"))
	if tmpl != i18n.DegreeShort {
		tmpl = i18n.DegreeFull
	}
	return respond(ctx, http.StatusOK, i18n.DegreeOptions(language(ctx), tmpl))
}

func statuses(ctx echo.Context) error {
	return respond(ctx, http.StatusOK, iup.StatusOptions())
}
