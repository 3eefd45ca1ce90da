package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/docmaster/docmaster/core"
	"github.com/docmaster/docmaster/core/iup"
	"github.com/docmaster/docmaster/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "Неверное имя пользователя или пароль")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "Учётная запись деактивирована")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
	errTooManyRequests      = echo.NewHTTPError(http.StatusTooManyRequests, "Слишком много попыток, попробуйте позже")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		resp := Response{}

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				resp.Message, _ = origErr.Message.(string)
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			resp.Message = http.StatusText(code)
			if m, ok := origErr.Message.(string); ok {
				resp.Message = m
			}
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			resp.Message = "validation failed"
			resp.Errors = core.TranslateValidationErrors(origErr, translator)
		case *core.ValidationError:
			code = http.StatusBadRequest
			resp.Message = origErr.Error()
			resp.Errors = origErr.FieldMap()
		case *iup.TransitionError:
			code = http.StatusConflict
			resp.Message = origErr.Error()
		default:
			switch {
			case iup.IsGuardError(cause):
				code = http.StatusConflict
				resp.Message = cause.Error()
			case cause == iup.ErrForbidden:
				code = http.StatusForbidden
				resp.Message = cause.Error()
			case cause == iup.ErrNotFound || cause == iup.ErrStageNotFound || cause == user.ErrNotFound:
				code = http.StatusNotFound
				resp.Message = cause.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				resp.Message = msg

				var usr user.User
				if claims, cErr := getContextClaims(ctx); cErr == nil {
					usr.ID = claims.Subject
					usr.Username = claims.Username
					usr.Email = claims.Email
				}
				logger.Error(msg, errors.Wrap(err, msg), usr)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug {
			resp.Message = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, resp)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
