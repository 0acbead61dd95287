package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/assignment"
	"github.com/veritrain/veritrain/core/catalog"
	"github.com/veritrain/veritrain/core/certificate"
	"github.com/veritrain/veritrain/core/grading"
	"github.com/veritrain/veritrain/core/member"
	"github.com/veritrain/veritrain/core/progress"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "member not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
	errNoGroupAssigned      = echo.NewHTTPError(http.StatusBadRequest, "no workforce group assigned")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch cause := errors.Cause(err); cause {
		case member.ErrNotFound, catalog.ErrMaterialNotFound, catalog.ErrQuizNotFound,
			assignment.ErrNotFound, certificate.ErrNotFound, grading.ErrAttemptNotFound,
			progress.ErrNoAttempts:
			writeResponse(ctx, http.StatusNotFound, echo.Map{"error": errHttpNotFound.Message})
			return
		case core.ErrPermissionDenied:
			writeResponse(ctx, http.StatusForbidden, echo.Map{"error": errHttpForbidden.Message})
			return
		case progress.ErrNoGroupAssigned:
			writeResponse(ctx, http.StatusBadRequest, echo.Map{"error": errNoGroupAssigned.Message})
			return
		case grading.ErrQuizLocked:
			writeResponse(ctx, http.StatusConflict, echo.Map{"error": cause.Error()})
			return
		}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(core.Translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *grading.AttemptsExhaustedError:
			code = http.StatusConflict
			message = echo.Map{
				"error":         origErr.Error(),
				"attempts_used": origErr.Used,
				"max_attempts":  origErr.Max,
			}
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			var mem member.Member
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				mem.ID = claims.Subject
				mem.Name = claims.Name
				mem.Email = claims.Email
			}
			logger.Error(msg, errors.Wrap(err, msg), mem)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}
		writeResponse(ctx, code, message)
	}
}

func writeResponse(ctx echo.Context, code int, message interface{}) {
	if ctx.Response().Committed {
		return
	}
	var err error
	if ctx.Request().Method == http.MethodHead { // Issue #608
		err = ctx.NoContent(code)
	} else {
		err = ctx.JSON(code, message)
	}
	if err != nil {
		ctx.Echo().Logger.Error(err)
	}
}
