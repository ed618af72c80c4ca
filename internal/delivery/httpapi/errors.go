package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
	"github.com/jambprep/jamb-mastery/internal/service"
)

// newHTTPErrorHandler returns an echo.HTTPErrorHandler that maps domain errors to status codes.
// Bodies are always {"error": ...}, where the value is a message or a field -> message map.
func newHTTPErrorHandler(logger *zap.Logger, v *requestValidator) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			code    int
			message any

			httpErr   *echo.HTTPError
			fieldErrs validator.ValidationErrors
			domainErr *entities.ValidationError
		)

		switch {
		case errors.As(err, &httpErr):
			if inner, ok := httpErr.Internal.(*echo.HTTPError); ok {
				httpErr = inner
			}
			code = httpErr.Code
			message = httpErr.Message
		case errors.As(err, &fieldErrs):
			code = http.StatusBadRequest
			message = v.translate(fieldErrs)
		case errors.As(err, &domainErr):
			code = http.StatusBadRequest
			if domainErr.Field != "" {
				message = map[string]string{domainErr.Field: domainErr.Message}
			} else {
				message = domainErr.Message
			}
		case errors.Is(err, entities.ErrQuestionNotFound),
			errors.Is(err, entities.ErrStudentNotFound),
			errors.Is(err, entities.ErrMasteryNotFound):
			code = http.StatusNotFound
			message = err.Error()
		case errors.Is(err, service.ErrPersistenceUnavailable):
			code = http.StatusServiceUnavailable
			message = service.ErrPersistenceUnavailable.Error()
			logger.Warn("store unavailable",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		default:
			code = http.StatusInternalServerError
			message = http.StatusText(http.StatusInternalServerError)
			logger.Error("unhandled request error",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		var respErr error
		if c.Request().Method == http.MethodHead {
			respErr = c.NoContent(code)
		} else {
			respErr = c.JSON(code, echo.Map{"error": message})
		}
		if respErr != nil {
			logger.Error("failed to write error response", zap.Error(respErr))
		}
	}
}
