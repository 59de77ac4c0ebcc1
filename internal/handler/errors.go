package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/eventos-api/internal/service"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Status  int      `json:"status"`
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Path    string   `json:"path"`
	Details []string `json:"details,omitempty"`
}

// ErrorHandler renders errors returned by handlers and middleware.  When
// dev is false the message of unexpected errors is hidden.
func ErrorHandler(dev bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		body := toErrorBody(err, dev)
		body.Path = c.Request().URL.Path

		if body.Status >= http.StatusInternalServerError {
			zerolog.Ctx(c.Request().Context()).Error().Err(err).Str("path", body.Path).Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(body.Status)
			return
		}
		_ = c.JSON(body.Status, body)
	}
}

func toErrorBody(err error, dev bool) errorBody {
	var (
		ve *service.ValidationError
		he *echo.HTTPError
	)
	switch {
	case errors.As(err, &ve):
		return errorBody{
			Status:  http.StatusBadRequest,
			Error:   "Validation Failed",
			Message: strings.Join(ve.Details, "; "),
			Details: ve.Details,
		}
	case errors.Is(err, service.ErrDuplicateUsername):
		return newErrorBody(http.StatusBadRequest, service.ErrDuplicateUsername.Error())
	case errors.Is(err, service.ErrDuplicateEmail):
		return newErrorBody(http.StatusBadRequest, service.ErrDuplicateEmail.Error())
	case errors.Is(err, service.ErrAuthentication):
		return newErrorBody(http.StatusUnauthorized, service.ErrAuthentication.Error())
	case errors.Is(err, service.ErrInvalidToken):
		return newErrorBody(http.StatusUnauthorized, service.ErrInvalidToken.Error())
	case errors.Is(err, service.ErrUserNotFound):
		return newErrorBody(http.StatusUnauthorized, service.ErrUserNotFound.Error())
	case errors.Is(err, service.ErrForbidden):
		return newErrorBody(http.StatusForbidden, service.ErrForbidden.Error())
	case errors.Is(err, service.ErrNotFound):
		// Wrapped context stays in the logs, not the response.
		return newErrorBody(http.StatusNotFound, service.ErrNotFound.Error())
	case errors.As(err, &he):
		msg := fmt.Sprint(he.Message)
		if he.Internal != nil && dev {
			msg += ": " + he.Internal.Error()
		}
		return newErrorBody(he.Code, msg)
	}

	msg := "internal server error"
	if dev {
		msg = err.Error()
	}
	return newErrorBody(http.StatusInternalServerError, msg)
}

func newErrorBody(status int, msg string) errorBody {
	return errorBody{Status: status, Error: http.StatusText(status), Message: msg}
}
