package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/comrade-chat/comrade-client/internal/models"
	"github.com/labstack/echo/v4"
)

// ErrorHandler returns the custom http error handler.
func ErrorHandler(log Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if err == nil || c.Response().Committed {
			return
		}

		resp := &ResponseError{
			Status:  http.StatusInternalServerError,
			Success: false,
			Err:     err,
		}

		switch v := err.(type) {
		case *echo.HTTPError:
			resp.Status = v.Code
			resp.ErrorMessage = fmt.Sprint(v.Message)
		case *ResponseError:
			resp = v
		default:
			switch {
			case errors.Is(err, models.ErrNotFound):
				resp.Status = http.StatusNotFound
				resp.ErrorMessage = err.Error()
			case errors.Is(err, models.ErrEmptySend):
				resp.Status = http.StatusBadRequest
				resp.ErrorMessage = err.Error()
			case errors.Is(err, context.Canceled) && c.Request().Context().Err() == context.Canceled:
				// client went away
				resp.Status = 499
			}
		}

		if err := c.JSON(resp.Status, resp); err != nil {
			log.Errorw("could not response", "code", resp.Status, "response_body", resp)
		}
	}
}
