package server

import (
	"errors"
	"net/http"
	"shop-service/internal/handler"
	"shop-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// HTTPErrorHandler renders every error a handler returns as {"message": ...}.
// Unknown errors become a generic 500 and are logged, never echoed back.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	var body interface{} = echo.Map{"message": "Error interno del servidor"}

	var apiErr *handler.APIError
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.Status
		body = apiErr.Body()
	case errors.As(err, &httpErr):
		status = httpErr.Code
		if status < http.StatusInternalServerError {
			body = echo.Map{"message": httpMessage(httpErr)}
		} else {
			logger.FromContext(c).Error("Request failed", zap.Error(err))
		}
	default:
		logger.FromContext(c).Error("Unhandled error", zap.Error(err))
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, body)
	}
	if werr != nil {
		logger.FromContext(c).Error("Failed to write error response", zap.Error(werr))
	}
}

func httpMessage(he *echo.HTTPError) string {
	if msg, ok := he.Message.(string); ok {
		return msg
	}
	return http.StatusText(he.Code)
}
