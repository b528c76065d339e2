package middleware

import (
	"errors"
	"net/http"

	"myPromoGame/pkg/logger"

	jsonres "myPromoGame/pkg/response"

	"github.com/labstack/echo/v4"
)

// ErrorHandler renders errors that escape the handlers (unknown routes,
// binder failures, panics caught by Recover) in the common error envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "internal server error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(code)
		}
	} else {
		logger.Error("unhandled error", "path", c.Path(), "error", err)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(code)
	} else {
		writeErr = c.JSON(code, jsonres.Error(http.StatusText(code), message, nil))
	}
	if writeErr != nil {
		logger.Error("failed to write error response", "error", writeErr)
	}
}
