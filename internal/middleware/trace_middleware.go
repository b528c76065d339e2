package middleware

import (
	"time"

	"myPromoGame/pkg/logger"
	"myPromoGame/pkg/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const HeaderTraceID = "X-Trace-Id"

// TraceID reuses the caller's X-Trace-Id or mints one, and puts it on the
// request context so services can log and audit with it.
func TraceID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			traceID := c.Request().Header.Get(HeaderTraceID)
			if traceID == "" {
				traceID = uuid.NewString()
			}

			req := c.Request()
			c.SetRequest(req.WithContext(utils.WithTraceID(req.Context(), traceID)))
			c.Response().Header().Set(HeaderTraceID, traceID)

			return next(c)
		}
	}
}

func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			logger.Info("request",
				"trace_id", utils.TraceIDFromContext(c.Request().Context()),
				"method", c.Request().Method,
				"path", c.Path(),
				"status", c.Response().Status,
				"latency_ms", time.Since(start).Milliseconds(),
			)
			return nil
		}
	}
}
