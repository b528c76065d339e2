package rest

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"myPromoGame/domain"
	"myPromoGame/pkg/logger"
	"myPromoGame/pkg/utils"

	jsonres "myPromoGame/pkg/response"

	"github.com/labstack/echo/v4"
)

// ResponseError represent the response error struct
type ResponseError struct {
	Message string `json:"message"`
}

type validationDetails struct {
	Kind  domain.ValidationKind `json:"kind"`
	Index *int                  `json:"index,omitempty"`
}

type cooldownDetails struct {
	NextAllowedAt string `json:"next_allowed_at"`
	RemainingMs   int64  `json:"remaining_ms"`
}

// writeError maps the domain error taxonomy onto HTTP statuses.
func writeError(c echo.Context, err error) error {
	var (
		verr *domain.ValidationError
		nf   *domain.NotFoundError
		cd   *domain.CooldownError
		ce   *domain.ConcurrencyError
	)

	switch {
	case errors.As(err, &verr):
		details := validationDetails{Kind: verr.Kind}
		if verr.Index >= 0 {
			idx := verr.Index
			details.Index = &idx
		}
		return c.JSON(http.StatusUnprocessableEntity, jsonres.Error("VALIDATION_ERROR", verr.Message, details))
	case errors.As(err, &nf):
		return c.JSON(http.StatusNotFound, jsonres.Error("NOT_FOUND", nf.Error(), nil))
	case errors.As(err, &cd):
		c.Response().Header().Set("Retry-After", retryAfter(cd))
		return c.JSON(http.StatusTooManyRequests, jsonres.Error("COOLDOWN", cd.Error(), cooldownDetails{
			NextAllowedAt: cd.NextAllowedAt.UTC().Format(time.RFC3339),
			RemainingMs:   cd.RemainingMs(),
		}))
	case errors.As(err, &ce):
		return c.JSON(http.StatusConflict, jsonres.Error("CONFLICT", ce.Error(), nil))
	default:
		logger.Error("request failed",
			"trace_id", utils.TraceIDFromContext(c.Request().Context()),
			"path", c.Path(),
			"error", err,
		)
		return c.JSON(http.StatusInternalServerError, jsonres.Error("INTERNAL_ERROR", "internal server error", nil))
	}
}

func retryAfter(cd *domain.CooldownError) string {
	secs := (cd.RemainingMs() + 999) / 1000
	return strconv.FormatInt(secs, 10)
}
