package rest

import (
	"context"
	"net/http"
	"time"

	"myPromoGame/domain"
	"myPromoGame/internal/middleware"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	EligibilityChecker interface {
		Check(ctx context.Context, userID, shopID uint64) (domain.Eligibility, error)
	}

	PlayRecorder interface {
		RecordPlay(ctx context.Context, userID, shopID, gameAssignmentID uint64) (domain.PlayOutcome, error)
	}

	PlayHandler struct {
		validate *validator.Validate
		gate     EligibilityChecker
		recorder PlayRecorder
		timeout  time.Duration
	}

	PlayRequest struct {
		ShopID           uint64 `param:"shopId" validate:"required"`
		GameAssignmentID uint64 `json:"game_assignment_id"`
	}
)

func NewPlayHandler(gate EligibilityChecker, recorder PlayRecorder, timeout time.Duration) *PlayHandler {
	return &PlayHandler{
		validate: validator.New(),
		gate:     gate,
		recorder: recorder,
		timeout:  timeout,
	}
}

func (h *PlayHandler) CheckEligibility(c echo.Context) error {
	userID, ok := c.Get(middleware.ContextUserID).(uint64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var p ShopParam
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&p); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	eligibility, err := h.gate.Check(ctx, userID, p.ShopID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(eligibility))
}

func (h *PlayHandler) Play(c echo.Context) error {
	userID, ok := c.Get(middleware.ContextUserID).(uint64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var req PlayRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	outcome, err := h.recorder.RecordPlay(ctx, userID, req.ShopID, req.GameAssignmentID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(outcome))
}
