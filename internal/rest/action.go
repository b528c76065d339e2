package rest

import (
	"context"
	"net/http"
	"time"

	"myPromoGame/domain"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	ActionSynchronizer interface {
		Synchronize(ctx context.Context, shopID uint64, inputs []domain.ActionInput) (domain.ActionSyncResult, error)
	}

	ChosenActionLister interface {
		FindByShop(ctx context.Context, shopID uint64) ([]domain.ChosenAction, error)
	}

	ActionHandler struct {
		validate *validator.Validate
		sync     ActionSynchronizer
		actions  ChosenActionLister
		timeout  time.Duration
	}

	SyncActionsRequest struct {
		ShopID  uint64               `param:"shopId" validate:"required"`
		Actions []domain.ActionInput `json:"actions"`
	}
)

func NewActionHandler(sync ActionSynchronizer, actions ChosenActionLister, timeout time.Duration) *ActionHandler {
	return &ActionHandler{
		validate: validator.New(),
		sync:     sync,
		actions:  actions,
		timeout:  timeout,
	}
}

func (h *ActionHandler) SynchronizeActions(c echo.Context) error {
	var req SyncActionsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.sync.Synchronize(ctx, req.ShopID, req.Actions)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(result))
}

func (h *ActionHandler) ListActions(c echo.Context) error {
	var p ShopParam
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&p); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	actions, err := h.actions.FindByShop(ctx, p.ShopID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(actions))
}
