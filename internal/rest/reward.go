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
	RewardSynchronizer interface {
		Synchronize(ctx context.Context, shopID uint64, inputs []domain.RewardInput) (domain.RewardSyncResult, error)
	}

	RewardLister interface {
		FindByShop(ctx context.Context, shopID uint64) ([]domain.Reward, error)
	}

	RewardDrawer interface {
		Draw(ctx context.Context, shopID uint64) (domain.DrawResult, error)
	}

	DrawEventLister interface {
		FindByShop(ctx context.Context, shopID uint64, limit int) ([]domain.DrawEvent, error)
	}

	RewardHandler struct {
		validate *validator.Validate
		sync     RewardSynchronizer
		rewards  RewardLister
		drawer   RewardDrawer
		events   DrawEventLister
		timeout  time.Duration
	}

	ShopParam struct {
		ShopID uint64 `param:"shopId" validate:"required"`
	}

	SyncRewardsRequest struct {
		ShopID  uint64               `param:"shopId" validate:"required"`
		Rewards []domain.RewardInput `json:"rewards"`
	}

	DrawEventsQuery struct {
		ShopID uint64 `param:"shopId" validate:"required"`
		Limit  int    `query:"limit" validate:"gte=0,lte=500"`
	}
)

func NewRewardHandler(
	sync RewardSynchronizer,
	rewards RewardLister,
	drawer RewardDrawer,
	events DrawEventLister,
	timeout time.Duration,
) *RewardHandler {
	return &RewardHandler{
		validate: validator.New(),
		sync:     sync,
		rewards:  rewards,
		drawer:   drawer,
		events:   events,
		timeout:  timeout,
	}
}

func (h *RewardHandler) SynchronizeRewards(c echo.Context) error {
	var req SyncRewardsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.sync.Synchronize(ctx, req.ShopID, req.Rewards)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(result))
}

func (h *RewardHandler) ListRewards(c echo.Context) error {
	var p ShopParam
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&p); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	rewards, err := h.rewards.FindByShop(ctx, p.ShopID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(rewards))
}

// Draw runs a draw without a player. It consumes stock like a real play.
func (h *RewardHandler) Draw(c echo.Context) error {
	var p ShopParam
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&p); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.drawer.Draw(ctx, p.ShopID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(result))
}

func (h *RewardHandler) ListDrawEvents(c echo.Context) error {
	var q DrawEventsQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if q.Limit == 0 {
		q.Limit = 50
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	events, err := h.events.FindByShop(ctx, q.ShopID, q.Limit)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(events))
}
