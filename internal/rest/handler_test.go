package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myPromoGame/business/action"
	"myPromoGame/business/play"
	"myPromoGame/business/reward"
	"myPromoGame/domain"
	"myPromoGame/internal/middleware"
	"myPromoGame/internal/repository/memory"
)

type testServer struct {
	e      *echo.Echo
	shop   domain.Shop
	bare   domain.Shop
	action domain.Action
}

func asUser(id uint64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.ContextUserID, id)
			return next(c)
		}
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st := memory.NewStore()
	srv := &testServer{
		shop:   st.AddShop(domain.Shop{Name: "cafe", IsGuaranteedWin: true}),
		bare:   st.AddShop(domain.Shop{Name: "no game", WinningPercentage: 50}),
		action: st.AddAction(domain.Action{Name: "Follow", DefaultLink: "https://example.com", IsActive: true}),
	}
	st.AddGameAssignment(domain.GameAssignment{ShopID: srv.shop.ID, GameID: 1, IsActive: true})

	shops := memory.NewShopRepository(st)
	rewards := memory.NewRewardRepository(st)
	records := memory.NewPlayRecordRepository(st)
	events := memory.NewDrawEventRepository(st)
	chosen := memory.NewChosenActionRepository(st)

	selector := reward.NewSelector(shops, memory.NewGameAssignmentRepository(st), rewards, events, st, reward.NewRand(1), 2)
	gate := play.NewEligibilityGate(records, 24*time.Hour, nil)

	rh := NewRewardHandler(reward.NewSetSynchronizer(shops, rewards, st, reward.NewSetValidator(nil)), rewards, selector, events, time.Second)
	ah := NewActionHandler(action.NewSetSynchronizer(shops, memory.NewActionCatalog(st), chosen, st, nil), chosen, time.Second)
	ph := NewPlayHandler(gate, play.NewRecorder(gate, selector, records, memory.NewLocker(0), st), time.Second)

	e := echo.New()
	g := e.Group("/api/v1/shops/:shopId", asUser(7))
	g.PUT("/rewards", rh.SynchronizeRewards)
	g.GET("/rewards", rh.ListRewards)
	g.POST("/draw", rh.Draw)
	g.GET("/draws", rh.ListDrawEvents)
	g.PUT("/actions", ah.SynchronizeActions)
	g.GET("/actions", ah.ListActions)
	g.GET("/play/eligibility", ph.CheckEligibility)
	g.POST("/play", ph.Play)
	srv.e = e
	return srv
}

func (s *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	}
	return rec, decoded
}

func shopPath(id uint64, suffix string) string {
	return "/api/v1/shops/" + strconv.FormatUint(id, 10) + suffix
}

func details(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	d, ok := body["details"].(map[string]any)
	require.True(t, ok, "missing details in %v", body)
	return d
}

func TestRewardRoutes(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodPut, shopPath(s.shop.ID, "/rewards"),
		`{"rewards":[{"name":"Coffee","percentage":60,"is_unlimited":true},{"name":"Cake","percentage":30,"remaining_to_win":2}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "PERCENTAGE_SUM_INVALID", details(t, body)["kind"])

	rec, body = s.do(t, http.MethodPut, shopPath(s.shop.ID, "/rewards"),
		`{"rewards":[{"name":"Coffee","percentage":60,"is_unlimited":true},{"name":" coffee","percentage":40,"remaining_to_win":2}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "DUPLICATE_NAME", details(t, body)["kind"])
	assert.EqualValues(t, 1, details(t, body)["index"])

	rec, _ = s.do(t, http.MethodPut, shopPath(s.shop.ID, "/rewards"),
		`{"rewards":[{"name":"Coffee","percentage":60,"is_unlimited":true},{"name":"Cake","percentage":40,"remaining_to_win":2}]}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, shopPath(s.shop.ID, "/rewards"), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Coffee")

	rec, _ = s.do(t, http.MethodPut, shopPath(999, "/rewards"), `{"rewards":[]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodPut, "/api/v1/shops/abc/rewards", `{"rewards":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDrawRoutes(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodPut, shopPath(s.shop.ID, "/rewards"),
		`{"rewards":[{"name":"Coffee","percentage":100,"is_unlimited":true}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodPost, shopPath(s.shop.ID, "/draw"), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "guaranteed win")

	rec, _ = s.do(t, http.MethodGet, shopPath(s.shop.ID, "/draws?limit=10"), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"won"`)

	rec, _ = s.do(t, http.MethodPost, shopPath(s.bare.ID, "/draw"), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestActionRoutes(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodPut, shopPath(s.shop.ID, "/actions"), `{"actions":[]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "EMPTY_ACTION_SET", details(t, body)["kind"])

	rec, _ = s.do(t, http.MethodPut, shopPath(s.shop.ID, "/actions"), `{"actions":[{"action_id":`+strconv.FormatUint(s.action.ID, 10)+`}]}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, shopPath(s.shop.ID, "/actions"), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://example.com")
}

func TestPlayRoutes(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodPut, shopPath(s.shop.ID, "/rewards"),
		`{"rewards":[{"name":"Coffee","percentage":100,"is_unlimited":true}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, shopPath(s.shop.ID, "/play/eligibility"), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"allowed":true`)

	rec, _ = s.do(t, http.MethodPost, shopPath(s.shop.ID, "/play"), `{}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "Coffee")

	rec, body := s.do(t, http.MethodPost, shopPath(s.shop.ID, "/play"), `{}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	remaining, ok := details(t, body)["remaining_ms"].(float64)
	require.True(t, ok)
	assert.Greater(t, remaining, float64((23 * time.Hour).Milliseconds()))
	assert.NotEmpty(t, details(t, body)["next_allowed_at"])
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec, _ = s.do(t, http.MethodGet, shopPath(s.shop.ID, "/play/eligibility"), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"allowed":false`)
}

type stubRecorder struct{ err error }

func (s stubRecorder) RecordPlay(context.Context, uint64, uint64, uint64) (domain.PlayOutcome, error) {
	return domain.PlayOutcome{}, s.err
}

func TestPlay_ErrorStatuses(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{err: domain.ErrPlayInProgress, code: http.StatusConflict},
		{err: errors.New("boom"), code: http.StatusInternalServerError},
		{err: domain.NewNotFoundError(domain.ResourceShop, 3), code: http.StatusNotFound},
	}

	for _, tt := range tests {
		h := NewPlayHandler(nil, stubRecorder{err: tt.err}, time.Second)
		e := echo.New()
		e.POST("/shops/:shopId/play", h.Play, asUser(1))

		req := httptest.NewRequest(http.MethodPost, "/shops/3/play", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, tt.code, rec.Code, tt.err.Error())
	}

	h := NewPlayHandler(nil, stubRecorder{}, time.Second)
	e := echo.New()
	e.POST("/shops/:shopId/play", h.Play)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/shops/3/play", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
