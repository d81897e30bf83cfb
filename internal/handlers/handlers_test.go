package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satonic/auction-api/internal/config"
	"github.com/satonic/auction-api/internal/events"
	"github.com/satonic/auction-api/internal/models"
	"github.com/satonic/auction-api/internal/ratelimit"
	"github.com/satonic/auction-api/internal/services"
	"github.com/satonic/auction-api/internal/store"
)

type testServer struct {
	handler  http.Handler
	auth     *services.AuthService
	recorder *events.Recorder
	tokens   map[string]string
}

type serverOption func(*RouterConfig)

func withLimiter(l RateLimiter) serverOption {
	return func(c *RouterConfig) { c.Limiter = l }
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := store.NewMemoryStore()
	rec := &events.Recorder{}
	auth := services.NewAuthService(mem, config.AuthConfig{
		JWTSecret:         "test-secret",
		JWTExpiration:     30,
		RefreshExpiration: 14,
	}, logger)

	require.NoError(t, mem.CreateCategory(context.Background(), &models.Category{Name: "Cameras"}))

	cfg := RouterConfig{
		Items:      services.NewItemService(mem, mem, rec, 72*time.Hour, logger),
		Bids:       services.NewBidService(mem, mem, rec, logger),
		Orders:     services.NewOrderService(mem, mem, mem, rec, logger),
		Auth:       auth,
		Users:      services.NewUserService(mem, logger),
		Categories: services.NewCategoryService(mem, logger),
		Watches:    services.NewWatchService(mem, mem, logger),
		Stats:      services.NewStatsService(mem),
		Info:       HealthResponse{Name: "auction-api", Version: "test", BuildTime: "now"},
		Logger:     logger,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ts := &testServer{
		handler:  NewRouter(cfg),
		auth:     auth,
		recorder: rec,
		tokens:   map[string]string{},
	}
	for name, role := range map[string]models.Role{
		"seller": models.RoleUser,
		"alice":  models.RoleUser,
		"bob":    models.RoleUser,
		"admin":  models.RoleAdmin,
	} {
		user, err := auth.CreateUser(context.Background(), name+"@example.com", "password123", name, role)
		require.NoError(t, err)
		token, err := auth.IssueTokens(user)
		require.NoError(t, err)
		ts.tokens[name] = token.AccessToken
	}
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token, ok := ts.tokens[user]; ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func assertError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) errorPayload {
	t.Helper()

	require.Equal(t, status, rr.Code, rr.Body.String())
	payload := decode[errorPayload](t, rr)
	assert.Equal(t, code, payload.Code)
	assert.Equal(t, status, payload.Status)
	return payload
}

type errorPayload struct {
	Timestamp string         `json:"timestamp"`
	Path      string         `json:"path"`
	Status    int            `json:"status"`
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details"`
}

func (ts *testServer) createItem(t *testing.T, startPrice, bidUnit int64) models.Item {
	t.Helper()

	rr := ts.do(t, http.MethodPost, "/api/v1/items", "seller", models.CreateItemRequest{
		CategoryID:  1,
		Title:       "Film camera",
		Description: "35mm rangefinder",
		StartPrice:  startPrice,
		BidUnit:     bidUnit,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[models.Item](t, rr)
}

func TestAuctionOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	item := ts.createItem(t, 100, 100)
	assert.Equal(t, models.ItemStatusDraft, item.Status)

	base := fmt.Sprintf("/api/v1/items/%d", item.ID)

	rr := ts.do(t, http.MethodPost, base+"/publish", "seller", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	published := decode[models.StatusResponse](t, rr)
	assert.Equal(t, "OPEN", published.Status)
	assert.NotNil(t, published.EndsAt)

	rr = ts.do(t, http.MethodPost, base+"/bids", "alice", models.PlaceBidRequest{Amount: 100})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = ts.do(t, http.MethodPost, base+"/bids", "bob", models.PlaceBidRequest{Amount: 150})
	tooLow := assertError(t, rr, http.StatusUnprocessableEntity, "UNPROCESSABLE_ENTITY")
	assert.EqualValues(t, 200, tooLow.Details["min_bid"])

	rr = ts.do(t, http.MethodPost, base+"/bids", "bob", models.PlaceBidRequest{Amount: 250})
	misaligned := assertError(t, rr, http.StatusUnprocessableEntity, "UNPROCESSABLE_ENTITY")
	assert.EqualValues(t, 100, misaligned.Details["bid_unit"])

	rr = ts.do(t, http.MethodPost, base+"/bids", "bob", models.PlaceBidRequest{Amount: 300})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = ts.do(t, http.MethodGet, base+"/bids/highest", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(300), decode[models.HighestBidResponse](t, rr).HighestBid)

	rr = ts.do(t, http.MethodPost, base+"/close", "seller", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "CLOSED", decode[models.StatusResponse](t, rr).Status)

	rr = ts.do(t, http.MethodGet, base+"/winner", "", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	winner := decode[models.WinnerResponse](t, rr)
	assert.Equal(t, int64(300), winner.Price)
	require.NotNil(t, winner.WinnerUserID)

	rr = ts.do(t, http.MethodPost, base+"/orders", "alice", nil)
	assertError(t, rr, http.StatusForbidden, "FORBIDDEN")

	rr = ts.do(t, http.MethodPost, base+"/orders", "bob", models.CreateOrderRequest{})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	order := decode[models.Order](t, rr)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, int64(300), order.TotalPrice)
	assert.Equal(t, *winner.WinnerUserID, order.BuyerID)

	rr = ts.do(t, http.MethodPost, base+"/orders", "bob", nil)
	assertError(t, rr, http.StatusConflict, "STATE_CONFLICT")

	rr = ts.do(t, http.MethodGet, "/api/v1/orders", "bob", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	mine := decode[models.Page[models.Order]](t, rr)
	assert.Equal(t, 1, mine.TotalElements)

	rr = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", order.ID), "alice", nil)
	assertError(t, rr, http.StatusNotFound, "RESOURCE_NOT_FOUND")

	rr = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/admin/orders/%d/status", order.ID), "admin",
		models.UpdateOrderStatusRequest{Status: models.OrderStatusPaid})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, models.OrderStatusPaid, decode[models.Order](t, rr).Status)

	rr = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/admin/orders/%d/status", order.ID), "admin",
		models.UpdateOrderStatusRequest{Status: models.OrderStatusShipped})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/cancel", order.ID), "bob", nil)
	assertError(t, rr, http.StatusConflict, "STATE_CONFLICT")

	assert.Equal(t, []events.Type{
		events.ItemPublished,
		events.BidPlaced,
		events.BidPlaced,
		events.ItemClosed,
		events.OrderCreated,
		events.OrderStatusChanged,
		events.OrderStatusChanged,
	}, ts.recorder.Types())
}

func TestErrorPayloadShape(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodGet, "/api/v1/items/999", "", nil)
	payload := assertError(t, rr, http.StatusNotFound, "RESOURCE_NOT_FOUND")
	assert.Equal(t, "/api/v1/items/999", payload.Path)
	assert.NotNil(t, payload.Details)
	assert.NotEmpty(t, payload.Message)

	ts0, err := time.Parse(time.RFC3339Nano, payload.Timestamp)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, ts0.Location())
	assert.Contains(t, rr.Body.String(), `"details":{}`)
}

func TestQueryValidation(t *testing.T) {
	ts := newTestServer(t)
	item := ts.createItem(t, 100, 10)

	cases := []string{
		"/api/v1/items?page=abc",
		"/api/v1/items?size=0",
		"/api/v1/items?size=101",
		"/api/v1/items?page=-1",
		"/api/v1/items?min_price=cheap",
		"/api/v1/items?sort=price,DESC",
		fmt.Sprintf("/api/v1/items/%d/bids?sort=amount,ASC", item.ID),
	}
	for _, path := range cases {
		t.Run(path, func(t *testing.T) {
			rr := ts.do(t, http.MethodGet, path, "", nil)
			assertError(t, rr, http.StatusBadRequest, "INVALID_QUERY_PARAM")
		})
	}

	rr := ts.do(t, http.MethodGet, "/api/v1/items?size=5&sort=createdAt,ASC", "", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	page := decode[models.Page[models.Item]](t, rr)
	assert.Equal(t, 5, page.Size)
	assert.Equal(t, "createdAt,ASC", page.Sort)
	assert.Equal(t, 1, page.TotalElements)

	rr = ts.do(t, http.MethodGet, "/api/v1/items/999/bids", "", nil)
	assertError(t, rr, http.StatusNotFound, "RESOURCE_NOT_FOUND")
}

func TestAuthentication(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPost, "/api/v1/items", "", models.CreateItemRequest{})
	assertError(t, rr, http.StatusUnauthorized, "UNAUTHORIZED")

	ts.tokens["forged"] = "not-a-jwt"
	rr = ts.do(t, http.MethodPost, "/api/v1/items", "forged", models.CreateItemRequest{})
	assertError(t, rr, http.StatusUnauthorized, "UNAUTHORIZED")

	ghost, err := ts.auth.IssueTokens(&models.User{ID: 4242, Role: models.RoleUser})
	require.NoError(t, err)
	ts.tokens["ghost"] = ghost.AccessToken
	rr = ts.do(t, http.MethodGet, "/api/v1/orders", "ghost", nil)
	assertError(t, rr, http.StatusNotFound, "USER_NOT_FOUND")

	rr = ts.do(t, http.MethodPatch, "/api/v1/admin/items/1/force-close", "alice", nil)
	assertError(t, rr, http.StatusForbidden, "FORBIDDEN")

	rr = ts.do(t, http.MethodGet, "/api/v1/auth/me", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	me := decode[models.User](t, rr)
	assert.Equal(t, "alice@example.com", me.Email)

	rr = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/admin/users/%d/deactivate", me.ID), "admin", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = ts.do(t, http.MethodGet, "/api/v1/auth/me", "alice", nil)
	assertError(t, rr, http.StatusForbidden, "FORBIDDEN")
}

func TestRegisterLoginRefresh(t *testing.T) {
	ts := newTestServer(t)

	register := models.RegisterRequest{Email: "carol@example.com", Password: "correct-horse", Nickname: "carol"}
	rr := ts.do(t, http.MethodPost, "/api/v1/auth/register", "", register)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.NotEmpty(t, decode[models.AuthToken](t, rr).AccessToken)

	rr = ts.do(t, http.MethodPost, "/api/v1/auth/register", "", register)
	dup := assertError(t, rr, http.StatusConflict, "DUPLICATE_RESOURCE")
	assert.Equal(t, "duplicate", dup.Details["email"])

	rr = ts.do(t, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{Email: "carol@example.com", Password: "wrong-password"})
	assertError(t, rr, http.StatusUnauthorized, "UNAUTHORIZED")

	rr = ts.do(t, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{Email: "carol@example.com", Password: "correct-horse"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	token := decode[models.AuthToken](t, rr)
	assert.Equal(t, "Bearer", token.TokenType)

	rr = ts.do(t, http.MethodPost, "/api/v1/auth/refresh", "", models.RefreshRequest{RefreshToken: token.AccessToken})
	assertError(t, rr, http.StatusUnauthorized, "UNAUTHORIZED")

	rr = ts.do(t, http.MethodPost, "/api/v1/auth/refresh", "", models.RefreshRequest{RefreshToken: token.RefreshToken})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString("{not json"))
	bad := httptest.NewRecorder()
	ts.handler.ServeHTTP(bad, req)
	assertError(t, bad, http.StatusBadRequest, "BAD_REQUEST")
}

func TestDraftLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	item := ts.createItem(t, 500, 50)
	path := fmt.Sprintf("/api/v1/items/%d", item.ID)

	title := "Film camera with lens"
	rr := ts.do(t, http.MethodPatch, path, "seller", models.UpdateItemRequest{Title: &title})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, title, decode[models.Item](t, rr).Title)

	rr = ts.do(t, http.MethodPatch, path, "alice", models.UpdateItemRequest{Title: &title})
	assertError(t, rr, http.StatusForbidden, "FORBIDDEN")

	rr = ts.do(t, http.MethodPost, path+"/bids", "alice", models.PlaceBidRequest{Amount: 500})
	assertError(t, rr, http.StatusConflict, "STATE_CONFLICT")

	rr = ts.do(t, http.MethodDelete, path, "seller", nil)
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	rr = ts.do(t, http.MethodGet, path, "", nil)
	assertError(t, rr, http.StatusNotFound, "RESOURCE_NOT_FOUND")

	rr = ts.do(t, http.MethodGet, "/api/v1/items/abc", "", nil)
	assertError(t, rr, http.StatusNotFound, "RESOURCE_NOT_FOUND")
}

func TestAdminForceClose(t *testing.T) {
	ts := newTestServer(t)
	item := ts.createItem(t, 100, 10)
	path := fmt.Sprintf("/api/v1/items/%d", item.ID)

	rr := ts.do(t, http.MethodPost, path+"/publish", "seller", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = ts.do(t, http.MethodPost, path+"/close", "alice", nil)
	assertError(t, rr, http.StatusForbidden, "FORBIDDEN")

	rr = ts.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/admin/items/%d/force-close", item.ID), "admin", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "CLOSED", decode[models.StatusResponse](t, rr).Status)

	rr = ts.do(t, http.MethodGet, path+"/winner", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, decode[models.WinnerResponse](t, rr).WinnerUserID)
}

func TestRateLimit(t *testing.T) {
	srv := miniredis.RunT(t)
	client, err := ratelimit.NewRedisClient(srv.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	ts := newTestServer(t, withLimiter(ratelimit.New(client, 2, time.Minute)))

	for i := 0; i < 2; i++ {
		rr := ts.do(t, http.MethodGet, "/api/v1/items", "", nil)
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := ts.do(t, http.MethodGet, "/api/v1/items", "", nil)
	payload := assertError(t, rr, http.StatusTooManyRequests, "TOO_MANY_REQUESTS")
	assert.Equal(t, "too many requests", payload.Message)
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	rr = ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (ratelimit.Result, error) {
	return ratelimit.Result{}, errors.New("connection refused")
}

func TestRateLimitFailsOpen(t *testing.T) {
	ts := newTestServer(t, withLimiter(brokenLimiter{}))

	rr := ts.do(t, http.MethodGet, "/api/v1/items", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	health := decode[HealthResponse](t, rr)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "auction-api", health.Name)
	assert.Equal(t, "now", health.BuildTime)

	rec := httptest.NewRecorder()
	Health(HealthResponse{Name: "auction-api"}, fakePinger{err: errors.New("down")}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", decode[HealthResponse](t, rec).Status)
}
