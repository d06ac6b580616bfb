package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorcamacaro253/farmacia-web/internal/catalog"
	"github.com/victorcamacaro253/farmacia-web/internal/checkout"
	"github.com/victorcamacaro253/farmacia-web/internal/middleware"
	"github.com/victorcamacaro253/farmacia-web/internal/order"
	"github.com/victorcamacaro253/farmacia-web/internal/search"
	"github.com/victorcamacaro253/farmacia-web/internal/storefront"
	"github.com/victorcamacaro253/farmacia-web/pkg/config"
	"github.com/victorcamacaro253/farmacia-web/pkg/events"
	"github.com/victorcamacaro253/farmacia-web/pkg/jwtutil"
	"github.com/victorcamacaro253/farmacia-web/pkg/storage"
)

type testServer struct {
	e          *echo.Echo
	orders     *order.Store
	publisher  *events.MemoryPublisher
	adminToken string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	orders := order.New(store, cat.SeedOrders(), nil)
	pub := &events.MemoryPublisher{}
	notifier := order.NewNotifier(pub, config.EventsConfig{
		OrderCreatedTopic: "orders.created",
		OrderStatusTopic:  "orders.status_updated",
	})
	provider := storefront.NewProvider(cat, store, orders, 16, nil)
	svc := checkout.NewService(orders, cat, notifier, config.CheckoutConfig{ShippingCost: 1500, FreeShippingThreshold: 15000})

	h := New(provider, svc, search.NewCoordinator(cat, 0), notifier)
	tokens := jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 1, CookieName: "farmacia_client"})

	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler
	e.Use(middleware.RequestIDMiddleware)
	e.GET("/health", HealthCheck)
	RegisterRoutes(e, h, middleware.ClientIdentity(tokens, "farmacia_client", false), middleware.AdminAuth(tokens))

	adminToken, err := tokens.GenerateAdminToken("ops")
	require.NoError(t, err)

	return &testServer{e: e, orders: orders, publisher: pub, adminToken: adminToken}
}

// client replays the token it was issued, like a browser keeping its cookie
type client struct {
	t      *testing.T
	srv    *testServer
	token  string
	bearer string
}

func (s *testServer) newClient(t *testing.T) *client {
	return &client{t: t, srv: s}
}

// newAdmin returns a client that authenticates with the staff token
func (s *testServer) newAdmin(t *testing.T) *client {
	return &client{t: t, srv: s, bearer: s.adminToken}
}

func (c *client) do(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if c.token != "" {
		req.Header.Set(middleware.ClientTokenHeader, c.token)
	}
	if c.bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+c.bearer)
	}

	rec := httptest.NewRecorder()
	c.srv.e.ServeHTTP(rec, req)
	if issued := rec.Header().Get(middleware.ClientTokenHeader); issued != "" {
		c.token = issued
	}
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func ids(t *testing.T, items any) []string {
	t.Helper()
	list, ok := items.([]any)
	require.True(t, ok)
	out := make([]string, len(list))
	for i, item := range list {
		out[i] = item.(map[string]any)["id"].(string)
	}
	return out
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.newClient(t).do(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
}

func TestHome(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.newClient(t).do(http.MethodGet, "/api/home", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Len(t, body["trending"], 6)
	assert.Len(t, body["branches"], 3)
	assert.Equal(t, []string{"c3", "c2", "c4", "c1"}, ids(t, body["categories"]))
}

func TestCategoryListing(t *testing.T) {
	srv := newTestServer(t)
	cl := srv.newClient(t)

	rec := cl.do(http.MethodGet, "/api/categories/medicamentos?sort=price-asc&max_price=1500", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, []string{"p2", "p3", "p1"}, ids(t, body["products"]))
	assert.Nil(t, body["subcategory"])

	rec = cl.do(http.MethodGet, "/api/categories/medicamentos/analgesicos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "c1-1", body["subcategory"].(map[string]any)["id"])

	rec = cl.do(http.MethodGet, "/api/categories/medicamentos/panales", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = cl.do(http.MethodGet, "/api/categories/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = cl.do(http.MethodGet, "/api/categories/medicamentos?min_price=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "min_price must be a non-negative number", decode(t, rec)["error"])
}

func TestProductDetail(t *testing.T) {
	srv := newTestServer(t)
	cl := srv.newClient(t)

	rec := cl.do(http.MethodGet, "/api/products/ibuprofeno-400", "")
	require.Equal(t, http.StatusOK, rec.Code)
	product := decode(t, rec)["product"].(map[string]any)
	assert.Equal(t, "p1", product["id"])
	assert.EqualValues(t, 20, product["discount_percent"])

	rec = cl.do(http.MethodGet, "/api/products/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearch(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.newClient(t).do(http.MethodGet, "/api/search?q=IBUPROFENO", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, []string{"p1"}, ids(t, body["products"]))
	assert.EqualValues(t, 1, body["total"])
}

func TestBranches(t *testing.T) {
	srv := newTestServer(t)
	cl := srv.newClient(t)

	rec := cl.do(http.MethodGet, "/api/branches?province=CABA", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"b2", "b1"}, ids(t, decode(t, rec)["branches"]))

	rec = cl.do(http.MethodGet, "/api/branches/map", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["branches"], 7)
}

func TestCartFlow(t *testing.T) {
	srv := newTestServer(t)
	cl := srv.newClient(t)

	rec := cl.do(http.MethodPost, "/api/cart/items", `{"product_id":"p1","quantity":7}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 5, body["total_items"])
	assert.EqualValues(t, 6000, body["total_price"])

	rec = cl.do(http.MethodPut, "/api/cart/items/p1", `{"quantity":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode(t, rec)["total_items"])

	rec = cl.do(http.MethodGet, "/api/cart", "")
	assert.EqualValues(t, 2, decode(t, rec)["total_items"])

	rec = cl.do(http.MethodPost, "/api/cart/items", `{"product_id":"p4"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = cl.do(http.MethodPost, "/api/cart/items", `{"product_id":"nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = cl.do(http.MethodPost, "/api/cart/items", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = cl.do(http.MethodPut, "/api/cart/items/p2", `{"quantity":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = cl.do(http.MethodDelete, "/api/cart/items/p1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode(t, rec)["total_items"])
}

func TestCartsAreIsolatedPerClient(t *testing.T) {
	srv := newTestServer(t)
	first, second := srv.newClient(t), srv.newClient(t)

	first.do(http.MethodPost, "/api/cart/items", `{"product_id":"p2"}`)
	rec := second.do(http.MethodGet, "/api/cart", "")

	assert.EqualValues(t, 0, decode(t, rec)["total_items"])
	assert.NotEqual(t, first.token, second.token)
}

func TestLoginProfileLogout(t *testing.T) {
	srv := newTestServer(t)
	cl := srv.newClient(t)

	rec := cl.do(http.MethodGet, "/api/profile", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = cl.do(http.MethodPost, "/api/auth/login", `{"email":"ana.garcia@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = cl.do(http.MethodPost, "/api/auth/login", `{"email":"ana.garcia@example.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode(t, rec)["user"].(map[string]any)
	assert.Equal(t, "u1", user["id"])
	assert.NotContains(t, user, "password")

	rec = cl.do(http.MethodGet, "/api/profile", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "b1", body["preferred_branch"].(map[string]any)["id"])
	assert.Equal(t, []string{"order-1707991200000-e5f6a7b8", "order-1705312800000-a1b2c3d4"}, ids(t, body["orders"]))

	rec = cl.do(http.MethodPost, "/api/auth/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = cl.do(http.MethodGet, "/api/auth/session", "")
	assert.Equal(t, false, decode(t, rec)["authenticated"])
}

func TestSelectBranch(t *testing.T) {
	srv := newTestServer(t)
	cl := srv.newClient(t)

	rec := cl.do(http.MethodPut, "/api/session/branch", `{"branch_id":"b9"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = cl.do(http.MethodPut, "/api/session/branch", `{"branch_id":"b4"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = cl.do(http.MethodGet, "/api/auth/session", "")
	assert.Equal(t, "b4", decode(t, rec)["selected_branch"].(map[string]any)["id"])
}

func TestCheckoutFlow(t *testing.T) {
	srv := newTestServer(t)
	cl := srv.newClient(t)

	rec := cl.do(http.MethodPost, "/api/checkout", `{"delivery_method":"pickup","branch_id":"b1","payment_method":"cash"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	cl.do(http.MethodPost, "/api/cart/items", `{"product_id":"p2","quantity":2}`)

	rec = cl.do(http.MethodGet, "/api/checkout?delivery_method=delivery", "")
	require.Equal(t, http.StatusOK, rec.Code)
	quote := decode(t, rec)["quote"].(map[string]any)
	assert.EqualValues(t, 1800, quote["subtotal"])
	assert.EqualValues(t, 3300, quote["total"])

	rec = cl.do(http.MethodPost, "/api/checkout", `{"delivery_method":"delivery","payment_method":"cash"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	fields := decode(t, rec)["fields"].(map[string]any)
	assert.Contains(t, fields, "address")

	rec = cl.do(http.MethodPost, "/api/checkout", `{"delivery_method":"pickup","branch_id":"b5","payment_method":"cash"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = cl.do(http.MethodPost, "/api/checkout", `{"delivery_method":"pickup","branch_id":"b1","payment_method":"cash"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	placed := decode(t, rec)
	assert.EqualValues(t, 1800, placed["total"])
	assert.Equal(t, "pending", placed["status"])
	assert.Equal(t, "Efectivo", placed["payment_label"])
	assert.Equal(t, "b1", placed["branch"].(map[string]any)["id"])

	rec = cl.do(http.MethodGet, "/api/cart", "")
	assert.EqualValues(t, 0, decode(t, rec)["total_items"])

	rec = cl.do(http.MethodGet, "/api/order-success/"+placed["id"].(string), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode(t, rec)["item_count"])

	require.Len(t, srv.publisher.Messages(), 1)
	assert.Equal(t, "orders.created", srv.publisher.Messages()[0].Topic)
}

func TestOrderStatusAndDelete(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.newAdmin(t)
	shopper := srv.newClient(t)
	id := "order-1709287200000-c9d0e1f2"

	rec := admin.do(http.MethodPatch, "/api/admin/orders/"+id+"/status", `{"status":"lost"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = admin.do(http.MethodPatch, "/api/admin/orders/"+id+"/status", `{"status":"confirmed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "confirmed", decode(t, rec)["status"])
	require.Len(t, srv.publisher.Messages(), 1)
	assert.Equal(t, "orders.status_updated", srv.publisher.Messages()[0].Topic)

	rec = admin.do(http.MethodPatch, "/api/admin/orders/missing/status", `{"status":"confirmed"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = admin.do(http.MethodDelete, "/api/admin/orders/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = shopper.do(http.MethodGet, "/api/orders/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = admin.do(http.MethodDelete, "/api/admin/orders/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderManagementRequiresAdmin(t *testing.T) {
	srv := newTestServer(t)
	owner := srv.newClient(t)
	stranger := srv.newClient(t)
	id := "order-1709287200000-c9d0e1f2"

	rec := owner.do(http.MethodGet, "/api/orders/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)

	// a shopper token is not a staff token
	stranger.do(http.MethodGet, "/api/cart", "")
	require.NotEmpty(t, stranger.token)
	stranger.bearer = stranger.token

	anonymous := srv.newClient(t)
	tests := []struct {
		name   string
		cl     *client
		method string
		path   string
		body   string
		want   int
	}{
		{"anonymous delete", anonymous, http.MethodDelete, "/api/admin/orders/" + id, "", http.StatusUnauthorized},
		{"anonymous status update", anonymous, http.MethodPatch, "/api/admin/orders/" + id + "/status", `{"status":"cancelled"}`, http.StatusUnauthorized},
		{"shopper delete", stranger, http.MethodDelete, "/api/admin/orders/" + id, "", http.StatusForbidden},
		{"shopper status update", stranger, http.MethodPatch, "/api/admin/orders/" + id + "/status", `{"status":"cancelled"}`, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cl.t = t
			rec := tt.cl.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	// the shopper-facing order routes are read only
	anonymous.t = t
	rec = anonymous.do(http.MethodDelete, "/api/orders/"+id, "")
	assert.NotEqual(t, http.StatusNoContent, rec.Code)
	rec = anonymous.do(http.MethodPatch, "/api/orders/"+id+"/status", `{"status":"cancelled"}`)
	assert.NotEqual(t, http.StatusOK, rec.Code)

	rec = owner.do(http.MethodGet, "/api/orders/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pending", decode(t, rec)["status"])
	assert.Empty(t, srv.publisher.Messages())
}

func TestResetSession(t *testing.T) {
	srv := newTestServer(t)
	cl := srv.newClient(t)

	rec := cl.do(http.MethodPost, "/api/auth/login", `{"email":"ana.garcia@example.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cl.do(http.MethodPost, "/api/cart/items", `{"product_id":"p2","quantity":2}`)
	rec = cl.do(http.MethodPut, "/api/session/branch", `{"branch_id":"b4"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = cl.do(http.MethodDelete, "/api/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Session reset", decode(t, rec)["message"])

	rec = cl.do(http.MethodGet, "/api/auth/session", "")
	body := decode(t, rec)
	assert.Equal(t, false, body["authenticated"])
	assert.Nil(t, body["selected_branch"])

	rec = cl.do(http.MethodGet, "/api/cart", "")
	assert.EqualValues(t, 0, decode(t, rec)["total_items"])

	rec = cl.do(http.MethodGet, "/api/profile", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckoutWithEmptyCart(t *testing.T) {
	srv := newTestServer(t)
	cl := srv.newClient(t)

	rec := cl.do(http.MethodGet, "/api/checkout", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Cart is empty", decode(t, rec)["error"])

	cl.do(http.MethodPost, "/api/cart/items", `{"product_id":"p2"}`)
	cl.do(http.MethodDelete, "/api/cart/items/p2", "")

	rec = cl.do(http.MethodGet, "/api/checkout?delivery_method=pickup", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPriceBoundsMustBeFinite(t *testing.T) {
	srv := newTestServer(t)
	cl := srv.newClient(t)

	for _, bound := range []string{"min_price=NaN", "max_price=NaN", "max_price=Inf", "min_price=-Inf", "max_price=%2BInf", "min_price=-1"} {
		t.Run(bound, func(t *testing.T) {
			cl.t = t
			rec := cl.do(http.MethodGet, "/api/categories/medicamentos?"+bound, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUnknownRoutes(t *testing.T) {
	srv := newTestServer(t)
	cl := srv.newClient(t)

	rec := cl.do(http.MethodGet, "/api/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", decode(t, rec)["error"])

	rec = cl.do(http.MethodGet, "/some/page", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
}

func TestAbout(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.newClient(t).do(http.MethodGet, "/api/about", "")
	require.Equal(t, http.StatusOK, rec.Code)

	stats := decode(t, rec)["stats"].(map[string]any)
	assert.EqualValues(t, 14, stats["products"])
	assert.EqualValues(t, 7, stats["branches"])
}
