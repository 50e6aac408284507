package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/rms/internal/auth"
	"github.com/vladislavdragonenkov/rms/internal/domain"
	"github.com/vladislavdragonenkov/rms/internal/metrics"
	"github.com/vladislavdragonenkov/rms/internal/service/account"
	"github.com/vladislavdragonenkov/rms/internal/service/addressbook"
	"github.com/vladislavdragonenkov/rms/internal/service/catalog"
	"github.com/vladislavdragonenkov/rms/internal/service/dashboard"
	"github.com/vladislavdragonenkov/rms/internal/service/idempotency"
	"github.com/vladislavdragonenkov/rms/internal/service/ordering"
	"github.com/vladislavdragonenkov/rms/internal/service/payment"
	"github.com/vladislavdragonenkov/rms/internal/service/storestatus"
	"github.com/vladislavdragonenkov/rms/internal/storage/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

type testAPI struct {
	t         *testing.T
	router    *gin.Engine
	issuer    *auth.Issuer
	products  domain.ProductRepository
	addons    domain.AddonRepository
	addresses domain.AddressRepository
	store     *storestatus.Service
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	issuer, err := auth.NewIssuer("http-test-secret", time.Hour)
	require.NoError(t, err)

	products, addons := memory.NewProductRepository(), memory.NewAddonRepository()
	addresses := memory.NewAddressRepository()
	orders := memory.NewOrderRepository()
	store := storestatus.NewService(memory.NewStoreConfigRepository(), nil)

	services := Services{
		Accounts:  account.NewService(memory.NewUserRepository(), issuer, nil),
		Catalog:   catalog.NewService(products, addons),
		Addresses: addressbook.NewService(addresses, nil),
		Store:     store,
		Orders: ordering.NewService(ordering.Dependencies{
			Orders:    orders,
			Catalog:   catalog.NewReader(products, addons),
			Addresses: addresses,
			Store:     store,
			Timeline:  memory.NewTimelineRepository(),
			Outbox:    memory.NewOutboxRepository(),
		}),
		Dashboard:   dashboard.NewService(orders, time.UTC),
		Payments:    payment.NewService(payment.NewMockGateway(), nil),
		Idempotency: idempotency.NewGuard(memory.NewIdempotencyRepository(), time.Hour, nil),
	}

	router := NewRouter(services, Options{
		Tokens:  issuer,
		Metrics: metrics.NewHTTPMetrics(prometheus.NewRegistry()),
	})
	return &testAPI{
		t: t, router: router, issuer: issuer,
		products: products, addons: addons, addresses: addresses, store: store,
	}
}

func (a *testAPI) token(userID string, role domain.Role) string {
	a.t.Helper()
	token, _, err := a.issuer.Issue(domain.User{ID: userID, Name: userID, Role: role})
	require.NoError(a.t, err)
	return token
}

func (a *testAPI) do(method, path, token string, body any, headers ...string) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (a *testAPI) seedMenu() {
	a.t.Helper()
	ctx := context.Background()
	require.NoError(a.t, a.products.Create(ctx, domain.Product{
		ID: "smash", Name: "Smash Burger", Price: decimal.RequireFromString("29.90"),
		Category: domain.CategoryBurger, Available: true,
	}))
	require.NoError(a.t, a.addons.Create(ctx, domain.Addon{
		ID: "bacon", Name: "Bacon", Price: decimal.RequireFromString("5.00"), Available: true,
	}))
	require.NoError(a.t, a.addresses.Create(ctx, domain.Address{
		ID: "addr-1", UserID: "customer-1", ZipCode: "22070-011", Street: "Av. Atlântica",
		Number: "1702", Neighborhood: "Copacabana", City: "Rio de Janeiro", State: "RJ",
	}))
}

func copacabanaOrder() map[string]any {
	return map[string]any{
		"type":          "DELIVERY",
		"addressId":     "addr-1",
		"paymentMethod": "pix",
		"items": []map[string]any{
			{"productId": "smash", "quantity": 2, "addonIds": []string{"bacon"}},
		},
	}
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)

	rec, env := api.do(http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, env.OK)

	rec, env = api.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var session sessionDTO
	require.NoError(t, json.Unmarshal(env.Data, &session))
	assert.Equal(t, "CLIENT", session.User.Role)

	rec, env = api.do(http.MethodGet, "/auth/me", session.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me userDTO
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "ana@example.com", me.Email)

	rec, env = api.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.OK)
}

func TestUnauthenticatedRequests(t *testing.T) {
	api := newTestAPI(t)

	rec, env := api.do(http.MethodGet, "/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "unauthenticated", env.Error.Code)

	rec, _ = api.do(http.MethodGet, "/orders", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateOrder_CopacabanaOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	api.seedMenu()

	rec, env := api.do(http.MethodPost, "/orders", api.token("customer-1", domain.RoleClient), copacabanaOrder())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var order map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, 79.8, order["totalPrice"])
	assert.Equal(t, 10.0, order["deliveryFee"])
	assert.Equal(t, "50-60 min", order["estimatedDeliveryTime"])
	assert.Equal(t, "PENDING", order["status"])
	assert.Contains(t, rec.Body.String(), `"totalPrice":79.80`)
}

func TestCreateOrder_StoreClosed(t *testing.T) {
	api := newTestAPI(t)
	api.seedMenu()

	closed := false
	_, err := api.store.Update(context.Background(), domain.Actor{UserID: "admin", Role: domain.RoleAdmin}, storestatus.UpdateInput{IsOpen: &closed})
	require.NoError(t, err)

	rec, env := api.do(http.MethodPost, "/orders", api.token("customer-1", domain.RoleClient), copacabanaOrder())
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "store_closed", env.Error.Code)
}

func TestCreateOrder_IdempotencyKey(t *testing.T) {
	api := newTestAPI(t)
	api.seedMenu()
	token := api.token("customer-1", domain.RoleClient)

	first, firstEnv := api.do(http.MethodPost, "/orders", token, copacabanaOrder(), idempotencyHeader, "k-1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second, secondEnv := api.do(http.MethodPost, "/orders", token, copacabanaOrder(), idempotencyHeader, "k-1")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(replayedHeader))
	assert.JSONEq(t, string(firstEnv.Data), string(secondEnv.Data))

	changed := copacabanaOrder()
	changed["paymentMethod"] = "card"
	rec, env := api.do(http.MethodPost, "/orders", token, changed, idempotencyHeader, "k-1")
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "conflict", env.Error.Code)

	listRec, listEnv := api.do(http.MethodGet, "/orders", token, nil)
	require.Equal(t, http.StatusOK, listRec.Code)
	var orders []orderDTO
	require.NoError(t, json.Unmarshal(listEnv.Data, &orders))
	assert.Len(t, orders, 1)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	api.seedMenu()
	customer := api.token("customer-1", domain.RoleClient)
	kitchen := api.token("kitchen-1", domain.RoleKitchen)

	rec, env := api.do(http.MethodPost, "/orders", customer, copacabanaOrder())
	require.Equal(t, http.StatusCreated, rec.Code)
	var order orderDTO
	require.NoError(t, json.Unmarshal(env.Data, &order))
	path := "/orders/" + order.ID

	rec, _ = api.do(http.MethodPatch, path, customer, map[string]string{"status": "PREPARING"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = api.do(http.MethodPatch, path, kitchen, map[string]string{"status": "DONE"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "business_rule_violation", env.Error.Code)

	rec, _ = api.do(http.MethodPatch, path, kitchen, map[string]string{"status": "PREPARING"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = api.do(http.MethodPatch, path+"/cancel", customer, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, env = api.do(http.MethodGet, path+"/timeline", customer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var events []timelineEventDTO
	require.NoError(t, json.Unmarshal(env.Data, &events))
	assert.Len(t, events, 2)

	rec, _ = api.do(http.MethodGet, path, api.token("customer-2", domain.RoleClient), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = api.do(http.MethodGet, "/orders/summary", kitchen, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary summaryDTO
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 1, summary.TotalOrders)
	assert.Equal(t, 1, summary.ByStatus["PREPARING"])

	rec, _ = api.do(http.MethodGet, "/orders/chart", customer, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCatalogRoutes(t *testing.T) {
	api := newTestAPI(t)
	admin := api.token("admin-1", domain.RoleAdmin)
	customer := api.token("customer-1", domain.RoleClient)

	body := map[string]any{"name": "Fries", "price": "12.50", "category": "side"}
	rec, _ := api.do(http.MethodPost, "/products", customer, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := api.do(http.MethodPost, "/products", admin, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var product productDTO
	require.NoError(t, json.Unmarshal(env.Data, &product))
	assert.Equal(t, "12.50", product.Price.String())

	rec, env = api.do(http.MethodGet, "/products?category=side&available=true", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []productDTO
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	assert.Len(t, listed, 1)

	rec, _ = api.do(http.MethodDelete, "/products/"+product.ID+"/permanent", admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = api.do(http.MethodDelete, "/products/"+product.ID, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = api.do(http.MethodGet, "/products/trash", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	assert.Len(t, listed, 1)

	rec, _ = api.do(http.MethodPatch, "/products/"+product.ID+"/restore", admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = api.do(http.MethodPost, "/products", admin, map[string]any{"name": "", "price": 1, "category": "pizza"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", env.Error.Code)
}

func TestStoreStatusRoutes(t *testing.T) {
	api := newTestAPI(t)

	rec, env := api.do(http.MethodGet, "/store/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status storeStatusDTO
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.True(t, status.IsOpen)

	rec, _ = api.do(http.MethodPatch, "/store/status", api.token("c", domain.RoleClient), map[string]any{"isOpen": false})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = api.do(http.MethodPatch, "/store/status", api.token("e", domain.RoleEmployee), map[string]any{"isOpen": false})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.False(t, status.IsOpen)
}

func TestAddressAndPaymentRoutes(t *testing.T) {
	api := newTestAPI(t)
	token := api.token("customer-1", domain.RoleClient)

	rec, env := api.do(http.MethodPost, "/addresses", token, map[string]string{
		"zipCode": "20000-000", "street": "Rua do Lavradio", "number": "10",
		"neighborhood": "Lapa", "city": "Rio de Janeiro", "state": "rj",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var address addressDTO
	require.NoError(t, json.Unmarshal(env.Data, &address))
	assert.Equal(t, "RJ", address.State)

	rec, _ = api.do(http.MethodGet, "/addresses/"+address.ID, api.token("customer-2", domain.RoleClient), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = api.do(http.MethodPost, "/payments/pix", token, map[string]any{"amount": 44.9, "payer": map[string]string{"email": "a@b.c"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var charge chargeDTO
	require.NoError(t, json.Unmarshal(env.Data, &charge))
	assert.Equal(t, payment.StatusPending, charge.Status)
	assert.NotEmpty(t, charge.QRCode)

	rec, _ = api.do(http.MethodGet, "/payments/"+charge.ID, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = api.do(http.MethodPost, "/payments/card", token, map[string]any{"amount": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	api := newTestAPI(t)

	rec, env := api.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.OK)
}
