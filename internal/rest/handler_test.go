package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront-be/internal/auth"
	"storefront-be/internal/cart"
	"storefront-be/internal/metrics"
	"storefront-be/internal/middleware"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/product"
	"storefront-be/internal/user"
	"storefront-be/internal/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

type fixture struct {
	users    *MockUserService
	products *MockProductService
	carts    *MockCartService
	orders   *MockOrderService
	payments *MockPaymentService
	stats    *metrics.Payments
	tokens   *user.TokenManager
	handler  http.Handler
}

func newFixture(t *testing.T, db Pinger) *fixture {
	t.Helper()
	tokens, err := user.NewTokenManager("test-secret")
	require.NoError(t, err)

	f := &fixture{
		users:    new(MockUserService),
		products: new(MockProductService),
		carts:    new(MockCartService),
		orders:   new(MockOrderService),
		payments: new(MockPaymentService),
		stats:    metrics.NewPayments(),
		tokens:   tokens,
	}
	f.users.On("GetByID", mock.Anything, uint(1)).Return(&user.User{ID: 1, Role: user.RoleAdmin}, nil).Maybe()
	f.users.On("GetByID", mock.Anything, uint(7)).Return(&user.User{ID: 7, Email: "c@example.com", Role: user.RoleCustomer}, nil).Maybe()

	f.handler = NewHandler(Deps{
		Users:       f.users,
		Products:    f.products,
		Carts:       f.carts,
		Orders:      f.orders,
		Payments:    f.payments,
		Auth:        middleware.NewAuth(tokens, f.users),
		Stats:       f.stats,
		DB:          db,
		FrontendURL: "https://shop.example.com",
	}).Routes()
	return f
}

func (f *fixture) token(t *testing.T, id uint, role user.Role) string {
	t.Helper()
	tok, err := f.tokens.Generate(&user.User{ID: id, Role: role})
	require.NoError(t, err)
	return tok
}

func (f *fixture) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Error.Message
}

func TestHealth(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		f := newFixture(t, fakePinger{})
		f.stats.Succeeded.Inc()

		w := f.do(http.MethodGet, "/healthz", "", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"succeeded":1`)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("Database down", func(t *testing.T) {
		f := newFixture(t, fakePinger{err: errors.New("refused")})

		w := f.do(http.MethodGet, "/healthz", "", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "unreachable")
	})
}

func TestStaleCookie(t *testing.T) {
	stale := &http.Cookie{Name: auth.CookieName, Value: "signed.with.old-secret"}
	orderID := uuid.New()

	serve := func(f *fixture, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(stale)
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)
		return w
	}

	t.Run("Payment redirect still redirects", func(t *testing.T) {
		f := newFixture(t, nil)
		f.payments.On("HandleRedirect", mock.Anything, "MT1", orderID, "").Return(order.PaymentSuccess, nil)

		w := serve(f, payment.RedirectPath+"?id=MT1&orderId="+orderID.String())
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "https://shop.example.com/order-success?orderId="+orderID.String(), w.Header().Get("Location"))
	})

	t.Run("Catalog stays public", func(t *testing.T) {
		f := newFixture(t, nil)
		f.products.On("List", mock.Anything, mock.Anything).Return(&product.ListResult{Page: 1, Limit: 20}, nil)

		w := serve(f, "/api/products")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Protected route is 401", func(t *testing.T) {
		f := newFixture(t, nil)

		w := serve(f, "/api/me")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		f.users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}

func TestAuthRoutes(t *testing.T) {
	t.Run("Register sets cookie", func(t *testing.T) {
		f := newFixture(t, nil)
		in := user.RegisterInput{Email: "a@example.com", Name: "A", Password: "secret123"}
		f.users.On("Register", mock.Anything, in).
			Return(&user.AuthResult{Token: "tok", User: &user.User{ID: 3, Email: in.Email}}, nil)

		w := f.do(http.MethodPost, "/api/auth/register", `{"email":"a@example.com","name":"A","password":"secret123"}`, "")

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"token":"tok"`)
		require.Len(t, w.Result().Cookies(), 1)
		assert.Equal(t, auth.CookieName, w.Result().Cookies()[0].Name)
		assert.True(t, w.Result().Cookies()[0].HttpOnly)
	})

	t.Run("Duplicate email", func(t *testing.T) {
		f := newFixture(t, nil)
		f.users.On("Register", mock.Anything, mock.Anything).Return(nil, user.ErrEmailExists)

		w := f.do(http.MethodPost, "/api/auth/register", `{"email":"a@example.com","name":"A","password":"secret123"}`, "")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "email already registered", decodeError(t, w))
	})

	t.Run("Validation errors carry fields", func(t *testing.T) {
		f := newFixture(t, nil)
		f.users.On("Register", mock.Anything, mock.Anything).
			Return(nil, &validation.Error{Fields: map[string]string{"email": "must be a valid email"}})

		w := f.do(http.MethodPost, "/api/auth/register", `{"email":"x"}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"email":"must be a valid email"`)
	})

	t.Run("Bad credentials", func(t *testing.T) {
		f := newFixture(t, nil)
		f.users.On("Login", mock.Anything, mock.Anything).Return(nil, user.ErrInvalidCredentials)

		w := f.do(http.MethodPost, "/api/auth/login", `{"email":"a@example.com","password":"nope"}`, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Unknown body field", func(t *testing.T) {
		f := newFixture(t, nil)

		w := f.do(http.MethodPost, "/api/auth/login", `{"email":"a@example.com","role":"ADMIN"}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		f.users.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	})

	t.Run("Me", func(t *testing.T) {
		f := newFixture(t, nil)

		w := f.do(http.MethodGet, "/api/me", "", f.token(t, 7, user.RoleCustomer))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "c@example.com")
		assert.NotContains(t, w.Body.String(), "password")
	})
}

func TestProductRoutes(t *testing.T) {
	t.Run("List parses filters", func(t *testing.T) {
		f := newFixture(t, nil)
		f.products.On("List", mock.Anything, mock.MatchedBy(func(lf product.ListFilter) bool {
			return *lf.Category == "mugs" && *lf.Featured && lf.MinPrice.Equal(decimal.NewFromInt(10)) &&
				lf.MaxPrice == nil && lf.Sort == product.SortPriceAsc && lf.Page == 2
		})).Return(&product.ListResult{Page: 2, Limit: 12}, nil)

		w := f.do(http.MethodGet, "/api/products?category=mugs&featured=true&minPrice=10&maxPrice=abc&sort=price_asc&page=2", "", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"success":true`)
	})

	t.Run("Invalid id", func(t *testing.T) {
		f := newFixture(t, nil)

		w := f.do(http.MethodGet, "/api/products/not-a-uuid", "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Not found", func(t *testing.T) {
		f := newFixture(t, nil)
		id := uuid.New()
		f.products.On("Get", mock.Anything, id).Return(nil, product.ErrProductNotFound)

		w := f.do(http.MethodGet, "/api/products/"+id.String(), "", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "product not found", decodeError(t, w))
	})

	t.Run("Admin create", func(t *testing.T) {
		f := newFixture(t, nil)
		f.products.On("Create", mock.Anything, mock.Anything).Return(&product.Product{ID: uuid.New(), Name: "Mug"}, nil)

		body := `{"name":"Mug","price":"199.50","stock":3,"category":"mugs"}`
		w := f.do(http.MethodPost, "/api/admin/products", body, f.token(t, 1, user.RoleAdmin))
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("Customer cannot create", func(t *testing.T) {
		f := newFixture(t, nil)

		w := f.do(http.MethodPost, "/api/admin/products", `{}`, f.token(t, 7, user.RoleAdmin))
		assert.Equal(t, http.StatusForbidden, w.Code)
		f.products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestCartRoutes(t *testing.T) {
	t.Run("Requires login", func(t *testing.T) {
		f := newFixture(t, nil)

		w := f.do(http.MethodGet, "/api/cart", "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Update quantity", func(t *testing.T) {
		f := newFixture(t, nil)
		pid := uuid.New()
		f.carts.On("UpdateQuantity", mock.Anything, uint(7), pid, 3).Return(&cart.Cart{ItemCount: 3}, nil)

		w := f.do(http.MethodPatch, "/api/cart/"+pid.String(), `{"quantity":3}`, f.token(t, 7, user.RoleCustomer))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"itemCount":3`)
	})

	t.Run("Insufficient stock", func(t *testing.T) {
		f := newFixture(t, nil)
		f.carts.On("Add", mock.Anything, uint(7), mock.Anything).Return(nil, cart.ErrInsufficientStock)

		body := `{"productId":"` + uuid.NewString() + `","quantity":50}`
		w := f.do(http.MethodPost, "/api/cart", body, f.token(t, 7, user.RoleCustomer))
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestOrderRoutes(t *testing.T) {
	addressID := uuid.New()

	t.Run("Checkout from cart", func(t *testing.T) {
		f := newFixture(t, nil)
		f.orders.On("Checkout", mock.Anything, uint(7), addressID, order.PaymentCOD).
			Return(&order.Order{ID: uuid.New(), TotalPrice: decimal.NewFromInt(250)}, nil)

		body := `{"addressId":"` + addressID.String() + `","paymentMethod":"COD"}`
		w := f.do(http.MethodPost, "/api/orders", body, f.token(t, 7, user.RoleCustomer))
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"totalPrice":"250"`)
		f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Explicit items", func(t *testing.T) {
		f := newFixture(t, nil)
		pid := uuid.New()
		f.orders.On("Create", mock.Anything, uint(7), order.CreateInput{
			AddressID:     addressID,
			PaymentMethod: order.PaymentCOD,
			Items:         []order.LineInput{{ProductID: pid, Quantity: 2}},
		}).Return(&order.Order{ID: uuid.New()}, nil)

		body := `{"addressId":"` + addressID.String() + `","paymentMethod":"COD","items":[{"productId":"` + pid.String() + `","quantity":2}]}`
		w := f.do(http.MethodPost, "/api/orders", body, f.token(t, 7, user.RoleCustomer))
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("Unknown payment method", func(t *testing.T) {
		f := newFixture(t, nil)

		body := `{"addressId":"` + addressID.String() + `","paymentMethod":"CARD"}`
		w := f.do(http.MethodPost, "/api/orders", body, f.token(t, 7, user.RoleCustomer))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "paymentMethod")
	})

	t.Run("Out of stock", func(t *testing.T) {
		f := newFixture(t, nil)
		f.orders.On("Checkout", mock.Anything, uint(7), addressID, order.PaymentCOD).Return(nil, order.ErrInsufficientStock)

		body := `{"addressId":"` + addressID.String() + `","paymentMethod":"COD"}`
		w := f.do(http.MethodPost, "/api/orders", body, f.token(t, 7, user.RoleCustomer))
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Cancel after shipping", func(t *testing.T) {
		f := newFixture(t, nil)
		id := uuid.New()
		f.orders.On("Cancel", mock.Anything, uint(7), id).Return(nil, order.ErrCannotCancel)

		w := f.do(http.MethodPost, "/api/orders/"+id.String()+"/cancel", "", f.token(t, 7, user.RoleCustomer))
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Admin status update", func(t *testing.T) {
		f := newFixture(t, nil)
		id := uuid.New()
		f.orders.On("UpdateStatus", mock.Anything, uint(1), id, order.StatusShipped).
			Return(&order.Order{ID: id, Status: order.StatusShipped}, nil)

		w := f.do(http.MethodPatch, "/api/admin/orders/"+id.String()+"/status", `{"status":"SHIPPED"}`, f.token(t, 1, user.RoleAdmin))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Admin list filters", func(t *testing.T) {
		f := newFixture(t, nil)
		f.orders.On("ListAll", mock.Anything, uint(1), mock.MatchedBy(func(lf order.ListFilter) bool {
			return *lf.Status == order.StatusProcessing && *lf.PaymentStatus == order.PaymentPending && lf.Limit == 5
		})).Return(&order.ListResult{}, nil)

		w := f.do(http.MethodGet, "/api/admin/orders?status=PROCESSING&paymentStatus=PENDING&limit=5", "", f.token(t, 1, user.RoleAdmin))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Unexpected error is hidden", func(t *testing.T) {
		f := newFixture(t, nil)
		f.orders.On("ListForUser", mock.Anything, uint(7), 0, 0).Return(nil, errors.New("pq: connection reset"))

		w := f.do(http.MethodGet, "/api/orders", "", f.token(t, 7, user.RoleCustomer))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal server error", decodeError(t, w))
	})
}

func TestPaymentRoutes(t *testing.T) {
	orderID := uuid.New()

	t.Run("Initiate gateway failure", func(t *testing.T) {
		f := newFixture(t, nil)
		f.payments.On("Initiate", mock.Anything, uint(7), mock.Anything).Return(nil, payment.ErrGateway)

		body := `{"addressId":"` + uuid.NewString() + `"}`
		w := f.do(http.MethodPost, "/api/payment/phonepe/initiate", body, f.token(t, 7, user.RoleCustomer))
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("Initiate success", func(t *testing.T) {
		f := newFixture(t, nil)
		f.payments.On("Initiate", mock.Anything, uint(7), mock.Anything).
			Return(&payment.InitiateResult{OrderID: orderID, RedirectURL: "https://pay.example.com/x"}, nil)

		body := `{"addressId":"` + uuid.NewString() + `"}`
		w := f.do(http.MethodPost, "/api/payment/phonepe/initiate", body, f.token(t, 7, user.RoleCustomer))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "https://pay.example.com/x")
	})

	redirects := []struct {
		name   string
		status order.PaymentStatus
		err    error
		page   string
	}{
		{"Success", order.PaymentSuccess, nil, "/order-success"},
		{"Failed", order.PaymentFailed, nil, "/order-failure"},
		{"Pending", order.PaymentPending, nil, "/order-pending"},
		{"Error", "", payment.ErrTransactionNotFound, "/order-failure"},
	}
	for _, tt := range redirects {
		t.Run("Redirect "+tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.payments.On("HandleRedirect", mock.Anything, "MT1", orderID, "").Return(tt.status, tt.err)

			w := f.do(http.MethodGet, payment.RedirectPath+"?id=MT1&orderId="+orderID.String(), "", "")
			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, "https://shop.example.com"+tt.page+"?orderId="+orderID.String(), w.Header().Get("Location"))
		})
	}

	t.Run("Redirect with bad order id", func(t *testing.T) {
		f := newFixture(t, nil)

		w := f.do(http.MethodGet, payment.RedirectPath+"?id=MT1&orderId=nope", "", "")
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "https://shop.example.com/order-failure?orderId=nope", w.Header().Get("Location"))
		f.payments.AssertNotCalled(t, "HandleRedirect", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Webhook ok", func(t *testing.T) {
		f := newFixture(t, nil)
		f.payments.On("HandleWebhook", mock.Anything, []byte(`{"response":"abc"}`), "sig###1").Return(nil)

		req := httptest.NewRequest(http.MethodPost, payment.WebhookPath, strings.NewReader(`{"response":"abc"}`))
		req.Header.Set("X-VERIFY", "sig###1")
		w := httptest.NewRecorder()
		f.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})

	t.Run("Webhook bad checksum", func(t *testing.T) {
		f := newFixture(t, nil)
		f.payments.On("HandleWebhook", mock.Anything, mock.Anything, "").Return(payment.ErrInvalidSignature)

		w := f.do(http.MethodPost, payment.WebhookPath, `{"response":"abc"}`, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"status":"error","message":"invalid callback checksum"}`, w.Body.String())
	})

	t.Run("Webhook storage failure", func(t *testing.T) {
		f := newFixture(t, nil)
		f.payments.On("HandleWebhook", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("db down"))

		w := f.do(http.MethodPost, payment.WebhookPath, `{"response":"abc"}`, "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"error"`)
	})
}
