package rest

import (
	"context"
	"net/http"
	"strconv"

	"storefront-be/internal/address"
	"storefront-be/internal/cart"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/middleware"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/product"
	"storefront-be/internal/user"
	"storefront-be/internal/utils"
	"storefront-be/internal/wishlist"

	"github.com/google/uuid"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Users     user.Service
	Products  product.Service
	Addresses address.Service
	Carts     cart.Service
	Wishlist  wishlist.Service
	Orders    order.Service
	Payments  payment.Service

	Auth    *middleware.Auth
	Limiter *middleware.RateLimiter
	Stats   *metrics.Payments
	DB      Pinger

	FrontendURL  string
	SecureCookie bool
}

type Handler struct {
	Deps
}

func NewHandler(d Deps) *Handler {
	if d.Stats == nil {
		d.Stats = metrics.NewPayments()
	}
	return &Handler{Deps: d}
}

// Routes builds the full HTTP handler with the middleware chain applied.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	authed := middleware.RequireAuth
	admin := func(next http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(h.Auth.RequireAdmin(next))
	}

	mux.HandleFunc("GET /healthz", h.health)

	mux.HandleFunc("POST /api/auth/register", h.register)
	mux.HandleFunc("POST /api/auth/login", h.login)
	mux.Handle("GET /api/me", authed(http.HandlerFunc(h.me)))

	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.HandleFunc("GET /api/categories", h.categories)
	mux.Handle("POST /api/admin/products", admin(h.createProduct))
	mux.Handle("PUT /api/admin/products/{id}", admin(h.updateProduct))
	mux.Handle("DELETE /api/admin/products/{id}", admin(h.deleteProduct))

	mux.Handle("GET /api/addresses", authed(http.HandlerFunc(h.listAddresses)))
	mux.Handle("POST /api/addresses", authed(http.HandlerFunc(h.createAddress)))
	mux.Handle("PUT /api/addresses/{id}", authed(http.HandlerFunc(h.updateAddress)))
	mux.Handle("DELETE /api/addresses/{id}", authed(http.HandlerFunc(h.deleteAddress)))
	mux.Handle("POST /api/addresses/{id}/default", authed(http.HandlerFunc(h.setDefaultAddress)))

	mux.Handle("GET /api/cart", authed(http.HandlerFunc(h.getCart)))
	mux.Handle("POST /api/cart", authed(http.HandlerFunc(h.addToCart)))
	mux.Handle("DELETE /api/cart", authed(http.HandlerFunc(h.clearCart)))
	mux.Handle("PATCH /api/cart/{productId}", authed(http.HandlerFunc(h.updateCartItem)))
	mux.Handle("DELETE /api/cart/{productId}", authed(http.HandlerFunc(h.removeCartItem)))

	mux.Handle("GET /api/wishlist", authed(http.HandlerFunc(h.getWishlist)))
	mux.Handle("POST /api/wishlist", authed(http.HandlerFunc(h.addToWishlist)))
	mux.Handle("DELETE /api/wishlist/{productId}", authed(http.HandlerFunc(h.removeFromWishlist)))
	mux.Handle("POST /api/wishlist/{productId}/move-to-cart", authed(http.HandlerFunc(h.moveToCart)))

	mux.Handle("POST /api/orders", authed(http.HandlerFunc(h.createOrder)))
	mux.Handle("GET /api/orders", authed(http.HandlerFunc(h.listOrders)))
	mux.Handle("GET /api/orders/{id}", authed(http.HandlerFunc(h.getOrder)))
	mux.Handle("POST /api/orders/{id}/cancel", authed(http.HandlerFunc(h.cancelOrder)))
	mux.Handle("GET /api/admin/orders", admin(h.listAllOrders))
	mux.Handle("PATCH /api/admin/orders/{id}/status", admin(h.updateOrderStatus))
	mux.Handle("PATCH /api/admin/orders/{id}/shipping", admin(h.updateOrderShipping))
	mux.Handle("DELETE /api/admin/orders/{id}", admin(h.deleteOrder))

	mux.Handle("POST /api/payment/phonepe/initiate", authed(http.HandlerFunc(h.initiatePayment)))
	mux.Handle("GET /api/payment/phonepe/orders/{orderId}", authed(http.HandlerFunc(h.paymentForOrder)))
	mux.HandleFunc("GET "+payment.RedirectPath, h.paymentRedirect)
	mux.HandleFunc("POST "+payment.WebhookPath, h.paymentWebhook)

	var handler http.Handler = mux
	if h.Limiter != nil {
		handler = h.Limiter.Middleware(handler)
	}
	handler = h.Auth.Authenticate(handler)
	handler = middleware.CORS(h.FrontendURL)(handler)
	handler = logger.LoggingMiddleware(handler)
	handler = logger.RequestIDMiddleware(handler)
	return handler
}

func currentUser(r *http.Request) uint {
	id, _ := utils.GetUserIDFromContext(r.Context())
	return id
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, errInvalidID
	}
	return id, nil
}

func queryInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}

func queryString(r *http.Request, name string) *string {
	if v := r.URL.Query().Get(name); v != "" {
		return &v
	}
	return nil
}
