// Package httpapi — REST API ресторана поверх gin.
package httpapi

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

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
)

// Services — прикладные сервисы, которые обслуживает API.
type Services struct {
	Accounts  *account.Service
	Catalog   *catalog.Service
	Addresses *addressbook.Service
	Store     *storestatus.Service
	Orders    *ordering.Service
	Dashboard *dashboard.Service
	Payments  *payment.Service
	// Idempotency необязателен; без него Idempotency-Key игнорируется.
	Idempotency *idempotency.Guard
}

// Options — сквозные настройки роутера.
type Options struct {
	Tokens      TokenParser
	Logger      *log.Entry
	Metrics     *metrics.HTTPMetrics
	CORSOrigins []string
}

type handler struct {
	Services
}

// NewRouter собирает gin.Engine со всеми маршрутами.
func NewRouter(services Services, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "http")
	}

	r := gin.New()
	r.Use(gin.Recovery(), corsMiddleware(opts.CORSOrigins), accessLog(logger))
	if opts.Metrics != nil {
		r.Use(observe(opts.Metrics))
	}
	r.NoRoute(func(c *gin.Context) { respondError(c, domain.ErrNotFound) })

	h := &handler{Services: services}
	auth := authenticate(opts.Tokens)
	admin := requireRoles(domain.RoleAdmin)

	a := r.Group("/auth")
	{
		a.POST("/register", h.register)
		a.POST("/login", h.login)
		a.GET("/me", auth, h.me)
	}

	users := r.Group("/users", auth)
	{
		users.GET("", admin, h.listUsers)
		users.POST("", admin, h.createUser)
		users.DELETE("/:id", h.deleteUser)
	}

	products := r.Group("/products")
	{
		products.GET("", h.listProducts)
		products.GET("/trash", auth, admin, h.listProductTrash)
		products.GET("/:id", h.getProduct)
		products.POST("", auth, admin, h.createProduct)
		products.PUT("/:id", auth, admin, h.updateProduct)
		products.DELETE("/:id", auth, admin, h.trashProduct)
		products.PATCH("/:id/restore", auth, admin, h.restoreProduct)
		products.DELETE("/:id/permanent", auth, admin, h.deleteProduct)
	}

	addons := r.Group("/addons")
	{
		addons.GET("", h.listAddons)
		addons.GET("/trash", auth, admin, h.listAddonTrash)
		addons.GET("/:id", h.getAddon)
		addons.POST("", auth, admin, h.createAddon)
		addons.PUT("/:id", auth, admin, h.updateAddon)
		addons.DELETE("/:id", auth, admin, h.trashAddon)
		addons.PATCH("/:id/restore", auth, admin, h.restoreAddon)
		addons.DELETE("/:id/permanent", auth, admin, h.deleteAddon)
	}

	addresses := r.Group("/addresses", auth)
	{
		addresses.GET("", h.listAddresses)
		addresses.POST("", h.createAddress)
		addresses.GET("/:id", h.getAddress)
		addresses.PUT("/:id", h.updateAddress)
		addresses.DELETE("/:id", h.deleteAddress)
	}

	store := r.Group("/store")
	{
		store.GET("/status", h.getStoreStatus)
		store.PATCH("/status", auth, requireStaff(), h.updateStoreStatus)
	}

	orders := r.Group("/orders", auth)
	{
		orders.POST("", idempotent(services.Idempotency), h.createOrder)
		orders.GET("", h.listOrders)
		orders.GET("/summary", requireStaff(), h.orderSummary)
		orders.GET("/chart", requireStaff(), h.orderChart)
		orders.GET("/:id", h.getOrder)
		orders.GET("/:id/timeline", h.orderTimeline)
		orders.PATCH("/:id", requireStaff(), h.updateOrder)
		orders.PATCH("/:id/cancel", h.cancelOrder)
	}

	payments := r.Group("/payments", auth)
	{
		payments.POST("/card", h.chargeCard)
		payments.POST("/pix", h.chargePix)
		payments.GET("/:id", h.paymentStatus)
	}

	return r
}
