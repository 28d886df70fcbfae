package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/ecomstack/ecommerce-api/internal/config"
	"github.com/ecomstack/ecommerce-api/internal/handler"
	"github.com/ecomstack/ecommerce-api/internal/middleware"
	"github.com/ecomstack/ecommerce-api/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check,
// used by load balancers to verify that the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication routes. Unauthenticated
// operations (register, login, refresh) live under /v1/auth; logout and
// /v1/me require a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, accessSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the presented refresh token; the old one is dead
	// after this call.
	g.POST("/refresh", a.Refresh)

	auth := e.Group("/v1", middleware.JWTAuth(accessSecret))
	auth.POST("/auth/logout", a.Logout)
	auth.GET("/me", a.Me)
	auth.PUT("/me/password", a.ChangePassword)
	auth.DELETE("/me", a.DeactivateAccount)
}

// RegisterCatalog registers the public catalog reads (optionally behind
// the Redis response cache) and the privileged catalog writes.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, cfg config.CacheConfig, rdb *redis.Client, accessSecret string) {
	cache := middleware.NewRedisCache(cfg, rdb)
	e.GET("/v1/products", h.ListProducts, cache)
	e.GET("/v1/products/:id", h.GetProduct, cache)

	admin := e.Group("/v1/products",
		middleware.JWTAuth(accessSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleManager))
	admin.POST("", h.CreateProduct)
	admin.PUT("/:id", h.UpdateProduct)
	admin.DELETE("/:id", h.DeactivateProduct)
}

// RegisterOrders registers order creation, listing, payments and the
// privileged status transition endpoint.
func RegisterOrders(e *echo.Echo, h *handler.OrderHandler, accessSecret string) {
	auth := e.Group("/v1/orders", middleware.JWTAuth(accessSecret))
	auth.POST("", h.CreateOrder)
	auth.GET("", h.ListOrders)
	auth.GET("/:id", h.GetOrder)
	auth.POST("/:id/payments", h.CreatePayment)

	auth.PATCH("/:id/status", h.UpdateStatus,
		middleware.RequireRole(model.RoleAdmin, model.RoleManager))
}

// RegisterUpdates registers the polling endpoints. Everything here
// requires authentication; admin notification creation additionally
// requires the ADMIN role.
func RegisterUpdates(e *echo.Echo, h *handler.UpdatesHandler, accessSecret string) {
	auth := e.Group("/v1", middleware.JWTAuth(accessSecret))
	auth.GET("/updates", h.GetUpdates)
	auth.GET("/orders/:id/updates", h.GetOrderUpdates)
	auth.POST("/notifications/read", h.MarkRead)
	auth.GET("/notifications/unread-count", h.UnreadCount)

	auth.POST("/notifications", h.CreateNotification,
		middleware.RequireRole(model.RoleAdmin))
}

// RegisterAddresses registers the address book endpoints.
func RegisterAddresses(e *echo.Echo, h *handler.AddressHandler, accessSecret string) {
	auth := e.Group("/v1/addresses", middleware.JWTAuth(accessSecret))
	auth.POST("", h.Create)
	auth.GET("", h.List)
	auth.PUT("/:id", h.Update)
	auth.DELETE("/:id", h.Delete)
}
