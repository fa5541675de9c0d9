package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	authmw "github.com/Skotchmaster/ecom_api/pkg/middleware/auth"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	CatalogHandler *CatalogHTTP
	CartHandler    *CartHTTP
	OrderHandler   *OrderHTTP
	HealthHandler  *HealthHTTP

	JWTSecret []byte
	// LoginRateLimit is requests per second per client IP; 0 disables it.
	LoginRateLimit float64
	// Metrics, if set, is served on /metrics.
	Metrics http.Handler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", d.HealthHandler.Live)
	e.GET("/health/ready", d.HealthHandler.Ready)
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics))
	}

	auth := authmw.NewBearerAuth(d.JWTSecret)
	customer := auth.RequireRole(authmw.RoleCustomer)

	api := e.Group("/api")

	var loginMW []echo.MiddlewareFunc
	if d.LoginRateLimit > 0 {
		loginMW = append(loginMW, middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStore(rate.Limit(d.LoginRateLimit)),
			DenyHandler: func(c echo.Context, _ string, _ error) error {
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts")
			},
		}))
	}

	a := api.Group("/auth")
	a.POST("/signup", d.AuthHandler.Signup)
	a.POST("/login", d.AuthHandler.Login, loginMW...)
	a.POST("/refresh", d.AuthHandler.Refresh)
	a.POST("/logout", d.AuthHandler.LogOut, auth.RequireAuth)

	categories := api.Group("/categories", auth.RequireAdmin)
	categories.POST("", d.CatalogHandler.CreateCategory)
	categories.GET("", d.CatalogHandler.ListCategories)
	categories.PUT("/:id", d.CatalogHandler.UpdateCategory)
	categories.DELETE("/:id", d.CatalogHandler.DeleteCategory)

	products := api.Group("/products")
	products.GET("/list", d.CatalogHandler.ListProducts)
	products.GET("/:id", d.CatalogHandler.GetProduct)
	products.GET("", d.CatalogHandler.ListAllProducts, auth.RequireAdmin)
	products.POST("", d.CatalogHandler.CreateProduct, auth.RequireAdmin)
	products.PUT("/:id", d.CatalogHandler.UpdateProduct, auth.RequireAdmin)
	products.DELETE("/:id", d.CatalogHandler.DeleteProduct, auth.RequireAdmin)
	products.POST("/:id/image", d.CatalogHandler.SetProductImage, auth.RequireAdmin)

	api.POST("/upload-image", d.CatalogHandler.UploadImage, auth.RequireAdmin)

	cart := api.Group("/cart", customer)
	cart.POST("/add", d.CartHandler.AddToCart)
	cart.GET("", d.CartHandler.GetCart)
	cart.DELETE("/remove/:itemId", d.CartHandler.RemoveFromCart)

	orders := api.Group("/orders")
	orders.GET("/all", d.OrderHandler.ListAllOrders, auth.RequireAdmin)
	orders.POST("", d.OrderHandler.Checkout, customer)
	orders.GET("", d.OrderHandler.ListOrders, customer)
	orders.GET("/:id", d.OrderHandler.GetOrder, customer)
}
