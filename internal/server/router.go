package server

import (
	"shop-service/internal/handler"
	"shop-service/internal/middleware"

	"github.com/labstack/echo/v4"
)

// RegisterRoutes wires every endpoint
func RegisterRoutes(e *echo.Echo) {
	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/test-db", handler.TestDB)
	e.GET("/metrics", handler.MetricsHandler)

	api := e.Group("/api")
	auth := middleware.AuthMiddleware
	admin := []echo.MiddlewareFunc{middleware.AuthMiddleware, middleware.RequireAdmin}

	// Catalog reads
	api.GET("/products", handler.ListProducts)
	api.GET("/products/search", handler.SearchProducts)
	api.GET("/products/related/:category_id", handler.GetRelatedProducts)
	api.GET("/products/categories/:category_id", handler.GetProductsByCategory)
	api.GET("/products/categories/:category_id/subcategories/:subcategory_id", handler.GetProductsByCategoryAndSubcategory)
	api.GET("/products/:id", handler.GetProduct)
	api.GET("/categories", handler.ListCategories)
	api.GET("/subcategories", handler.ListSubcategories)

	// Catalog management
	api.POST("/products", handler.CreateProduct, admin...)
	api.PUT("/products/:id", handler.UpdateProduct, admin...)
	api.DELETE("/products/:id", handler.DeleteProduct, admin...)
	api.POST("/products/:id/stock", handler.AddStock, admin...)
	api.GET("/products/:id/stock", handler.ListStock, admin...)
	api.POST("/categories", handler.CreateCategory, admin...)
	api.DELETE("/categories/:id", handler.DeleteCategory, admin...)
	api.POST("/subcategories", handler.CreateSubcategory, admin...)
	api.DELETE("/subcategories/:id", handler.DeleteSubcategory, admin...)

	// Accounts
	api.POST("/register", handler.Register)
	api.POST("/login", handler.Login)
	api.GET("/get_users", handler.GetUsers, admin...)
	api.PUT("/profile", handler.UpdateProfile, auth)
	api.PUT("/update-password", handler.ChangePassword, auth)

	// Password recovery
	api.POST("/save_otp", handler.SaveOTP)
	api.POST("/verify-otp", handler.VerifyOTP)

	// Orders
	api.POST("/order", handler.CreateOrder, auth)
	api.GET("/orders", handler.ListOrders, auth)
}
