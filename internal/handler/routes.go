package handler

import (
	"go-pos-ws/internal/middleware"
	"go-pos-ws/internal/service"
	"go-pos-ws/internal/ws"

	"github.com/gofiber/fiber/v2"
)

// Services is everything the HTTP layer calls into.
type Services struct {
	Auth      service.AuthService
	Users     service.UserService
	Products  service.ProductService
	Invoices  service.InvoiceService
	Dashboard service.DashboardService
	Hub       *ws.Hub
}

func RegisterRoutes(app *fiber.App, s Services) {
	authHandler := NewAuthHandler(s.Auth)
	userHandler := NewUserHandler(s.Users)
	productHandler := NewProductHandler(s.Products)
	invoiceHandler := NewInvoiceHandler(s.Invoices)
	dashHandler := NewDashboardHandler(s.Dashboard)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	// ============ PROTECTED ROUTES ============
	requireAuth := middleware.RequireAuth(s.Auth)
	auth.Get("/me", requireAuth, authHandler.Me)

	protected := api.Group("", requireAuth)

	// Dashboard Routes
	protected.Get("/dashboard/stats", dashHandler.GetDashboardStats)
	protected.Get("/dashboard/sales-movement", dashHandler.GetSalesMovement)

	// Product Routes
	protected.Get("/products", productHandler.GetProducts)
	protected.Get("/products/low-stock", productHandler.GetLowStock)
	protected.Post("/products", productHandler.CreateProduct)
	protected.Get("/products/:id", productHandler.GetProduct)
	protected.Put("/products/:id", productHandler.UpdateProduct)
	protected.Delete("/products/:id", productHandler.DeleteProduct)
	protected.Post("/products/:id/adjust", productHandler.AdjustStock)

	// Invoice Routes
	protected.Post("/invoices", invoiceHandler.CreateInvoice)
	protected.Get("/invoices", invoiceHandler.GetInvoices)
	protected.Get("/invoices/summary", invoiceHandler.GetSummary)
	protected.Get("/invoices/:id", invoiceHandler.GetInvoice)

	// User Management Routes
	protected.Get("/users", middleware.RequireAdmin(), userHandler.GetUsers)
	protected.Post("/users", middleware.RequireAdmin(), userHandler.CreateUser)
	protected.Get("/users/:id", userHandler.GetUser)
	protected.Put("/users/:id", userHandler.UpdateUser)

	// WebSocket Route
	if s.Hub != nil {
		app.Get("/ws", wsUpgrade(s.Auth), wsStream(s.Hub))
	}
}
