package routes

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/example/foodlist/internal/auth"
	"github.com/example/foodlist/internal/config"
	"github.com/example/foodlist/internal/handlers"
	"github.com/example/foodlist/internal/middleware"
	"github.com/example/foodlist/internal/services"
	"github.com/example/foodlist/internal/store"
)

// Deps are the services the HTTP layer is built from.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Cache    *redis.Client
	Users    store.UserStore
	Sessions *auth.Service
	Gate     *auth.Gate
	Media    *services.MediaStorage
	QR       *services.QRService
	Notifier handlers.OrderNotifier
	Logger   *slog.Logger
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, d Deps) {
	authHandler := handlers.NewAuthHandler(d.Sessions, d.Logger)
	catalogHandler := handlers.NewCatalogHandler(d.DB, d.Media, d.QR, d.Logger)
	organizationHandler := handlers.NewOrganizationHandler(d.DB, d.Media, d.Logger)
	productHandler := handlers.NewProductHandler(d.DB, d.Media, d.Logger)
	tableHandler := handlers.NewTableHandler(d.DB, d.QR, d.Logger)
	orderHandler := handlers.NewOrderHandler(d.DB, d.Notifier, d.Logger)
	profileHandler := handlers.NewProfileHandler(d.Users)

	app.Static(services.MediaURLPrefix, d.Media.Root())
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "status": "ok"})
	})

	api := app.Group("/api/v1")
	authenticated := middleware.AuthMiddleware(d.Gate)
	manager := []fiber.Handler{authenticated, middleware.RequireManager()}

	// Auth routes
	api.Post("/phone-check", middleware.PhoneCheckRateLimit(d.Cache, d.Config.PhoneCheckPerMinute, d.Logger), authHandler.PhoneCheck)
	api.Post("/check-token", authHandler.CheckToken)
	api.Post("/auth/manager-login", authHandler.ManagerLogin)

	// Catalog routes
	api.Get("/currencies", catalogHandler.ListCurrencies)

	wifi := api.Group("/wifi")
	wifi.Get("/", catalogHandler.ListWiFi)
	wifi.Post("/", append(manager, catalogHandler.CreateWiFi)...)
	wifi.Patch("/:id", append(manager, catalogHandler.UpdateWiFi)...)
	wifi.Delete("/:id", append(manager, catalogHandler.DeleteWiFi)...)

	organizations := api.Group("/organizations")
	organizations.Get("/:id", organizationHandler.GetOrganization)
	organizations.Post("/", append(manager, organizationHandler.CreateOrganization)...)
	organizations.Patch("/:id", append(manager, organizationHandler.UpdateOrganization)...)

	categories := api.Group("/categories")
	categories.Get("/", catalogHandler.ListCategories)
	categories.Get("/:id", catalogHandler.GetCategory)
	categories.Post("/", append(manager, catalogHandler.CreateCategory)...)
	categories.Put("/:id", append(manager, catalogHandler.UpdateCategory)...)
	categories.Delete("/:id", append(manager, catalogHandler.DeleteCategory)...)

	// Products
	products := api.Group("/products")
	productHandler.RegisterProductRoutes(products, manager...)

	tables := api.Group("/tables")
	tables.Get("/", tableHandler.ListTables)
	tables.Post("/", append(manager, tableHandler.CreateTables)...)
	tables.Delete("/:id", append(manager, tableHandler.DeleteTable)...)

	// Protected routes
	protected := api.Group("", authenticated)

	protected.Post("/orders", orderHandler.CreateOrder)
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)
	protected.Patch("/orders/:id/status", middleware.RequireManager(), orderHandler.UpdateOrderStatus)

	protected.Get("/profile", profileHandler.GetProfile)
	protected.Put("/profile", profileHandler.UpdateProfile)
}
