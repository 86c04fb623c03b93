package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/towndelivery/internal/config"
	"github.com/example/towndelivery/internal/handlers"
	"github.com/example/towndelivery/internal/middleware"
	"github.com/example/towndelivery/internal/models"
	"github.com/example/towndelivery/internal/services"
	"github.com/example/towndelivery/internal/store"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	telegramService := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)
	notifier := services.NewNotifier(db, telegramService)

	orderStore := store.NewOrderStore(db)
	settingsStore := store.NewSettingsStore(db)

	authHandler := handlers.NewAuthHandler(db, cfg)
	merchantHandler := handlers.NewMerchantHandler(db)
	orderHandler := handlers.NewOrderHandler(db, orderStore, settingsStore, notifier)
	adminHandler := handlers.NewAdminHandler(db, settingsStore)
	profileHandler := handlers.NewProfileHandler(db)
	notificationHandler := handlers.NewNotificationHandler(db)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// Public catalog
	merchants := api.Group("/merchants")
	merchants.Get("/", merchantHandler.ListMerchants)
	merchants.Get("/:id", merchantHandler.GetMerchant)
	merchants.Get("/:id/products", merchantHandler.ListProducts)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	// Courier operations. The role guard goes on each route: a group with an
	// empty prefix would attach it to everything under /api registered after
	// it. /orders/available must be registered before /orders/:id.
	courierOnly := middleware.RequireRole(models.RoleCourier, models.RoleAdmin)
	protected.Get("/orders/available", courierOnly, orderHandler.ListAvailableOrders)
	protected.Post("/orders/:id/claim", courierOnly, orderHandler.ClaimOrder)
	protected.Post("/orders/:id/advance", courierOnly, orderHandler.AdvanceOrder)
	protected.Put("/orders/:id/prices", courierOnly, orderHandler.RepriceOrder)

	// Orders
	protected.Post("/orders", orderHandler.CreateOrder)
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)
	protected.Post("/orders/:id/cancel", orderHandler.CancelOrder)
	protected.Post("/orders/:id/review", orderHandler.ReviewOrder)
	protected.Post("/orders/:id/messages", orderHandler.PostMessage)

	// Profile
	protected.Get("/profile", profileHandler.GetProfile)
	protected.Put("/profile", profileHandler.UpdateProfile)
	protected.Get("/profile/addresses", profileHandler.ListAddresses)
	protected.Post("/profile/addresses", profileHandler.CreateAddress)
	protected.Put("/profile/addresses/:id", profileHandler.UpdateAddress)
	protected.Delete("/profile/addresses/:id", profileHandler.DeleteAddress)

	// Notifications
	protected.Get("/notifications", notificationHandler.ListNotifications)
	protected.Post("/notifications/read-all", notificationHandler.MarkAllRead)
	protected.Post("/notifications/:id/read", notificationHandler.MarkRead)

	// Admin
	admin := protected.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	admin.Get("/stats", adminHandler.DashboardStats)
	admin.Get("/settings", adminHandler.GetSettings)
	admin.Put("/settings", adminHandler.UpdateSettings)
	admin.Get("/users", adminHandler.ListUsers)
	admin.Put("/users/:id/active", adminHandler.SetUserActive)
	admin.Get("/promotions", adminHandler.ListPromotions)
	admin.Post("/promotions", adminHandler.CreatePromotion)
	admin.Put("/promotions/:id", adminHandler.UpdatePromotion)
	admin.Delete("/promotions/:id", adminHandler.DeletePromotion)
	admin.Get("/zones", adminHandler.ListZones)
	admin.Post("/zones", adminHandler.CreateZone)
	admin.Delete("/zones/:id", adminHandler.DeleteZone)

	admin.Post("/merchants", merchantHandler.CreateMerchant)
	admin.Put("/merchants/:id", merchantHandler.UpdateMerchant)
	admin.Delete("/merchants/:id", merchantHandler.DeleteMerchant)
	admin.Post("/merchants/:id/products", merchantHandler.CreateProduct)
	admin.Put("/products/:productId", merchantHandler.UpdateProduct)
	admin.Delete("/products/:productId", merchantHandler.DeleteProduct)
}
