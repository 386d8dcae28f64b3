// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"foodbridge/config"
	"foodbridge/internal/delivery/api/middleware"
	"foodbridge/internal/delivery/api/router/handler"
	"foodbridge/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler         *handler.AuthHandler
	ActionHandler       *handler.ActionHandler
	AdminHandler        *handler.AdminHandler
	DonationHandler     *handler.DonationHandler
	CollectionHandler   *handler.CollectionHandler
	ImageHandler        *handler.ImageHandler
	NotificationHandler *handler.NotificationHandler
	DeviceHandler       *handler.DeviceHandler
	LocationHandler     *handler.LocationHandler
	DashboardHandler    *handler.DashboardHandler
	DebugHandler        *handler.DebugHandler
	AuthMiddleware      *middleware.AuthMiddleware
	Config              *config.Config
}

// router holds all the handlers that need to be registered.
type router struct {
	RouterParams
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{RouterParams: params}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	auth := r.AuthMiddleware

	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Form actions answer with a form state instead of the API envelope
	actions := e.Group("/actions")
	{
		actions.POST("/login", r.ActionHandler.Login)
		actions.POST("/signup", r.ActionHandler.Signup)
		actions.POST("/logout", r.ActionHandler.Logout)
		actions.POST("/donations", r.ActionHandler.SubmitDonation, auth.Optional)
		actions.POST("/collections", r.ActionHandler.SubmitCollection, auth.Optional)
	}

	apiV1 := e.Group("/api/v1")

	authGroup := apiV1.Group("/auth")
	{
		authGroup.POST("/signup", r.AuthHandler.Signup)
		authGroup.POST("/login", r.AuthHandler.Login)
		authGroup.POST("/logout", r.AuthHandler.Logout)
		authGroup.GET("/me", r.AuthHandler.Me, auth.Authenticate)
	}

	// Image bytes are public so <img> tags work without credentials
	apiV1.GET("/images/:id/content", r.ImageHandler.Content)
	apiV1.GET("/images/:id/thumbnail", r.ImageHandler.Thumbnail)

	private := apiV1.Group("")
	private.Use(auth.Authenticate)

	private.GET("/dashboard", r.DashboardHandler.Dashboard)

	donations := private.Group("/donations")
	{
		donations.GET("", r.DonationHandler.ListDonations)
		donations.POST("", r.DonationHandler.CreateDonation, auth.RequireRole(entity.RoleDonor, entity.RoleAdmin))
		donations.GET("/available", r.DonationHandler.ListAvailable)
		donations.GET("/nearby", r.DonationHandler.Nearby)
		donations.GET("/:id", r.DonationHandler.GetDonation)
		donations.GET("/:id/images", r.DonationHandler.Images)
		donations.GET("/:id/directions", r.DonationHandler.Directions)
		donations.POST("/:id/claim", r.DonationHandler.Claim)
		donations.POST("/:id/approve", r.DonationHandler.Approve)
		donations.POST("/:id/accept", r.DonationHandler.Accept)
		donations.POST("/:id/pickup", r.DonationHandler.PickUp)
		donations.POST("/:id/deliver", r.DonationHandler.Deliver)
		donations.POST("/:id/expire", r.DonationHandler.Expire)
	}

	collections := private.Group("/collections")
	{
		collections.GET("", r.CollectionHandler.ListCollections)
		collections.GET("/available", r.CollectionHandler.ListAvailable)
		collections.GET("/:id", r.CollectionHandler.GetCollection)
		collections.GET("/:id/qr", r.CollectionHandler.PickupQR)
		collections.POST("/:id/assign", r.CollectionHandler.Assign)
		collections.POST("/:id/transit", r.CollectionHandler.StartTransit)
		collections.POST("/:id/complete", r.CollectionHandler.Complete)
		collections.POST("/:id/cancel", r.CollectionHandler.Cancel)
		collections.POST("/:id/verify", r.CollectionHandler.Verify)
	}

	images := private.Group("/images")
	{
		images.POST("", r.ImageHandler.Upload)
		images.GET("", r.ImageHandler.ListImages)
		images.GET("/:id", r.ImageHandler.GetImage)
		images.PATCH("/:id", r.ImageHandler.UpdateMetadata)
		images.POST("/:id/assess", r.ImageHandler.Assess)
		images.DELETE("/:id", r.ImageHandler.DeleteImage)
	}

	notifications := private.Group("/notifications")
	{
		notifications.GET("", r.NotificationHandler.ListNotifications)
		notifications.GET("/unread-count", r.NotificationHandler.UnreadCount)
		notifications.POST("/read-all", r.NotificationHandler.MarkAllAsRead)
		notifications.POST("/:id/read", r.NotificationHandler.MarkAsRead)
		notifications.DELETE("/:id", r.NotificationHandler.DeleteNotification)
	}

	// Device management routes
	devices := private.Group("/devices")
	{
		devices.POST("", r.DeviceHandler.RegisterDevice)
		devices.GET("", r.DeviceHandler.GetUserDevices)
		devices.PUT("/:id/token", r.DeviceHandler.UpdateFCMToken)
		devices.DELETE("/:id", r.DeviceHandler.DeactivateDevice)
	}

	locations := private.Group("/locations")
	{
		locations.GET("/geocode", r.LocationHandler.Geocode)
		locations.GET("/reverse", r.LocationHandler.ReverseGeocode)
	}

	admin := private.Group("/admin")
	admin.Use(auth.RequireRole(entity.RoleAdmin))
	{
		admin.GET("/users", r.AdminHandler.ListUsers)
		admin.GET("/users/pending", r.AdminHandler.ListPendingVerification)
		admin.PUT("/users/:id/status", r.AdminHandler.SetUserStatus)
		admin.DELETE("/users/:id", r.AdminHandler.RemoveUser)
		admin.GET("/stats", r.AdminHandler.Stats)
		admin.GET("/collections", r.AdminHandler.Collections)
	}
}

// RegisterDebugRoutes mounts the debug probes; they exist only in debug mode.
func (r *router) RegisterDebugRoutes(e *echo.Echo) {
	if !r.Config.Env.Debug {
		return
	}

	debug := e.Group("/debug", r.AuthMiddleware.Authenticate)
	debug.GET("/whoami", r.DebugHandler.WhoAmI)
	debug.GET("/store", r.DebugHandler.StoreKey, r.AuthMiddleware.RequireRole(entity.RoleAdmin))
}
