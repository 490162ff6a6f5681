package admin

import (
	"time"

	"github.com/gin-gonic/gin"
	handlers "github.com/menuqr/menuqr/internal/http/api/admin/handlers"
	"github.com/menuqr/menuqr/internal/http/middleware"
	"github.com/menuqr/menuqr/internal/metrics"
	"github.com/menuqr/menuqr/internal/ratelimit"
	"github.com/menuqr/menuqr/internal/service"
	"gorm.io/gorm"
)

// Options carries what the admin routes need besides the services.
type Options struct {
	DB            *gorm.DB
	Services      *service.Services
	Limiter       *ratelimit.Manager
	Metrics       *metrics.Metrics
	SlowThreshold time.Duration // Health latency above this reports unhealthy.
}

// RegisterAdminRoutes registers owner and super-admin routes, middleware, and handlers.
func RegisterAdminRoutes(r *gin.Engine, opts Options) {
	if r == nil || opts.DB == nil || opts.Services == nil {
		return
	}
	svc := opts.Services

	healthHandler := handlers.NewHealthHandler(opts.DB, opts.SlowThreshold)
	r.GET("/healthz", healthHandler.Healthz)

	adminGroup := r.Group("/v0/admin")
	limit := middleware.RateLimit(opts.Limiter, opts.Metrics)

	public := adminGroup.Group("")
	public.Use(limit)

	authHandler := handlers.NewAuthHandler(svc.Auth)
	public.POST("/signup", authHandler.Signup)
	public.POST("/login", authHandler.Login)

	planHandler := handlers.NewPlanHandler(svc.Subscriptions)
	public.GET("/plans", planHandler.List)

	selfAuthed := adminGroup.Group("")
	selfAuthed.Use(middleware.RequireUser(svc.Auth))
	selfAuthed.Use(limit)
	selfAuthed.GET("/me", authHandler.Me)

	mfaHandler := handlers.NewMFAHandler(svc.Auth)
	selfAuthed.GET("/mfa/status", mfaHandler.Status)
	selfAuthed.POST("/mfa/totp/prepare", mfaHandler.PrepareTOTP)
	selfAuthed.POST("/mfa/totp/confirm", mfaHandler.ConfirmTOTP)
	selfAuthed.POST("/mfa/totp/disable", mfaHandler.DisableTOTP)

	authed := adminGroup.Group("")
	authed.Use(middleware.RequireUser(svc.Auth))
	authed.Use(limit)
	authed.Use(middleware.RequireDashboard())

	restaurantHandler := handlers.NewRestaurantHandler(svc.Restaurants)
	authed.POST("/restaurant", restaurantHandler.Create)
	authed.GET("/restaurant", restaurantHandler.Get)
	authed.PUT("/restaurant", restaurantHandler.Update)
	authed.DELETE("/restaurant", restaurantHandler.Delete)

	menuHandler := handlers.NewMenuHandler(svc.Menu)
	authed.GET("/categories", menuHandler.ListCategories)
	authed.POST("/categories", menuHandler.CreateCategory)
	authed.PUT("/categories/:id", menuHandler.UpdateCategory)
	authed.DELETE("/categories/:id", menuHandler.DeleteCategory)
	authed.GET("/menu-items", menuHandler.ListItems)
	authed.POST("/menu-items", menuHandler.CreateItem)
	authed.PUT("/menu-items/:id", menuHandler.UpdateItem)
	authed.POST("/menu-items/:id/availability", menuHandler.SetAvailability)
	authed.DELETE("/menu-items/:id", menuHandler.DeleteItem)

	tableHandler := handlers.NewTableHandler(svc.Tables)
	authed.GET("/tables", tableHandler.List)
	authed.POST("/tables", tableHandler.Create)
	authed.PUT("/tables/:id", tableHandler.Update)
	authed.POST("/tables/:id/qr", tableHandler.RegenerateQR)
	authed.DELETE("/tables/:id", tableHandler.Delete)

	orderHandler := handlers.NewOrderHandler(svc.Orders, opts.Metrics)
	authed.GET("/orders", orderHandler.List)
	authed.GET("/orders/stats", orderHandler.Stats)
	authed.GET("/orders/:id", orderHandler.Get)
	authed.PUT("/orders/:id/status", orderHandler.UpdateStatus)

	reservationHandler := handlers.NewReservationHandler(svc.Reservations)
	authed.GET("/reservations", reservationHandler.List)
	authed.GET("/reservations/:id", reservationHandler.Get)
	authed.PUT("/reservations/:id", reservationHandler.Update)
	authed.DELETE("/reservations/:id", reservationHandler.Delete)

	feedbackHandler := handlers.NewFeedbackHandler(svc.Feedbacks)
	authed.GET("/feedbacks", feedbackHandler.List)
	authed.GET("/feedbacks/summary", feedbackHandler.Summary)
	authed.POST("/feedbacks/:id/approve", feedbackHandler.Approve)
	authed.POST("/feedbacks/:id/reject", feedbackHandler.Reject)
	authed.DELETE("/feedbacks/:id", feedbackHandler.Delete)

	homepageHandler := handlers.NewHomepageHandler(svc.Homepage)
	authed.GET("/homepage", homepageHandler.Get)
	authed.PUT("/homepage", homepageHandler.Update)

	settingHandler := handlers.NewSettingHandler(svc.Settings)
	authed.GET("/settings", settingHandler.Get)
	authed.PUT("/settings", settingHandler.Update)

	subscriptionHandler := handlers.NewSubscriptionHandler(svc.Subscriptions)
	authed.GET("/subscription", subscriptionHandler.Get)
	authed.GET("/subscription/usage", subscriptionHandler.Usage)

	super := authed.Group("")
	super.Use(middleware.RequireSuperAdmin())

	userHandler := handlers.NewUserHandler(svc.Users)
	super.GET("/users", userHandler.List)
	super.POST("/users/:id/approve", userHandler.Approve)
	super.POST("/users/:id/reject", userHandler.Reject)
	super.PUT("/users/:id/plan", subscriptionHandler.AssignPlan)

	demoHandler := handlers.NewDemoHandler(svc.Demo)
	super.POST("/demo/seed", demoHandler.Seed)
	super.POST("/demo/reset", demoHandler.Reset)
}
