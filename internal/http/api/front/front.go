package front

import (
	"github.com/gin-gonic/gin"
	handlers "github.com/menuqr/menuqr/internal/http/api/front/handlers"
	"github.com/menuqr/menuqr/internal/http/middleware"
	"github.com/menuqr/menuqr/internal/metrics"
	"github.com/menuqr/menuqr/internal/ratelimit"
	"github.com/menuqr/menuqr/internal/service"
)

// RegisterFrontRoutes registers the public diner routes. None require a
// session; writes are rate limited per client address.
func RegisterFrontRoutes(r *gin.Engine, svc *service.Services, limiter *ratelimit.Manager, m *metrics.Metrics) {
	if r == nil || svc == nil {
		return
	}
	limit := middleware.RateLimit(limiter, m)

	scanHandler := handlers.NewScanHandler(svc, m)
	menuGroup := r.Group("/menu")
	menuGroup.Use(limit)
	menuGroup.GET("/:slug", scanHandler.Open)
	menuGroup.GET("/:slug/:number", scanHandler.Open)

	frontGroup := r.Group("/v0/front")

	planHandler := handlers.NewPlanFrontHandler(svc.Subscriptions)
	frontGroup.GET("/plans", planHandler.List)

	restaurantHandler := handlers.NewRestaurantFrontHandler(svc)
	restaurant := frontGroup.Group("/restaurants/:slug")
	restaurant.GET("", restaurantHandler.Get)
	restaurant.GET("/menu", restaurantHandler.Menu)
	restaurant.GET("/homepage", restaurantHandler.Homepage)
	restaurant.GET("/settings", restaurantHandler.Settings)
	restaurant.GET("/tables/:number", restaurantHandler.Table)

	feedbackHandler := handlers.NewFeedbackFrontHandler(svc.Feedbacks)
	restaurant.GET("/feedbacks", feedbackHandler.List)

	writes := restaurant.Group("")
	writes.Use(limit)
	writes.POST("/scans", scanHandler.Record)
	writes.POST("/orders", handlers.NewOrderFrontHandler(svc.Orders, m).Create)
	writes.POST("/reservations", handlers.NewReservationFrontHandler(svc.Reservations).Create)
	writes.POST("/feedbacks", feedbackHandler.Create)
}
