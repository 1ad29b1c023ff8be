package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"equipment-maintenance-backend/config"
	"equipment-maintenance-backend/internal/lifecycle"
	"equipment-maintenance-backend/internal/mw"
	"equipment-maintenance-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, svc *lifecycle.Service, cfg *config.Config, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, svc, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)

	// Unauthenticated: clients need the VAPID key before they can subscribe.
	api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)

	authed := api.Group("")
	authed.Use(mw.Auth(cfg.Auth.JWTSecret))
	{
		authed.POST("/predict", handler.RunPredictions)

		m := authed.Group("/maintenance")
		{
			m.GET("", handler.ListTickets)
			m.GET("/by-equipment/:equipment_id", handler.ListTicketsByEquipment)
			m.GET("/upcoming/:equipment_id", handler.ListUpcomingTickets)
			m.GET("/pending-reviews", handler.ListPendingReviews)
			m.GET("/new-scheduled", handler.ListNewScheduled)
			m.GET("/priority/:equipment_id", caching, handler.GetMaintenancePriority)
			m.GET("/health-status", handler.GetHealthStatus)

			m.PUT("/schedule/:equipment_id", handler.ScheduleMaintenance)
			m.PUT("/update-status/:maintenance_id", handler.UpdateProgress)
			m.PUT("/mark-complete/:maintenance_id", handler.MarkComplete)
			m.PUT("/confirm/:maintenance_id", handler.ConfirmCompletion)
			m.PUT("/review-completion/:maintenance_id", handler.ReviewCompletion)
			m.DELETE("/:maintenance_id", handler.DeleteTicket)
		}

		authed.GET("/equipment/:equipment_id/metrics", caching, handler.GetEquipmentMetrics)

		authed.GET("/subscriptions", handler.GetSubscription)
		authed.PUT("/subscriptions", handler.PutSubscription)
		authed.DELETE("/subscriptions", handler.DeleteSubscription)
	}

	return r
}
