package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"parking-guide-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router. metricsHandler may be nil.
func NewRouter(h *Handler, metricsHandler http.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestLogger(h.log))

	srv := h.cfg.Server
	rateLimiter := mw.RateLimiter(rate.Limit(srv.RateLimitPerSec), srv.RateLimitBurst, srv.RequestIPHeader)

	cacheStore := cache.New(srv.CacheTTL, 2*srv.CacheTTL)
	caching := mw.Cache(cacheStore, srv.CacheTTL)

	r.GET("/healthz", h.Healthz)
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/lots", caching, GetLots(h.catalog, h.scheme))
		api.GET("/zones", caching, GetZones(h.catalog))
		api.GET("/zones/:name", caching, h.GetZoneInfo)

		api.POST("/quick-search", h.PostQuickSearch)
		api.GET("/quick-search/latest", h.GetLatestQuickSearch)
		api.GET("/quick-search/history", h.GetQuickSearchHistory)

		api.POST("/predict", h.PostPredict)
		api.GET("/status", h.GetStatus)
		api.POST("/feedback", h.PostFeedback)
		api.GET("/feedback/stats", h.GetFeedbackStats)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)

		api.GET("/live", h.GetLive)
	}

	return r
}
