// Package transport exposes the HTTP surface of the service.
package transport

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"visa-status-service/internal/common/logger"
	"visa-status-service/internal/ingest"
	"visa-status-service/internal/notify"
	"visa-status-service/internal/ratelimit"
	"visa-status-service/internal/service"
)

type Handler struct {
	status     *service.StatusService
	dispatcher *notify.Dispatcher
	limiter    ratelimit.Limiter
	store      *ingest.Store
	logger     logger.Logger
}

func NewHandler(status *service.StatusService, dispatcher *notify.Dispatcher, limiter ratelimit.Limiter, store *ingest.Store, log logger.Logger) *Handler {
	return &Handler{
		status:     status,
		dispatcher: dispatcher,
		limiter:    limiter,
		store:      store,
		logger:     log.WithFields(map[string]interface{}{"component": "transport"}),
	}
}

func InitRoutes(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestMetrics())

	router.POST("/check_status", h.CheckStatus)
	router.POST("/send_email", h.SendEmail)

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
