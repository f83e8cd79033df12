package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"firmdesk.app/intake/internal/http/handler"
	"firmdesk.app/intake/internal/http/handler/webhook"
	"firmdesk.app/intake/internal/http/middleware"
	"firmdesk.app/intake/internal/service"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	TraceHeaderName string
	AdminAPIKey     string
	// Dedup filters repeated provider notifications. Nil disables it.
	Dedup webhook.Deduper
	// DB backs /ready. Nil makes /ready always succeed.
	DB Pinger
	// WebhookSecret signs per-connection push tokens. Empty disables the
	// token check.
	WebhookSecret string
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ready", func(c *gin.Context) {
		if cfg.DB != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := cfg.DB.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "database unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	signer := webhook.NewSigner(cfg.WebhookSecret)
	webhookHandler := webhook.NewEmailWebhookHandler(services.Jobs(), cfg.Dedup, signer, cfg.TraceHeaderName)
	WebhookRouter(router.Group("/webhooks"), webhookHandler)

	tenant := router.Group("/api/v1/tenants/:tenant_id", middleware.AdminAuth(cfg.AdminAPIKey))
	{
		emailHandler := handler.NewEmailHandler(services.Ingestion(), services.Jobs(), cfg.TraceHeaderName)
		EmailRouter(tenant.Group("/emails"), emailHandler)

		jobHandler := handler.NewJobHandler(services.Jobs())
		JobRouter(tenant.Group("/jobs"), jobHandler)

		dlqHandler := handler.NewDLQHandler(services.DLQ())
		DLQRouter(tenant.Group("/dlq"), dlqHandler)

		WebhookTokenRouter(tenant.Group("/connections"), webhook.NewTokenHandler(signer))
	}
}
