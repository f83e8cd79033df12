package router

import (
	"github.com/gin-gonic/gin"

	"firmdesk.app/intake/internal/http/handler/webhook"
)

func WebhookRouter(rg *gin.RouterGroup, h *webhook.EmailWebhookHandler) {
	rg.POST("/:provider", h.HandleEvent)
}

func WebhookTokenRouter(rg *gin.RouterGroup, h *webhook.TokenHandler) {
	rg.GET("/:connection_id/webhook-token", h.Issue)
}
