package router

import (
	"github.com/gin-gonic/gin"

	"firmdesk.app/intake/internal/http/handler"
	"firmdesk.app/intake/internal/http/middleware"
)

func EmailRouter(rg *gin.RouterGroup, h *handler.EmailHandler) {
	rg.POST("", h.Ingest)
	rg.POST("/raw", h.IngestRaw)
	rg.GET("/:id", h.Get)
	rg.GET("/:id/attempts", h.ListAttempts)
	rg.POST("/:id/remap", h.Remap)

	staff := rg.Group("", middleware.RequireUser())
	staff.POST("/:id/confirm", h.Confirm)
	staff.POST("/:id/ignore", h.Ignore)
}
