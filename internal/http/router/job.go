package router

import (
	"github.com/gin-gonic/gin"

	"firmdesk.app/intake/internal/http/handler"
)

func JobRouter(rg *gin.RouterGroup, h *handler.JobHandler) {
	rg.POST("", h.Enqueue)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
}
