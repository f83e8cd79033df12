package router

import (
	"github.com/gin-gonic/gin"

	"firmdesk.app/intake/internal/http/handler"
	"firmdesk.app/intake/internal/http/middleware"
)

func DLQRouter(rg *gin.RouterGroup, h *handler.DLQHandler) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)

	staff := rg.Group("", middleware.RequireUser())
	staff.POST("/:id/reprocess", h.Reprocess)
	staff.POST("/:id/discard", h.Discard)
}
