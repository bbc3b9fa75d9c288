package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSyncRoutes monta el trigger y, si se pasa, el handler de métricas.
func RegisterSyncRoutes(r *gin.Engine, handler *SyncHandler, metrics http.Handler) {
	r.POST("/sync", handler.TriggerSync)
	r.GET("/health", handler.Health)
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}
}
