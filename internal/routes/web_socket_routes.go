package routes

import (
	"github.com/gin-gonic/gin"

	"cycleroute/internal/controllers"
)

// WebSocketRoutes authenticate through the token query parameter.
func WebSocketRoutes(r *gin.Engine, sc *controllers.SocketController) {
	ws := r.Group("/ws")
	{
		ws.GET("/trips/:id/record", sc.HandleRecord)
		ws.GET("/trips/:id/follow", sc.HandleFollow)
	}
}
