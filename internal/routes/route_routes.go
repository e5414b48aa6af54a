package routes

import (
	"github.com/gin-gonic/gin"

	"cycleroute/internal/controllers"
	"cycleroute/internal/middleware"
)

// RouteRoutes exposes route browsing publicly; changes need a rider token.
func RouteRoutes(r *gin.Engine, rc *controllers.RouteController, auth *middleware.Auth) {
	routes := r.Group("/routes")
	{
		routes.GET("", rc.ListRoutes)
		routes.GET("/:id", rc.GetRoute)
		routes.GET("/:id/navigate", rc.Navigate)
	}

	protected := r.Group("/routes")
	protected.Use(auth.RequireAuth())
	{
		protected.POST("", rc.CreateRoute)
		protected.PUT("/:id", rc.UpdateRoute)
		protected.DELETE("/:id", rc.DeleteRoute)
	}
}
