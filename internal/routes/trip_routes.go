package routes

import (
	"github.com/gin-gonic/gin"

	"cycleroute/internal/controllers"
	"cycleroute/internal/middleware"
)

func TripRoutes(r *gin.Engine, tc *controllers.TripController, auth *middleware.Auth) {
	trips := r.Group("/trips")
	trips.Use(auth.RequireAuth())
	{
		trips.POST("", tc.StartTrip)
		trips.GET("", tc.ListTrips)
		trips.GET("/:id", tc.GetTrip)
		trips.POST("/:id/finish", tc.FinishTrip)
	}
}
