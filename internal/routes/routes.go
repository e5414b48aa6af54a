package routes

import (
	"io"
	"net/http"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"

	"cycleroute/internal/controllers"
	"cycleroute/internal/middleware"
	"cycleroute/internal/repository"
)

// Dependencies holds everything the router wires into controllers.
type Dependencies struct {
	Routes repository.RouteRepository
	Trips  repository.TripRepository
	Riders repository.RiderRepository
	Auth   *middleware.Auth
	Hub    *controllers.TripHub

	// LogWriter receives request logs; nil disables request logging.
	LogWriter io.Writer
}

func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if deps.LogWriter != nil {
		r.Use(ginlog.SetLogger(
			ginlog.WithWriter(deps.LogWriter),
			ginlog.WithUTC(true),
			ginlog.WithSkipPath([]string{"/health"}),
		))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	AuthRoutes(r, controllers.NewAuthController(deps.Riders, deps.Auth))
	RouteRoutes(r, controllers.NewRouteController(deps.Routes), deps.Auth)
	TripRoutes(r, controllers.NewTripController(deps.Trips, deps.Routes), deps.Auth)

	recorder := controllers.NewRecorder(deps.Trips, deps.Hub)
	WebSocketRoutes(r, controllers.NewSocketController(deps.Auth, deps.Trips, recorder, deps.Hub))

	return r
}
