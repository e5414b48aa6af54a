package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"cycleroute/internal/geo"
	"cycleroute/internal/models"
	"cycleroute/internal/repository"
)

// RouteResponse mirrors models.Route with the geometry rendered as GeoJSON.
type RouteResponse struct {
	ID                string            `json:"id"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	DistanceKm        float64           `json:"distance_km"`
	ElevationGainM    float64           `json:"elevation_gain_m"`
	EstimatedDuration int               `json:"estimated_duration_min"`
	Difficulty        models.Difficulty `json:"difficulty"`
	Geometry          string            `json:"geometry,omitempty"`
	Waypoints         []models.Waypoint `json:"waypoints"`
}

func toRouteResponse(route models.Route) RouteResponse {
	jsonGeom, err := geo.WKBToGeoJSON(route.Geometry)
	if err != nil {
		logrus.WithError(err).WithField("route_id", route.ID).Warn("Stored route geometry is not valid WKB")
	}
	waypoints := route.Waypoints
	if waypoints == nil {
		waypoints = []models.Waypoint{}
	}
	return RouteResponse{
		ID:                route.ID,
		CreatedAt:         route.CreatedAt,
		UpdatedAt:         route.UpdatedAt,
		Name:              route.Name,
		Description:       route.Description,
		DistanceKm:        route.DistanceKm,
		ElevationGainM:    route.ElevationGainM,
		EstimatedDuration: route.EstimatedDuration,
		Difficulty:        route.Difficulty,
		Geometry:          jsonGeom,
		Waypoints:         waypoints,
	}
}

type waypointInput struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	ElevationM float64 `json:"elevation_m"`
	Label      string  `json:"label"`
}

func toWaypoints(in []waypointInput) []models.Waypoint {
	out := make([]models.Waypoint, 0, len(in))
	for i, w := range in {
		out = append(out, models.Waypoint{
			Seq:        i,
			Latitude:   w.Latitude,
			Longitude:  w.Longitude,
			ElevationM: w.ElevationM,
			Label:      w.Label,
		})
	}
	return out
}

type createRouteInput struct {
	Name              string          `json:"name" binding:"required"`
	Description       string          `json:"description"`
	DistanceKm        float64         `json:"distance_km"`
	ElevationGainM    float64         `json:"elevation_gain_m"`
	EstimatedDuration int             `json:"estimated_duration_min"`
	Difficulty        string          `json:"difficulty"`
	Geometry          string          `json:"geometry"` // GeoJSON LineString, used when waypoints are omitted
	Waypoints         []waypointInput `json:"waypoints"`
}

type updateRouteInput struct {
	Name              *string          `json:"name"`
	Description       *string          `json:"description"`
	DistanceKm        *float64         `json:"distance_km"`
	ElevationGainM    *float64         `json:"elevation_gain_m"`
	EstimatedDuration *int             `json:"estimated_duration_min"`
	Difficulty        *string          `json:"difficulty"`
	Waypoints         *[]waypointInput `json:"waypoints"`
}

type RouteController struct {
	routes repository.RouteRepository
}

func NewRouteController(routes repository.RouteRepository) *RouteController {
	return &RouteController{routes: routes}
}

// ListRoutes returns every route, optionally filtered by difficulty and a
// maximum distance.
func (rc *RouteController) ListRoutes(c *gin.Context) {
	var difficulty models.Difficulty
	if raw := c.Query("difficulty"); raw != "" {
		d, err := models.ParseDifficulty(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		difficulty = d
	}
	maxDistance := -1.0
	if raw := c.Query("max_distance_km"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid max_distance_km"})
			return
		}
		maxDistance = v
	}

	routes, err := rc.routes.GetAllRoutes(c.Request.Context())
	if err != nil {
		respondError(c, "ListRoutes", err)
		return
	}

	routeResponses := make([]RouteResponse, 0, len(routes))
	for _, r := range routes {
		if difficulty != "" && r.Difficulty != difficulty {
			continue
		}
		if maxDistance >= 0 && r.DistanceKm > maxDistance {
			continue
		}
		routeResponses = append(routeResponses, toRouteResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"routes": routeResponses})
}

func (rc *RouteController) GetRoute(c *gin.Context) {
	route, err := rc.routes.GetRoute(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "GetRoute", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"route": toRouteResponse(route)})
}

// CreateRoute stores a new route. Metrics left at zero are derived from
// the waypoints.
func (rc *RouteController) CreateRoute(c *gin.Context) {
	var input createRouteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("CreateRoute: invalid input payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	difficulty, err := models.ParseDifficulty(input.Difficulty)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	waypoints := toWaypoints(input.Waypoints)
	if len(waypoints) == 0 && input.Geometry != "" {
		waypoints, err = geo.WaypointsFromGeoJSON(input.Geometry)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid geometry: " + err.Error()})
			return
		}
	}

	route, err := rc.routes.SaveRoute(c.Request.Context(), models.Route{
		Name:              input.Name,
		Description:       input.Description,
		DistanceKm:        input.DistanceKm,
		ElevationGainM:    input.ElevationGainM,
		EstimatedDuration: input.EstimatedDuration,
		Difficulty:        difficulty,
		Waypoints:         waypoints,
	})
	if err != nil {
		respondError(c, "CreateRoute", err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"route_id":    route.ID,
		"distance_km": route.DistanceKm,
		"waypoints":   len(route.Waypoints),
	}).Info("Route created")
	c.JSON(http.StatusCreated, gin.H{"route": toRouteResponse(route)})
}

// UpdateRoute applies a partial update. Replacing the waypoints resets any
// metric the caller did not supply so it is recomputed.
func (rc *RouteController) UpdateRoute(c *gin.Context) {
	ctx := c.Request.Context()
	existing, err := rc.routes.GetRoute(ctx, c.Param("id"))
	if err != nil {
		respondError(c, "UpdateRoute", err)
		return
	}

	var input updateRouteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("UpdateRoute: invalid input payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := applyRouteUpdates(&existing, &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := rc.routes.SaveRoute(ctx, existing)
	if err != nil {
		respondError(c, "UpdateRoute", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"route": toRouteResponse(updated)})
}

func applyRouteUpdates(route *models.Route, input *updateRouteInput) error {
	if input.Name != nil {
		route.Name = *input.Name
	}
	if input.Description != nil {
		route.Description = *input.Description
	}
	if input.Difficulty != nil {
		d, err := models.ParseDifficulty(*input.Difficulty)
		if err != nil {
			return err
		}
		route.Difficulty = d
	}
	if input.Waypoints != nil {
		route.Waypoints = toWaypoints(*input.Waypoints)
		route.DistanceKm, route.ElevationGainM, route.EstimatedDuration = 0, 0, 0
	}
	if input.DistanceKm != nil {
		route.DistanceKm = *input.DistanceKm
	}
	if input.ElevationGainM != nil {
		route.ElevationGainM = *input.ElevationGainM
	}
	if input.EstimatedDuration != nil {
		route.EstimatedDuration = *input.EstimatedDuration
	}
	return nil
}

func (rc *RouteController) DeleteRoute(c *gin.Context) {
	if err := rc.routes.DeleteRoute(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, "DeleteRoute", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Route deleted successfully"})
}

// Navigate reports guidance for a rider at ?lat=&lng= along the route.
func (rc *RouteController) Navigate(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng query parameters are required"})
		return
	}

	route, err := rc.routes.GetRoute(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "Navigate", err)
		return
	}

	guidance, err := geo.Navigate(route.Waypoints, lat, lng)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"route_id": route.ID, "guidance": guidance})
}
