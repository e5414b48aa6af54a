package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"cycleroute/internal/middleware"
	"cycleroute/internal/models"
	"cycleroute/internal/repository"
)

var errForeignTrip = errors.New("trip belongs to another rider")

type startTripInput struct {
	RouteID string `json:"route_id"`
}

type TripController struct {
	trips  repository.TripRepository
	routes repository.RouteRepository
}

func NewTripController(trips repository.TripRepository, routes repository.RouteRepository) *TripController {
	return &TripController{trips: trips, routes: routes}
}

// ownedTrip loads a trip and checks it belongs to the rider.
func ownedTrip(ctx context.Context, trips repository.TripRepository, tripID string, riderID uint) (models.Trip, error) {
	trip, err := trips.GetTrip(ctx, tripID)
	if err != nil {
		return models.Trip{}, err
	}
	if trip.RiderID != riderID {
		return models.Trip{}, errForeignTrip
	}
	return trip, nil
}

func (tc *TripController) respondTripError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, errForeignTrip):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, ErrTripNotRecording):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		respondError(c, op, err)
	}
}

// StartTrip opens a new recording, optionally against a stored route.
func (tc *TripController) StartTrip(c *gin.Context) {
	riderID, _ := middleware.RiderID(c)

	// The body is optional; an empty one starts a free ride.
	var input startTripInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if input.RouteID != "" {
		if _, err := tc.routes.GetRoute(ctx, input.RouteID); err != nil {
			respondError(c, "StartTrip", err)
			return
		}
	}

	trip, err := tc.trips.CreateTrip(ctx, models.Trip{
		RiderID:   riderID,
		RouteID:   input.RouteID,
		Status:    models.TripRecording,
		StartedAt: time.Now().UTC(),
	})
	if err != nil {
		respondError(c, "StartTrip", err)
		return
	}

	logrus.WithFields(logrus.Fields{"trip_id": trip.ID, "rider_id": riderID}).Info("Trip recording started")
	c.JSON(http.StatusCreated, gin.H{"trip": trip})
}

func (tc *TripController) ListTrips(c *gin.Context) {
	riderID, _ := middleware.RiderID(c)
	trips, err := tc.trips.ListTrips(c.Request.Context(), riderID)
	if err != nil {
		respondError(c, "ListTrips", err)
		return
	}
	if trips == nil {
		trips = []models.Trip{}
	}
	c.JSON(http.StatusOK, gin.H{"trips": trips})
}

// GetTrip returns a trip together with every saved point.
func (tc *TripController) GetTrip(c *gin.Context) {
	riderID, _ := middleware.RiderID(c)
	ctx := c.Request.Context()

	trip, err := ownedTrip(ctx, tc.trips, c.Param("id"), riderID)
	if err != nil {
		tc.respondTripError(c, "GetTrip", err)
		return
	}
	points, err := tc.trips.Points(ctx, trip.ID)
	if err != nil {
		respondError(c, "GetTrip", err)
		return
	}
	trip.Points = points
	c.JSON(http.StatusOK, gin.H{"trip": trip})
}

// FinishTrip closes the recording and stores its totals.
func (tc *TripController) FinishTrip(c *gin.Context) {
	riderID, _ := middleware.RiderID(c)
	ctx := c.Request.Context()

	trip, err := ownedTrip(ctx, tc.trips, c.Param("id"), riderID)
	if err != nil {
		tc.respondTripError(c, "FinishTrip", err)
		return
	}

	trip, err = tc.trips.FinishTrip(ctx, trip.ID, time.Now().UTC())
	if err != nil {
		tc.respondTripError(c, "FinishTrip", err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"trip_id":        trip.ID,
		"distance_km":    trip.DistanceKm,
		"moving_seconds": trip.MovingSeconds,
	}).Info("Trip recording finished")
	c.JSON(http.StatusOK, gin.H{"trip": trip})
}
