// Package repository defines the data-access layer for routes, trips and
// riders, with an in-memory implementation and a postgres one backed by gorm.
package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"cycleroute/internal/geo"
	"cycleroute/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
	ErrInvalid  = errors.New("invalid")

	ErrNotRecording = errors.New("trip is not recording")
)

// RouteRepository stores planned routes together with their waypoints.
type RouteRepository interface {
	GetAllRoutes(ctx context.Context) ([]models.Route, error)
	// SaveRoute inserts the route, or replaces it when the ID already exists.
	// A blank ID is replaced with a generated one.
	SaveRoute(ctx context.Context, route models.Route) (models.Route, error)
	GetRoute(ctx context.Context, id string) (models.Route, error)
	DeleteRoute(ctx context.Context, id string) error
}

// TripRepository stores recorded rides and their GPS points.
type TripRepository interface {
	CreateTrip(ctx context.Context, trip models.Trip) (models.Trip, error)
	GetTrip(ctx context.Context, id string) (models.Trip, error)
	ListTrips(ctx context.Context, riderID uint) ([]models.Trip, error)
	// FinishTrip closes a recording trip and stores totals computed from its
	// points. It returns ErrNotRecording if the trip was already finished.
	FinishTrip(ctx context.Context, id string, finishedAt time.Time) (models.Trip, error)
	// AppendPoint returns ErrNotRecording once the trip is finished.
	AppendPoint(ctx context.Context, point models.TripPoint) (models.TripPoint, error)
	LastPoint(ctx context.Context, tripID string) (models.TripPoint, error)
	Points(ctx context.Context, tripID string) ([]models.TripPoint, error)
}

type RiderRepository interface {
	CreateRider(ctx context.Context, rider models.Rider) (models.Rider, error)
	FindRiderByEmail(ctx context.Context, email string) (models.Rider, error)
	GetRider(ctx context.Context, id uint) (models.Rider, error)
}

// prepareRoute assigns an ID, normalizes waypoint order and difficulty,
// derives missing metrics and encodes the geometry column.
func prepareRoute(route models.Route, now time.Time) (models.Route, error) {
	r := route.Clone()
	if strings.TrimSpace(r.ID) == "" {
		r.ID = uuid.NewString()
	}
	if r.Difficulty == "" {
		r.Difficulty = models.DifficultyEasy
	}
	if err := r.Validate(); err != nil {
		return models.Route{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	for i := range r.Waypoints {
		r.Waypoints[i].Seq = i
		r.Waypoints[i].RouteID = r.ID
	}
	geo.FillMetrics(&r)

	wkbGeom, err := geo.EncodeWKB(r.Waypoints)
	if err != nil {
		return models.Route{}, fmt.Errorf("%w: geometry: %v", ErrInvalid, err)
	}
	r.Geometry = wkbGeom

	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	return r, nil
}

// finishTrip marks the trip finished with its rounded totals.
func finishTrip(trip *models.Trip, points []models.TripPoint, finishedAt time.Time) {
	distanceKm, gain, moving := geo.TripTotals(points)
	trip.Status = models.TripFinished
	trip.FinishedAt = &finishedAt
	trip.DistanceKm = math.Round(distanceKm*100) / 100
	trip.ElevationGainM = math.Round(gain*10) / 10
	trip.MovingSeconds = math.Round(moving)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
