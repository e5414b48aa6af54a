package repository

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cycleroute/internal/geo"
	"cycleroute/internal/models"
)

func TestMemoryRouteRepositoryIsSeeded(t *testing.T) {
	repo := NewMemoryRouteRepository()

	routes, err := repo.GetAllRoutes(context.Background())
	require.NoError(t, err)
	require.Len(t, routes, 3)
	assert.Equal(t, "City Park Loop", routes[0].Name)
	assert.Equal(t, "River Trail", routes[1].Name)
	assert.Equal(t, "Hill Climb Challenge", routes[2].Name)

	for _, r := range routes {
		assert.NotEmpty(t, r.ID)
		assert.NotEmpty(t, r.Geometry)
		assert.True(t, r.Difficulty.Valid())
	}
}

func TestSaveRouteAssignsIDAndGrowsCollection(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRouteRepository()

	saved, err := repo.SaveRoute(ctx, models.Route{
		Name:       "Coastal Sprint",
		Difficulty: models.DifficultyModerate,
		Waypoints: []models.Waypoint{
			{Latitude: 37.80, Longitude: -122.47, ElevationM: 5},
			{Latitude: 37.83, Longitude: -122.48, ElevationM: 70},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)

	routes, err := repo.GetAllRoutes(ctx)
	require.NoError(t, err)
	require.Len(t, routes, 4)
	assert.Equal(t, saved.ID, routes[3].ID)
}

func TestSaveRouteDerivesMissingMetrics(t *testing.T) {
	repo := NewMemoryRouteRepository()

	saved, err := repo.SaveRoute(context.Background(), models.Route{
		Name: "Derived",
		Waypoints: []models.Waypoint{
			{Latitude: 0, Longitude: 0, ElevationM: 0},
			{Latitude: 0, Longitude: 0.1, ElevationM: 50},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.DifficultyEasy, saved.Difficulty)
	assert.InDelta(t, 11.12, saved.DistanceKm, 0.01)
	assert.Equal(t, 50.0, saved.ElevationGainM)
	assert.Greater(t, saved.EstimatedDuration, 0)
	for i, w := range saved.Waypoints {
		assert.Equal(t, i, w.Seq)
		assert.Equal(t, saved.ID, w.RouteID)
	}
}

func TestSaveRouteRejectsInvalidRoutes(t *testing.T) {
	repo := NewMemoryRouteRepository()
	ctx := context.Background()

	cases := map[string]models.Route{
		"blank name":       {Name: "   "},
		"bad difficulty":   {Name: "x", Difficulty: "insane"},
		"negative metric":  {Name: "x", DistanceKm: -1},
		"latitude too big": {Name: "x", Waypoints: []models.Waypoint{{Latitude: 91}}},
	}
	for name, route := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := repo.SaveRoute(ctx, route)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}

	routes, err := repo.GetAllRoutes(ctx)
	require.NoError(t, err)
	assert.Len(t, routes, 3)
}

func TestSaveRouteReplacesExisting(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRouteRepository()
	routes, err := repo.GetAllRoutes(ctx)
	require.NoError(t, err)

	original := routes[1]
	original.Name = "River Trail (extended)"
	updated, err := repo.SaveRoute(ctx, original)
	require.NoError(t, err)
	assert.Equal(t, original.ID, updated.ID)
	assert.Equal(t, original.CreatedAt, updated.CreatedAt)

	routes, err = repo.GetAllRoutes(ctx)
	require.NoError(t, err)
	require.Len(t, routes, 3)
	assert.Equal(t, "River Trail (extended)", routes[1].Name)
}

func TestReturnedRoutesAreCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRouteRepository()
	routes, err := repo.GetAllRoutes(ctx)
	require.NoError(t, err)

	routes[0].Waypoints[0].Label = "changed"

	fresh, err := repo.GetRoute(ctx, routes[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Main Gate", fresh.Waypoints[0].Label)
}

func TestGetAndDeleteRoute(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRouteRepository()

	_, err := repo.GetRoute(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	routes, err := repo.GetAllRoutes(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.DeleteRoute(ctx, routes[0].ID))
	assert.ErrorIs(t, repo.DeleteRoute(ctx, routes[0].ID), ErrNotFound)

	routes, err = repo.GetAllRoutes(ctx)
	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.Equal(t, "River Trail", routes[0].Name)
}

func TestConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRouteRepository()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.SaveRoute(ctx, models.Route{Name: fmt.Sprintf("route-%d", i)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	routes, err := repo.GetAllRoutes(ctx)
	require.NoError(t, err)
	assert.Len(t, routes, 53)
}

func TestMemoryTripRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTripRepository()

	older, err := repo.CreateTrip(ctx, models.Trip{RiderID: 1, Status: models.TripRecording, StartedAt: time.Now().Add(-time.Hour)})
	require.NoError(t, err)
	newer, err := repo.CreateTrip(ctx, models.Trip{RiderID: 1, Status: models.TripRecording, StartedAt: time.Now()})
	require.NoError(t, err)
	_, err = repo.CreateTrip(ctx, models.Trip{RiderID: 2, Status: models.TripRecording, StartedAt: time.Now()})
	require.NoError(t, err)

	trips, err := repo.ListTrips(ctx, 1)
	require.NoError(t, err)
	require.Len(t, trips, 2)
	assert.Equal(t, newer.ID, trips[0].ID)
	assert.Equal(t, older.ID, trips[1].ID)

	_, err = repo.LastPoint(ctx, older.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	p1, err := repo.AppendPoint(ctx, models.TripPoint{TripID: older.ID, Latitude: 1})
	require.NoError(t, err)
	p2, err := repo.AppendPoint(ctx, models.TripPoint{TripID: older.ID, Latitude: 2})
	require.NoError(t, err)
	assert.Greater(t, p2.ID, p1.ID)

	last, err := repo.LastPoint(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, p2.ID, last.ID)

	points, err := repo.Points(ctx, older.ID)
	require.NoError(t, err)
	assert.Len(t, points, 2)

	_, err = repo.AppendPoint(ctx, models.TripPoint{TripID: "nope"})
	assert.ErrorIs(t, err, ErrNotFound)

	finishedAt := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	got, err := repo.FinishTrip(ctx, older.ID, finishedAt)
	require.NoError(t, err)
	assert.Equal(t, models.TripFinished, got.Status)
	require.NotNil(t, got.FinishedAt)
	assert.Equal(t, finishedAt, *got.FinishedAt)

	stored, err := repo.GetTrip(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TripFinished, stored.Status)

	_, err = repo.FinishTrip(ctx, older.ID, finishedAt)
	assert.ErrorIs(t, err, ErrNotRecording)
	_, err = repo.AppendPoint(ctx, models.TripPoint{TripID: older.ID, Latitude: 3})
	assert.ErrorIs(t, err, ErrNotRecording)
	points, err = repo.Points(ctx, older.ID)
	require.NoError(t, err)
	assert.Len(t, points, 2)

	_, err = repo.FinishTrip(ctx, "nope", finishedAt)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryTripRepositoryFinishIsExclusive(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTripRepository()
	trip, err := repo.CreateTrip(ctx, models.Trip{RiderID: 1, Status: models.TripRecording, StartedAt: time.Now()})
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		finished int
		appended int
	)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := repo.FinishTrip(ctx, trip.ID, time.Now()); err == nil {
				mu.Lock()
				finished++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrNotRecording)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := repo.AppendPoint(ctx, models.TripPoint{TripID: trip.ID, DistanceFromLast: 100}); err == nil {
				mu.Lock()
				appended++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrNotRecording)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, finished)
	points, err := repo.Points(ctx, trip.ID)
	require.NoError(t, err)
	assert.Len(t, points, appended)

	// Totals cover exactly the points stored before the trip closed.
	got, err := repo.GetTrip(ctx, trip.ID)
	require.NoError(t, err)
	want, _, _ := geo.TripTotals(points)
	assert.InDelta(t, math.Round(want*100)/100, got.DistanceKm, 1e-9)
}

func TestMemoryRiderRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRiderRepository()

	rider, err := repo.CreateRider(ctx, models.Rider{Name: "Ada", Email: "Ada@Example.com", Password: "hash"})
	require.NoError(t, err)
	assert.NotZero(t, rider.ID)
	assert.Equal(t, "ada@example.com", rider.Email)

	_, err = repo.CreateRider(ctx, models.Rider{Email: "ada@example.COM"})
	assert.ErrorIs(t, err, ErrConflict)

	found, err := repo.FindRiderByEmail(ctx, " ADA@example.com ")
	require.NoError(t, err)
	assert.Equal(t, rider.ID, found.ID)

	_, err = repo.GetRider(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}
