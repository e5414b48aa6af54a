package controllers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cycleroute/internal/models"
	"cycleroute/internal/repository"
)

// metresNorth converts a northward offset to degrees of latitude.
func metresNorth(m float64) float64 {
	return m / 111195.0
}

func TestShouldRecordPoint(t *testing.T) {
	moving := models.TripPoint{ID: 1, IsMoving: true}
	still := models.TripPoint{ID: 1, IsMoving: false}

	cases := []struct {
		name      string
		distance  float64
		speed     float64
		timeDiff  float64
		last      models.TripPoint
		wantSave  bool
		wantEvent string
	}{
		{"moved far enough", 6, 4, 1, moving, true, "move"},
		{"came to a stop", 1, 0.2, 12, moving, true, "stopped"},
		{"set off", 2, 2, 11, still, true, "started"},
		{"periodic heartbeat", 0, 0, 61, still, true, "periodic"},
		{"jitter while moving", 2, 4, 3, moving, false, "insignificant"},
		{"stop too recent", 1, 0.2, 5, moving, false, "insignificant"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			save, event := shouldRecordPoint(tc.distance, tc.speed, tc.timeDiff, tc.last)
			assert.Equal(t, tc.wantSave, save)
			assert.Equal(t, tc.wantEvent, event)
		})
	}
}

func TestLocationFixTimestamps(t *testing.T) {
	var fix LocationFix
	require.NoError(t, json.Unmarshal([]byte(`{"latitude":1,"longitude":2,"timestamp":"2026-03-01T08:00:00"}`), &fix))
	assert.Equal(t, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), fix.Timestamp.UTC())
	assert.Equal(t, 1.0, fix.Latitude)

	require.NoError(t, json.Unmarshal([]byte(`{"timestamp":"2026-03-01T10:00:00+02:00"}`), &fix))
	assert.Equal(t, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), fix.Timestamp.UTC())

	fix = LocationFix{}
	require.NoError(t, json.Unmarshal([]byte(`{"latitude":1}`), &fix))
	assert.False(t, fix.Timestamp.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"timestamp":"yesterday"}`), &fix))
}

func newRecordingTrip(t *testing.T, trips repository.TripRepository) models.Trip {
	t.Helper()
	trip, err := trips.CreateTrip(context.Background(), models.Trip{
		RiderID:   1,
		Status:    models.TripRecording,
		StartedAt: time.Now(),
	})
	require.NoError(t, err)
	return trip
}

func TestRecorderKeepsOnlySignificantFixes(t *testing.T) {
	ctx := context.Background()
	trips := repository.NewMemoryTripRepository()
	rec := NewRecorder(trips, nil)
	trip := newRecordingTrip(t, trips)
	start := time.Date(2026, 5, 1, 7, 0, 0, 0, time.UTC)

	p, saved, err := rec.Record(ctx, trip.ID, LocationFix{Latitude: 0, Longitude: 0, Speed: 3, Timestamp: start})
	require.NoError(t, err)
	require.True(t, saved)
	assert.Equal(t, "initial", p.EventType)
	assert.True(t, p.IsMoving)

	_, saved, err = rec.Record(ctx, trip.ID, LocationFix{Latitude: metresNorth(2), Speed: 3, Timestamp: start.Add(3 * time.Second)})
	require.NoError(t, err)
	assert.False(t, saved)

	p, saved, err = rec.Record(ctx, trip.ID, LocationFix{Latitude: metresNorth(20), Speed: 3, Timestamp: start.Add(6 * time.Second)})
	require.NoError(t, err)
	require.True(t, saved)
	assert.Equal(t, "move", p.EventType)
	assert.InDelta(t, 20, p.DistanceFromLast, 0.1)
	assert.InDelta(t, 0, p.Bearing, 0.01)

	p, saved, err = rec.Record(ctx, trip.ID, LocationFix{Latitude: metresNorth(21), Speed: 0, Timestamp: start.Add(20 * time.Second)})
	require.NoError(t, err)
	require.True(t, saved)
	assert.Equal(t, "stopped", p.EventType)
	assert.False(t, p.IsMoving)

	_, saved, err = rec.Record(ctx, trip.ID, LocationFix{Latitude: metresNorth(40), Timestamp: start})
	require.NoError(t, err)
	assert.False(t, saved, "out-of-order fixes are dropped")

	points, err := trips.Points(ctx, trip.ID)
	require.NoError(t, err)
	assert.Len(t, points, 3)
}

func TestRecorderRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	trips := repository.NewMemoryTripRepository()
	rec := NewRecorder(trips, nil)
	trip := newRecordingTrip(t, trips)

	_, _, err := rec.Record(ctx, trip.ID, LocationFix{Latitude: 100, Timestamp: time.Now()})
	assert.ErrorIs(t, err, repository.ErrInvalid)

	_, _, err = rec.Record(ctx, "missing", LocationFix{Timestamp: time.Now()})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = trips.FinishTrip(ctx, trip.ID, time.Now())
	require.NoError(t, err)
	_, _, err = rec.Record(ctx, trip.ID, LocationFix{Timestamp: time.Now()})
	assert.ErrorIs(t, err, ErrTripNotRecording)
}

func TestRecorderPublishesSavedPoints(t *testing.T) {
	trips := repository.NewMemoryTripRepository()
	hub := NewTripHub()
	defer hub.Close()
	trip := newRecordingTrip(t, trips)

	sub := newFakeSubscriber()
	hub.Subscribe(trip.ID, sub)

	_, saved, err := NewRecorder(trips, hub).Record(context.Background(), trip.ID, LocationFix{Latitude: 1, Longitude: 1, Timestamp: time.Now()})
	require.NoError(t, err)
	require.True(t, saved)

	select {
	case msg := <-sub.received:
		assert.Equal(t, trip.ID, msg.TripID)
		assert.Equal(t, 1.0, msg.Point.Latitude)
	case <-time.After(2 * time.Second):
		t.Fatal("follower did not receive the saved point")
	}
}
