package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"cycleroute/internal/geo"
	"cycleroute/internal/models"
	"cycleroute/internal/repository"
)

const (
	minDistanceForSave  = 5.0  // metres
	minTimeDiffForSave  = 10.0 // seconds
	minSpeedForMoving   = 0.5  // m/s
	maxSpeedForStopped  = 1.0  // m/s
	periodicSaveSeconds = 60.0
)

// ErrTripNotRecording is returned for fixes or finishes on a closed trip.
var ErrTripNotRecording = repository.ErrNotRecording

// LocationFix is one GPS reading sent by the rider's device.
type LocationFix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`
	Speed     float64   `json:"speed"`
	Bearing   float64   `json:"bearing"`
	Altitude  float64   `json:"altitude"`
	Timestamp time.Time `json:"timestamp"`
}

// UnmarshalJSON accepts RFC3339 timestamps with or without a zone suffix;
// zoneless values are read as UTC and a missing timestamp means now.
func (f *LocationFix) UnmarshalJSON(data []byte) error {
	type alias LocationFix
	aux := &struct {
		Timestamp string `json:"timestamp"`
		*alias
	}{alias: (*alias)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	ts := strings.TrimSpace(aux.Timestamp)
	if ts == "" {
		f.Timestamp = time.Now().UTC()
		return nil
	}
	if !hasZone(ts) {
		ts += "Z"
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", aux.Timestamp, err)
	}
	f.Timestamp = t
	return nil
}

func hasZone(ts string) bool {
	if strings.HasSuffix(ts, "Z") {
		return true
	}
	if len(ts) < 6 {
		return false
	}
	return strings.ContainsAny(ts[len(ts)-6:], "+-")
}

func (f LocationFix) validate() error {
	if f.Latitude < -90 || f.Latitude > 90 || f.Longitude < -180 || f.Longitude > 180 {
		return fmt.Errorf("%w: coordinates out of range", repository.ErrInvalid)
	}
	return nil
}

// shouldRecordPoint decides whether a fix is significant enough to keep
// given the last saved point.
func shouldRecordPoint(distance, speed, timeDiff float64, last models.TripPoint) (bool, string) {
	if distance >= minDistanceForSave {
		return true, "move"
	}
	if last.IsMoving && speed < maxSpeedForStopped && timeDiff >= minTimeDiffForSave {
		return true, "stopped"
	}
	if !last.IsMoving && speed >= minSpeedForMoving && timeDiff >= minTimeDiffForSave {
		return true, "started"
	}
	if timeDiff >= periodicSaveSeconds {
		return true, "periodic"
	}
	return false, "insignificant"
}

// Recorder filters incoming fixes, persists the significant ones and
// publishes them to the trip's followers.
type Recorder struct {
	trips repository.TripRepository
	hub   *TripHub
}

func NewRecorder(trips repository.TripRepository, hub *TripHub) *Recorder {
	return &Recorder{trips: trips, hub: hub}
}

// Record returns the stored point and true when the fix was kept.
func (r *Recorder) Record(ctx context.Context, tripID string, fix LocationFix) (models.TripPoint, bool, error) {
	if err := fix.validate(); err != nil {
		return models.TripPoint{}, false, err
	}

	// AppendPoint repeats this check atomically; this one skips the filter
	// work for a trip that is already closed.
	trip, err := r.trips.GetTrip(ctx, tripID)
	if err != nil {
		return models.TripPoint{}, false, err
	}
	if trip.Status != models.TripRecording {
		return models.TripPoint{}, false, ErrTripNotRecording
	}

	speed := math.Max(fix.Speed, 0)
	point := models.TripPoint{
		TripID:    tripID,
		Latitude:  fix.Latitude,
		Longitude: fix.Longitude,
		Accuracy:  fix.Accuracy,
		Speed:     speed,
		Bearing:   fix.Bearing,
		Altitude:  fix.Altitude,
		IsMoving:  speed >= minSpeedForMoving,
		Timestamp: fix.Timestamp,
		EventType: "initial",
	}

	last, err := r.trips.LastPoint(ctx, tripID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return models.TripPoint{}, false, err
	default:
		distance := geo.Distance(last.Latitude, last.Longitude, fix.Latitude, fix.Longitude)
		timeDiff := fix.Timestamp.Sub(last.Timestamp).Seconds()
		if timeDiff < 0 {
			return models.TripPoint{}, false, nil
		}
		significant, eventType := shouldRecordPoint(distance, speed, timeDiff, last)
		if !significant {
			logrus.WithFields(logrus.Fields{
				"trip_id":    tripID,
				"distance_m": fmt.Sprintf("%.2f", distance),
				"speed_mps":  fmt.Sprintf("%.2f", speed),
			}).Debug("Trip fix received - minor movement, not saved.")
			return models.TripPoint{}, false, nil
		}
		point.EventType = eventType
		point.DistanceFromLast = distance
		if distance > 0 {
			point.Bearing = geo.Bearing(last.Latitude, last.Longitude, fix.Latitude, fix.Longitude)
		}
	}

	saved, err := r.trips.AppendPoint(ctx, point)
	if err != nil {
		return models.TripPoint{}, false, err
	}
	if r.hub != nil {
		r.hub.Publish(TripUpdate{TripID: tripID, Point: saved})
	}
	return saved, true, nil
}
