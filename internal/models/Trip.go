package models

import (
	"time"
)

type TripStatus string

const (
	TripRecording TripStatus = "recording"
	TripFinished  TripStatus = "finished"
)

// Trip is a ride recorded by a rider, optionally following a stored route.
type Trip struct {
	ID         string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	RiderID    uint       `json:"rider_id" gorm:"index"`
	RouteID    string     `json:"route_id,omitempty" gorm:"type:varchar(36)"`
	Status     TripStatus `json:"status" gorm:"type:varchar(16)"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	DistanceKm     float64 `json:"distance_km"`
	ElevationGainM float64 `json:"elevation_gain_m"`
	MovingSeconds  float64 `json:"moving_seconds"`

	Points []TripPoint `json:"points,omitempty" gorm:"foreignKey:TripID;constraint:OnDelete:CASCADE;"`
}

// TripPoint is a single GPS fix kept for a trip.
type TripPoint struct {
	ID               uint      `json:"sequence_id" gorm:"primaryKey"`
	TripID           string    `json:"trip_id" gorm:"type:varchar(36);index"`
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	Accuracy         float64   `json:"accuracy"` // metres
	Speed            float64   `json:"speed"`    // m/s
	Bearing          float64   `json:"bearing"`  // degrees
	Altitude         float64   `json:"altitude"` // metres
	IsMoving         bool      `json:"is_moving"`
	DistanceFromLast float64   `json:"distance_from_last"` // metres
	Timestamp        time.Time `json:"timestamp"`
	EventType        string    `json:"event_type"` // "initial", "move", "stopped", "started", "periodic"
}
