package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Difficulty grades how demanding a route is for an average rider.
type Difficulty string

const (
	DifficultyEasy     Difficulty = "easy"
	DifficultyModerate Difficulty = "moderate"
	DifficultyHard     Difficulty = "hard"
	DifficultyExpert   Difficulty = "expert"
)

// ParseDifficulty normalizes raw input; blank input means easy.
func ParseDifficulty(raw string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(raw)))
	if d == "" {
		return DifficultyEasy, nil
	}
	if !d.Valid() {
		return "", fmt.Errorf("unknown difficulty %q", raw)
	}
	return d, nil
}

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyModerate, DifficultyHard, DifficultyExpert:
		return true
	}
	return false
}

// Route is a named cycling path made of ordered waypoints.
// Geometry mirrors the waypoints as a WKB LineStringZ (lng, lat, elevation).
type Route struct {
	ID        string         `json:"id" gorm:"type:varchar(36);primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Name              string     `json:"name" gorm:"not null"`
	Description       string     `json:"description"`
	DistanceKm        float64    `json:"distance_km"`
	ElevationGainM    float64    `json:"elevation_gain_m"`
	EstimatedDuration int        `json:"estimated_duration_min"` // minutes
	Difficulty        Difficulty `json:"difficulty" gorm:"type:varchar(16);index"`

	Geometry []byte `json:"-" gorm:"type:bytea"`

	Waypoints []Waypoint `json:"waypoints" gorm:"foreignKey:RouteID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// Validate checks the invariants a route must hold before it is stored.
func (r *Route) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name must not be blank")
	}
	if !r.Difficulty.Valid() {
		return fmt.Errorf("unknown difficulty %q", r.Difficulty)
	}
	if r.DistanceKm < 0 || r.ElevationGainM < 0 || r.EstimatedDuration < 0 {
		return errors.New("distance, elevation gain and duration must not be negative")
	}
	for i, w := range r.Waypoints {
		if err := w.Validate(); err != nil {
			return fmt.Errorf("waypoint %d: %w", i, err)
		}
	}
	return nil
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (r Route) Clone() Route {
	out := r
	if r.Waypoints != nil {
		out.Waypoints = make([]Waypoint, len(r.Waypoints))
		copy(out.Waypoints, r.Waypoints)
	}
	if r.Geometry != nil {
		out.Geometry = append([]byte(nil), r.Geometry...)
	}
	return out
}
