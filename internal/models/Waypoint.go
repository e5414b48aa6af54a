package models

import "errors"

// Waypoint is a point along a route. Seq gives its position.
type Waypoint struct {
	ID         uint    `json:"-" gorm:"primaryKey"`
	RouteID    string  `json:"-" gorm:"type:varchar(36);index"`
	Seq        int     `json:"seq"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	ElevationM float64 `json:"elevation_m"`
	Label      string  `json:"label"`
}

func (w Waypoint) Validate() error {
	if w.Latitude < -90 || w.Latitude > 90 {
		return errors.New("latitude out of range")
	}
	if w.Longitude < -180 || w.Longitude > 180 {
		return errors.New("longitude out of range")
	}
	return nil
}
