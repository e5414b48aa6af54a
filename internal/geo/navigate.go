package geo

import (
	"errors"
	"math"

	"cycleroute/internal/models"
)

const (
	// OffRouteThresholdM is how far from the path a rider may drift.
	OffRouteThresholdM = 50.0
	// ArrivalRadiusM is how close a rider must be to a waypoint to reach it.
	ArrivalRadiusM = 15.0
)

var ErrNoWaypoints = errors.New("route has no waypoints")

// Guidance describes where a rider is relative to a route.
type Guidance struct {
	NextWaypoint    int     `json:"next_waypoint"`
	NextLabel       string  `json:"next_label"`
	DistanceToNextM float64 `json:"distance_to_next_m"`
	BearingToNext   float64 `json:"bearing_to_next"`
	RemainingM      float64 `json:"remaining_m"`
	OffRouteM       float64 `json:"off_route_m"`
	OffRoute        bool    `json:"off_route"`
	Arrived         bool    `json:"arrived"`
}

// Navigate snaps the position onto the nearest route segment and reports
// progress towards the segment's end waypoint. A rider already within
// ArrivalRadiusM of that waypoint is pointed at the one after it.
func Navigate(waypoints []models.Waypoint, lat, lng float64) (Guidance, error) {
	if len(waypoints) == 0 {
		return Guidance{}, ErrNoWaypoints
	}

	last := len(waypoints) - 1
	next, offRoute := 0, Distance(lat, lng, waypoints[0].Latitude, waypoints[0].Longitude)
	if last > 0 {
		next, offRoute = 1, distanceToSegment(lat, lng, waypoints[0], waypoints[1])
		for i := 2; i <= last; i++ {
			d := distanceToSegment(lat, lng, waypoints[i-1], waypoints[i])
			if d < offRoute {
				next, offRoute = i, d
			}
		}
	}
	for next < last && Distance(lat, lng, waypoints[next].Latitude, waypoints[next].Longitude) <= ArrivalRadiusM {
		next++
	}

	target := waypoints[next]
	g := Guidance{
		NextWaypoint:    next,
		NextLabel:       target.Label,
		DistanceToNextM: Distance(lat, lng, target.Latitude, target.Longitude),
		BearingToNext:   Bearing(lat, lng, target.Latitude, target.Longitude),
		OffRouteM:       offRoute,
		OffRoute:        offRoute > OffRouteThresholdM,
	}
	g.RemainingM = g.DistanceToNextM
	for i := next + 1; i <= last; i++ {
		a, b := waypoints[i-1], waypoints[i]
		g.RemainingM += Distance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
	}

	// Loops end where they start, so only the final segment can arrive.
	g.Arrived = next == last && g.DistanceToNextM <= ArrivalRadiusM
	return g, nil
}

// distanceToSegment projects onto a local equirectangular plane centred on
// the position, which is accurate enough over cycling-scale segments.
func distanceToSegment(lat, lng float64, a, b models.Waypoint) float64 {
	k := math.Cos(toRadians(lat))
	project := func(la, lo float64) (float64, float64) {
		return toRadians(lo-lng) * k * earthRadiusM, toRadians(la-lat) * earthRadiusM
	}
	ax, ay := project(a.Latitude, a.Longitude)
	bx, by := project(b.Latitude, b.Longitude)

	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	t := 0.0
	if lenSq > 0 {
		t = math.Max(0, math.Min(1, -(ax*dx+ay*dy)/lenSq))
	}
	px, py := ax+t*dx, ay+t*dy
	return math.Hypot(px, py)
}
