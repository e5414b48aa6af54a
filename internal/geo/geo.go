// Package geo holds the distance, bearing and route-metric math shared by
// route planning, navigation and trip recording.
package geo

import (
	"math"

	"cycleroute/internal/models"
)

const earthRadiusM = 6371000.0

// Distance returns the great-circle distance between two points in metres.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusM * c
}

// Bearing returns the initial bearing from the first point to the second,
// in degrees within [0, 360).
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	deltaLon := toRadians(lon2 - lon1)

	y := math.Sin(deltaLon) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) -
		math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(deltaLon)

	return math.Mod(toDegrees(math.Atan2(y, x))+360, 360)
}

// Metrics sums the length of the waypoint path (km) and its positive
// elevation change (m). Descents do not reduce the gain.
func Metrics(waypoints []models.Waypoint) (distanceKm, elevationGainM float64) {
	for i := 1; i < len(waypoints); i++ {
		prev, cur := waypoints[i-1], waypoints[i]
		distanceKm += Distance(prev.Latitude, prev.Longitude, cur.Latitude, cur.Longitude) / 1000
		if climb := cur.ElevationM - prev.ElevationM; climb > 0 {
			elevationGainM += climb
		}
	}
	return distanceKm, elevationGainM
}

// averageSpeedKmh is the flat-ground pace assumed for each difficulty.
var averageSpeedKmh = map[models.Difficulty]float64{
	models.DifficultyEasy:     15,
	models.DifficultyModerate: 18,
	models.DifficultyHard:     20,
	models.DifficultyExpert:   22,
}

// EstimateDuration returns the riding time in whole minutes: distance at the
// difficulty's average pace plus one minute for every 10 m climbed.
func EstimateDuration(distanceKm, elevationGainM float64, d models.Difficulty) int {
	speed, ok := averageSpeedKmh[d]
	if !ok {
		speed = averageSpeedKmh[models.DifficultyEasy]
	}
	minutes := distanceKm/speed*60 + elevationGainM/10
	return int(math.Round(minutes))
}

// FillMetrics derives any zero-valued distance, elevation gain or duration
// from the route's waypoints.
func FillMetrics(r *models.Route) {
	if len(r.Waypoints) >= 2 {
		dist, gain := Metrics(r.Waypoints)
		if r.DistanceKm == 0 {
			r.DistanceKm = round(dist, 2)
		}
		if r.ElevationGainM == 0 {
			r.ElevationGainM = round(gain, 1)
		}
	}
	if r.EstimatedDuration == 0 && r.DistanceKm > 0 {
		r.EstimatedDuration = EstimateDuration(r.DistanceKm, r.ElevationGainM, r.Difficulty)
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// TripTotals summarises recorded points: distance in km, climbing in m and
// the seconds spent moving.
func TripTotals(points []models.TripPoint) (distanceKm, elevationGainM, movingSeconds float64) {
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		distanceKm += cur.DistanceFromLast / 1000
		if climb := cur.Altitude - prev.Altitude; climb > 0 {
			elevationGainM += climb
		}
		if prev.IsMoving {
			if dt := cur.Timestamp.Sub(prev.Timestamp).Seconds(); dt > 0 {
				movingSeconds += dt
			}
		}
	}
	return distanceKm, elevationGainM, movingSeconds
}
