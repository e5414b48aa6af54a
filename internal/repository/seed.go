package repository

import "cycleroute/internal/models"

// SeedRoutes returns the sample routes the in-memory store starts with.
func SeedRoutes() []models.Route {
	return []models.Route{
		{
			Name:              "City Park Loop",
			Description:       "A flat, family-friendly loop around the park lakes.",
			DistanceKm:        5.2,
			ElevationGainM:    35,
			EstimatedDuration: 22,
			Difficulty:        models.DifficultyEasy,
			Waypoints: []models.Waypoint{
				{Latitude: 40.7812, Longitude: -73.9665, ElevationM: 30, Label: "Main Gate"},
				{Latitude: 40.7851, Longitude: -73.9683, ElevationM: 38, Label: "Boathouse"},
				{Latitude: 40.7829, Longitude: -73.9590, ElevationM: 42, Label: "Reservoir"},
				{Latitude: 40.7812, Longitude: -73.9665, ElevationM: 30, Label: "Main Gate"},
			},
		},
		{
			Name:              "River Trail",
			Description:       "Riverside path with a couple of short climbs to the bridges.",
			DistanceKm:        12.8,
			ElevationGainM:    80,
			EstimatedDuration: 45,
			Difficulty:        models.DifficultyModerate,
			Waypoints: []models.Waypoint{
				{Latitude: 40.7295, Longitude: -74.0110, ElevationM: 3, Label: "Pier 40"},
				{Latitude: 40.7681, Longitude: -73.9935, ElevationM: 8, Label: "Pier 84"},
				{Latitude: 40.8003, Longitude: -73.9712, ElevationM: 25, Label: "Riverside Park"},
			},
		},
		{
			Name:              "Hill Climb Challenge",
			Description:       "Sustained climbing with steep ramps near the summit.",
			DistanceKm:        18.5,
			ElevationGainM:    620,
			EstimatedDuration: 95,
			Difficulty:        models.DifficultyHard,
			Waypoints: []models.Waypoint{
				{Latitude: 41.0120, Longitude: -74.2050, ElevationM: 90, Label: "Trailhead"},
				{Latitude: 41.0355, Longitude: -74.2201, ElevationM: 380, Label: "Switchbacks"},
				{Latitude: 41.0502, Longitude: -74.2388, ElevationM: 640, Label: "Summit"},
			},
		},
	}
}
