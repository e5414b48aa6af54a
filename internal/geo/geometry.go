package geo

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"

	"cycleroute/internal/models"
)

// LineString builds an XYZ line (lng, lat, elevation) from waypoints.
func LineString(waypoints []models.Waypoint) (*geom.LineString, error) {
	coords := make([]geom.Coord, 0, len(waypoints))
	for _, w := range waypoints {
		coords = append(coords, geom.Coord{w.Longitude, w.Latitude, w.ElevationM})
	}
	return geom.NewLineString(geom.XYZ).SetCoords(coords)
}

// EncodeWKB returns the little-endian WKB of the waypoint path, or nil when
// there are fewer than two waypoints.
func EncodeWKB(waypoints []models.Waypoint) ([]byte, error) {
	if len(waypoints) < 2 {
		return nil, nil
	}
	ls, err := LineString(waypoints)
	if err != nil {
		return nil, err
	}
	return wkb.Marshal(ls, binary.LittleEndian)
}

// WKBToGeoJSON converts stored WKB bytes into a GeoJSON geometry string.
func WKBToGeoJSON(wkbBytes []byte) (string, error) {
	if len(wkbBytes) == 0 {
		return "", nil
	}
	g, err := wkb.Unmarshal(wkbBytes)
	if err != nil {
		return "", err
	}
	b, err := gjson.Marshal(g)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WaypointsFromGeoJSON parses a GeoJSON LineString into unlabeled waypoints.
// A third coordinate, when present, is taken as elevation.
func WaypointsFromGeoJSON(raw string) ([]models.Waypoint, error) {
	var g geom.T
	if err := gjson.Unmarshal([]byte(raw), &g); err != nil {
		return nil, err
	}
	ls, ok := g.(*geom.LineString)
	if !ok {
		return nil, fmt.Errorf("expected LineString, got %T", g)
	}
	if ls.NumCoords() < 2 {
		return nil, errors.New("line string needs at least two coordinates")
	}
	zIndex := ls.Layout().ZIndex()
	out := make([]models.Waypoint, 0, ls.NumCoords())
	for i, c := range ls.Coords() {
		w := models.Waypoint{Seq: i, Longitude: c.X(), Latitude: c.Y()}
		if zIndex >= 0 {
			w.ElevationM = c[zIndex]
		}
		out = append(out, w)
	}
	return out, nil
}
