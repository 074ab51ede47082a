// Package geometry normalizes inbound heritage-site geometry. Upstream
// converters (KML, Shapefile) hand over GeoJSON; this package validates it and
// produces the canonical MultiPolygon plus a computed centroid.
package geometry

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// ErrUnsupportedGeometry indicates the payload was valid GeoJSON but not a
// polygonal geometry.
var ErrUnsupportedGeometry = errors.New("geometry must be a Polygon or MultiPolygon")

// ErrInvalidGeometry indicates a malformed or degenerate polygon.
var ErrInvalidGeometry = errors.New("invalid polygon geometry")

// Normalized is a validated multipolygon with its centroid.
type Normalized struct {
	MultiPolygon orb.MultiPolygon
	Centroid     orb.Point
}

// Normalize parses a GeoJSON geometry, promotes single polygons to a
// multipolygon and computes the area-weighted centroid.
func Normalize(raw []byte) (Normalized, error) {
	geom, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return Normalized{}, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}

	var multi orb.MultiPolygon
	switch g := geom.Geometry().(type) {
	case orb.Polygon:
		multi = orb.MultiPolygon{g}
	case orb.MultiPolygon:
		multi = g
	default:
		return Normalized{}, ErrUnsupportedGeometry
	}

	if len(multi) == 0 {
		return Normalized{}, ErrInvalidGeometry
	}
	for _, polygon := range multi {
		if len(polygon) == 0 {
			return Normalized{}, ErrInvalidGeometry
		}
		for _, ring := range polygon {
			if len(ring) < 4 || !ring.Closed() {
				return Normalized{}, ErrInvalidGeometry
			}
		}
	}

	centroid, area := planar.CentroidArea(multi)
	if area == 0 {
		return Normalized{}, ErrInvalidGeometry
	}

	return Normalized{MultiPolygon: multi, Centroid: centroid}, nil
}

// PolygonJSON renders the multipolygon back to a GeoJSON geometry blob.
func (n Normalized) PolygonJSON() (json.RawMessage, error) {
	return json.Marshal(geojson.NewGeometry(n.MultiPolygon))
}

// CentroidJSON renders the centroid as a GeoJSON point blob.
func (n Normalized) CentroidJSON() (json.RawMessage, error) {
	return json.Marshal(geojson.NewGeometry(n.Centroid))
}
