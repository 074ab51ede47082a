package geometry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

const squarePolygon = `{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,4],[0,4],[0,0]]]}`

func TestNormalizePromotesPolygon(t *testing.T) {
	normalized, err := Normalize([]byte(squarePolygon))
	require.NoError(t, err)
	require.Len(t, normalized.MultiPolygon, 1)
	require.InDelta(t, 2.0, normalized.Centroid.X(), 1e-9)
	require.InDelta(t, 2.0, normalized.Centroid.Y(), 1e-9)
}

func TestNormalizeAcceptsMultiPolygon(t *testing.T) {
	raw := `{"type":"MultiPolygon","coordinates":[[[[0,0],[2,0],[2,2],[0,2],[0,0]]]]}`
	normalized, err := Normalize([]byte(raw))
	require.NoError(t, err)
	require.Len(t, normalized.MultiPolygon, 1)
}

func TestNormalizeRejectsNonPolygonal(t *testing.T) {
	_, err := Normalize([]byte(`{"type":"Point","coordinates":[1,2]}`))
	require.ErrorIs(t, err, ErrUnsupportedGeometry)
}

func TestNormalizeRejectsMalformed(t *testing.T) {
	_, err := Normalize([]byte(`{"type":"Polygon"`))
	require.ErrorIs(t, err, ErrInvalidGeometry)

	// Open ring.
	_, err = Normalize([]byte(`{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,4]]]}`))
	require.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestPolygonJSONRoundTrip(t *testing.T) {
	normalized, err := Normalize([]byte(squarePolygon))
	require.NoError(t, err)

	blob, err := normalized.PolygonJSON()
	require.NoError(t, err)

	var decoded struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(blob, &decoded))
	require.Equal(t, "MultiPolygon", decoded.Type)
}
