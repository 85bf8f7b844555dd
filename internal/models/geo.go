package models

import "math"

// GeoPointType is the only GeoJSON geometry type used by listings.
const GeoPointType = "Point"

// GeoPoint is a GeoJSON point. Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// NewGeoPoint builds a point from longitude and latitude.
func NewGeoPoint(lng, lat float64) GeoPoint {
	return GeoPoint{Type: GeoPointType, Coordinates: []float64{lng, lat}}
}

// InRange reports whether the point has exactly two finite coordinates with
// longitude in [-180, 180] and latitude in [-90, 90].
func (p GeoPoint) InRange() bool {
	if len(p.Coordinates) != 2 {
		return false
	}
	lng, lat := p.Coordinates[0], p.Coordinates[1]
	if math.IsNaN(lng) || math.IsNaN(lat) {
		return false
	}
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}

// Clone returns a deep copy.
func (p GeoPoint) Clone() GeoPoint {
	out := GeoPoint{Type: p.Type}
	if p.Coordinates != nil {
		out.Coordinates = append([]float64(nil), p.Coordinates...)
	}
	return out
}
