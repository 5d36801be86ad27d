package domain

import "errors"

var (
	ErrLongitudeRange = errors.New("longitude out of range")
	ErrLatitudeRange  = errors.New("latitude out of range")
)

// GeoPoint is a GeoJSON Point, longitude first. The shape is kept verbatim so
// the 2dsphere index on pins can consume it directly.
type GeoPoint struct {
	Type        string     `bson:"type" json:"type"`
	Coordinates [2]float64 `bson:"coordinates" json:"coordinates"`
}

func NewGeoPoint(longitude, latitude float64) (GeoPoint, error) {
	if longitude < -180 || longitude > 180 {
		return GeoPoint{}, ErrLongitudeRange
	}
	if latitude < -90 || latitude > 90 {
		return GeoPoint{}, ErrLatitudeRange
	}
	return GeoPoint{Type: "Point", Coordinates: [2]float64{longitude, latitude}}, nil
}

func (p GeoPoint) Longitude() float64 { return p.Coordinates[0] }
func (p GeoPoint) Latitude() float64  { return p.Coordinates[1] }

// Centroid is the arithmetic mean of a room's pin coordinates, used as the
// optimal-meeting-point heuristic.
type Centroid struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Type      string  `json:"type"`
}
