// Package geo provides geographic primitives shared by the GreenRoute services.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// Validation errors.
var (
	ErrInvalidLatitude    = errors.New("latitude out of range [-90, 90]")
	ErrInvalidLongitude   = errors.New("longitude out of range [-180, 180]")
	ErrInvalidBoundingBox = errors.New("bbox must have 4 coordinates: minLon,minLat,maxLon,maxLat")
)

// Point is a WGS-84 coordinate in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Validate checks that the point lies within the valid latitude/longitude ranges.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: %f", ErrInvalidLatitude, p.Lat)
	}
	if math.IsNaN(p.Lon) || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: %f", ErrInvalidLongitude, p.Lon)
	}
	return nil
}

// Haversine returns the great-circle distance between a and b in kilometers.
// Inputs are not validated.
func Haversine(a, b Point) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)

	h := sinDLat*sinDLat +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*sinDLon*sinDLon

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// BoundingBox is a lon/lat rectangle, in the order used by map clients.
type BoundingBox struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// ParseBoundingBox parses "minLon,minLat,maxLon,maxLat". Values must be finite
// and each min must not exceed its max.
func ParseBoundingBox(s string) (BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BoundingBox{}, ErrInvalidBoundingBox
	}

	var values [4]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return BoundingBox{}, fmt.Errorf("%w: %q is not a number", ErrInvalidBoundingBox, part)
		}
		values[i] = v
	}

	box := BoundingBox{
		MinLon: values[0],
		MinLat: values[1],
		MaxLon: values[2],
		MaxLat: values[3],
	}
	if box.MinLon > box.MaxLon || box.MinLat > box.MaxLat {
		return BoundingBox{}, fmt.Errorf("%w: min must not exceed max", ErrInvalidBoundingBox)
	}
	return box, nil
}

// Contains reports whether p is inside the box. Edges are inclusive.
func (b BoundingBox) Contains(p Point) bool {
	return p.Lon >= b.MinLon && p.Lon <= b.MaxLon &&
		p.Lat >= b.MinLat && p.Lat <= b.MaxLat
}

// Center returns the center point of the box.
func (b BoundingBox) Center() Point {
	return Point{
		Lat: (b.MinLat + b.MaxLat) / 2,
		Lon: (b.MinLon + b.MaxLon) / 2,
	}
}

// Slice returns the box as [minLon, minLat, maxLon, maxLat].
func (b BoundingBox) Slice() []float64 {
	return []float64{b.MinLon, b.MinLat, b.MaxLon, b.MaxLat}
}
