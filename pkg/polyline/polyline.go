// Package polyline implements the encoded polyline format used by Google Maps,
// Mapbox and OSRM for route geometry.
// Format reference: https://developers.google.com/maps/documentation/utilities/polylinealgorithm
package polyline

import (
	"errors"
	"math"
)

// Common precisions.
const (
	// PrecisionGoogle is the 5-decimal precision used by Google and Mapbox.
	PrecisionGoogle = 5
	// PrecisionOSRM is the 6-decimal precision used by OSRM and Valhalla.
	PrecisionOSRM = 6
)

// ErrMalformed is returned when an encoded string ends mid-value.
var ErrMalformed = errors.New("polyline: malformed input")

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Encode encodes coords at PrecisionGoogle.
func Encode(coords []Coordinate) string {
	return EncodePrecision(coords, PrecisionGoogle)
}

// Decode decodes a PrecisionGoogle string.
func Decode(encoded string) ([]Coordinate, error) {
	return DecodePrecision(encoded, PrecisionGoogle)
}

// EncodePrecision encodes coords using the given number of decimal places.
func EncodePrecision(coords []Coordinate, precision int) string {
	if len(coords) == 0 {
		return ""
	}

	factor := math.Pow10(precision)
	buf := make([]byte, 0, len(coords)*8)

	var prevLat, prevLon int64
	for _, c := range coords {
		lat := int64(math.Round(c.Lat * factor))
		lon := int64(math.Round(c.Lon * factor))

		buf = appendSigned(buf, lat-prevLat)
		buf = appendSigned(buf, lon-prevLon)

		prevLat, prevLon = lat, lon
	}

	return string(buf)
}

// DecodePrecision decodes a string produced with the given number of decimal places.
func DecodePrecision(encoded string, precision int) ([]Coordinate, error) {
	if encoded == "" {
		return nil, nil
	}

	factor := math.Pow10(precision)
	coords := make([]Coordinate, 0, len(encoded)/4)

	var lat, lon int64
	for i := 0; i < len(encoded); {
		dLat, next, err := readSigned(encoded, i)
		if err != nil {
			return nil, err
		}
		dLon, next, err := readSigned(encoded, next)
		if err != nil {
			return nil, err
		}
		i = next

		lat += dLat
		lon += dLon
		coords = append(coords, Coordinate{
			Lat: float64(lat) / factor,
			Lon: float64(lon) / factor,
		})
	}

	return coords, nil
}

func appendSigned(buf []byte, v int64) []byte {
	u := uint64(v) << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		buf = append(buf, byte(0x20|(u&0x1f))+63)
		u >>= 5
	}
	return append(buf, byte(u)+63)
}

func readSigned(s string, i int) (int64, int, error) {
	var u uint64
	var shift uint
	for {
		if i >= len(s) {
			return 0, i, ErrMalformed
		}
		b := uint64(s[i]) - 63
		i++
		u |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	v := int64(u >> 1)
	if u&1 != 0 {
		v = ^v
	}
	return v, i, nil
}

// Interpolate returns n+1 evenly spaced points on the straight segment a→b,
// including both ends. n < 1 is treated as 1.
func Interpolate(a, b Coordinate, n int) []Coordinate {
	if n < 1 {
		n = 1
	}
	out := make([]Coordinate, 0, n+1)
	for i := 0; i <= n; i++ {
		f := float64(i) / float64(n)
		out = append(out, Coordinate{
			Lat: a.Lat + (b.Lat-a.Lat)*f,
			Lon: a.Lon + (b.Lon-a.Lon)*f,
		})
	}
	return out
}
