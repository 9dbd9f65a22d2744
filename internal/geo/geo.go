package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

const earthRadiusMeters = 6371000.0

// ErrInvalidCoordinate is returned by Validate for non-finite or out-of-range values.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

var validate = validator.New()

// Coordinate is a WGS84 latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"min=-180,max=180"`
}

// Validate reports whether both components are finite and inside their ranges.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) ||
		math.IsInf(c.Latitude, 0) || math.IsInf(c.Longitude, 0) {
		return fmt.Errorf("%w: non-finite value (%v, %v)", ErrInvalidCoordinate, c.Latitude, c.Longitude)
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCoordinate, err)
	}
	return nil
}

// Valid is Validate without the error detail.
func (c Coordinate) Valid() bool {
	return c.Validate() == nil
}

// DistanceTo returns the great-circle distance to other in meters.
func (c Coordinate) DistanceTo(other Coordinate) float64 {
	return DistanceMeters(c.Latitude, c.Longitude, other.Latitude, other.Longitude)
}

// DistanceMeters computes the haversine distance between two points in meters.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0

	lat1Rad := lat1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// RoundHalfUp rounds half-way values towards positive infinity, so -0.5 becomes 0.
func RoundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// GridCell returns the coordinate snapped to a ~111m grid (3 decimal places).
func (c Coordinate) GridCell() (int64, int64) {
	return int64(RoundHalfUp(c.Latitude * 1000)), int64(RoundHalfUp(c.Longitude * 1000))
}

// BBox is a south/west/north/east bounding box.
type BBox struct {
	South, West, North, East float64
}

// BoundingBox returns a box extending delta degrees around c in every direction.
func BoundingBox(c Coordinate, delta float64) BBox {
	return BBox{
		South: c.Latitude - delta,
		West:  c.Longitude - delta,
		North: c.Latitude + delta,
		East:  c.Longitude + delta,
	}
}

// String formats the box in Overpass QL order (south,west,north,east).
func (b BBox) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.South, b.West, b.North, b.East)
}
