package geo

import (
	"fmt"

	"github.com/gotogether/ride-pooling/pkg/common"
)

// Coordinate is a point on the Earth's surface in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewCoordinate validates the ranges and returns a Coordinate. The negated
// comparisons also reject NaN, which fails every ordering check.
func NewCoordinate(latitude, longitude float64) (Coordinate, error) {
	if !(latitude >= -90 && latitude <= 90) {
		return Coordinate{}, common.NewValidationError(
			fmt.Sprintf("invalid latitude: %f, must be between -90 and 90", latitude))
	}
	if !(longitude >= -180 && longitude <= 180) {
		return Coordinate{}, common.NewValidationError(
			fmt.Sprintf("invalid longitude: %f, must be between -180 and 180", longitude))
	}
	return Coordinate{Latitude: latitude, Longitude: longitude}, nil
}
