package drivers

import (
	"time"

	"github.com/google/uuid"
)

// AvailabilityStatus is a driver's dispatch availability.
type AvailabilityStatus string

const (
	AvailabilityAvailable   AvailabilityStatus = "available"
	AvailabilityUnavailable AvailabilityStatus = "unavailable"
	AvailabilityOnTrip      AvailabilityStatus = "on_trip"
)

// Valid reports whether the status is a known availability value.
func (s AvailabilityStatus) Valid() bool {
	switch s {
	case AvailabilityAvailable, AvailabilityUnavailable, AvailabilityOnTrip:
		return true
	}
	return false
}

// Driver is a member of the shared driver pool.
type Driver struct {
	ID                 uuid.UUID          `json:"id"`
	Name               string             `json:"name"`
	Phone              string             `json:"phone"`
	VehiclePlate       string             `json:"vehicle_plate"`
	Rating             float64            `json:"rating"`
	IsActive           bool               `json:"is_active"`
	IsVerified         bool               `json:"is_verified"`
	AvailabilityStatus AvailabilityStatus `json:"availability_status"`
	AssignedRidesCount int                `json:"assigned_rides_count"`
	LastAssignedAt     time.Time          `json:"last_assigned_at"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// Eligible reports whether the driver can be handed a new group.
func (d *Driver) Eligible() bool {
	return d.IsActive && d.IsVerified && d.AvailabilityStatus == AvailabilityAvailable
}

// UpdateAvailabilityRequest is the HTTP payload for an availability change.
type UpdateAvailabilityRequest struct {
	AvailabilityStatus string `json:"availability_status" validate:"required,oneof=available unavailable on_trip"`
}
