package grouping

import (
	"time"

	"github.com/google/uuid"

	"github.com/gotogether/ride-pooling/internal/geo"
)

// RequestStatus is a ride request's lifecycle state.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestGrouped   RequestStatus = "grouped"
	RequestAccepted  RequestStatus = "accepted"
	RequestRejected  RequestStatus = "rejected"
	RequestCompleted RequestStatus = "completed"
	RequestCancelled RequestStatus = "cancelled"
)

// GroupStatus is a grouped ride's lifecycle state.
type GroupStatus string

const (
	GroupPendingAcceptance GroupStatus = "pending_acceptance"
	GroupConfirmed         GroupStatus = "confirmed"
	GroupInProgress        GroupStatus = "in_progress"
	GroupCompleted         GroupStatus = "completed"
	GroupCancelled         GroupStatus = "cancelled"
)

// Outcome codes returned by AutoGroup.
type Outcome string

const (
	OutcomeAddedToExisting   Outcome = "added_to_existing"
	OutcomeNewTripCreated    Outcome = "new_trip_created"
	OutcomeNoDriverAvailable Outcome = "no_driver_available"
)

// RideRequest is a rider's request to be pooled toward a destination.
type RideRequest struct {
	ID                 uuid.UUID      `json:"id"`
	RequesterID        uuid.UUID      `json:"requester_id"`
	Source             geo.Coordinate `json:"source"`
	SourceAddress      string         `json:"source_address"`
	Destination        geo.Coordinate `json:"destination"`
	DestinationAddress string         `json:"destination_address"`
	IsStationBound     bool           `json:"is_station_bound"`
	RequestedTime      time.Time      `json:"requested_time"`
	PassengerCount     int            `json:"passenger_count"`
	Status             RequestStatus  `json:"status"`
	GroupID            *uuid.UUID     `json:"group_id,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// Group is a pooled ride owning zero or more requests. Requests reference
// the group by id; occupied seats are always recomputed from live member
// statuses, never cached on the row.
type Group struct {
	ID                 uuid.UUID      `json:"id"`
	AssignedDriverID   *uuid.UUID     `json:"assigned_driver_id,omitempty"`
	DestinationAddress string         `json:"destination_address"`
	PickupTime         time.Time      `json:"pickup_time"`
	PickupAddress      string         `json:"pickup_address"`
	PickupLocation     geo.Coordinate `json:"pickup_location"`
	TotalSeats         int            `json:"total_seats"`
	Status             GroupStatus    `json:"status"`
	AutoCreated        bool           `json:"auto_created"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// OpenGroup is a search result from the pooling window query, carrying the
// occupied-seat count as of the query. The count is advisory only; the
// attach transaction recounts under a row lock.
type OpenGroup struct {
	Group
	OccupiedSeats int `json:"occupied_seats"`
}

// HasFreeSeat reports whether the group had room when queried.
func (g *OpenGroup) HasFreeSeat() bool {
	return g.OccupiedSeats < g.TotalSeats
}

// DispatchResult is what AutoGroup hands back to the route layer.
type DispatchResult struct {
	Request *RideRequest `json:"request"`
	Group   *Group       `json:"group,omitempty"`
	Outcome Outcome      `json:"outcome"`
}

// CreateRideRequestPayload is the HTTP payload for a new ride request.
type CreateRideRequestPayload struct {
	SourceLatitude       float64   `json:"source_latitude" validate:"latitude"`
	SourceLongitude      float64   `json:"source_longitude" validate:"longitude"`
	SourceAddress        string    `json:"source_address" validate:"required,min=3,max=500"`
	DestinationLatitude  float64   `json:"destination_latitude" validate:"latitude"`
	DestinationLongitude float64   `json:"destination_longitude" validate:"longitude"`
	DestinationAddress   string    `json:"destination_address" validate:"required,min=3,max=500"`
	IsStationBound       bool      `json:"is_station_bound"`
	RequestedTime        time.Time `json:"requested_time" validate:"required"`
	PassengerCount       int       `json:"passenger_count" validate:"omitempty,gte=1,lte=4"`
}
