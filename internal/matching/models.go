package matching

import (
	"time"

	"github.com/google/uuid"

	"github.com/gotogether/ride-pooling/internal/geo"
)

// MatchQuery describes a rider's search for driver-offered trips.
// It is read-only during matching.
type MatchQuery struct {
	Origin              geo.Coordinate
	Destination         geo.Coordinate
	DepartureTime       time.Time
	MaxOriginDistanceKm float64
	MaxDestDistanceKm   float64
	TimeWindowMinutes   int
}

// TripCandidate is a driver-offered trip fetched by the spatial pre-filter.
type TripCandidate struct {
	ID                uuid.UUID      `json:"id"`
	Origin            geo.Coordinate `json:"origin"`
	Destination       geo.Coordinate `json:"destination"`
	DepartureTime     time.Time      `json:"departure_time"`
	AvailableSeats    int            `json:"available_seats"`
	FarePerPerson     float64        `json:"fare_per_person"`
	DriverDisplayName string         `json:"driver_display_name"`
	DriverRating      float64        `json:"driver_rating"`
}

// MatchResult pairs a candidate with its similarity scores. Derived per
// search call, never persisted.
type MatchResult struct {
	Candidate             TripCandidate `json:"candidate"`
	OriginDistanceKm      float64       `json:"origin_distance_km"`
	DestDistanceKm        float64       `json:"dest_distance_km"`
	TimeDifferenceMinutes int           `json:"time_difference_minutes"`
	Score                 float64       `json:"score"`
}

// Trip is a persisted driver-offered trip row.
type Trip struct {
	ID                 uuid.UUID      `json:"id"`
	DriverID           uuid.UUID      `json:"driver_id"`
	Origin             geo.Coordinate `json:"origin"`
	OriginAddress      string         `json:"origin_address"`
	OriginGeohash      string         `json:"origin_geohash"`
	Destination        geo.Coordinate `json:"destination"`
	DestinationAddress string         `json:"destination_address"`
	DestinationGeohash string         `json:"destination_geohash"`
	DepartureTime      time.Time      `json:"departure_time"`
	TotalSeats         int            `json:"total_seats"`
	AvailableSeats     int            `json:"available_seats"`
	FarePerPerson      float64        `json:"fare_per_person"`
	DriverDisplayName  string         `json:"driver_display_name"`
	DriverRating       float64        `json:"driver_rating"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// SearchRequest is the HTTP payload for trip search.
type SearchRequest struct {
	OriginLatitude       float64   `json:"origin_latitude" validate:"latitude"`
	OriginLongitude      float64   `json:"origin_longitude" validate:"longitude"`
	DestinationLatitude  float64   `json:"destination_latitude" validate:"latitude"`
	DestinationLongitude float64   `json:"destination_longitude" validate:"longitude"`
	DepartureTime        time.Time `json:"departure_time" validate:"required"`
	MaxOriginDistanceKm  float64   `json:"max_origin_distance_km" validate:"omitempty,gt=0"`
	MaxDestDistanceKm    float64   `json:"max_dest_distance_km" validate:"omitempty,gt=0"`
	TimeWindowMinutes    int       `json:"time_window_minutes" validate:"omitempty,gte=1"`
}

// CreateTripRequest is the HTTP payload for a driver offering a trip.
type CreateTripRequest struct {
	OriginLatitude       float64   `json:"origin_latitude" validate:"latitude"`
	OriginLongitude      float64   `json:"origin_longitude" validate:"longitude"`
	OriginAddress        string    `json:"origin_address" validate:"required,min=3,max=500"`
	DestinationLatitude  float64   `json:"destination_latitude" validate:"latitude"`
	DestinationLongitude float64   `json:"destination_longitude" validate:"longitude"`
	DestinationAddress   string    `json:"destination_address" validate:"required,min=3,max=500"`
	DepartureTime        time.Time `json:"departure_time" validate:"required"`
	TotalSeats           int       `json:"total_seats" validate:"required,gte=1,lte=8"`
	FarePerPerson        float64   `json:"fare_per_person" validate:"gte=0"`
	DriverDisplayName    string    `json:"driver_display_name" validate:"required,min=1,max=100"`
	DriverRating         float64   `json:"driver_rating" validate:"gte=0,lte=5"`
}
