package matching

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gotogether/ride-pooling/pkg/common"
)

// Repository handles trip database operations
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new trip repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateTrip inserts a driver-offered trip
func (r *Repository) CreateTrip(ctx context.Context, trip *Trip) error {
	query := `
		INSERT INTO trips (
			id, driver_id,
			origin_latitude, origin_longitude, origin_address, origin_geohash,
			destination_latitude, destination_longitude, destination_address, destination_geohash,
			departure_time, total_seats, available_seats, fare_per_person,
			driver_display_name, driver_rating,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.db.Exec(ctx, query,
		trip.ID, trip.DriverID,
		trip.Origin.Latitude, trip.Origin.Longitude, trip.OriginAddress, trip.OriginGeohash,
		trip.Destination.Latitude, trip.Destination.Longitude, trip.DestinationAddress, trip.DestinationGeohash,
		trip.DepartureTime, trip.TotalSeats, trip.AvailableSeats, trip.FarePerPerson,
		trip.DriverDisplayName, trip.DriverRating,
		trip.CreatedAt, trip.UpdatedAt,
	)
	return err
}

// GetTripByID gets a trip by ID
func (r *Repository) GetTripByID(ctx context.Context, tripID uuid.UUID) (*Trip, error) {
	query := `
		SELECT id, driver_id,
			origin_latitude, origin_longitude, origin_address, origin_geohash,
			destination_latitude, destination_longitude, destination_address, destination_geohash,
			departure_time, total_seats, available_seats, fare_per_person,
			driver_display_name, driver_rating,
			created_at, updated_at
		FROM trips
		WHERE id = $1
	`

	var t Trip
	err := r.db.QueryRow(ctx, query, tripID).Scan(
		&t.ID, &t.DriverID,
		&t.Origin.Latitude, &t.Origin.Longitude, &t.OriginAddress, &t.OriginGeohash,
		&t.Destination.Latitude, &t.Destination.Longitude, &t.DestinationAddress, &t.DestinationGeohash,
		&t.DepartureTime, &t.TotalSeats, &t.AvailableSeats, &t.FarePerPerson,
		&t.DriverDisplayName, &t.DriverRating,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("trip not found", err)
		}
		return nil, err
	}

	return &t, nil
}

// FindTripCandidates returns trips whose origin cell is in the given key set
// and whose departure falls inside [from, to]. The geohash filter is only a
// coarse pre-filter; exact distances are checked by the ranker.
func (r *Repository) FindTripCandidates(ctx context.Context, spatialKeys []string, from, to time.Time, limit int) ([]TripCandidate, error) {
	query := `
		SELECT id,
			origin_latitude, origin_longitude,
			destination_latitude, destination_longitude,
			departure_time, available_seats, fare_per_person,
			driver_display_name, driver_rating
		FROM trips
		WHERE origin_geohash = ANY($1)
			AND departure_time BETWEEN $2 AND $3
			AND available_seats > 0
		ORDER BY departure_time ASC
		LIMIT $4
	`

	rows, err := r.db.Query(ctx, query, spatialKeys, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []TripCandidate
	for rows.Next() {
		var c TripCandidate
		err := rows.Scan(
			&c.ID,
			&c.Origin.Latitude, &c.Origin.Longitude,
			&c.Destination.Latitude, &c.Destination.Longitude,
			&c.DepartureTime, &c.AvailableSeats, &c.FarePerPerson,
			&c.DriverDisplayName, &c.DriverRating,
		)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}

	return candidates, rows.Err()
}
