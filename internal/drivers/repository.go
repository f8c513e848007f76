package drivers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gotogether/ride-pooling/pkg/common"
)

// Repository handles driver database operations
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new driver repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const driverColumns = `
	id, name, phone, vehicle_plate, rating,
	is_active, is_verified, availability_status,
	assigned_rides_count, last_assigned_at,
	created_at, updated_at`

func scanDriver(row pgx.Row) (*Driver, error) {
	var d Driver
	err := row.Scan(
		&d.ID, &d.Name, &d.Phone, &d.VehiclePlate, &d.Rating,
		&d.IsActive, &d.IsVerified, &d.AvailabilityStatus,
		&d.AssignedRidesCount, &d.LastAssignedAt,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDriverByID gets a driver by ID
func (r *Repository) GetDriverByID(ctx context.Context, driverID uuid.UUID) (*Driver, error) {
	query := `SELECT` + driverColumns + ` FROM drivers WHERE id = $1`

	d, err := scanDriver(r.db.QueryRow(ctx, query, driverID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("driver not found", err)
		}
		return nil, err
	}
	return d, nil
}

// FindEligibleDrivers returns the driver pool in fairness order.
func (r *Repository) FindEligibleDrivers(ctx context.Context) ([]Driver, error) {
	query := `
		SELECT` + driverColumns + `
		FROM drivers
		WHERE is_active = true
			AND is_verified = true
			AND availability_status = 'available'
		ORDER BY assigned_rides_count ASC, last_assigned_at ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pool []Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		pool = append(pool, *d)
	}
	return pool, rows.Err()
}

// UpdateAvailability sets a driver's availability status.
func (r *Repository) UpdateAvailability(ctx context.Context, driverID uuid.UUID, status AvailabilityStatus) (*Driver, error) {
	query := `
		UPDATE drivers
		SET availability_status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING` + driverColumns

	d, err := scanDriver(r.db.QueryRow(ctx, query, status, driverID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("driver not found", err)
		}
		return nil, err
	}
	return d, nil
}

// ClaimFairestDriver locks and claims the fairest eligible driver inside the
// given transaction. SKIP LOCKED lets concurrent dispatchers claim distinct
// drivers instead of queueing on the same row. Returns nil, nil when the
// pool is empty.
func ClaimFairestDriver(ctx context.Context, tx pgx.Tx) (*Driver, error) {
	selectQuery := `
		SELECT` + driverColumns + `
		FROM drivers
		WHERE is_active = true
			AND is_verified = true
			AND availability_status = 'available'
		ORDER BY assigned_rides_count ASC, last_assigned_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`

	d, err := scanDriver(tx.QueryRow(ctx, selectQuery))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	updateQuery := `
		UPDATE drivers
		SET assigned_rides_count = assigned_rides_count + 1,
			last_assigned_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
		RETURNING assigned_rides_count, last_assigned_at, updated_at
	`
	err = tx.QueryRow(ctx, updateQuery, d.ID).Scan(&d.AssignedRidesCount, &d.LastAssignedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return d, nil
}
