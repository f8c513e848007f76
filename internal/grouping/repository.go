package grouping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gotogether/ride-pooling/internal/drivers"
	"github.com/gotogether/ride-pooling/pkg/common"
)

// Repository handles ride request and group database operations
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new grouping repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const requestColumns = `
	id, requester_id,
	source_latitude, source_longitude, source_address,
	destination_latitude, destination_longitude, destination_address,
	is_station_bound, requested_time, passenger_count,
	status, group_id, created_at, updated_at`

const groupColumns = `
	id, assigned_driver_id, destination_address,
	pickup_time, pickup_address, pickup_latitude, pickup_longitude,
	total_seats, status, auto_created, created_at, updated_at`

func scanRequest(row pgx.Row) (*RideRequest, error) {
	var r RideRequest
	err := row.Scan(
		&r.ID, &r.RequesterID,
		&r.Source.Latitude, &r.Source.Longitude, &r.SourceAddress,
		&r.Destination.Latitude, &r.Destination.Longitude, &r.DestinationAddress,
		&r.IsStationBound, &r.RequestedTime, &r.PassengerCount,
		&r.Status, &r.GroupID, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanGroup(row pgx.Row) (*Group, error) {
	var g Group
	err := row.Scan(
		&g.ID, &g.AssignedDriverID, &g.DestinationAddress,
		&g.PickupTime, &g.PickupAddress, &g.PickupLocation.Latitude, &g.PickupLocation.Longitude,
		&g.TotalSeats, &g.Status, &g.AutoCreated, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// CreateRideRequest inserts a new ride request
func (r *Repository) CreateRideRequest(ctx context.Context, request *RideRequest) error {
	query := `
		INSERT INTO ride_requests (
			id, requester_id,
			source_latitude, source_longitude, source_address,
			destination_latitude, destination_longitude, destination_address,
			is_station_bound, requested_time, passenger_count,
			status, group_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.Exec(ctx, query,
		request.ID, request.RequesterID,
		request.Source.Latitude, request.Source.Longitude, request.SourceAddress,
		request.Destination.Latitude, request.Destination.Longitude, request.DestinationAddress,
		request.IsStationBound, request.RequestedTime, request.PassengerCount,
		request.Status, request.GroupID, request.CreatedAt, request.UpdatedAt,
	)
	return err
}

// GetRideRequestByID gets a ride request by ID
func (r *Repository) GetRideRequestByID(ctx context.Context, requestID uuid.UUID) (*RideRequest, error) {
	query := `SELECT` + requestColumns + ` FROM ride_requests WHERE id = $1`

	req, err := scanRequest(r.db.QueryRow(ctx, query, requestID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("ride request not found", err)
		}
		return nil, err
	}
	return req, nil
}

// CancelRideRequest transitions a pending or grouped request to cancelled.
func (r *Repository) CancelRideRequest(ctx context.Context, requestID, requesterID uuid.UUID) (*RideRequest, error) {
	query := `
		UPDATE ride_requests
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND requester_id = $2 AND status IN ('pending', 'grouped')
		RETURNING` + requestColumns

	req, err := scanRequest(r.db.QueryRow(ctx, query, requestID, requesterID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Distinguish "not yours / missing" from "already terminal".
			existing, getErr := r.GetRideRequestByID(ctx, requestID)
			if getErr != nil {
				return nil, getErr
			}
			if existing.RequesterID != requesterID {
				return nil, common.NewForbiddenError("cannot cancel another rider's request")
			}
			return nil, common.NewInvalidStateError(
				fmt.Sprintf("cannot cancel a request in status %s", existing.Status))
		}
		return nil, err
	}
	return req, nil
}

// GetGroupByID gets a group by ID
func (r *Repository) GetGroupByID(ctx context.Context, groupID uuid.UUID) (*Group, error) {
	query := `SELECT` + groupColumns + ` FROM grouped_rides WHERE id = $1`

	g, err := scanGroup(r.db.QueryRow(ctx, query, groupID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("group not found", err)
		}
		return nil, err
	}
	return g, nil
}

// FindOpenGroups returns groups that could still pool the request: same
// destination by case-insensitive substring match, pickup inside the window,
// status still open. Seat counts are computed live from member requests.
func (r *Repository) FindOpenGroups(ctx context.Context, destinationAddress string, from, to time.Time) ([]OpenGroup, error) {
	query := `
		SELECT` + groupColumns + `,
			(SELECT COUNT(*) FROM ride_requests rr
				WHERE rr.group_id = g.id
					AND rr.status NOT IN ('rejected', 'cancelled')) AS occupied_seats
		FROM grouped_rides g
		WHERE g.destination_address ILIKE '%' || $1 || '%'
			AND g.pickup_time BETWEEN $2 AND $3
			AND g.status IN ('pending_acceptance', 'confirmed')
		ORDER BY g.created_at ASC
	`

	rows, err := r.db.Query(ctx, query, destinationAddress, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []OpenGroup
	for rows.Next() {
		var og OpenGroup
		err := rows.Scan(
			&og.ID, &og.AssignedDriverID, &og.DestinationAddress,
			&og.PickupTime, &og.PickupAddress, &og.PickupLocation.Latitude, &og.PickupLocation.Longitude,
			&og.TotalSeats, &og.Status, &og.AutoCreated, &og.CreatedAt, &og.UpdatedAt,
			&og.OccupiedSeats,
		)
		if err != nil {
			return nil, err
		}
		groups = append(groups, og)
	}
	return groups, rows.Err()
}

// AttachToGroup claims a seat for the request in one transaction: the group
// row is locked, occupied seats are recounted under the lock, and the losing
// side of a last-seat race gets ErrCapacityConflict instead of overbooking.
func (r *Repository) AttachToGroup(ctx context.Context, request *RideRequest, groupID uuid.UUID) (*Group, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	lockQuery := `SELECT` + groupColumns + ` FROM grouped_rides WHERE id = $1 FOR UPDATE`
	group, err := scanGroup(tx.QueryRow(ctx, lockQuery, groupID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("group not found", err)
		}
		return nil, err
	}

	if group.Status != GroupPendingAcceptance && group.Status != GroupConfirmed {
		return nil, common.NewCapacityConflictError("group is no longer accepting members")
	}

	var occupied int
	countQuery := `
		SELECT COUNT(*) FROM ride_requests
		WHERE group_id = $1 AND status NOT IN ('rejected', 'cancelled')
	`
	if err := tx.QueryRow(ctx, countQuery, groupID).Scan(&occupied); err != nil {
		return nil, err
	}
	if occupied >= group.TotalSeats {
		return nil, common.NewCapacityConflictError("no free seats left in group")
	}

	updateQuery := `
		UPDATE ride_requests
		SET group_id = $1, status = 'grouped', updated_at = NOW()
		WHERE id = $2 AND status = 'pending'
	`
	tag, err := tx.Exec(ctx, updateQuery, groupID, request.ID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, common.NewInvalidStateError("ride request is no longer pending")
	}

	if err := createAssignmentNotifications(ctx, tx, request.RequesterID, groupID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	request.GroupID = &groupID
	request.Status = RequestGrouped
	return group, nil
}

// CreateGroupWithDriver claims the fairest driver and builds a new group
// around the originating request, all in one transaction. Returns a nil
// driver when the pool has no eligible driver; nothing is written in that
// case and the request stays pending.
func (r *Repository) CreateGroupWithDriver(ctx context.Context, request *RideRequest, totalSeats int) (*Group, *drivers.Driver, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	driver, err := drivers.ClaimFairestDriver(ctx, tx)
	if err != nil {
		return nil, nil, err
	}
	if driver == nil {
		return nil, nil, nil
	}

	now := time.Now().UTC()
	group := &Group{
		ID:                 uuid.New(),
		AssignedDriverID:   &driver.ID,
		DestinationAddress: request.DestinationAddress,
		PickupTime:         request.RequestedTime,
		PickupAddress:      request.SourceAddress,
		PickupLocation:     request.Source,
		TotalSeats:         totalSeats,
		Status:             GroupPendingAcceptance,
		AutoCreated:        true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	insertQuery := `
		INSERT INTO grouped_rides (
			id, assigned_driver_id, destination_address,
			pickup_time, pickup_address, pickup_latitude, pickup_longitude,
			total_seats, status, auto_created, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = tx.Exec(ctx, insertQuery,
		group.ID, group.AssignedDriverID, group.DestinationAddress,
		group.PickupTime, group.PickupAddress, group.PickupLocation.Latitude, group.PickupLocation.Longitude,
		group.TotalSeats, group.Status, group.AutoCreated, group.CreatedAt, group.UpdatedAt,
	)
	if err != nil {
		return nil, nil, err
	}

	updateQuery := `
		UPDATE ride_requests
		SET group_id = $1, status = 'grouped', updated_at = NOW()
		WHERE id = $2 AND status = 'pending'
	`
	tag, err := tx.Exec(ctx, updateQuery, group.ID, request.ID)
	if err != nil {
		return nil, nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, nil, common.NewInvalidStateError("ride request is no longer pending")
	}

	if err := createAssignmentNotifications(ctx, tx, request.RequesterID, group.ID); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	request.GroupID = &group.ID
	request.Status = RequestGrouped
	return group, driver, nil
}

// createAssignmentNotifications inserts the ride-assignment notification and
// its companion system notification. The existence check keeps the
// one-notification-per-(recipient, group) invariant across retries.
func createAssignmentNotifications(ctx context.Context, tx pgx.Tx, recipientID, groupID uuid.UUID) error {
	var exists bool
	checkQuery := `
		SELECT EXISTS (
			SELECT 1 FROM ride_notifications
			WHERE recipient_id = $1 AND group_id = $2
		)
	`
	if err := tx.QueryRow(ctx, checkQuery, recipientID, groupID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return nil
	}

	insertNotification := `
		INSERT INTO ride_notifications (id, recipient_id, group_id, kind, status, sent_at)
		VALUES ($1, $2, $3, 'ride_assignment', 'pending', NOW())
	`
	if _, err := tx.Exec(ctx, insertNotification, uuid.New(), recipientID, groupID); err != nil {
		return err
	}

	insertSystem := `
		INSERT INTO system_notifications (id, recipient_id, title, message, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`
	_, err := tx.Exec(ctx, insertSystem, uuid.New(), recipientID,
		"Group Chat Available",
		"Your ride has been grouped! You can now chat with other passengers and the driver. Please accept or reject the ride assignment.",
	)
	return err
}
