package grouping

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gotogether/ride-pooling/internal/drivers"
)

// Store is the persistence contract the dispatcher runs against.
type Store interface {
	CreateRideRequest(ctx context.Context, request *RideRequest) error
	GetRideRequestByID(ctx context.Context, requestID uuid.UUID) (*RideRequest, error)
	CancelRideRequest(ctx context.Context, requestID, requesterID uuid.UUID) (*RideRequest, error)
	GetGroupByID(ctx context.Context, groupID uuid.UUID) (*Group, error)

	// FindOpenGroups returns pooling candidates: destination matched by
	// case-insensitive substring, pickup time inside [from, to], status
	// pending_acceptance or confirmed, in creation order.
	FindOpenGroups(ctx context.Context, destinationAddress string, from, to time.Time) ([]OpenGroup, error)

	// AttachToGroup atomically claims a seat for the request. Returns
	// common.ErrCapacityConflict (wrapped) when the group filled up or
	// closed between search and attach.
	AttachToGroup(ctx context.Context, request *RideRequest, groupID uuid.UUID) (*Group, error)

	// CreateGroupWithDriver claims the fairest available driver and creates
	// a new group around the request in one transaction. A nil driver with
	// nil error means the pool is empty.
	CreateGroupWithDriver(ctx context.Context, request *RideRequest, totalSeats int) (*Group, *drivers.Driver, error)
}
