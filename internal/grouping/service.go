package grouping

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gotogether/ride-pooling/internal/geo"
	"github.com/gotogether/ride-pooling/pkg/common"
	"github.com/gotogether/ride-pooling/pkg/config"
	"github.com/gotogether/ride-pooling/pkg/eventbus"
	"github.com/gotogether/ride-pooling/pkg/logger"
)

// Service runs the auto-grouping dispatch flow.
type Service struct {
	store Store
	bus   *eventbus.Bus
	cfg   config.GroupingConfig
}

// NewService creates a new grouping service. The bus may be nil; events are
// then skipped.
func NewService(store Store, bus *eventbus.Bus, cfg config.GroupingConfig) *Service {
	return &Service{store: store, bus: bus, cfg: cfg}
}

// CreateRideRequest persists a new pending ride request for the actor.
func (s *Service) CreateRideRequest(ctx context.Context, requesterID uuid.UUID, payload *CreateRideRequestPayload) (*RideRequest, error) {
	source, err := geo.NewCoordinate(payload.SourceLatitude, payload.SourceLongitude)
	if err != nil {
		return nil, err
	}
	destination, err := geo.NewCoordinate(payload.DestinationLatitude, payload.DestinationLongitude)
	if err != nil {
		return nil, err
	}

	passengers := payload.PassengerCount
	if passengers == 0 {
		passengers = 1
	}

	now := time.Now().UTC()
	request := &RideRequest{
		ID:                 uuid.New(),
		RequesterID:        requesterID,
		Source:             source,
		SourceAddress:      payload.SourceAddress,
		Destination:        destination,
		DestinationAddress: payload.DestinationAddress,
		IsStationBound:     payload.IsStationBound,
		RequestedTime:      payload.RequestedTime,
		PassengerCount:     passengers,
		Status:             RequestPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.store.CreateRideRequest(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// AutoGroup dispatches a pending request: first try to pool it into an
// existing open group toward the same destination, otherwise claim a driver
// and open a new group. A lost seat race retries the search a bounded number
// of times before falling through to group creation.
func (s *Service) AutoGroup(ctx context.Context, request *RideRequest) (*Group, Outcome, error) {
	window := time.Duration(s.cfg.PoolingWindowHours) * time.Hour
	from := request.RequestedTime.Add(-window)
	to := request.RequestedTime.Add(window)

	attempts := s.cfg.AttachMaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		groups, err := s.store.FindOpenGroups(ctx, request.DestinationAddress, from, to)
		if err != nil {
			return nil, "", err
		}

		var target *OpenGroup
		for i := range groups {
			if groups[i].HasFreeSeat() {
				target = &groups[i]
				break
			}
		}
		if target == nil {
			break
		}

		group, err := s.store.AttachToGroup(ctx, request, target.ID)
		if err != nil {
			if errors.Is(err, common.ErrCapacityConflict) {
				logger.WarnContext(ctx, "lost seat race, retrying group search",
					zap.String("request_id", request.ID.String()),
					zap.String("group_id", target.ID.String()),
					zap.Int("attempt", attempt+1))
				continue
			}
			return nil, "", err
		}

		s.publishGroupEvent(ctx, "groups.member_added", group, request)
		return group, OutcomeAddedToExisting, nil
	}

	group, driver, err := s.store.CreateGroupWithDriver(ctx, request, s.cfg.DefaultGroupSeats)
	if err != nil {
		return nil, "", err
	}
	if driver == nil {
		logger.WarnContext(ctx, "no eligible driver, request stays pending",
			zap.String("request_id", request.ID.String()))
		return nil, OutcomeNoDriverAvailable, nil
	}

	logger.InfoContext(ctx, "created group for request",
		zap.String("request_id", request.ID.String()),
		zap.String("group_id", group.ID.String()),
		zap.String("driver_id", driver.ID.String()))

	s.publishGroupEvent(ctx, "groups.created", group, request)
	return group, OutcomeNewTripCreated, nil
}

// Dispatch creates the request and, when it is station bound, immediately
// runs auto grouping over it.
func (s *Service) Dispatch(ctx context.Context, requesterID uuid.UUID, payload *CreateRideRequestPayload) (*DispatchResult, error) {
	request, err := s.CreateRideRequest(ctx, requesterID, payload)
	if err != nil {
		return nil, err
	}

	if !request.IsStationBound {
		return &DispatchResult{Request: request}, nil
	}

	group, outcome, err := s.AutoGroup(ctx, request)
	if err != nil {
		return nil, err
	}
	return &DispatchResult{Request: request, Group: group, Outcome: outcome}, nil
}

// GetRideRequest returns a request visible to the actor. Riders can only see
// their own requests.
func (s *Service) GetRideRequest(ctx context.Context, requestID, requesterID uuid.UUID, isPrivileged bool) (*RideRequest, error) {
	request, err := s.store.GetRideRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !isPrivileged && request.RequesterID != requesterID {
		return nil, common.NewForbiddenError("cannot view another rider's request")
	}
	return request, nil
}

// CancelRideRequest cancels the actor's own pending or grouped request.
func (s *Service) CancelRideRequest(ctx context.Context, requestID, requesterID uuid.UUID) (*RideRequest, error) {
	request, err := s.store.CancelRideRequest(ctx, requestID, requesterID)
	if err != nil {
		return nil, err
	}

	if request.GroupID != nil {
		s.publishRequestEvent(ctx, "requests.cancelled", request)
	}
	return request, nil
}

// GetGroup returns a group by id.
func (s *Service) GetGroup(ctx context.Context, groupID uuid.UUID) (*Group, error) {
	return s.store.GetGroupByID(ctx, groupID)
}

type groupEventPayload struct {
	GroupID     uuid.UUID `json:"group_id"`
	RequestID   uuid.UUID `json:"request_id"`
	RequesterID uuid.UUID `json:"requester_id"`
	Destination string    `json:"destination"`
	PickupTime  time.Time `json:"pickup_time"`
}

func (s *Service) publishGroupEvent(ctx context.Context, subject string, group *Group, request *RideRequest) {
	if s.bus == nil {
		return
	}

	event, err := eventbus.NewEvent(subject, "grouping", groupEventPayload{
		GroupID:     group.ID,
		RequestID:   request.ID,
		RequesterID: request.RequesterID,
		Destination: group.DestinationAddress,
		PickupTime:  group.PickupTime,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to encode group event", zap.Error(err))
		return
	}

	if err := s.bus.Publish(ctx, subject, event); err != nil {
		// Dispatch already committed; the event is best effort.
		logger.ErrorContext(ctx, "failed to publish group event",
			zap.String("subject", subject),
			zap.String("group_id", group.ID.String()),
			zap.Error(err))
	}
}

type requestEventPayload struct {
	RequestID   uuid.UUID  `json:"request_id"`
	RequesterID uuid.UUID  `json:"requester_id"`
	GroupID     *uuid.UUID `json:"group_id,omitempty"`
	Status      string     `json:"status"`
}

func (s *Service) publishRequestEvent(ctx context.Context, subject string, request *RideRequest) {
	if s.bus == nil {
		return
	}

	event, err := eventbus.NewEvent(subject, "grouping", requestEventPayload{
		RequestID:   request.ID,
		RequesterID: request.RequesterID,
		GroupID:     request.GroupID,
		Status:      string(request.Status),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to encode request event", zap.Error(err))
		return
	}

	if err := s.bus.Publish(ctx, subject, event); err != nil {
		logger.ErrorContext(ctx, "failed to publish request event",
			zap.String("subject", subject),
			zap.String("request_id", request.ID.String()),
			zap.Error(err))
	}
}
