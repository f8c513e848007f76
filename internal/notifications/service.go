package notifications

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gotogether/ride-pooling/pkg/common"
	"github.com/gotogether/ride-pooling/pkg/eventbus"
	"github.com/gotogether/ride-pooling/pkg/logger"
)

// Service runs the accept/reject flow over ride assignment notifications.
type Service struct {
	store Store
	bus   *eventbus.Bus
}

// NewService creates a new notifications service. The bus may be nil.
func NewService(store Store, bus *eventbus.Bus) *Service {
	return &Service{store: store, bus: bus}
}

// Inbox returns both notification feeds for the recipient.
func (s *Service) Inbox(ctx context.Context, recipientID uuid.UUID) (*Inbox, error) {
	ride, err := s.store.ListByRecipient(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	system, err := s.store.ListSystemByRecipient(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	return &Inbox{RideNotifications: ride, SystemNotifications: system}, nil
}

// Accept responds positively to a ride assignment. Only the recipient of a
// pending notification may accept it.
func (s *Service) Accept(ctx context.Context, notificationID, actorID uuid.UUID) (*RespondResult, error) {
	notification, err := s.store.GetNotificationByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if notification.RecipientID != actorID {
		return nil, common.NewForbiddenError("cannot respond to another rider's notification")
	}
	if !notification.Pending() {
		return nil, common.NewInvalidStateError("notification has already been responded to")
	}

	result, err := s.store.Accept(ctx, notificationID)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, "notifications.responded", result.Notification)
	if result.GroupConfirmed {
		logger.InfoContext(ctx, "group confirmed, all members accepted",
			zap.String("group_id", notification.GroupID.String()))
		s.publishEvent(ctx, "groups.confirmed", result.Notification)
	}
	return result, nil
}

// Reject declines a ride assignment. The rider's request leaves the group
// and the freed seat becomes available to later dispatches.
func (s *Service) Reject(ctx context.Context, notificationID, actorID uuid.UUID) (*Notification, error) {
	notification, err := s.store.GetNotificationByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if notification.RecipientID != actorID {
		return nil, common.NewForbiddenError("cannot respond to another rider's notification")
	}
	if !notification.Pending() {
		return nil, common.NewInvalidStateError("notification has already been responded to")
	}

	updated, err := s.store.Reject(ctx, notificationID)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, "notifications.responded", updated)
	return updated, nil
}

// MarkRead marks one of the actor's pending ride notifications as read. A
// read notification is no longer actionable; accept and reject require a
// pending one.
func (s *Service) MarkRead(ctx context.Context, notificationID, actorID uuid.UUID) (*Notification, error) {
	notification, err := s.store.GetNotificationByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if notification.RecipientID != actorID {
		return nil, common.NewForbiddenError("cannot read another rider's notification")
	}
	if !notification.Pending() {
		return nil, common.NewInvalidStateError("notification is no longer pending")
	}

	return s.store.MarkRead(ctx, notificationID)
}

// MarkSystemRead marks one of the actor's system notifications as read.
func (s *Service) MarkSystemRead(ctx context.Context, notificationID, actorID uuid.UUID) (*SystemNotification, error) {
	return s.store.MarkSystemRead(ctx, notificationID, actorID)
}

type notificationEventPayload struct {
	NotificationID uuid.UUID `json:"notification_id"`
	RecipientID    uuid.UUID `json:"recipient_id"`
	GroupID        uuid.UUID `json:"group_id"`
	Status         string    `json:"status"`
}

func (s *Service) publishEvent(ctx context.Context, subject string, notification *Notification) {
	if s.bus == nil {
		return
	}

	event, err := eventbus.NewEvent(subject, "notifications", notificationEventPayload{
		NotificationID: notification.ID,
		RecipientID:    notification.RecipientID,
		GroupID:        notification.GroupID,
		Status:         string(notification.Status),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to encode notification event", zap.Error(err))
		return
	}

	if err := s.bus.Publish(ctx, subject, event); err != nil {
		// The response already committed; the event is best effort.
		logger.ErrorContext(ctx, "failed to publish notification event",
			zap.String("subject", subject),
			zap.String("notification_id", notification.ID.String()),
			zap.Error(err))
	}
}
