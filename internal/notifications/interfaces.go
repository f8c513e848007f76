package notifications

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence contract for notification responses.
type Store interface {
	GetNotificationByID(ctx context.Context, notificationID uuid.UUID) (*Notification, error)
	ListByRecipient(ctx context.Context, recipientID uuid.UUID) ([]Notification, error)
	ListSystemByRecipient(ctx context.Context, recipientID uuid.UUID) ([]SystemNotification, error)
	MarkSystemRead(ctx context.Context, notificationID, recipientID uuid.UUID) (*SystemNotification, error)

	// MarkRead transitions a pending ride notification to read without
	// responding to it. Read notifications can no longer be accepted or
	// rejected.
	MarkRead(ctx context.Context, notificationID uuid.UUID) (*Notification, error)

	// Accept marks the notification accepted and the recipient's request in
	// the group accepted, then confirms the group once every live member has
	// accepted, all in one transaction. Returns common.ErrInvalidState
	// (wrapped) when the notification is no longer pending.
	Accept(ctx context.Context, notificationID uuid.UUID) (*RespondResult, error)

	// Reject marks the notification rejected and detaches the recipient's
	// request from the group, freeing the seat. The request goes back to
	// rejected with no group. Other members are untouched; a group whose
	// last live member rejects is cancelled.
	Reject(ctx context.Context, notificationID uuid.UUID) (*Notification, error)
}
