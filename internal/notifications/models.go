package notifications

import (
	"time"

	"github.com/google/uuid"
)

// Status is a ride notification's lifecycle state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusRead     Status = "read"
)

// Kind classifies a ride notification.
type Kind string

const KindRideAssignment Kind = "ride_assignment"

// Notification is an actionable message asking a rider to accept or reject
// a ride assignment. Exactly one exists per (recipient, group) pair.
type Notification struct {
	ID          uuid.UUID  `json:"id"`
	RecipientID uuid.UUID  `json:"recipient_id"`
	GroupID     uuid.UUID  `json:"group_id"`
	Kind        Kind       `json:"kind"`
	Status      Status     `json:"status"`
	SentAt      time.Time  `json:"sent_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

// Pending reports whether the notification still awaits a response.
func (n *Notification) Pending() bool {
	return n.Status == StatusPending
}

// SystemNotification is an informational message with no response flow.
type SystemNotification struct {
	ID          uuid.UUID `json:"id"`
	RecipientID uuid.UUID `json:"recipient_id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

// RespondResult reports what an accept changed beyond the notification row.
type RespondResult struct {
	Notification   *Notification `json:"notification"`
	GroupConfirmed bool          `json:"group_confirmed"`
}

// Inbox bundles both notification feeds for the list endpoint.
type Inbox struct {
	RideNotifications   []Notification       `json:"ride_notifications"`
	SystemNotifications []SystemNotification `json:"system_notifications"`
}
