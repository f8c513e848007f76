package notifications

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gotogether/ride-pooling/pkg/common"
)

// Repository handles notification database operations
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new notifications repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const notificationColumns = `id, recipient_id, group_id, kind, status, sent_at, responded_at`

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.RecipientID, &n.GroupID, &n.Kind, &n.Status, &n.SentAt, &n.RespondedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// GetNotificationByID gets a ride notification by ID
func (r *Repository) GetNotificationByID(ctx context.Context, notificationID uuid.UUID) (*Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM ride_notifications WHERE id = $1`

	n, err := scanNotification(r.db.QueryRow(ctx, query, notificationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("notification not found", err)
		}
		return nil, err
	}
	return n, nil
}

// ListByRecipient returns the recipient's ride notifications, newest first.
func (r *Repository) ListByRecipient(ctx context.Context, recipientID uuid.UUID) ([]Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM ride_notifications
		WHERE recipient_id = $1
		ORDER BY sent_at DESC
	`

	rows, err := r.db.Query(ctx, query, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.GroupID, &n.Kind, &n.Status, &n.SentAt, &n.RespondedAt); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

// ListSystemByRecipient returns the recipient's system notifications, newest first.
func (r *Repository) ListSystemByRecipient(ctx context.Context, recipientID uuid.UUID) ([]SystemNotification, error) {
	query := `
		SELECT id, recipient_id, title, message, is_read, created_at
		FROM system_notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SystemNotification
	for rows.Next() {
		var n SystemNotification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

// MarkSystemRead marks a system notification read for its recipient.
func (r *Repository) MarkSystemRead(ctx context.Context, notificationID, recipientID uuid.UUID) (*SystemNotification, error) {
	query := `
		UPDATE system_notifications
		SET is_read = TRUE
		WHERE id = $1 AND recipient_id = $2
		RETURNING id, recipient_id, title, message, is_read, created_at
	`

	var n SystemNotification
	err := r.db.QueryRow(ctx, query, notificationID, recipientID).
		Scan(&n.ID, &n.RecipientID, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("notification not found", err)
		}
		return nil, err
	}
	return &n, nil
}

// MarkRead flips a pending ride notification to read. The pending check rides
// on the UPDATE predicate; an already-responded notification is left alone.
func (r *Repository) MarkRead(ctx context.Context, notificationID uuid.UUID) (*Notification, error) {
	query := `
		UPDATE ride_notifications
		SET status = 'read'
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + notificationColumns

	n, err := scanNotification(r.db.QueryRow(ctx, query, notificationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewInvalidStateError("notification is no longer pending")
		}
		return nil, err
	}
	return n, nil
}

// Accept responds to a ride assignment. The pending check rides on the UPDATE
// predicate so concurrent double-accepts cannot both succeed. The group flips
// to confirmed exactly on the accept that completes the member set.
func (r *Repository) Accept(ctx context.Context, notificationID uuid.UUID) (*RespondResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	updateNotification := `
		UPDATE ride_notifications
		SET status = 'accepted', responded_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + notificationColumns

	notification, err := scanNotification(tx.QueryRow(ctx, updateNotification, notificationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewInvalidStateError("notification has already been responded to")
		}
		return nil, err
	}

	updateRequest := `
		UPDATE ride_requests
		SET status = 'accepted', updated_at = NOW()
		WHERE requester_id = $1 AND group_id = $2 AND status = 'grouped'
	`
	if _, err := tx.Exec(ctx, updateRequest, notification.RecipientID, notification.GroupID); err != nil {
		return nil, err
	}

	var remaining int
	countQuery := `
		SELECT COUNT(*) FROM ride_requests
		WHERE group_id = $1 AND status NOT IN ('rejected', 'cancelled', 'accepted')
	`
	if err := tx.QueryRow(ctx, countQuery, notification.GroupID).Scan(&remaining); err != nil {
		return nil, err
	}

	confirmed := false
	if remaining == 0 {
		confirmGroup := `
			UPDATE grouped_rides
			SET status = 'confirmed', updated_at = NOW()
			WHERE id = $1 AND status = 'pending_acceptance'
		`
		tag, err := tx.Exec(ctx, confirmGroup, notification.GroupID)
		if err != nil {
			return nil, err
		}
		confirmed = tag.RowsAffected() > 0
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &RespondResult{Notification: notification, GroupConfirmed: confirmed}, nil
}

// Reject declines a ride assignment and frees the seat.
func (r *Repository) Reject(ctx context.Context, notificationID uuid.UUID) (*Notification, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	updateNotification := `
		UPDATE ride_notifications
		SET status = 'rejected', responded_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + notificationColumns

	notification, err := scanNotification(tx.QueryRow(ctx, updateNotification, notificationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewInvalidStateError("notification has already been responded to")
		}
		return nil, err
	}

	updateRequest := `
		UPDATE ride_requests
		SET status = 'rejected', group_id = NULL, updated_at = NOW()
		WHERE requester_id = $1 AND group_id = $2 AND status = 'grouped'
	`
	if _, err := tx.Exec(ctx, updateRequest, notification.RecipientID, notification.GroupID); err != nil {
		return nil, err
	}

	// The group cancels once the last live member walks away.
	var remaining int
	countQuery := `
		SELECT COUNT(*) FROM ride_requests
		WHERE group_id = $1 AND status NOT IN ('rejected', 'cancelled')
	`
	if err := tx.QueryRow(ctx, countQuery, notification.GroupID).Scan(&remaining); err != nil {
		return nil, err
	}
	if remaining == 0 {
		cancelGroup := `
			UPDATE grouped_rides
			SET status = 'cancelled', updated_at = NOW()
			WHERE id = $1 AND status = 'pending_acceptance'
		`
		if _, err := tx.Exec(ctx, cancelGroup, notification.GroupID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return notification, nil
}
