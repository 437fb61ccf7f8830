package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/RaniyaAK/arts/internal/notification"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectNotificationColumns = `id, receiver_id, commission_id, notification_type, message, is_read, created_at`

func (s *Store) CreateNotification(ctx context.Context, n *notification.Notification) error {
	query := `
		INSERT INTO notifications (receiver_id, commission_id, notification_type, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_read, created_at
	`

	err := s.db.QueryRowContext(ctx, query, n.ReceiverID, n.CommissionID, n.Type, n.Message).
		Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}

	return nil
}

func (s *Store) ListNotifications(ctx context.Context, receiverID uuid.UUID) ([]*notification.Notification, error) {
	query := `SELECT ` + selectNotificationColumns + `
		FROM notifications
		WHERE receiver_id = $1
		ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, receiverID)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var list []*notification.Notification

	for rows.Next() {
		var (
			n       notification.Notification
			typeStr string
		)

		if err := rows.Scan(&n.ID, &n.ReceiverID, &n.CommissionID, &typeStr, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}

		n.Type = notification.Type(typeStr)
		list = append(list, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notifications: %w", err)
	}

	return list, nil
}

func (s *Store) CountUnread(ctx context.Context, receiverID uuid.UUID) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE receiver_id = $1 AND NOT is_read`, receiverID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}

	return count, nil
}

func (s *Store) MarkAllRead(ctx context.Context, receiverID uuid.UUID) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE receiver_id = $1 AND NOT is_read`, receiverID)
	if err != nil {
		return 0, fmt.Errorf("marking notifications read: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}

	return int(n), nil
}

func (s *Store) DeleteNotification(ctx context.Context, id, receiverID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = $1 AND receiver_id = $2`, id, receiverID)
	if err != nil {
		return fmt.Errorf("deleting notification: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}

	if n == 0 {
		return notification.ErrNotFound
	}

	return nil
}
