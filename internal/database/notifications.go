package database

import (
	"context"
	"fmt"
	"time"

	"labportal/internal/models"
)

func (db *DB) SaveNotification(ctx context.Context, rec *models.NotificationRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	query := `INSERT INTO notifications (booking_id, kind, recipient, subject, success, message_id, error, created_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		rec.BookingID, rec.Kind, rec.Recipient, rec.Subject, rec.Success, rec.MessageID, rec.Error, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	rec.ID = id
	return nil
}

func (db *DB) ListNotifications(ctx context.Context, bookingID string) ([]*models.NotificationRecord, error) {
	query := `SELECT id, booking_id, kind, recipient, subject, success, message_id, error, created_at
              FROM notifications WHERE booking_id = ? ORDER BY id ASC`
	rows, err := db.QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var records []*models.NotificationRecord
	for rows.Next() {
		var r models.NotificationRecord
		if err := rows.Scan(&r.ID, &r.BookingID, &r.Kind, &r.Recipient, &r.Subject,
			&r.Success, &r.MessageID, &r.Error, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}
