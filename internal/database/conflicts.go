package database

import (
	"context"
	"database/sql"
	"fmt"

	"labportal/internal/models"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertConflict(ctx context.Context, ex execer, ownerID string, rec models.ConflictRecord) error {
	query := `INSERT OR IGNORE INTO booking_conflicts (
				owner_id, target_id, user_email, user_name, status,
				start_date, end_date, start_time, end_time, conflict_type
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := ex.ExecContext(ctx, query,
		ownerID, rec.BookingID, rec.UserEmail, rec.UserName, rec.Status,
		rec.StartDate, rec.EndDate, rec.StartTime, rec.EndTime, rec.ConflictType,
	)
	if err != nil {
		return fmt.Errorf("failed to insert conflict %s->%s: %w", ownerID, rec.BookingID, err)
	}
	return nil
}

// attachConflicts fills ConflictingBookings for every booking, preserving link insertion order.
func (db *DB) attachConflicts(ctx context.Context, q queryer, bookings []*models.Booking) error {
	if len(bookings) == 0 {
		return nil
	}
	byID := make(map[string]*models.Booking, len(bookings))
	args := make([]interface{}, 0, len(bookings))
	for _, b := range bookings {
		byID[b.ID] = b
		args = append(args, b.ID)
	}

	query := `SELECT owner_id, target_id, user_email, user_name, status,
	                 start_date, end_date, start_time, end_time, conflict_type
              FROM booking_conflicts WHERE owner_id IN (` + placeholders(len(args)) + `) ORDER BY id ASC`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to load conflicts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var owner string
		var rec models.ConflictRecord
		if err := rows.Scan(&owner, &rec.BookingID, &rec.UserEmail, &rec.UserName, &rec.Status,
			&rec.StartDate, &rec.EndDate, &rec.StartTime, &rec.EndTime, &rec.ConflictType); err != nil {
			return fmt.Errorf("failed to scan conflict: %w", err)
		}
		if b, ok := byID[owner]; ok {
			b.ConflictingBookings = append(b.ConflictingBookings, rec)
		}
	}
	return rows.Err()
}

// AddConflictLink has add-to-set semantics: an existing link to the same target is left untouched.
func (db *DB) AddConflictLink(ctx context.Context, ownerID string, rec models.ConflictRecord) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `UPDATE bookings SET has_conflict = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, ownerID)
	if err != nil {
		return fmt.Errorf("failed to flag booking %s: %w", ownerID, err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("booking %s: %w", ownerID, ErrNotFound)
	}
	if err := insertConflict(ctx, tx, ownerID, rec); err != nil {
		return err
	}
	return tx.Commit()
}

func (db *DB) RemoveConflictLink(ctx context.Context, ownerID, targetID string) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE id = ?`, ownerID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("failed to check booking %s: %w", ownerID, err)
	}
	if exists == 0 {
		return 0, fmt.Errorf("booking %s: %w", ownerID, ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM booking_conflicts WHERE owner_id = ? AND target_id = ?`, ownerID, targetID); err != nil {
		return 0, fmt.Errorf("failed to remove conflict %s->%s: %w", ownerID, targetID, err)
	}

	var remaining int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM booking_conflicts WHERE owner_id = ?`, ownerID).Scan(&remaining); err != nil {
		return 0, fmt.Errorf("failed to count conflicts for %s: %w", ownerID, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit conflict removal: %w", err)
	}
	return remaining, nil
}

func (db *DB) SetHasConflict(ctx context.Context, bookingID string, hasConflict bool) error {
	result, err := db.ExecContext(ctx, `UPDATE bookings SET has_conflict = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, hasConflict, bookingID)
	if err != nil {
		return fmt.Errorf("failed to set has_conflict on %s: %w", bookingID, err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
	}
	return nil
}

func (db *DB) RefreshConflictStatus(ctx context.Context, targetID string, status models.BookingStatus) error {
	_, err := db.ExecContext(ctx, `UPDATE booking_conflicts SET status = ? WHERE target_id = ?`, status, targetID)
	if err != nil {
		return fmt.Errorf("failed to refresh conflict status for %s: %w", targetID, err)
	}
	return nil
}
