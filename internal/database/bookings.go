package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"labportal/internal/models"

	"github.com/google/uuid"
)

const bookingColumns = `id, item_id, item_type, item_title, user_email, user_name, contact_info,
	purpose, additional_notes, start_date, end_date, start_time, end_time, status, has_conflict,
	previous_status, was_approved_before, declined_after_approval, submitted_at, reviewed_at,
	admin_note, total_cost, version`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var reviewedAt sql.NullTime
	err := row.Scan(
		&b.ID, &b.ItemID, &b.ItemType, &b.ItemTitle, &b.UserEmail, &b.UserName, &b.ContactInfo,
		&b.Purpose, &b.AdditionalNotes, &b.StartDate, &b.EndDate, &b.StartTime, &b.EndTime,
		&b.Status, &b.HasConflict, &b.PreviousStatus, &b.WasApprovedBefore, &b.DeclinedAfterApproval,
		&b.SubmittedAt, &reviewedAt, &b.AdminNote, &b.TotalCost, &b.Version,
	)
	if err != nil {
		return nil, err
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		b.ReviewedAt = &t
	}
	b.ConflictingBookings = []models.ConflictRecord{}
	return &b, nil
}

// CreateBooking inserts the booking and its conflict list in one transaction.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now()
	if booking.SubmittedAt.IsZero() {
		booking.SubmittedAt = now
	}
	if booking.Status == "" {
		booking.Status = models.StatusPending
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `INSERT INTO bookings (
				id, item_id, item_type, item_title, user_email, user_name, contact_info,
				purpose, additional_notes, start_date, end_date, start_time, end_time, status,
				has_conflict, previous_status, was_approved_before, declined_after_approval,
				submitted_at, reviewed_at, admin_note, total_cost, version, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, query,
		booking.ID, booking.ItemID, booking.ItemType, booking.ItemTitle,
		booking.UserEmail, booking.UserName, booking.ContactInfo,
		booking.Purpose, booking.AdditionalNotes,
		booking.StartDate, booking.EndDate, booking.StartTime, booking.EndTime,
		booking.Status, booking.HasConflict, booking.PreviousStatus,
		booking.WasApprovedBefore, booking.DeclinedAfterApproval,
		booking.SubmittedAt, booking.ReviewedAt, booking.AdminNote, booking.TotalCost,
		1, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	for _, rec := range booking.ConflictingBookings {
		if err := insertConflict(ctx, tx, booking.ID, rec); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}
	booking.Version = 1
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	if err := db.attachConflicts(ctx, db, []*models.Booking{booking}); err != nil {
		return nil, err
	}
	return booking, nil
}

func (db *DB) ListBookingsByItem(ctx context.Context, itemID string, statuses ...models.BookingStatus) ([]*models.Booking, error) {
	return db.ListBookings(ctx, models.BookingFilter{ItemID: itemID, Statuses: statuses})
}

func (db *DB) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	var where []string
	var args []interface{}

	if filter.ItemID != "" {
		where = append(where, "item_id = ?")
		args = append(args, filter.ItemID)
	}
	if len(filter.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(filter.Statuses))+")")
		for _, s := range filter.Statuses {
			args = append(args, s)
		}
	}
	if filter.From != "" {
		where = append(where, "end_date >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		where = append(where, "start_date <= ?")
		args = append(args, filter.To)
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY submitted_at ASC, id ASC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	rows.Close()

	if err := db.attachConflicts(ctx, db, bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// UpdateBookingReview writes the review fields of booking when the stored
// version matches fromVersion. On success booking.Version is advanced.
func (db *DB) UpdateBookingReview(ctx context.Context, booking *models.Booking, fromVersion int64) error {
	query := `UPDATE bookings SET
				status = ?, previous_status = ?, was_approved_before = ?, declined_after_approval = ?,
				reviewed_at = ?, admin_note = ?, version = version + 1, updated_at = ?
			WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query,
		booking.Status, booking.PreviousStatus, booking.WasApprovedBefore, booking.DeclinedAfterApproval,
		booking.ReviewedAt, booking.AdminNote, time.Now(),
		booking.ID, fromVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking review: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		if ok, err := db.bookingExists(ctx, booking.ID); err == nil && !ok {
			return fmt.Errorf("booking %s: %w", booking.ID, ErrNotFound)
		}
		return ErrConcurrentModification
	}
	booking.Version = fromVersion + 1
	return nil
}

func (db *DB) bookingExists(ctx context.Context, id string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
