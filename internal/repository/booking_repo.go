package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/haritha-dev/TherapyAppBack/internal/models"
)

const bookingColumns = `
	id, therapist_id, therapist_name, user_id, user_name,
	session_date, weekday, time_slot, status, payment_status,
	created_at, updated_at
`

type CreateBookingInput struct {
	TherapistID   int64
	TherapistName string
	UserID        int64
	UserName      string
	SessionDate   time.Time
	Weekday       string
	TimeSlot      string
}

type BookingListFilter struct {
	ActorID      int64
	Role         string
	Status       string
	NameContains string
	Limit        int
	Offset       int
}

type BookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create inserts a pending, unpaid booking. A partial unique index on
// (therapist_id, session_date, time_slot) for blocking statuses makes the
// losing side of a slot race fail with a unique violation.
func (r *BookingRepository) Create(ctx context.Context, input CreateBookingInput) (*models.BookingRequest, error) {
	query := `
		INSERT INTO booking_requests
			(therapist_id, therapist_name, user_id, user_name, session_date, weekday, time_slot, status, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', 'unpaid')
		RETURNING ` + bookingColumns

	return r.scanOne(r.db.QueryRow(
		ctx,
		query,
		input.TherapistID,
		input.TherapistName,
		input.UserID,
		input.UserName,
		input.SessionDate,
		input.Weekday,
		input.TimeSlot,
	))
}

// ListWindow fetches all bookings for a therapist whose session date falls in
// the inclusive [start, end] range.
func (r *BookingRepository) ListWindow(
	ctx context.Context,
	therapistID int64,
	start time.Time,
	end time.Time,
) ([]models.BookingRequest, error) {
	clause, args := Where(And(
		Eq("therapist_id", therapistID),
		Gte("session_date", start),
		Lte("session_date", end),
	))

	query := `
		SELECT ` + bookingColumns + `
		FROM booking_requests
		WHERE ` + clause + `
		ORDER BY session_date ASC, time_slot ASC, id ASC
	`

	return r.list(ctx, query, args)
}

// List returns one page of bookings plus the total count under the same
// filter, so callers can report pagination meta.
func (r *BookingRepository) List(ctx context.Context, filter BookingListFilter) ([]models.BookingRequest, int, error) {
	predicates := make([]Predicate, 0, 3)
	switch filter.Role {
	case models.RoleUser:
		predicates = append(predicates, Eq("user_id", filter.ActorID))
	case models.RoleTherapist:
		predicates = append(predicates, Eq("therapist_id", filter.ActorID))
	}
	if filter.Status != "" {
		predicates = append(predicates, Eq("status", filter.Status))
	}
	if filter.NameContains != "" {
		predicates = append(predicates, Or(
			Contains("user_name", filter.NameContains),
			Contains("therapist_name", filter.NameContains),
		))
	}

	whereClause := ""
	var args []any
	if len(predicates) > 0 {
		clause, built := Where(And(predicates...))
		whereClause = " WHERE " + clause
		args = built
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM booking_requests` + whereClause
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + bookingColumns + `
		FROM booking_requests` + whereClause +
		fmt.Sprintf(" ORDER BY session_date DESC, id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	bookings, err := r.list(ctx, query, args)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (r *BookingRepository) GetByID(ctx context.Context, bookingID int64) (*models.BookingRequest, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM booking_requests
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, bookingID))
}

func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, bookingID int64) (*models.BookingRequest, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM booking_requests
		WHERE id = $1
		FOR UPDATE
	`
	return r.scanOne(r.db.QueryRow(ctx, query, bookingID))
}

func (r *BookingRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	bookingID int64,
	currentStatus string,
	nextStatus string,
) (*models.BookingRequest, error) {
	query := `
		UPDATE booking_requests
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + bookingColumns
	return r.scanOne(r.db.QueryRow(ctx, query, bookingID, currentStatus, nextStatus))
}

func (r *BookingRepository) UpdatePaymentStatusIfCurrent(
	ctx context.Context,
	bookingID int64,
	currentStatus string,
	nextStatus string,
) (*models.BookingRequest, error) {
	query := `
		UPDATE booking_requests
		SET payment_status = $3, updated_at = NOW()
		WHERE id = $1 AND payment_status = $2
		RETURNING ` + bookingColumns
	return r.scanOne(r.db.QueryRow(ctx, query, bookingID, currentStatus, nextStatus))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *BookingRepository) scanOne(row rowScanner) (*models.BookingRequest, error) {
	var booking models.BookingRequest
	err := row.Scan(
		&booking.ID,
		&booking.TherapistID,
		&booking.TherapistName,
		&booking.UserID,
		&booking.UserName,
		&booking.SessionDate,
		&booking.Weekday,
		&booking.TimeSlot,
		&booking.Status,
		&booking.PaymentStatus,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) list(ctx context.Context, query string, args []any) ([]models.BookingRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]models.BookingRequest, 0)
	for rows.Next() {
		var booking models.BookingRequest
		if err := rows.Scan(
			&booking.ID,
			&booking.TherapistID,
			&booking.TherapistName,
			&booking.UserID,
			&booking.UserName,
			&booking.SessionDate,
			&booking.Weekday,
			&booking.TimeSlot,
			&booking.Status,
			&booking.PaymentStatus,
			&booking.CreatedAt,
			&booking.UpdatedAt,
		); err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}
