package models

import "time"

const (
	BookingStatusPending  = "pending"
	BookingStatusAccepted = "accepted"
	BookingStatusDeclined = "declined"
	BookingStatusRejected = "rejected"

	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

// BookingRequest binds a therapist slot (date + fixed time label) to a user.
// Completed is derived from status and wall-clock time at read time; it is
// never written to storage.
type BookingRequest struct {
	ID            int64     `json:"id"`
	TherapistID   int64     `json:"therapist_id"`
	TherapistName string    `json:"therapist_name"`
	UserID        int64     `json:"user_id"`
	UserName      string    `json:"user_name"`
	SessionDate   time.Time `json:"session_date"`
	Weekday       string    `json:"weekday"`
	TimeSlot      string    `json:"time_slot"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	Completed     bool      `json:"completed"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Payment struct {
	ID          int64     `json:"id"`
	BookingID   int64     `json:"booking_id"`
	UserID      int64     `json:"user_id"`
	TherapistID int64     `json:"therapist_id"`
	Amount      float64   `json:"amount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type BookingDetail struct {
	BookingRequest
	Payment *Payment `json:"payment,omitempty"`
}
