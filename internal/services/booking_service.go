package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/haritha-dev/TherapyAppBack/internal/models"
	"github.com/haritha-dev/TherapyAppBack/internal/repository"
	"github.com/haritha-dev/TherapyAppBack/internal/schedule"
)

const uniqueViolationCode = "23505"

type bookingStore interface {
	Create(ctx context.Context, input repository.CreateBookingInput) (*models.BookingRequest, error)
	ListWindow(ctx context.Context, therapistID int64, start time.Time, end time.Time) ([]models.BookingRequest, error)
	List(ctx context.Context, filter repository.BookingListFilter) ([]models.BookingRequest, int, error)
	GetByID(ctx context.Context, bookingID int64) (*models.BookingRequest, error)
	UpdateStatusIfCurrent(ctx context.Context, bookingID int64, currentStatus string, nextStatus string) (*models.BookingRequest, error)
}

type paymentStore interface {
	GetByBookingID(ctx context.Context, bookingID int64) (*models.Payment, error)
	ListByBookingIDs(ctx context.Context, bookingIDs []int64) (map[int64]models.Payment, error)
}

type therapistProfileReader interface {
	GetByUserID(ctx context.Context, userID int64) (*models.TherapistProfile, error)
}

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type BookingService struct {
	db          txBeginner
	bookingRepo bookingStore
	paymentRepo paymentStore
	userRepo    userReader
	profileRepo therapistProfileReader
}

func NewBookingService(
	db txBeginner,
	bookingRepo bookingStore,
	paymentRepo paymentStore,
	userRepo userReader,
	profileRepo therapistProfileReader,
) *BookingService {
	return &BookingService{
		db:          db,
		bookingRepo: bookingRepo,
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		profileRepo: profileRepo,
	}
}

type SlotAvailability struct {
	Label string             `json:"label"`
	State schedule.SlotState `json:"state"`
}

type DayAvailability struct {
	Date      time.Time          `json:"date"`
	Weekday   string             `json:"weekday"`
	Morning   []SlotAvailability `json:"morning"`
	Afternoon []SlotAvailability `json:"afternoon"`
}

type AvailabilityWindow struct {
	Pivot time.Time         `json:"pivot"`
	Days  []DayAvailability `json:"days"`
}

type SubmitRequestInput struct {
	TherapistID int64
	Day         time.Time
	TimeSlot    string
}

// AvailabilityWindow computes the slot states for the 3-day window around
// pivot. Bookings are fetched fresh on every call and slot states are
// derived against the current wall clock.
func (s *BookingService) AvailabilityWindow(
	ctx context.Context,
	therapistID int64,
	pivot time.Time,
) (*AvailabilityWindow, error) {
	if therapistID <= 0 {
		return nil, ErrInvalidInput
	}

	therapist, err := s.userRepo.GetByID(ctx, therapistID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTherapistNotFound
		}
		return nil, err
	}
	if therapist.Role != models.RoleTherapist {
		return nil, ErrTherapistNotFound
	}

	calendar := schedule.NewCalendar(pivot)
	start, end := calendar.Window()
	bookings, err := s.bookingRepo.ListWindow(ctx, therapistID, start, end)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	window := &AvailabilityWindow{Pivot: calendar.Pivot()}
	for _, day := range calendar.Days() {
		window.Days = append(window.Days, DayAvailability{
			Date:      day,
			Weekday:   day.Format("Monday"),
			Morning:   slotStates(bookings, day, schedule.MorningSlots, now),
			Afternoon: slotStates(bookings, day, schedule.AfternoonSlots, now),
		})
	}
	return window, nil
}

// SubmitRequest creates a pending booking for an open slot. Only users may
// request sessions; the role check happens before any store access. The slot
// uniqueness constraint decides races: the loser gets ErrSlotTaken.
func (s *BookingService) SubmitRequest(
	ctx context.Context,
	actorID int64,
	role string,
	input SubmitRequestInput,
) (*models.BookingRequest, error) {
	if role != models.RoleUser {
		return nil, ErrForbidden
	}
	if actorID <= 0 || input.TherapistID <= 0 || actorID == input.TherapistID {
		return nil, ErrInvalidInput
	}
	if !schedule.IsSlotLabel(input.TimeSlot) {
		return nil, ErrInvalidInput
	}
	slotTime, err := schedule.SlotTime(input.Day, input.TimeSlot)
	if err != nil {
		return nil, ErrInvalidInput
	}
	if slotTime.Before(time.Now()) {
		return nil, ErrInvalidInput
	}

	therapist, err := s.userRepo.GetByID(ctx, input.TherapistID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTherapistNotFound
		}
		return nil, err
	}
	if therapist.Role != models.RoleTherapist {
		return nil, ErrTherapistNotFound
	}

	requester, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.Create(ctx, repository.CreateBookingInput{
		TherapistID:   input.TherapistID,
		TherapistName: therapist.Name,
		UserID:        requester.ID,
		UserName:      requester.Name,
		SessionDate:   input.Day,
		Weekday:       input.Day.Format("Monday"),
		TimeSlot:      input.TimeSlot,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, ErrSlotTaken
		}
		return nil, err
	}

	return booking, nil
}

// ListBookings returns one page of bookings visible to the actor plus the
// total count under the same filter.
func (s *BookingService) ListBookings(
	ctx context.Context,
	actorID int64,
	role string,
	filter repository.BookingListFilter,
) ([]models.BookingDetail, int, error) {
	filter.ActorID = actorID
	filter.Role = role
	bookings, total, err := s.bookingRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	bookingIDs := make([]int64, 0, len(bookings))
	for _, booking := range bookings {
		bookingIDs = append(bookingIDs, booking.ID)
	}
	payments, err := s.paymentRepo.ListByBookingIDs(ctx, bookingIDs)
	if err != nil {
		return nil, 0, err
	}

	now := time.Now()
	details := make([]models.BookingDetail, 0, len(bookings))
	for _, booking := range bookings {
		booking.Completed = isCompleted(booking, now)
		detail := models.BookingDetail{BookingRequest: booking}
		if payment, ok := payments[booking.ID]; ok {
			paymentCopy := payment
			detail.Payment = &paymentCopy
		}
		details = append(details, detail)
	}
	return details, total, nil
}

func (s *BookingService) GetBooking(
	ctx context.Context,
	actorID int64,
	role string,
	bookingID int64,
) (*models.BookingDetail, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !canAccessBooking(role, actorID, booking) {
		return nil, ErrForbidden
	}

	booking.Completed = isCompleted(*booking, time.Now())
	detail := &models.BookingDetail{BookingRequest: *booking}
	payment, err := s.paymentRepo.GetByBookingID(ctx, bookingID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err == nil {
		detail.Payment = payment
	}
	return detail, nil
}

// UpdateStatus applies a therapist or admin decision. Therapists accept or
// decline their own pending requests; admins may reject any booking that is
// not already terminal.
func (s *BookingService) UpdateStatus(
	ctx context.Context,
	actorID int64,
	role string,
	bookingID int64,
	requestedStatus string,
) (*models.BookingDetail, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	nextStatus, err := normalizeRequestedStatus(requestedStatus)
	if err != nil {
		return nil, err
	}
	if err := validateStatusTransition(role, actorID, booking, nextStatus); err != nil {
		return nil, err
	}

	if _, err := s.bookingRepo.UpdateStatusIfCurrent(ctx, bookingID, booking.Status, nextStatus); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	return s.GetBooking(ctx, actorID, role, bookingID)
}

// PayForBooking simulates payment completion: it records a paid payment row,
// flips the booking's payment status, and confirms the request
// (pending -> accepted) in one transaction.
func (s *BookingService) PayForBooking(
	ctx context.Context,
	actorID int64,
	role string,
	bookingID int64,
) (*models.BookingDetail, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txBookingRepo := repository.NewBookingRepository(tx)
	txPaymentRepo := repository.NewPaymentRepository(tx)

	booking, err := txBookingRepo.GetByIDForUpdate(ctx, bookingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if role != models.RoleUser || booking.UserID != actorID {
		return nil, ErrForbidden
	}
	if booking.PaymentStatus == models.PaymentStatusPaid {
		return s.GetBooking(ctx, actorID, role, bookingID)
	}
	if booking.Status != models.BookingStatusPending {
		return nil, ErrInvalidStateTransition
	}
	slotTime, err := schedule.SlotTime(booking.SessionDate, booking.TimeSlot)
	if err != nil || !slotTime.After(time.Now()) {
		return nil, ErrInvalidStateTransition
	}

	amount := 0.0
	profile, err := s.profileRepo.GetByUserID(ctx, booking.TherapistID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err == nil && profile.SessionFee != nil {
		amount = *profile.SessionFee
	}

	if _, err := txPaymentRepo.Create(ctx, repository.CreatePaymentInput{
		BookingID:   bookingID,
		UserID:      booking.UserID,
		TherapistID: booking.TherapistID,
		Amount:      amount,
		Status:      models.PaymentStatusPaid,
	}); err != nil {
		return nil, err
	}
	if _, err := txBookingRepo.UpdatePaymentStatusIfCurrent(
		ctx, bookingID, models.PaymentStatusUnpaid, models.PaymentStatusPaid,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}
	if _, err := txBookingRepo.UpdateStatusIfCurrent(
		ctx, bookingID, models.BookingStatusPending, models.BookingStatusAccepted,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return s.GetBooking(ctx, actorID, role, bookingID)
}

func slotStates(bookings []models.BookingRequest, day time.Time, labels []string, now time.Time) []SlotAvailability {
	states := make([]SlotAvailability, 0, len(labels))
	for _, label := range labels {
		states = append(states, SlotAvailability{
			Label: label,
			State: schedule.StateFor(bookings, day, label, now),
		})
	}
	return states
}

func isCompleted(booking models.BookingRequest, now time.Time) bool {
	if booking.Status != models.BookingStatusAccepted {
		return false
	}
	slotTime, err := schedule.SlotTime(booking.SessionDate, booking.TimeSlot)
	if err != nil {
		return false
	}
	return slotTime.Before(now)
}

func canAccessBooking(role string, actorID int64, booking *models.BookingRequest) bool {
	switch role {
	case models.RoleUser:
		return booking.UserID == actorID
	case models.RoleTherapist:
		return booking.TherapistID == actorID
	case models.RoleAdmin:
		return true
	default:
		return false
	}
}

func normalizeRequestedStatus(status string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "accept", "accepted":
		return models.BookingStatusAccepted, nil
	case "decline", "declined":
		return models.BookingStatusDeclined, nil
	case "reject", "rejected":
		return models.BookingStatusRejected, nil
	default:
		return "", ErrInvalidStatus
	}
}

func validateStatusTransition(
	role string,
	actorID int64,
	booking *models.BookingRequest,
	nextStatus string,
) error {
	switch role {
	case models.RoleTherapist:
		if booking.TherapistID != actorID {
			return ErrForbidden
		}
		if nextStatus != models.BookingStatusAccepted && nextStatus != models.BookingStatusDeclined {
			return ErrForbidden
		}
		if booking.Status != models.BookingStatusPending {
			return ErrInvalidStateTransition
		}
		return nil
	case models.RoleAdmin:
		if nextStatus != models.BookingStatusRejected {
			return ErrForbidden
		}
		if booking.Status == models.BookingStatusDeclined || booking.Status == models.BookingStatusRejected {
			return ErrInvalidStateTransition
		}
		return nil
	default:
		return ErrForbidden
	}
}
