package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/haritha-dev/TherapyAppBack/internal/models"
	"github.com/haritha-dev/TherapyAppBack/internal/repository"
	"github.com/haritha-dev/TherapyAppBack/internal/services"
)

const dateLayout = "2006-01-02"

type bookingApplicationService interface {
	AvailabilityWindow(ctx context.Context, therapistID int64, pivot time.Time) (*services.AvailabilityWindow, error)
	SubmitRequest(ctx context.Context, actorID int64, role string, input services.SubmitRequestInput) (*models.BookingRequest, error)
	ListBookings(ctx context.Context, actorID int64, role string, filter repository.BookingListFilter) ([]models.BookingDetail, int, error)
	GetBooking(ctx context.Context, actorID int64, role string, bookingID int64) (*models.BookingDetail, error)
	UpdateStatus(ctx context.Context, actorID int64, role string, bookingID int64, requestedStatus string) (*models.BookingDetail, error)
	PayForBooking(ctx context.Context, actorID int64, role string, bookingID int64) (*models.BookingDetail, error)
}

type BookingHandler struct {
	service bookingApplicationService
}

func NewBookingHandler(service bookingApplicationService) *BookingHandler {
	return &BookingHandler{service: service}
}

type submitRequestBody struct {
	TherapistID int64  `json:"therapist_id"`
	Date        string `json:"date"`
	TimeSlot    string `json:"time_slot"`
}

type updateBookingStatusRequest struct {
	Status string `json:"status"`
}

// GetAvailability returns the 3-day slot grid around the pivot date
// (defaulting to today).
func (h *BookingHandler) GetAvailability(c *fiber.Ctx) error {
	therapistID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || therapistID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid therapist id"})
	}

	pivot := time.Now()
	if raw := strings.TrimSpace(c.Query("pivot")); raw != "" {
		pivot, err = time.Parse(dateLayout, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "pivot must be a YYYY-MM-DD date"})
		}
	}

	window, err := h.service.AvailabilityWindow(c.Context(), therapistID, pivot)
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{"availability": window})
}

// SubmitRequest books a selected slot and responds with both the new booking
// and the reloaded window, so the caller sees the slot blocked immediately.
func (h *BookingHandler) SubmitRequest(c *fiber.Ctx) error {
	role, _ := c.Locals("role").(string)

	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req submitRequestBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	day, err := time.Parse(dateLayout, strings.TrimSpace(req.Date))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be a YYYY-MM-DD date"})
	}

	booking, err := h.service.SubmitRequest(c.Context(), actorID, role, services.SubmitRequestInput{
		TherapistID: req.TherapistID,
		Day:         day,
		TimeSlot:    req.TimeSlot,
	})
	if err != nil {
		return mapBookingError(c, err)
	}

	window, err := h.service.AvailabilityWindow(c.Context(), req.TherapistID, day)
	if err != nil {
		// The booking exists; report it even if the reload failed.
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"booking": booking})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"booking":      booking,
		"availability": window,
	})
}

func (h *BookingHandler) ListBookings(c *fiber.Ctx) error {
	role, _ := c.Locals("role").(string)
	if role != models.RoleUser && role != models.RoleTherapist && role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	bookings, total, err := h.service.ListBookings(c.Context(), actorID, role, repository.BookingListFilter{
		Status:       strings.TrimSpace(c.Query("status")),
		NameContains: strings.TrimSpace(c.Query("name")),
		Limit:        limit,
		Offset:       (page - 1) * limit,
	})
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{
		"bookings":   bookings,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	role, _ := c.Locals("role").(string)

	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	bookingID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || bookingID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	booking, err := h.service.GetBooking(c.Context(), actorID, role, bookingID)
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{"booking": booking})
}

func (h *BookingHandler) UpdateStatus(c *fiber.Ctx) error {
	role, _ := c.Locals("role").(string)

	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	bookingID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || bookingID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req updateBookingStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	booking, err := h.service.UpdateStatus(c.Context(), actorID, role, bookingID, req.Status)
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{"booking": booking})
}

func (h *BookingHandler) PayForBooking(c *fiber.Ctx) error {
	role, _ := c.Locals("role").(string)

	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	bookingID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || bookingID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	booking, err := h.service.PayForBooking(c.Context(), actorID, role, bookingID)
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{"booking": booking})
}

func mapBookingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrSlotTaken):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Slot already requested"})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrTherapistNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Therapist not found"})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process booking request"})
	}
}
