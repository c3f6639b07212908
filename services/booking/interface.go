package booking

import (
	"context"
	"time"

	"go.uber.org/zap"

	bookingRepo "studiobook/database/repository/booking"
	sessionRepo "studiobook/database/repository/session"
	"studiobook/models"
)

// BookingRequest asks for one seat in a session, optionally in one of its slots.
type BookingRequest struct {
	SessionID      string
	SlotID         string
	UserID         string
	IdempotencyKey string
}

// BookingService admits participants and keeps seat counters in step with bookings.
type BookingService interface {
	CreatePhotoSessionBooking(ctx context.Context, req BookingRequest) (*models.Booking, error)
	CreateSlotBooking(ctx context.Context, slotID, userID, idempotencyKey string) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID, userID string) error
	GetBooking(ctx context.Context, bookingID, userID string) (*models.Booking, error)

	// Used by payment processing, no ownership check.
	ConfirmBooking(ctx context.Context, bookingID string) error
	VoidBooking(ctx context.Context, bookingID string) error
	AttachPayment(ctx context.Context, bookingID, paymentID string) error
	// ExpireUnpaid cancels priced bookings created before `before` that never got a
	// payment, and returns how many seats went back.
	ExpireUnpaid(ctx context.Context, before time.Time) (int, error)
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Sessions sessionRepo.SessionRepository
	Bookings bookingRepo.BookingRepository
	Guard    IdempotencyGuard // optional
	Logger   *zap.Logger
	now      func() time.Time
}

func NewBookingService(sessions sessionRepo.SessionRepository, bookings bookingRepo.BookingRepository, guard IdempotencyGuard, logger *zap.Logger) *DefaultBookingService {
	return &DefaultBookingService{
		Sessions: sessions,
		Bookings: bookings,
		Guard:    guard,
		Logger:   logger,
		now:      time.Now,
	}
}
