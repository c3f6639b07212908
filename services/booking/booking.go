package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingRepo "studiobook/database/repository/booking"
	sessionRepo "studiobook/database/repository/session"
	"studiobook/models"
	"studiobook/services/pricing"
)

// CreatePhotoSessionBooking takes a seat for req.UserID and records a pending booking.
// Replaying an idempotency key returns the booking created by the first request.
func (s *DefaultBookingService) CreatePhotoSessionBooking(ctx context.Context, req BookingRequest) (*models.Booking, error) {
	if req.IdempotencyKey != "" {
		existing, err := s.replay(ctx, req)
		if existing != nil || err != nil {
			return existing, err
		}
		defer func() {
			// Reservation only guards the window until the booking row exists.
			if s.Guard != nil {
				_ = s.Guard.Release(context.WithoutCancel(ctx), req.UserID, req.IdempotencyKey)
			}
		}()
	}

	session, err := s.Sessions.GetByID(ctx, req.SessionID)
	if errors.Is(err, sessionRepo.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load photo session: %w", err)
	}
	if !session.IsPublished {
		return nil, ErrNotPublished
	}
	if err := admitsDirectBooking(session.BookingType); err != nil {
		return nil, err
	}

	slot, err := s.resolveSlot(ctx, session, req.SlotID)
	if err != nil {
		return nil, err
	}

	if !session.AllowMultipleBookings {
		n, err := s.Bookings.CountActiveByUser(ctx, session.ID, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing bookings: %w", err)
		}
		if n > 0 {
			return nil, ErrAlreadyBooked
		}
	}

	amount, err := pricing.BookingAmount(*session, slot)
	if err != nil {
		return nil, err
	}

	if err := s.admit(ctx, session, slot); err != nil {
		return nil, err
	}

	now := s.now()
	booking := &models.Booking{
		ID:             uuid.New().String(),
		PhotoSessionID: session.ID,
		UserID:         req.UserID,
		Amount:         amount,
		Status:         models.BookingPending,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if slot != nil {
		booking.SlotID = slot.ID
	}

	if err := s.Bookings.Create(ctx, booking); err != nil {
		s.release(context.WithoutCancel(ctx), session.ID, booking.SlotID)
		if errors.Is(err, bookingRepo.ErrDuplicateRequest) {
			return s.Bookings.GetByIdempotencyKey(ctx, req.UserID, req.IdempotencyKey)
		}
		return nil, fmt.Errorf("failed to store booking: %w", err)
	}

	s.Logger.Info("booking created",
		zap.String("bookingID", booking.ID),
		zap.String("sessionID", session.ID),
		zap.String("slotID", booking.SlotID),
		zap.String("userID", req.UserID),
		zap.Int64("amount", amount))
	return booking, nil
}

// CreateSlotBooking books slotID in whichever session owns it.
func (s *DefaultBookingService) CreateSlotBooking(ctx context.Context, slotID, userID, idempotencyKey string) (*models.Booking, error) {
	slot, err := s.Sessions.GetSlot(ctx, slotID)
	if errors.Is(err, sessionRepo.ErrSlotNotFound) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load slot: %w", err)
	}
	return s.CreatePhotoSessionBooking(ctx, BookingRequest{
		SessionID:      slot.PhotoSessionID,
		SlotID:         slot.ID,
		UserID:         userID,
		IdempotencyKey: idempotencyKey,
	})
}

// CancelBooking cancels a participant's own booking and frees the seat.
func (s *DefaultBookingService) CancelBooking(ctx context.Context, bookingID, userID string) error {
	if _, err := s.GetBooking(ctx, bookingID, userID); err != nil {
		return err
	}
	return s.VoidBooking(ctx, bookingID)
}

// GetBooking returns the booking if userID holds it.
func (s *DefaultBookingService) GetBooking(ctx context.Context, bookingID, userID string) (*models.Booking, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if b.UserID != userID {
		return nil, ErrBookingNotFound
	}
	return b, nil
}

// ConfirmBooking marks a pending booking paid. Confirming twice is a no-op.
func (s *DefaultBookingService) ConfirmBooking(ctx context.Context, bookingID string) error {
	err := s.Bookings.TransitionStatus(ctx, bookingID, []models.BookingStatus{models.BookingPending}, models.BookingConfirmed)
	if errors.Is(err, bookingRepo.ErrStatusConflict) {
		b, getErr := s.Bookings.GetByID(ctx, bookingID)
		if getErr == nil && b.Status == models.BookingConfirmed {
			return nil
		}
	}
	return err
}

// VoidBooking cancels an active booking and releases its seat once.
func (s *DefaultBookingService) VoidBooking(ctx context.Context, bookingID string) error {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return ErrBookingNotFound
	}
	if err != nil {
		return err
	}
	err = s.Bookings.TransitionStatus(ctx, bookingID,
		[]models.BookingStatus{models.BookingPending, models.BookingConfirmed}, models.BookingCancelled)
	if errors.Is(err, bookingRepo.ErrStatusConflict) {
		// already cancelled; the seat went back then
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	s.release(ctx, b.PhotoSessionID, b.SlotID)
	s.Logger.Info("booking cancelled", zap.String("bookingID", bookingID))
	return nil
}

func (s *DefaultBookingService) AttachPayment(ctx context.Context, bookingID, paymentID string) error {
	return s.Bookings.AttachPayment(ctx, bookingID, paymentID)
}

const expireBatch = 100

func (s *DefaultBookingService) ExpireUnpaid(ctx context.Context, before time.Time) (int, error) {
	unpaid, err := s.Bookings.ListUnpaid(ctx, before, expireBatch)
	if err != nil {
		return 0, fmt.Errorf("failed to list unpaid bookings: %w", err)
	}
	expired := 0
	for _, b := range unpaid {
		err := s.Bookings.ExpireUnpaid(ctx, b.ID)
		if errors.Is(err, bookingRepo.ErrStatusConflict) {
			// paid or cancelled since it was listed
			continue
		}
		if err != nil {
			s.Logger.Warn("failed to expire booking", zap.String("bookingID", b.ID), zap.Error(err))
			continue
		}
		s.release(ctx, b.PhotoSessionID, b.SlotID)
		expired++
	}
	if expired > 0 {
		s.Logger.Info("unpaid bookings expired", zap.Int("count", expired))
	}
	return expired, nil
}

func (s *DefaultBookingService) replay(ctx context.Context, req BookingRequest) (*models.Booking, error) {
	existing, err := s.Bookings.GetByIdempotencyKey(ctx, req.UserID, req.IdempotencyKey)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, bookingRepo.ErrNotFound) {
		return nil, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	if s.Guard == nil {
		return nil, nil
	}
	ok, err := s.Guard.Reserve(ctx, req.UserID, req.IdempotencyKey)
	if err != nil {
		// Redis down: the unique index still rejects the duplicate insert.
		s.Logger.Warn("idempotency reservation failed", zap.Error(err))
		return nil, nil
	}
	if !ok {
		return nil, ErrBookingInProgress
	}
	return nil, nil
}

func (s *DefaultBookingService) resolveSlot(ctx context.Context, session *models.PhotoSession, slotID string) (*models.PhotoSessionSlot, error) {
	if !session.HasSlots {
		if slotID != "" {
			return nil, ErrSlotNotFound
		}
		return nil, nil
	}
	if slotID == "" {
		return nil, ErrSlotRequired
	}
	slot, err := s.Sessions.GetSlot(ctx, slotID)
	if errors.Is(err, sessionRepo.ErrSlotNotFound) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load slot: %w", err)
	}
	if slot.PhotoSessionID != session.ID {
		return nil, ErrSlotNotFound
	}
	return slot, nil
}

func (s *DefaultBookingService) admit(ctx context.Context, session *models.PhotoSession, slot *models.PhotoSessionSlot) error {
	var err error
	if slot != nil {
		err = s.Sessions.AdmitSlotParticipant(ctx, slot.ID)
	} else {
		err = s.Sessions.AdmitSessionParticipant(ctx, session.ID)
	}
	switch {
	case errors.Is(err, sessionRepo.ErrCapacityReached):
		return ErrSlotFull
	case errors.Is(err, sessionRepo.ErrSlotNotFound):
		return ErrSlotNotFound
	case errors.Is(err, sessionRepo.ErrNotFound):
		return ErrSessionNotFound
	case err != nil:
		return fmt.Errorf("failed to admit participant: %w", err)
	}
	return nil
}

func (s *DefaultBookingService) release(ctx context.Context, sessionID, slotID string) {
	var err error
	if slotID != "" {
		err = s.Sessions.ReleaseSlotParticipant(ctx, slotID)
	} else {
		err = s.Sessions.ReleaseSessionParticipant(ctx, sessionID)
	}
	if err != nil {
		s.Logger.Error("failed to release seat",
			zap.String("sessionID", sessionID), zap.String("slotID", slotID), zap.Error(err))
	}
}

func admitsDirectBooking(t models.BookingType) error {
	switch t {
	case models.BookingFirstCome, models.BookingPriority:
		return nil
	case models.BookingLottery, models.BookingAdminLottery:
		return ErrLotteryBooking
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedBookingType, t)
}
