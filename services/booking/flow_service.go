package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	sessionRepo "studiobook/database/repository/session"
	"studiobook/models"
)

// FlowService runs the select → confirm → complete wizard and keeps each flow in a
// FlowStore between requests.
type FlowService struct {
	Store      FlowStore
	Sessions   sessionRepo.SessionRepository
	Bookings   BookingService
	TTL        time.Duration
	Breakpoint int
	Logger     *zap.Logger
	now        func() time.Time
}

func NewFlowService(store FlowStore, sessions sessionRepo.SessionRepository, bookings BookingService, ttl time.Duration, breakpoint int, logger *zap.Logger) *FlowService {
	return &FlowService{
		Store:      store,
		Sessions:   sessions,
		Bookings:   bookings,
		TTL:        ttl,
		Breakpoint: breakpoint,
		Logger:     logger,
		now:        time.Now,
	}
}

// Start opens a flow for a published session. width is the client's viewport width,
// zero when unknown.
func (s *FlowService) Start(ctx context.Context, sessionID, userID string, width int) (models.FlowView, error) {
	session, slots, err := s.load(ctx, sessionID)
	if err != nil {
		return models.FlowView{}, err
	}
	if !session.IsPublished {
		return models.FlowView{}, ErrNotPublished
	}
	flow := NewFlow(uuid.New().String(), *session, userID, Presentation(width, s.Breakpoint))
	if err := s.save(ctx, &flow); err != nil {
		return models.FlowView{}, err
	}
	s.Logger.Debug("booking flow started",
		zap.String("flowID", flow.ID), zap.String("sessionID", sessionID), zap.String("presentation", string(flow.Presentation)))
	return view(flow, slots), nil
}

// Get returns the flow with fresh slot availability.
func (s *FlowService) Get(ctx context.Context, flowID, userID string) (models.FlowView, error) {
	flow, err := s.flow(ctx, flowID, userID)
	if err != nil {
		return models.FlowView{}, err
	}
	_, slots, err := s.load(ctx, flow.PhotoSessionID)
	if err != nil {
		return models.FlowView{}, err
	}
	return view(flow, slots), nil
}

func (s *FlowService) Select(ctx context.Context, flowID, userID, slotID string) (models.FlowView, error) {
	flow, err := s.flow(ctx, flowID, userID)
	if err != nil {
		return models.FlowView{}, err
	}
	session, slots, err := s.load(ctx, flow.PhotoSessionID)
	if err != nil {
		return models.FlowView{}, err
	}
	next, err := SelectSlot(flow, *session, slots, slotID)
	if err != nil {
		return view(flow, slots), err
	}
	if err := s.save(ctx, &next); err != nil {
		return models.FlowView{}, err
	}
	return view(next, slots), nil
}

func (s *FlowService) Back(ctx context.Context, flowID, userID string) (models.FlowView, error) {
	flow, err := s.flow(ctx, flowID, userID)
	if err != nil {
		return models.FlowView{}, err
	}
	next, err := Back(flow)
	if err != nil {
		return models.FlowView{Flow: flow}, err
	}
	if err := s.save(ctx, &next); err != nil {
		return models.FlowView{}, err
	}
	_, slots, err := s.load(ctx, next.PhotoSessionID)
	if err != nil {
		return models.FlowView{}, err
	}
	return view(next, slots), nil
}

// Confirm books the selected slot once. A failed booking keeps the flow in confirm
// with the reason recorded; the caller decides whether to try again.
func (s *FlowService) Confirm(ctx context.Context, flowID, userID, idempotencyKey string) (models.FlowView, error) {
	flow, err := s.flow(ctx, flowID, userID)
	if err != nil {
		return models.FlowView{}, err
	}
	next, bookErr := Confirm(ctx, flow, func(ctx context.Context, f models.BookingFlow) (string, error) {
		b, err := s.Bookings.CreatePhotoSessionBooking(ctx, BookingRequest{
			SessionID:      f.PhotoSessionID,
			SlotID:         f.SelectedSlotID,
			UserID:         f.UserID,
			IdempotencyKey: idempotencyKey,
		})
		if err != nil {
			return "", err
		}
		return b.ID, nil
	})
	if errors.Is(bookErr, ErrFlowStep) {
		return models.FlowView{Flow: flow}, bookErr
	}
	if bookErr != nil {
		s.Logger.Info("booking flow confirm failed", zap.String("flowID", flowID), zap.Error(bookErr))
	}
	if err := s.save(ctx, &next); err != nil {
		return models.FlowView{}, err
	}
	return models.FlowView{Flow: next}, bookErr
}

func (s *FlowService) flow(ctx context.Context, flowID, userID string) (models.BookingFlow, error) {
	flow, err := s.Store.Load(ctx, flowID)
	if err != nil {
		return models.BookingFlow{}, err
	}
	if flow.UserID != userID {
		return models.BookingFlow{}, ErrFlowNotFound
	}
	return flow, nil
}

func (s *FlowService) load(ctx context.Context, sessionID string) (*models.PhotoSession, []models.PhotoSessionSlot, error) {
	session, err := s.Sessions.GetByID(ctx, sessionID)
	if errors.Is(err, sessionRepo.ErrNotFound) {
		return nil, nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load photo session: %w", err)
	}
	if !session.HasSlots {
		return session, nil, nil
	}
	slots, err := s.Sessions.GetSlots(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load slots: %w", err)
	}
	return session, slots, nil
}

func (s *FlowService) save(ctx context.Context, flow *models.BookingFlow) error {
	flow.UpdatedAt = s.now()
	return s.Store.Save(ctx, *flow, s.TTL)
}

func view(flow models.BookingFlow, slots []models.PhotoSessionSlot) models.FlowView {
	v := models.FlowView{Flow: flow}
	if flow.Step == models.StepSelect {
		v.Options = Options(slots)
	}
	return v
}
