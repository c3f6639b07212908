package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	sessionRepo "studiobook/database/repository/session"
	"studiobook/models"
	"studiobook/services/pricing"
	"studiobook/services/slot"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// SessionService saves organizer drafts as photo sessions and serves them to participants.
type SessionService interface {
	CreateFromDraft(ctx context.Context, organizerID, draftID string, details models.SessionDetails) (*models.PhotoSessionWithSlots, error)
	Update(ctx context.Context, sessionID, organizerID, draftID string, details models.SessionDetails) (*models.PhotoSessionWithSlots, error)
	EditDraft(ctx context.Context, sessionID, organizerID string) (slot.EditorState, error)
	Publish(ctx context.Context, sessionID, organizerID string) error
	Unpublish(ctx context.Context, sessionID, organizerID string) error
	Get(ctx context.Context, sessionID, viewerID string) (*models.PhotoSessionWithSlots, error)
	ListPublished(ctx context.Context, limit, offset int64) ([]models.PhotoSession, error)
	Quote(ctx context.Context, sessionID, viewerID string, slotIDs []string) (*models.PriceQuote, error)
}

type DefaultSessionService struct {
	Repo   sessionRepo.SessionRepository
	Drafts *slot.DraftService
	Logger *zap.Logger
	now    func() time.Time
}

func NewSessionService(repo sessionRepo.SessionRepository, drafts *slot.DraftService, logger *zap.Logger) *DefaultSessionService {
	return &DefaultSessionService{Repo: repo, Drafts: drafts, Logger: logger, now: time.Now}
}

func (s *DefaultSessionService) CreateFromDraft(ctx context.Context, organizerID, draftID string, details models.SessionDetails) (*models.PhotoSessionWithSlots, error) {
	draft, err := s.Drafts.Get(ctx, draftID, organizerID)
	if err != nil {
		return nil, err
	}
	if draft.SessionID != "" {
		return nil, ErrDraftMismatch
	}

	now := s.now()
	session := &models.PhotoSession{
		ID:          uuid.New().String(),
		OrganizerID: organizerID,
		CreatedAt:   now,
	}
	return s.commit(ctx, session, draft, details)
}

func (s *DefaultSessionService) Update(ctx context.Context, sessionID, organizerID, draftID string, details models.SessionDetails) (*models.PhotoSessionWithSlots, error) {
	session, err := s.owned(ctx, sessionID, organizerID)
	if err != nil {
		return nil, err
	}
	draft, err := s.Drafts.Get(ctx, draftID, organizerID)
	if err != nil {
		return nil, err
	}
	if draft.SessionID != sessionID {
		return nil, ErrDraftMismatch
	}
	return s.commit(ctx, session, draft, details)
}

// EditDraft opens a draft seeded with the session's saved slots and times.
func (s *DefaultSessionService) EditDraft(ctx context.Context, sessionID, organizerID string) (slot.EditorState, error) {
	session, err := s.owned(ctx, sessionID, organizerID)
	if err != nil {
		return slot.EditorState{}, err
	}
	slots, err := s.Repo.GetSlots(ctx, sessionID)
	if err != nil {
		return slot.EditorState{}, fmt.Errorf("failed to load slots: %w", err)
	}
	manual := models.ManualSchedule{Start: session.StartTime, End: session.EndTime}
	return s.Drafts.Create(ctx, organizerID, sessionID, manual, slots)
}

func (s *DefaultSessionService) Publish(ctx context.Context, sessionID, organizerID string) error {
	return s.setPublished(ctx, sessionID, organizerID, true)
}

func (s *DefaultSessionService) Unpublish(ctx context.Context, sessionID, organizerID string) error {
	return s.setPublished(ctx, sessionID, organizerID, false)
}

// Get returns a session with its slots. Unpublished sessions are only visible to
// their organizer.
func (s *DefaultSessionService) Get(ctx context.Context, sessionID, viewerID string) (*models.PhotoSessionWithSlots, error) {
	session, err := s.find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsPublished && session.OrganizerID != viewerID {
		return nil, ErrNotFound
	}
	slots, err := s.Repo.GetSlots(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load slots: %w", err)
	}
	return &models.PhotoSessionWithSlots{Session: *session, Slots: slots}, nil
}

func (s *DefaultSessionService) ListPublished(ctx context.Context, limit, offset int64) ([]models.PhotoSession, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)
	offset = max(offset, 0)
	return s.Repo.ListPublished(ctx, limit, offset)
}

// Quote prices the chosen slots of a session as one purchase, applying the session's
// multi-slot tier. Repeated slot IDs are priced once.
func (s *DefaultSessionService) Quote(ctx context.Context, sessionID, viewerID string, slotIDs []string) (*models.PriceQuote, error) {
	view, err := s.Get(ctx, sessionID, viewerID)
	if err != nil {
		return nil, err
	}
	if len(slotIDs) == 0 {
		return nil, ErrNoSlotsSelected
	}

	byID := make(map[string]models.PhotoSessionSlot, len(view.Slots))
	for _, sl := range view.Slots {
		byID[sl.ID] = sl
	}
	chosen := make([]models.PhotoSessionSlot, 0, len(slotIDs))
	seen := map[string]bool{}
	for _, id := range slotIDs {
		if seen[id] {
			continue
		}
		sl, ok := byID[id]
		if !ok {
			return nil, ErrSlotNotInSession
		}
		seen[id] = true
		chosen = append(chosen, sl)
	}

	q, err := pricing.Quote(view.Session, chosen)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *DefaultSessionService) commit(ctx context.Context, session *models.PhotoSession, draft slot.EditorState, details models.SessionDetails) (*models.PhotoSessionWithSlots, error) {
	if err := slot.ValidateSet(draft.Slots); err != nil {
		return nil, err
	}
	if err := applyDetails(session, details, draft); err != nil {
		return nil, err
	}
	session.UpdatedAt = s.now()

	slots := slices.Clone(draft.Slots)
	err := s.Repo.SaveWithSlots(ctx, session, slots)
	if errors.Is(err, sessionRepo.ErrSlotHasBookings) {
		return nil, ErrSlotHasBookings
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save photo session: %w", err)
	}

	if err := s.Drafts.Discard(ctx, draft.DraftID, draft.OwnerID); err != nil {
		s.Logger.Warn("failed to discard committed slot draft", zap.String("draftID", draft.DraftID), zap.Error(err))
	}
	s.Logger.Info("photo session saved",
		zap.String("sessionID", session.ID), zap.Int("slots", len(slots)), zap.Bool("derivedSchedule", len(slots) > 0))

	return s.Get(ctx, session.ID, session.OrganizerID)
}

// applyDetails copies the organizer's form onto session and settles its schedule.
// With slots, capacity is the sum of slot capacities and the listed price is the
// cheapest slot.
func applyDetails(session *models.PhotoSession, d models.SessionDetails, draft slot.EditorState) error {
	if !d.BookingType.Valid() {
		return ErrInvalidBookingType
	}

	session.Title = d.Title
	session.Description = d.Description
	session.Location = d.Location
	session.Address = d.Address
	session.BookingType = d.BookingType
	session.AllowMultipleBookings = d.AllowMultipleBookings
	session.ImageURLs = slices.Clone(d.ImageURLs)
	if session.ImageURLs == nil {
		session.ImageURLs = []string{}
	}

	schedule := models.ResolveSchedule(draft.Manual, draft.Slots)
	session.StartTime, session.EndTime = schedule.Bounds()
	if !session.StartTime.Before(session.EndTime) {
		return ErrInvalidSchedule
	}

	session.HasSlots = schedule.Derived()
	session.MultiSlotTiers = nil
	if !session.HasSlots {
		if d.MaxParticipants < 1 {
			return ErrInvalidCapacity
		}
		if d.PricePerPerson < 0 {
			return ErrInvalidPrice
		}
		session.MaxParticipants = d.MaxParticipants
		session.PricePerPerson = d.PricePerPerson
		return nil
	}

	total := 0
	cheapest := draft.Slots[0].PricePerPerson
	for _, sl := range draft.Slots {
		total += sl.MaxParticipants
		cheapest = min(cheapest, sl.PricePerPerson)
	}
	session.MaxParticipants = total
	session.PricePerPerson = cheapest

	if err := validateTiers(d.MultiSlotTiers); err != nil {
		return err
	}
	session.MultiSlotTiers = slices.Clone(d.MultiSlotTiers)
	return nil
}

func validateTiers(tiers []models.MultiSlotTier) error {
	seen := map[int]bool{}
	for _, t := range tiers {
		if t.MinSlots < 2 || seen[t.MinSlots] || t.DiscountValue < 0 || !pricing.ValidDiscountType(t.DiscountType) {
			return ErrInvalidTier
		}
		if t.DiscountType == models.DiscountPercentage && t.DiscountValue > 100 {
			return ErrInvalidTier
		}
		seen[t.MinSlots] = true
	}
	return nil
}

func (s *DefaultSessionService) setPublished(ctx context.Context, sessionID, organizerID string, published bool) error {
	if _, err := s.owned(ctx, sessionID, organizerID); err != nil {
		return err
	}
	if err := s.Repo.SetPublished(ctx, sessionID, published); err != nil {
		return fmt.Errorf("failed to update publication: %w", err)
	}
	s.Logger.Info("photo session publication changed", zap.String("sessionID", sessionID), zap.Bool("published", published))
	return nil
}

func (s *DefaultSessionService) owned(ctx context.Context, sessionID, organizerID string) (*models.PhotoSession, error) {
	session, err := s.find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.OrganizerID != organizerID {
		return nil, ErrNotOrganizer
	}
	return session, nil
}

func (s *DefaultSessionService) find(ctx context.Context, sessionID string) (*models.PhotoSession, error) {
	session, err := s.Repo.GetByID(ctx, sessionID)
	if errors.Is(err, sessionRepo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load photo session: %w", err)
	}
	return session, nil
}
