// Package memstore holds in-process repository implementations, used when
// DATABASE_URL is "memory" and by service tests.
package memstore

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	bookingRepo "studiobook/database/repository/booking"
	paymentRepo "studiobook/database/repository/payment"
	sessionRepo "studiobook/database/repository/session"
	"studiobook/models"
)

// Sessions is a mutex-guarded SessionRepository.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]models.PhotoSession
	slots    map[string]models.PhotoSessionSlot
}

func NewSessions() *Sessions {
	return &Sessions{
		sessions: map[string]models.PhotoSession{},
		slots:    map[string]models.PhotoSessionSlot{},
	}
}

var _ sessionRepo.SessionRepository = (*Sessions)(nil)

func (m *Sessions) SaveWithSlots(_ context.Context, session *models.PhotoSession, slots []models.PhotoSessionSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	keep := map[string]bool{}
	for _, s := range slots {
		keep[s.ID] = true
	}
	for id, s := range m.slots {
		if s.PhotoSessionID == session.ID && !keep[id] && s.CurrentParticipants > 0 {
			return sessionRepo.ErrSlotHasBookings
		}
	}
	for id, s := range m.slots {
		if s.PhotoSessionID == session.ID && !keep[id] {
			delete(m.slots, id)
		}
	}

	stored := *session
	if existing, ok := m.sessions[session.ID]; ok {
		stored.CurrentParticipants = existing.CurrentParticipants
		stored.IsPublished = existing.IsPublished
		stored.CreatedAt = existing.CreatedAt
		stored.OrganizerID = existing.OrganizerID
	}
	stored.ImageURLs = slices.Clone(session.ImageURLs)
	m.sessions[session.ID] = stored

	for i := range slots {
		s := slots[i]
		s.PhotoSessionID = session.ID
		if existing, ok := m.slots[s.ID]; ok {
			s.CurrentParticipants = existing.CurrentParticipants
		} else {
			s.CurrentParticipants = 0
		}
		slots[i].PhotoSessionID = session.ID
		m.slots[s.ID] = s
	}
	return nil
}

func (m *Sessions) GetByID(_ context.Context, sessionID string) (*models.PhotoSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, sessionRepo.ErrNotFound
	}
	return &s, nil
}

func (m *Sessions) ListPublished(_ context.Context, limit, offset int64) ([]models.PhotoSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.PhotoSession{}
	for _, s := range m.sessions {
		if s.IsPublished {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	if offset >= int64(len(out)) {
		return []models.PhotoSession{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < int64(len(out)) {
		out = out[:limit]
	}
	return out, nil
}

func (m *Sessions) SetPublished(_ context.Context, sessionID string, published bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return sessionRepo.ErrNotFound
	}
	s.IsPublished = published
	s.UpdatedAt = time.Now()
	m.sessions[sessionID] = s
	return nil
}

func (m *Sessions) GetSlots(_ context.Context, sessionID string) ([]models.PhotoSessionSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.PhotoSessionSlot{}
	for _, s := range m.slots {
		if s.PhotoSessionID == sessionID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SlotNumber == out[j].SlotNumber {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].SlotNumber < out[j].SlotNumber
	})
	return out, nil
}

func (m *Sessions) GetSlot(_ context.Context, slotID string) (*models.PhotoSessionSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[slotID]
	if !ok {
		return nil, sessionRepo.ErrSlotNotFound
	}
	return &s, nil
}

func (m *Sessions) AdmitSlotParticipant(_ context.Context, slotID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[slotID]
	if !ok {
		return sessionRepo.ErrSlotNotFound
	}
	if s.CurrentParticipants >= s.MaxParticipants {
		return sessionRepo.ErrCapacityReached
	}
	s.CurrentParticipants++
	m.slots[slotID] = s
	return nil
}

func (m *Sessions) ReleaseSlotParticipant(_ context.Context, slotID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.slots[slotID]; ok && s.CurrentParticipants > 0 {
		s.CurrentParticipants--
		m.slots[slotID] = s
	}
	return nil
}

func (m *Sessions) AdmitSessionParticipant(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return sessionRepo.ErrNotFound
	}
	if s.CurrentParticipants >= s.MaxParticipants {
		return sessionRepo.ErrCapacityReached
	}
	s.CurrentParticipants++
	m.sessions[sessionID] = s
	return nil
}

func (m *Sessions) ReleaseSessionParticipant(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionID]; ok && s.CurrentParticipants > 0 {
		s.CurrentParticipants--
		m.sessions[sessionID] = s
	}
	return nil
}

func (m *Sessions) EnsureIndexes(context.Context) error { return nil }

// Bookings is a mutex-guarded BookingRepository.
type Bookings struct {
	mu       sync.Mutex
	bookings map[string]models.Booking
}

func NewBookings() *Bookings {
	return &Bookings{bookings: map[string]models.Booking{}}
}

var _ bookingRepo.BookingRepository = (*Bookings)(nil)

func (m *Bookings) Create(_ context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.IdempotencyKey != "" {
		for _, existing := range m.bookings {
			if existing.UserID == b.UserID && existing.IdempotencyKey == b.IdempotencyKey {
				return bookingRepo.ErrDuplicateRequest
			}
		}
	}
	m.bookings[b.ID] = *b
	return nil
}

func (m *Bookings) GetByID(_ context.Context, id string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	return &b, nil
}

func (m *Bookings) GetByIdempotencyKey(_ context.Context, userID, key string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.UserID == userID && b.IdempotencyKey == key {
			return &b, nil
		}
	}
	return nil, bookingRepo.ErrNotFound
}

func (m *Bookings) CountActiveByUser(_ context.Context, sessionID, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, b := range m.bookings {
		if b.PhotoSessionID == sessionID && b.UserID == userID && b.Active() {
			n++
		}
	}
	return n, nil
}

func (m *Bookings) TransitionStatus(_ context.Context, id string, from []models.BookingStatus, to models.BookingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	if !slices.Contains(from, b.Status) {
		return bookingRepo.ErrStatusConflict
	}
	b.Status = to
	b.UpdatedAt = time.Now()
	m.bookings[id] = b
	return nil
}

func (m *Bookings) AttachPayment(_ context.Context, bookingID, paymentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[bookingID]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	if b.Status != models.BookingPending || b.PaymentID != "" {
		return bookingRepo.ErrStatusConflict
	}
	b.PaymentID = paymentID
	m.bookings[bookingID] = b
	return nil
}

func (m *Bookings) ListUnpaid(_ context.Context, before time.Time, limit int64) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Booking{}
	for _, b := range m.bookings {
		if b.Status == models.BookingPending && b.PaymentID == "" && b.Amount > 0 && b.CreatedAt.Before(before) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Bookings) ExpireUnpaid(_ context.Context, bookingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[bookingID]
	if !ok || b.Status != models.BookingPending || b.PaymentID != "" {
		return bookingRepo.ErrStatusConflict
	}
	b.Status = models.BookingCancelled
	b.UpdatedAt = time.Now()
	m.bookings[bookingID] = b
	return nil
}

func (m *Bookings) EnsureIndexes(context.Context) error { return nil }

// Payments is a mutex-guarded PaymentRepository.
type Payments struct {
	mu       sync.Mutex
	payments map[string]models.Payment
}

func NewPayments() *Payments {
	return &Payments{payments: map[string]models.Payment{}}
}

var _ paymentRepo.PaymentRepository = (*Payments)(nil)

func (m *Payments) Create(_ context.Context, p *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ID] = *p
	return nil
}

func (m *Payments) GetByID(_ context.Context, id string) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, paymentRepo.ErrNotFound
	}
	return &p, nil
}

func (m *Payments) GetByIntentID(_ context.Context, intentID string) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.IntentID == intentID {
			return &p, nil
		}
	}
	return nil, paymentRepo.ErrNotFound
}

func (m *Payments) SetIntent(_ context.Context, id, intentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok || p.IntentID != "" {
		return paymentRepo.ErrIntentExists
	}
	p.IntentID = intentID
	p.UpdatedAt = time.Now()
	m.payments[id] = p
	return nil
}

func (m *Payments) Transition(_ context.Context, id string, from []models.PaymentState, to models.PaymentState, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return paymentRepo.ErrNotFound
	}
	if !slices.Contains(from, p.State) {
		return paymentRepo.ErrStaleState
	}
	p.State = to
	if lastError != "" {
		p.LastError = lastError
	}
	p.UpdatedAt = time.Now()
	m.payments[id] = p
	return nil
}

func (m *Payments) RecordAttempt(_ context.Context, id, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.payments[id]; ok {
		p.Attempts++
		p.LastError = lastError
		p.UpdatedAt = time.Now()
		m.payments[id] = p
	}
	return nil
}

func (m *Payments) ListStuck(_ context.Context, olderThan time.Time, limit int64) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Payment{}
	for _, p := range m.payments {
		if !p.State.Terminal() && p.UpdatedAt.Before(olderThan) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Payments) EnsureIndexes(context.Context) error { return nil }

// Backdate moves a payment's last update into the past.
func (m *Payments) Backdate(id string, by time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.payments[id]; ok {
		p.UpdatedAt = p.UpdatedAt.Add(-by)
		m.payments[id] = p
	}
}
