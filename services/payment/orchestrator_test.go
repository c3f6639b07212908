package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"studiobook/database/repository/memstore"
	"studiobook/models"
	"studiobook/services/booking"
)

type fakeGateway struct {
	mu            sync.Mutex
	seq           int
	intents       map[string]*Intent
	created       int
	canceled      []string
	createErr     error
	confirmErr    error
	confirmStatus IntentStatus
	event         WebhookEvent
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: map[string]*Intent{}, confirmStatus: IntentSucceeded}
}

func (g *fakeGateway) CreateIntent(_ context.Context, req IntentRequest) (*Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.seq++
	g.created++
	id := fmt.Sprintf("pi_%d", g.seq)
	in := &Intent{
		ID:           id,
		ClientSecret: id + "_secret_xyz",
		Amount:       req.Amount,
		Currency:     req.Currency,
		Status:       IntentRequiresPaymentMethod,
		Metadata:     req.Metadata,
	}
	g.intents[id] = in
	cp := *in
	return &cp, nil
}

func (g *fakeGateway) ConfirmCard(_ context.Context, intentID, _ string, _ models.BillingDetails) (*Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.confirmErr != nil {
		return nil, g.confirmErr
	}
	in := g.intents[intentID]
	in.Status = g.confirmStatus
	cp := *in
	return &cp, nil
}

func (g *fakeGateway) GetIntent(_ context.Context, intentID string) (*Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	in, ok := g.intents[intentID]
	if !ok {
		return nil, errors.New("no such intent")
	}
	cp := *in
	return &cp, nil
}

func (g *fakeGateway) CancelIntent(_ context.Context, intentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[intentID].Status = IntentCanceled
	g.canceled = append(g.canceled, intentID)
	return nil
}

func (g *fakeGateway) ParseWebhook(_ []byte, signature string) (WebhookEvent, error) {
	if signature != "valid" {
		return WebhookEvent{}, ErrWebhook
	}
	return g.event, nil
}

func (g *fakeGateway) setStatus(intentID string, s IntentStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[intentID].Status = s
}

type countingQueue struct {
	mu  sync.Mutex
	ids []string
}

func (q *countingQueue) EnqueueReconcile(_ context.Context, paymentID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, paymentID)
	return nil
}

type fixture struct {
	sessions *memstore.Sessions
	bookings *memstore.Bookings
	payments *memstore.Payments
	gateway  *fakeGateway
	queue    *countingQueue
	svc      *booking.DefaultBookingService
	orch     *Orchestrator
}

var base = time.Date(2025, 5, 10, 13, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, capacity int, price int64) *fixture {
	t.Helper()
	f := &fixture{
		sessions: memstore.NewSessions(),
		bookings: memstore.NewBookings(),
		payments: memstore.NewPayments(),
		gateway:  newFakeGateway(),
		queue:    &countingQueue{},
	}
	ctx := context.Background()
	require.NoError(t, f.sessions.SaveWithSlots(ctx, &models.PhotoSession{
		ID:              "sess-1",
		OrganizerID:     "org-1",
		StartTime:       base,
		EndTime:         base.Add(time.Hour),
		MaxParticipants: capacity,
		BookingType:     models.BookingFirstCome,
		HasSlots:        true,
	}, []models.PhotoSessionSlot{{
		ID:              "slot-1",
		SlotNumber:      1,
		StartTime:       base,
		EndTime:         base.Add(time.Hour),
		MaxParticipants: capacity,
		PricePerPerson:  price,
		DiscountType:    models.DiscountNone,
	}}))
	require.NoError(t, f.sessions.SetPublished(ctx, "sess-1", true))

	f.svc = booking.NewBookingService(f.sessions, f.bookings, nil, zap.NewNop())
	f.orch = NewOrchestrator(f.svc, f.payments, f.gateway, f.queue, "jpy", 15*time.Minute, zap.NewNop())
	return f
}

func (f *fixture) checkout(t *testing.T, user string) *models.CheckoutResult {
	t.Helper()
	res, err := f.orch.Checkout(context.Background(), CheckoutRequest{SessionID: "sess-1", SlotID: "slot-1", UserID: user})
	require.NoError(t, err)
	return res
}

func (f *fixture) seats(t *testing.T) int {
	t.Helper()
	s, err := f.sessions.GetSlot(context.Background(), "slot-1")
	require.NoError(t, err)
	return s.CurrentParticipants
}

func (f *fixture) state(t *testing.T, paymentID string) models.PaymentState {
	t.Helper()
	p, err := f.payments.GetByID(context.Background(), paymentID)
	require.NoError(t, err)
	return p.State
}

func (f *fixture) bookingStatus(t *testing.T, bookingID string) models.BookingStatus {
	t.Helper()
	b, err := f.bookings.GetByID(context.Background(), bookingID)
	require.NoError(t, err)
	return b.Status
}

func TestCheckoutToConfirmation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2, 5000)

	res := f.checkout(t, "u1")
	assert.NotEmpty(t, res.BookingID)
	assert.Equal(t, "pi_1", res.PaymentIntentID)
	assert.Equal(t, "pi_1_secret_xyz", res.ClientSecret)
	assert.Equal(t, models.FeeBreakdown{Amount: 5000, PlatformFee: 500, ProcessorFee: 180}, res.Fees)
	assert.Equal(t, models.PaymentIntentCreated, f.state(t, res.PaymentID))
	assert.Equal(t, []string{res.PaymentID}, f.queue.ids)

	in := f.gateway.intents["pi_1"]
	assert.Equal(t, int64(5000), in.Amount)
	assert.Equal(t, "jpy", in.Currency)
	assert.Equal(t, res.BookingID, in.Metadata["bookingId"])
	assert.Equal(t, "sess-1", in.Metadata["sessionId"])
	assert.Equal(t, "u1", in.Metadata["userId"])

	card, err := f.orch.ConfirmCard(ctx, res.PaymentID, "u1", "pm_card", models.BillingDetails{Name: "山田花子", Email: "hanako@example.com"})
	require.NoError(t, err)
	assert.Equal(t, IntentSucceeded, card.Status)
	assert.Equal(t, models.PaymentChargeCaptured, f.state(t, res.PaymentID))

	require.NoError(t, f.orch.ConfirmPayment(ctx, "u1", res.PaymentIntentID))
	assert.Equal(t, models.PaymentConfirmed, f.state(t, res.PaymentID))
	assert.Equal(t, models.BookingConfirmed, f.bookingStatus(t, res.BookingID))

	require.NoError(t, f.orch.ConfirmPayment(ctx, "u1", res.PaymentIntentID), "confirming twice is harmless")
}

func TestCheckoutStopsWhenBookingFails(t *testing.T) {
	f := newFixture(t, 1, 5000)
	f.checkout(t, "u1")

	_, err := f.orch.Checkout(context.Background(), CheckoutRequest{SessionID: "sess-1", SlotID: "slot-1", UserID: "u2"})
	require.ErrorIs(t, err, booking.ErrSlotFull)
	assert.Equal(t, "満席です", err.Error())
	assert.Equal(t, 1, f.gateway.created, "no intent for a failed booking")
}

func TestCheckoutIntentFailureReleasesSeat(t *testing.T) {
	f := newFixture(t, 1, 5000)
	f.gateway.createErr = &ProcessorError{Message: "Amount must be at least ¥50 jpy"}

	_, err := f.orch.Checkout(context.Background(), CheckoutRequest{SessionID: "sess-1", SlotID: "slot-1", UserID: "u1"})
	require.Error(t, err)
	assert.Equal(t, "Amount must be at least ¥50 jpy", err.Error())
	assert.Equal(t, 0, f.seats(t))

	f.gateway.createErr = nil
	f.checkout(t, "u2")
}

func TestCheckoutReplayReturnsSameIntent(t *testing.T) {
	f := newFixture(t, 3, 5000)
	req := CheckoutRequest{SessionID: "sess-1", SlotID: "slot-1", UserID: "u1", IdempotencyKey: "tap-1"}

	first, err := f.orch.Checkout(context.Background(), req)
	require.NoError(t, err)
	again, err := f.orch.Checkout(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.PaymentID, again.PaymentID)
	assert.Equal(t, first.ClientSecret, again.ClientSecret)
	assert.Equal(t, 1, f.gateway.created)
	assert.Equal(t, 1, f.seats(t))
}

func TestCheckoutFreeSlotConfirmsImmediately(t *testing.T) {
	f := newFixture(t, 1, 0)
	res := f.checkout(t, "u1")

	assert.Empty(t, res.ClientSecret)
	assert.Equal(t, models.PaymentConfirmed, f.state(t, res.PaymentID))
	assert.Equal(t, models.BookingConfirmed, f.bookingStatus(t, res.BookingID))
	assert.Zero(t, f.gateway.created)
}

func TestConfirmCardDeclineKeepsProcessorMessage(t *testing.T) {
	f := newFixture(t, 1, 5000)
	res := f.checkout(t, "u1")
	f.gateway.confirmErr = &ProcessorError{Message: "Your card was declined.", Code: "card_declined"}

	_, err := f.orch.ConfirmCard(context.Background(), res.PaymentID, "u1", "pm_card", models.BillingDetails{Name: "a", Email: "a@example.com"})
	require.Error(t, err)
	assert.Equal(t, "Your card was declined.", err.Error())
	assert.Equal(t, models.PaymentIntentCreated, f.state(t, res.PaymentID))

	p, _ := f.payments.GetByID(context.Background(), res.PaymentID)
	assert.Equal(t, 1, p.Attempts)
	assert.Equal(t, "Your card was declined.", p.LastError)
}

func TestConfirmCardRequiresAction(t *testing.T) {
	f := newFixture(t, 1, 5000)
	res := f.checkout(t, "u1")
	f.gateway.confirmStatus = IntentRequiresAction

	card, err := f.orch.ConfirmCard(context.Background(), res.PaymentID, "u1", "pm_3ds", models.BillingDetails{Name: "a", Email: "a@example.com"})
	require.NoError(t, err)
	assert.True(t, card.RequiresAction)
	assert.Equal(t, models.PaymentIntentCreated, f.state(t, res.PaymentID))
}

func TestConfirmCardChecksOwner(t *testing.T) {
	f := newFixture(t, 1, 5000)
	res := f.checkout(t, "u1")
	_, err := f.orch.ConfirmCard(context.Background(), res.PaymentID, "u2", "pm", models.BillingDetails{})
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestConfirmPaymentBeforeCapture(t *testing.T) {
	f := newFixture(t, 1, 5000)
	res := f.checkout(t, "u1")

	err := f.orch.ConfirmPayment(context.Background(), "u1", res.PaymentIntentID)
	assert.ErrorIs(t, err, ErrNotSucceeded)
	assert.Equal(t, models.PaymentIntentCreated, f.state(t, res.PaymentID))
}

type flakyConfirm struct {
	*booking.DefaultBookingService
	fail bool
}

func (b *flakyConfirm) ConfirmBooking(ctx context.Context, id string) error {
	if b.fail {
		return errors.New("primary stepped down")
	}
	return b.DefaultBookingService.ConfirmBooking(ctx, id)
}

func TestCapturedChargeSurvivesBookingFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, 5000)
	flaky := &flakyConfirm{DefaultBookingService: f.svc, fail: true}
	f.orch.Bookings = flaky

	res := f.checkout(t, "u1")
	f.gateway.setStatus(res.PaymentIntentID, IntentSucceeded)

	require.Error(t, f.orch.ConfirmPayment(ctx, "u1", res.PaymentIntentID))
	assert.Equal(t, models.PaymentChargeCaptured, f.state(t, res.PaymentID))
	assert.Equal(t, models.BookingPending, f.bookingStatus(t, res.BookingID))

	flaky.fail = false
	require.NoError(t, f.orch.Reconcile(ctx, res.PaymentID))
	assert.Equal(t, models.PaymentConfirmed, f.state(t, res.PaymentID))
	assert.Equal(t, models.BookingConfirmed, f.bookingStatus(t, res.BookingID))
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("unpaid past the hold is failed and the seat released", func(t *testing.T) {
		f := newFixture(t, 1, 5000)
		res := f.checkout(t, "u1")
		f.orch.now = func() time.Time { return time.Now().Add(20 * time.Minute) }

		require.NoError(t, f.orch.Reconcile(ctx, res.PaymentID))
		assert.Equal(t, models.PaymentFailed, f.state(t, res.PaymentID))
		assert.Equal(t, models.BookingCancelled, f.bookingStatus(t, res.BookingID))
		assert.Equal(t, []string{res.PaymentIntentID}, f.gateway.canceled)
		assert.Equal(t, 0, f.seats(t))
	})

	t.Run("unpaid within the hold is rescheduled", func(t *testing.T) {
		f := newFixture(t, 1, 5000)
		res := f.checkout(t, "u1")

		require.NoError(t, f.orch.Reconcile(ctx, res.PaymentID))
		assert.Equal(t, models.PaymentIntentCreated, f.state(t, res.PaymentID))
		assert.Len(t, f.queue.ids, 2)
	})

	t.Run("succeeded intent is finished", func(t *testing.T) {
		f := newFixture(t, 1, 5000)
		res := f.checkout(t, "u1")
		f.gateway.setStatus(res.PaymentIntentID, IntentSucceeded)

		require.NoError(t, f.orch.Reconcile(ctx, res.PaymentID))
		assert.Equal(t, models.PaymentConfirmed, f.state(t, res.PaymentID))
		assert.Equal(t, models.BookingConfirmed, f.bookingStatus(t, res.BookingID))
	})

	t.Run("canceled intent fails the payment", func(t *testing.T) {
		f := newFixture(t, 1, 5000)
		res := f.checkout(t, "u1")
		f.gateway.setStatus(res.PaymentIntentID, IntentCanceled)

		require.NoError(t, f.orch.Reconcile(ctx, res.PaymentID))
		assert.Equal(t, models.PaymentFailed, f.state(t, res.PaymentID))
		assert.Equal(t, 0, f.seats(t))
	})
}

func TestSweep(t *testing.T) {
	f := newFixture(t, 3, 5000)
	paid := f.checkout(t, "u1")
	f.gateway.setStatus(paid.PaymentIntentID, IntentSucceeded)
	fresh := f.checkout(t, "u2")

	f.payments.Backdate(paid.PaymentID, time.Hour)

	n, err := f.orch.Sweep(context.Background(), 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, models.PaymentConfirmed, f.state(t, paid.PaymentID))
	assert.Equal(t, models.PaymentIntentCreated, f.state(t, fresh.PaymentID))
}

func TestHandleWebhook(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, 5000)
	res := f.checkout(t, "u1")

	assert.ErrorIs(t, f.orch.HandleWebhook(ctx, []byte(`{}`), "forged"), ErrWebhook)

	f.gateway.event = WebhookEvent{ID: "evt_1", Type: EventIntentFailed,
		Intent: &Intent{ID: res.PaymentIntentID, LastError: "Your card has insufficient funds."}}
	require.NoError(t, f.orch.HandleWebhook(ctx, nil, "valid"))
	p, _ := f.payments.GetByID(ctx, res.PaymentID)
	assert.Equal(t, models.PaymentIntentCreated, p.State)
	assert.Equal(t, "Your card has insufficient funds.", p.LastError)

	f.gateway.setStatus(res.PaymentIntentID, IntentSucceeded)
	f.gateway.event = WebhookEvent{ID: "evt_2", Type: EventIntentSucceeded, Intent: &Intent{ID: res.PaymentIntentID}}
	require.NoError(t, f.orch.HandleWebhook(ctx, nil, "valid"))
	assert.Equal(t, models.PaymentConfirmed, f.state(t, res.PaymentID))

	f.gateway.event = WebhookEvent{ID: "evt_3", Type: EventIntentSucceeded, Intent: &Intent{ID: "pi_someone_else"}}
	assert.NoError(t, f.orch.HandleWebhook(ctx, nil, "valid"))
}

func TestCreatePaymentIntent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, 5000)

	_, err := f.orch.CreatePaymentIntent(ctx, "u1", models.PaymentIntentParams{Amount: 0})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	res, err := f.orch.CreatePaymentIntent(ctx, "u1", models.PaymentIntentParams{Amount: 3000, Currency: "JPY"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.ClientSecret)
	id, ok := IntentIDFromSecret(res.ClientSecret)
	require.True(t, ok)
	assert.Equal(t, res.PaymentIntentID, id)
	assert.Equal(t, "jpy", f.gateway.intents[id].Currency)

	b, err := f.svc.CreateSlotBooking(ctx, "slot-1", "u1", "")
	require.NoError(t, err)
	_, err = f.orch.CreatePaymentIntent(ctx, "u1", models.PaymentIntentParams{Amount: 4000, Metadata: map[string]string{"bookingId": b.ID}})
	assert.ErrorIs(t, err, ErrAmountMismatch)

	_, err = f.orch.CreatePaymentIntent(ctx, "u1", models.PaymentIntentParams{Amount: 5000, Metadata: map[string]string{"bookingId": b.ID}})
	require.NoError(t, err)
	linked, _ := f.bookings.GetByID(ctx, b.ID)
	assert.NotEmpty(t, linked.PaymentID)
}

func TestCreatePaymentIntentForBooking(t *testing.T) {
	ctx := context.Background()
	forBooking := func(id string) models.PaymentIntentParams {
		return models.PaymentIntentParams{Amount: 5000, Metadata: map[string]string{"bookingId": id}}
	}

	tests := []struct {
		name    string
		prepare func(t *testing.T, f *fixture, bookingID string)
	}{
		{
			name: "cancelled booking",
			prepare: func(t *testing.T, f *fixture, bookingID string) {
				require.NoError(t, f.svc.CancelBooking(ctx, bookingID, "u1"))
			},
		},
		{
			name: "confirmed booking",
			prepare: func(t *testing.T, f *fixture, bookingID string) {
				require.NoError(t, f.svc.ConfirmBooking(ctx, bookingID))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name+" gets no intent", func(t *testing.T) {
			f := newFixture(t, 1, 5000)
			b, err := f.svc.CreateSlotBooking(ctx, "slot-1", "u1", "")
			require.NoError(t, err)
			tt.prepare(t, f, b.ID)

			_, err = f.orch.CreatePaymentIntent(ctx, "u1", forBooking(b.ID))
			assert.ErrorIs(t, err, ErrInvalidState)
			assert.Zero(t, f.gateway.created)
		})
	}

	t.Run("asking twice returns the open intent", func(t *testing.T) {
		f := newFixture(t, 1, 5000)
		b, err := f.svc.CreateSlotBooking(ctx, "slot-1", "u1", "")
		require.NoError(t, err)

		first, err := f.orch.CreatePaymentIntent(ctx, "u1", forBooking(b.ID))
		require.NoError(t, err)
		second, err := f.orch.CreatePaymentIntent(ctx, "u1", forBooking(b.ID))
		require.NoError(t, err)

		assert.Equal(t, first.PaymentIntentID, second.PaymentIntentID)
		assert.Equal(t, first.ClientSecret, second.ClientSecret)
		assert.Equal(t, 1, f.gateway.created)
	})

	t.Run("checkout payment is reused", func(t *testing.T) {
		f := newFixture(t, 1, 5000)
		res := f.checkout(t, "u1")

		again, err := f.orch.CreatePaymentIntent(ctx, "u1", forBooking(res.BookingID))
		require.NoError(t, err)
		assert.Equal(t, res.PaymentIntentID, again.PaymentIntentID)
		assert.Equal(t, 1, f.gateway.created)
	})

	t.Run("processor failure releases the booking", func(t *testing.T) {
		f := newFixture(t, 1, 5000)
		b, err := f.svc.CreateSlotBooking(ctx, "slot-1", "u1", "")
		require.NoError(t, err)
		f.gateway.createErr = errors.New("processor unavailable")

		_, err = f.orch.CreatePaymentIntent(ctx, "u1", forBooking(b.ID))
		require.Error(t, err)
		assert.Equal(t, models.BookingCancelled, f.bookingStatus(t, b.ID))
		assert.Equal(t, 0, f.seats(t))

		f.gateway.createErr = nil
		_, err = f.orch.CreatePaymentIntent(ctx, "u1", forBooking(b.ID))
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestSweepExpiresUnpaidBookings(t *testing.T) {
	ctx := context.Background()

	t.Run("priced booking without payment loses its seat after the hold", func(t *testing.T) {
		f := newFixture(t, 1, 5000)
		b, err := f.svc.CreateSlotBooking(ctx, "slot-1", "u1", "")
		require.NoError(t, err)

		n, err := f.orch.Sweep(ctx, 10*time.Minute)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Equal(t, models.BookingPending, f.bookingStatus(t, b.ID))

		f.orch.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
		n, err = f.orch.Sweep(ctx, 10*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, models.BookingCancelled, f.bookingStatus(t, b.ID))
		assert.Equal(t, 0, f.seats(t))

		_, err = f.svc.CreateSlotBooking(ctx, "slot-1", "u2", "")
		assert.NoError(t, err)
	})

	t.Run("booking with a payment is left to reconciliation", func(t *testing.T) {
		f := newFixture(t, 1, 5000)
		b, err := f.svc.CreateSlotBooking(ctx, "slot-1", "u1", "")
		require.NoError(t, err)
		_, err = f.orch.CreatePaymentIntent(ctx, "u1", models.PaymentIntentParams{Amount: 5000, Metadata: map[string]string{"bookingId": b.ID}})
		require.NoError(t, err)

		f.orch.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
		_, err = f.orch.Sweep(ctx, 0)
		require.NoError(t, err)
		// the expired intent fails its payment, which cancels the booking once
		assert.Equal(t, models.BookingCancelled, f.bookingStatus(t, b.ID))
		assert.Equal(t, 0, f.seats(t))
	})

	t.Run("free booking is kept", func(t *testing.T) {
		f := newFixture(t, 1, 0)
		b, err := f.svc.CreateSlotBooking(ctx, "slot-1", "u1", "")
		require.NoError(t, err)

		f.orch.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
		n, err := f.orch.Sweep(ctx, 10*time.Minute)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Equal(t, models.BookingPending, f.bookingStatus(t, b.ID))
		assert.Equal(t, 1, f.seats(t))
	})
}

func TestReconcileIntentRecordedBeforeStateWrite(t *testing.T) {
	ctx := context.Background()
	// Leaves the payment in pending_booking with its intent ID stored, as when the
	// state write after SetIntent is lost.
	interrupted := func(t *testing.T, f *fixture) *models.CheckoutResult {
		t.Helper()
		res := f.checkout(t, "u1")
		require.NoError(t, f.payments.Transition(ctx, res.PaymentID,
			[]models.PaymentState{models.PaymentIntentCreated}, models.PaymentPendingBooking, ""))
		return res
	}

	t.Run("succeeded intent is confirmed", func(t *testing.T) {
		f := newFixture(t, 1, 5000)
		res := interrupted(t, f)
		f.gateway.setStatus(res.PaymentIntentID, IntentSucceeded)

		require.NoError(t, f.orch.Reconcile(ctx, res.PaymentID))
		assert.Equal(t, models.PaymentConfirmed, f.state(t, res.PaymentID))
		assert.Equal(t, models.BookingConfirmed, f.bookingStatus(t, res.BookingID))
	})

	t.Run("expired intent is canceled and the seat released", func(t *testing.T) {
		f := newFixture(t, 1, 5000)
		res := interrupted(t, f)
		f.orch.now = func() time.Time { return time.Now().Add(20 * time.Minute) }

		require.NoError(t, f.orch.Reconcile(ctx, res.PaymentID))
		assert.Equal(t, models.PaymentFailed, f.state(t, res.PaymentID))
		assert.Equal(t, models.BookingCancelled, f.bookingStatus(t, res.BookingID))
		assert.Equal(t, []string{res.PaymentIntentID}, f.gateway.canceled)
		assert.Equal(t, 0, f.seats(t))
	})

	t.Run("card confirmation still captures", func(t *testing.T) {
		f := newFixture(t, 1, 5000)
		res := interrupted(t, f)

		card, err := f.orch.ConfirmCard(ctx, res.PaymentID, "u1", "pm_card_visa", models.BillingDetails{})
		require.NoError(t, err)
		assert.Equal(t, string(models.PaymentChargeCaptured), card.State)
		require.NoError(t, f.orch.ConfirmPayment(ctx, "u1", res.PaymentIntentID))
		assert.Equal(t, models.PaymentConfirmed, f.state(t, res.PaymentID))
	})
}

func TestIntentIDFromSecret(t *testing.T) {
	tests := []struct {
		secret string
		want   string
		ok     bool
	}{
		{"pi_3Nabc_secret_XYZ", "pi_3Nabc", true},
		{"pi_3Nabc", "", false},
		{"_secret_XYZ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := IntentIDFromSecret(tt.secret)
		assert.Equal(t, tt.ok, ok, tt.secret)
		assert.Equal(t, tt.want, got, tt.secret)
	}
}
