package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingRepo "studiobook/database/repository/booking"
	paymentRepo "studiobook/database/repository/payment"
	"studiobook/models"
	"studiobook/services/booking"
	"studiobook/services/pricing"
)

const sweepBatch = 100

// CheckoutRequest books a seat and opens a payment for it.
type CheckoutRequest struct {
	SessionID      string
	SlotID         string
	UserID         string
	IdempotencyKey string
}

// CardResult reports where a card confirmation left the intent. RequiresAction means
// the payer has to finish an authentication step on the client.
type CardResult struct {
	PaymentID       string       `json:"payment_id"`
	PaymentIntentID string       `json:"payment_intent_id"`
	Status          IntentStatus `json:"status"`
	State           string       `json:"state"`
	RequiresAction  bool         `json:"requires_action"`
}

// Orchestrator runs checkout as a sequence of recorded steps: booking, intent, card
// confirmation, and final confirmation. Each step is persisted on the Payment so an
// interrupted checkout can be finished or rolled back by Reconcile.
type Orchestrator struct {
	Bookings booking.BookingService
	Payments paymentRepo.PaymentRepository
	Gateway  Gateway
	Queue    Enqueuer // optional
	Currency string
	// HoldFor is how long an unpaid booking keeps its seat.
	HoldFor time.Duration
	Logger  *zap.Logger
	now     func() time.Time
}

func NewOrchestrator(bookings booking.BookingService, payments paymentRepo.PaymentRepository, gateway Gateway, queue Enqueuer, currency string, holdFor time.Duration, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		Bookings: bookings,
		Payments: payments,
		Gateway:  gateway,
		Queue:    queue,
		Currency: currency,
		HoldFor:  holdFor,
		Logger:   logger,
		now:      time.Now,
	}
}

// Checkout creates the booking and then its payment intent. A failed booking stops
// everything; a failed intent cancels the booking again.
func (o *Orchestrator) Checkout(ctx context.Context, req CheckoutRequest) (*models.CheckoutResult, error) {
	b, err := o.Bookings.CreatePhotoSessionBooking(ctx, booking.BookingRequest{
		SessionID:      req.SessionID,
		SlotID:         req.SlotID,
		UserID:         req.UserID,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	if b.PaymentID != "" {
		return o.resume(ctx, b)
	}

	now := o.now()
	p := &models.Payment{
		ID:             uuid.New().String(),
		BookingID:      b.ID,
		PhotoSessionID: b.PhotoSessionID,
		UserID:         b.UserID,
		Amount:         b.Amount,
		Currency:       o.Currency,
		State:          models.PaymentPendingBooking,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := o.Payments.Create(ctx, p); err != nil {
		o.abandon(ctx, b.ID)
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	if err := o.Bookings.AttachPayment(ctx, b.ID, p.ID); err != nil {
		o.Logger.Warn("failed to link payment to booking", zap.String("bookingID", b.ID), zap.Error(err))
	}

	result := &models.CheckoutResult{BookingID: b.ID, PaymentID: p.ID, Fees: pricing.Fees(b.Amount)}

	if b.Amount == 0 {
		return result, o.settleFree(ctx, p)
	}

	intent, err := o.Gateway.CreateIntent(ctx, IntentRequest{
		Amount:   b.Amount,
		Currency: o.Currency,
		Metadata: map[string]string{
			"bookingId": b.ID,
			"sessionId": b.PhotoSessionID,
			"userId":    b.UserID,
			"paymentId": p.ID,
		},
		IdempotencyKey: "checkout-" + p.ID,
	})
	if err != nil {
		o.fail(context.WithoutCancel(ctx), p, err.Error())
		return nil, err
	}
	if err := o.recordIntent(ctx, p, intent.ID); err != nil {
		// Intent exists at the processor; reconciliation will find it through the queue.
		o.schedule(ctx, p.ID)
		return nil, err
	}
	o.schedule(ctx, p.ID)

	o.Logger.Info("checkout opened",
		zap.String("paymentID", p.ID), zap.String("bookingID", b.ID), zap.String("intentID", intent.ID), zap.Int64("amount", b.Amount))

	result.ClientSecret = intent.ClientSecret
	result.PaymentIntentID = intent.ID
	return result, nil
}

// CreatePaymentIntent opens an intent outside checkout. When metadata names a booking
// held by userID, the booking must still be pending and the amount must match it. A
// booking carries at most one live payment, so asking again returns the open intent.
func (o *Orchestrator) CreatePaymentIntent(ctx context.Context, userID string, params models.PaymentIntentParams) (*models.PaymentIntentResult, error) {
	if params.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	currency := strings.ToLower(params.Currency)
	if currency == "" {
		currency = o.Currency
	}

	now := o.now()
	p := &models.Payment{
		ID:        uuid.New().String(),
		UserID:    userID,
		Amount:    params.Amount,
		Currency:  currency,
		State:     models.PaymentPendingBooking,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if bookingID := params.Metadata["bookingId"]; bookingID != "" {
		b, err := o.Bookings.GetBooking(ctx, bookingID, userID)
		if err != nil {
			return nil, err
		}
		if b.Status != models.BookingPending {
			return nil, ErrInvalidState
		}
		if b.Amount != params.Amount {
			return nil, ErrAmountMismatch
		}
		if b.PaymentID != "" {
			return o.openIntent(ctx, b)
		}
		p.BookingID = b.ID
		p.PhotoSessionID = b.PhotoSessionID
	}
	if err := o.Payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	if p.BookingID != "" {
		if err := o.Bookings.AttachPayment(ctx, p.BookingID, p.ID); err != nil {
			// Lost the race to another payment, or the booking left pending.
			_ = o.Payments.Transition(context.WithoutCancel(ctx), p.ID, []models.PaymentState{models.PaymentPendingBooking}, models.PaymentFailed, err.Error())
			if errors.Is(err, bookingRepo.ErrStatusConflict) {
				return nil, ErrInvalidState
			}
			return nil, fmt.Errorf("failed to link payment to booking: %w", err)
		}
	}

	meta := map[string]string{}
	for k, v := range params.Metadata {
		meta[k] = v
	}
	meta["userId"] = userID
	meta["paymentId"] = p.ID

	intent, err := o.Gateway.CreateIntent(ctx, IntentRequest{
		Amount:         params.Amount,
		Currency:       currency,
		Metadata:       meta,
		IdempotencyKey: "intent-" + p.ID,
	})
	if err != nil {
		o.fail(context.WithoutCancel(ctx), p, err.Error())
		return nil, err
	}
	if err := o.recordIntent(ctx, p, intent.ID); err != nil {
		o.schedule(ctx, p.ID)
		return nil, err
	}
	o.schedule(ctx, p.ID)

	return &models.PaymentIntentResult{
		Success:         true,
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
	}, nil
}

// openIntent returns the intent already opened for a booking's payment.
func (o *Orchestrator) openIntent(ctx context.Context, b *models.Booking) (*models.PaymentIntentResult, error) {
	res, err := o.resume(ctx, b)
	if err != nil {
		return nil, err
	}
	if res.PaymentIntentID == "" {
		// payment still being set up, or settled without an intent
		return nil, ErrInvalidState
	}
	return &models.PaymentIntentResult{
		Success:         true,
		ClientSecret:    res.ClientSecret,
		PaymentIntentID: res.PaymentIntentID,
	}, nil
}

// ConfirmCard confirms the payment's intent with a card. Processor declines come back
// as *ProcessorError carrying the processor's message.
func (o *Orchestrator) ConfirmCard(ctx context.Context, paymentID, userID, paymentMethodID string, billing models.BillingDetails) (*CardResult, error) {
	p, err := o.owned(ctx, paymentID, userID)
	if err != nil {
		return nil, err
	}
	switch {
	case p.State == models.PaymentChargeCaptured, p.State == models.PaymentConfirmed:
		return &CardResult{PaymentID: p.ID, PaymentIntentID: p.IntentID, Status: IntentSucceeded, State: string(p.State)}, nil
	case !awaitingCard(p):
		return nil, ErrInvalidState
	}

	intent, err := o.Gateway.ConfirmCard(ctx, p.IntentID, paymentMethodID, billing)
	if err != nil {
		_ = o.Payments.RecordAttempt(ctx, p.ID, err.Error())
		o.Logger.Info("card confirmation declined", zap.String("paymentID", p.ID), zap.Error(err))
		return nil, err
	}

	result := &CardResult{
		PaymentID:       p.ID,
		PaymentIntentID: intent.ID,
		Status:          intent.Status,
		State:           string(p.State),
		RequiresAction:  intent.Status == IntentRequiresAction,
	}
	switch intent.Status {
	case IntentSucceeded:
		if err := o.capture(ctx, p); err != nil {
			return nil, err
		}
		result.State = string(models.PaymentChargeCaptured)
	case IntentRequiresPaymentMethod:
		_ = o.Payments.RecordAttempt(ctx, p.ID, intent.LastError)
		if intent.LastError != "" {
			return nil, &ProcessorError{Message: intent.LastError}
		}
	}
	return result, nil
}

// ConfirmPayment finishes a payment whose intent the processor reports as succeeded.
func (o *Orchestrator) ConfirmPayment(ctx context.Context, userID, intentID string) error {
	p, err := o.Payments.GetByIntentID(ctx, intentID)
	if errors.Is(err, paymentRepo.ErrNotFound) {
		return ErrPaymentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load payment: %w", err)
	}
	if p.UserID != userID {
		return ErrPaymentNotFound
	}
	return o.finish(ctx, p)
}

// Reconcile moves one payment forward from whatever the processor now reports:
// succeeded intents are confirmed, and payments unpaid past HoldFor are failed and
// their seat released.
func (o *Orchestrator) Reconcile(ctx context.Context, paymentID string) error {
	p, err := o.Payments.GetByID(ctx, paymentID)
	if errors.Is(err, paymentRepo.ErrNotFound) {
		return ErrPaymentNotFound
	}
	if err != nil {
		return err
	}
	if p.State.Terminal() {
		return nil
	}
	expired := o.now().Sub(p.CreatedAt) >= o.HoldFor

	if p.IntentID == "" {
		if expired {
			o.fail(ctx, p, "payment intent was never created")
		}
		return nil
	}

	intent, err := o.Gateway.GetIntent(ctx, p.IntentID)
	if err != nil {
		_ = o.Payments.RecordAttempt(ctx, p.ID, err.Error())
		return fmt.Errorf("failed to fetch intent %s: %w", p.IntentID, err)
	}

	switch {
	case intent.Status == IntentSucceeded:
		return o.finish(ctx, p)
	case intent.Status == IntentCanceled:
		o.fail(ctx, p, "payment intent canceled")
	case expired && intent.Status.awaitingPayer() && awaitingCard(p):
		if err := o.Gateway.CancelIntent(ctx, intent.ID); err != nil {
			return fmt.Errorf("failed to cancel expired intent: %w", err)
		}
		o.fail(ctx, p, "payment not completed in time")
	default:
		// Still in progress, or a captured charge whose booking has not been confirmed yet.
		if err := o.Payments.RecordAttempt(ctx, p.ID, p.LastError); err != nil {
			return err
		}
		o.schedule(ctx, p.ID)
	}
	return nil
}

// Sweep reconciles payments that have not moved for at least olderThan, then cancels
// priced bookings that were never given a payment within HoldFor.
func (o *Orchestrator) Sweep(ctx context.Context, olderThan time.Duration) (int, error) {
	stuck, err := o.Payments.ListStuck(ctx, o.now().Add(-olderThan), sweepBatch)
	if err != nil {
		return 0, err
	}
	done := 0
	for _, p := range stuck {
		if err := o.Reconcile(ctx, p.ID); err != nil {
			o.Logger.Warn("reconcile failed", zap.String("paymentID", p.ID), zap.Error(err))
			continue
		}
		done++
	}
	if len(stuck) > 0 {
		o.Logger.Info("payment sweep finished", zap.Int("stuck", len(stuck)), zap.Int("reconciled", done))
	}

	expired, err := o.Bookings.ExpireUnpaid(ctx, o.now().Add(-o.HoldFor))
	if err != nil {
		return done, err
	}
	return done + expired, nil
}

// IntentIDFromSecret extracts the intent ID from a client secret of the form
// "<intent id>_secret_<token>".
func IntentIDFromSecret(secret string) (string, bool) {
	id, _, ok := strings.Cut(secret, "_secret_")
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

func (o *Orchestrator) finish(ctx context.Context, p *models.Payment) error {
	switch p.State {
	case models.PaymentConfirmed:
		return nil
	case models.PaymentFailed:
		return ErrInvalidState
	case models.PaymentPendingBooking:
		if p.IntentID == "" {
			return ErrInvalidState
		}
	}

	intent, err := o.Gateway.GetIntent(ctx, p.IntentID)
	if err != nil {
		return err
	}
	if intent.Status != IntentSucceeded {
		return ErrNotSucceeded
	}

	if awaitingCard(p) {
		if err := o.capture(ctx, p); err != nil {
			return err
		}
	}

	if p.BookingID != "" {
		if err := o.Bookings.ConfirmBooking(ctx, p.BookingID); err != nil {
			// Money is taken; stay in charge_captured so reconciliation retries.
			_ = o.Payments.RecordAttempt(ctx, p.ID, err.Error())
			o.schedule(ctx, p.ID)
			return fmt.Errorf("failed to confirm booking: %w", err)
		}
	}

	err = o.Payments.Transition(ctx, p.ID, []models.PaymentState{models.PaymentChargeCaptured}, models.PaymentConfirmed, "")
	if errors.Is(err, paymentRepo.ErrStaleState) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to confirm payment: %w", err)
	}
	o.Logger.Info("payment confirmed", zap.String("paymentID", p.ID), zap.String("bookingID", p.BookingID))
	return nil
}

// awaitingCard reports whether the payment has an open intent and no captured charge.
// A payment whose intent was stored but whose state write was lost still counts.
func awaitingCard(p *models.Payment) bool {
	return p.IntentID != "" && (p.State == models.PaymentIntentCreated || p.State == models.PaymentPendingBooking)
}

func (o *Orchestrator) capture(ctx context.Context, p *models.Payment) error {
	err := o.Payments.Transition(ctx, p.ID,
		[]models.PaymentState{models.PaymentPendingBooking, models.PaymentIntentCreated}, models.PaymentChargeCaptured, "")
	if err != nil && !errors.Is(err, paymentRepo.ErrStaleState) {
		return fmt.Errorf("failed to record captured charge: %w", err)
	}
	return nil
}

// fail closes a payment that never captured money and releases its booking.
func (o *Orchestrator) fail(ctx context.Context, p *models.Payment, reason string) {
	err := o.Payments.Transition(ctx, p.ID,
		[]models.PaymentState{models.PaymentPendingBooking, models.PaymentIntentCreated}, models.PaymentFailed, reason)
	if err != nil {
		o.Logger.Warn("could not mark payment failed", zap.String("paymentID", p.ID), zap.Error(err))
		return
	}
	if p.BookingID != "" {
		o.abandon(ctx, p.BookingID)
	}
	o.Logger.Info("payment failed", zap.String("paymentID", p.ID), zap.String("reason", reason))
}

func (o *Orchestrator) abandon(ctx context.Context, bookingID string) {
	if err := o.Bookings.VoidBooking(ctx, bookingID); err != nil {
		o.Logger.Error("failed to cancel booking after payment failure", zap.String("bookingID", bookingID), zap.Error(err))
	}
}

func (o *Orchestrator) settleFree(ctx context.Context, p *models.Payment) error {
	if err := o.Bookings.ConfirmBooking(ctx, p.BookingID); err != nil {
		return err
	}
	return o.Payments.Transition(ctx, p.ID, []models.PaymentState{models.PaymentPendingBooking}, models.PaymentConfirmed, "")
}

func (o *Orchestrator) recordIntent(ctx context.Context, p *models.Payment, intentID string) error {
	if err := o.Payments.SetIntent(ctx, p.ID, intentID); err != nil {
		return fmt.Errorf("failed to record payment intent: %w", err)
	}
	if err := o.Payments.Transition(ctx, p.ID, []models.PaymentState{models.PaymentPendingBooking}, models.PaymentIntentCreated, ""); err != nil {
		return fmt.Errorf("failed to record payment intent: %w", err)
	}
	p.IntentID = intentID
	p.State = models.PaymentIntentCreated
	return nil
}

// resume answers a replayed checkout with the payment the first request opened.
func (o *Orchestrator) resume(ctx context.Context, b *models.Booking) (*models.CheckoutResult, error) {
	p, err := o.Payments.GetByID(ctx, b.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if p.State == models.PaymentFailed {
		return nil, ErrInvalidState
	}
	result := &models.CheckoutResult{BookingID: b.ID, PaymentID: p.ID, Fees: pricing.Fees(b.Amount)}
	if p.IntentID == "" {
		return result, nil
	}
	intent, err := o.Gateway.GetIntent(ctx, p.IntentID)
	if err != nil {
		return nil, err
	}
	result.ClientSecret = intent.ClientSecret
	result.PaymentIntentID = intent.ID
	return result, nil
}

func (o *Orchestrator) owned(ctx context.Context, paymentID, userID string) (*models.Payment, error) {
	p, err := o.Payments.GetByID(ctx, paymentID)
	if errors.Is(err, paymentRepo.ErrNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if p.UserID != userID {
		return nil, ErrPaymentNotFound
	}
	return p, nil
}

func (o *Orchestrator) schedule(ctx context.Context, paymentID string) {
	if o.Queue == nil {
		return
	}
	if err := o.Queue.EnqueueReconcile(context.WithoutCancel(ctx), paymentID); err != nil {
		o.Logger.Warn("failed to schedule payment reconciliation", zap.String("paymentID", paymentID), zap.Error(err))
	}
}
