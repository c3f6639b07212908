package payment

import (
	"context"
	"errors"

	"go.uber.org/zap"

	paymentRepo "studiobook/database/repository/payment"
	"studiobook/models"
)

// HandleWebhook verifies and applies a processor event. Events for intents we did not
// create are acknowledged and ignored.
func (o *Orchestrator) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := o.Gateway.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}
	if event.Intent == nil {
		return nil
	}

	p, err := o.Payments.GetByIntentID(ctx, event.Intent.ID)
	if errors.Is(err, paymentRepo.ErrNotFound) {
		o.Logger.Debug("webhook for unknown intent", zap.String("eventID", event.ID), zap.String("intentID", event.Intent.ID))
		return nil
	}
	if err != nil {
		return err
	}

	o.Logger.Info("payment webhook",
		zap.String("eventID", event.ID), zap.String("type", event.Type), zap.String("paymentID", p.ID))

	switch event.Type {
	case EventIntentSucceeded:
		return o.finish(ctx, p)
	case EventIntentFailed:
		// The payer may retry with another card until the hold expires.
		return o.Payments.RecordAttempt(ctx, p.ID, event.Intent.LastError)
	case EventIntentCanceled:
		if p.State == models.PaymentPendingBooking || p.State == models.PaymentIntentCreated {
			o.fail(ctx, p, "payment intent canceled")
		}
	}
	return nil
}
