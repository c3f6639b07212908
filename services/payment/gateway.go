package payment

import (
	"context"

	"studiobook/models"
)

// IntentStatus mirrors the processor's payment intent lifecycle.
type IntentStatus string

const (
	IntentRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentRequiresConfirmation  IntentStatus = "requires_confirmation"
	IntentRequiresAction        IntentStatus = "requires_action"
	IntentProcessing            IntentStatus = "processing"
	IntentRequiresCapture       IntentStatus = "requires_capture"
	IntentSucceeded             IntentStatus = "succeeded"
	IntentCanceled              IntentStatus = "canceled"
)

// awaitingPayer reports whether the intent is waiting on the payer rather than the processor.
func (s IntentStatus) awaitingPayer() bool {
	switch s {
	case IntentRequiresPaymentMethod, IntentRequiresConfirmation, IntentRequiresAction:
		return true
	}
	return false
}

type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
	Status       IntentStatus
	Metadata     map[string]string
	LastError    string
}

type IntentRequest struct {
	Amount         int64
	Currency       string
	Metadata       map[string]string
	IdempotencyKey string
}

// Webhook event types handled by HandleWebhook.
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
	EventIntentCanceled  = "payment_intent.canceled"
)

type WebhookEvent struct {
	ID     string
	Type   string
	Intent *Intent // nil for events that do not carry a payment intent
}

// Gateway is the payment processor.
type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	// ConfirmCard attaches billing details to the payment method and confirms the intent with it.
	ConfirmCard(ctx context.Context, intentID, paymentMethodID string, billing models.BillingDetails) (*Intent, error)
	GetIntent(ctx context.Context, intentID string) (*Intent, error)
	CancelIntent(ctx context.Context, intentID string) error
	ParseWebhook(payload []byte, signature string) (WebhookEvent, error)
}

// Enqueuer schedules a later reconciliation of one payment.
type Enqueuer interface {
	EnqueueReconcile(ctx context.Context, paymentID string) error
}
