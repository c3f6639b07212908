package models

import "time"

// PaymentState tracks a checkout across the processor and our records.
type PaymentState string

const (
	PaymentPendingBooking PaymentState = "pending_booking"
	PaymentIntentCreated  PaymentState = "intent_created"
	PaymentChargeCaptured PaymentState = "charge_captured"
	PaymentConfirmed      PaymentState = "confirmed"
	PaymentFailed         PaymentState = "failed"
)

// Terminal reports whether no further transition is expected.
func (s PaymentState) Terminal() bool {
	return s == PaymentConfirmed || s == PaymentFailed
}

type Payment struct {
	ID             string       `bson:"id" json:"id"`
	BookingID      string       `bson:"booking_id" json:"booking_id"`
	PhotoSessionID string       `bson:"photo_session_id" json:"photo_session_id"`
	UserID         string       `bson:"user_id" json:"user_id"`
	Amount         int64        `bson:"amount" json:"amount"`
	Currency       string       `bson:"currency" json:"currency"`
	IntentID       string       `bson:"intent_id,omitempty" json:"intent_id,omitempty"`
	State          PaymentState `bson:"state" json:"state"`
	LastError      string       `bson:"last_error,omitempty" json:"last_error,omitempty"`
	Attempts       int          `bson:"attempts" json:"attempts"`
	CreatedAt      time.Time    `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `bson:"updated_at" json:"updated_at"`
}

// PaymentIntentParams mirrors what the checkout sends to the processor.
type PaymentIntentParams struct {
	Amount   int64             `json:"amount" binding:"required,gt=0"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata"`
}

// BillingDetails accompany a card confirmation.
type BillingDetails struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// FeeBreakdown is informational; the payer is always charged Amount.
type FeeBreakdown struct {
	Amount       int64 `json:"amount"`
	PlatformFee  int64 `json:"platform_fee"`
	ProcessorFee int64 `json:"processor_fee"`
}
