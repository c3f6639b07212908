package models

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking links a user to a photo session and, optionally, one of its slots.
type Booking struct {
	ID             string        `bson:"id" json:"id"`
	PhotoSessionID string        `bson:"photo_session_id" json:"photo_session_id"`
	SlotID         string        `bson:"slot_id,omitempty" json:"slot_id,omitempty"`
	UserID         string        `bson:"user_id" json:"user_id"`
	Amount         int64         `bson:"amount" json:"amount"`
	Status         BookingStatus `bson:"status" json:"status"`
	PaymentID      string        `bson:"payment_id,omitempty" json:"payment_id,omitempty"`
	IdempotencyKey string        `bson:"idempotency_key,omitempty" json:"-"`
	CreatedAt      time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `bson:"updated_at" json:"updated_at"`
}

// Active reports whether the booking still holds a seat.
func (b Booking) Active() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}
