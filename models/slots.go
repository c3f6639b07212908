package models

import "time"

type DiscountType string

const (
	DiscountNone        DiscountType = "none"
	DiscountPercentage  DiscountType = "percentage"
	DiscountFixedAmount DiscountType = "fixed_amount"
)

// PhotoSessionSlot is a discrete bookable time range within a photo session.
type PhotoSessionSlot struct {
	ID                   string       `bson:"id" json:"id"`
	PhotoSessionID       string       `bson:"photo_session_id" json:"photo_session_id"`
	SlotNumber           int          `bson:"slot_number" json:"slot_number"`
	StartTime            time.Time    `bson:"start_time" json:"start_time"`
	EndTime              time.Time    `bson:"end_time" json:"end_time"`
	BreakDurationMinutes int          `bson:"break_duration_minutes" json:"break_duration_minutes"` // gap before the next slot
	MaxParticipants      int          `bson:"max_participants" json:"max_participants"`
	CurrentParticipants  int          `bson:"current_participants" json:"current_participants"`
	PricePerPerson       int64        `bson:"price_per_person" json:"price_per_person"`
	DiscountType         DiscountType `bson:"discount_type" json:"discount_type"`
	DiscountValue        int64        `bson:"discount_value" json:"discount_value"` // percent or yen, per DiscountType
	DiscountCondition    string       `bson:"discount_condition,omitempty" json:"discount_condition,omitempty"`
	CostumeImageURL      string       `bson:"costume_image_url,omitempty" json:"costume_image_url,omitempty"`
	CostumeDescription   string       `bson:"costume_description,omitempty" json:"costume_description,omitempty"`
	Notes                string       `bson:"notes,omitempty" json:"notes,omitempty"`
}

// IsFull reports whether no seat is left.
func (s PhotoSessionSlot) IsFull() bool {
	return s.CurrentParticipants >= s.MaxParticipants
}

// Duration is the length of the slot.
func (s PhotoSessionSlot) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// Break is the gap to leave before the next slot.
func (s PhotoSessionSlot) Break() time.Duration {
	return time.Duration(s.BreakDurationMinutes) * time.Minute
}
