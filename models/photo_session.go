package models

import "time"

type BookingType string

const (
	BookingFirstCome    BookingType = "first_come"
	BookingLottery      BookingType = "lottery"
	BookingAdminLottery BookingType = "admin_lottery"
	BookingPriority     BookingType = "priority"
)

// Valid reports whether t is one of the known admission policies.
func (t BookingType) Valid() bool {
	switch t {
	case BookingFirstCome, BookingLottery, BookingAdminLottery, BookingPriority:
		return true
	}
	return false
}

// PhotoSession is a bookable photo shoot. When it has slots, StartTime and EndTime
// mirror the earliest slot start and the latest slot end.
type PhotoSession struct {
	ID                    string      `bson:"id" json:"id"`
	OrganizerID           string      `bson:"organizer_id" json:"organizer_id"`
	Title                 string      `bson:"title" json:"title"`
	Description           string      `bson:"description" json:"description"`
	Location              string      `bson:"location" json:"location"`
	Address               string      `bson:"address" json:"address"`
	StartTime             time.Time   `bson:"start_time" json:"start_time"`
	EndTime               time.Time   `bson:"end_time" json:"end_time"`
	MaxParticipants       int         `bson:"max_participants" json:"max_participants"`
	CurrentParticipants   int         `bson:"current_participants" json:"current_participants"`
	PricePerPerson        int64       `bson:"price_per_person" json:"price_per_person"`
	BookingType           BookingType `bson:"booking_type" json:"booking_type"`
	AllowMultipleBookings bool        `bson:"allow_multiple_bookings" json:"allow_multiple_bookings"`
	IsPublished           bool        `bson:"is_published" json:"is_published"`
	ImageURLs             []string    `bson:"image_urls" json:"image_urls"`
	HasSlots              bool        `bson:"has_slots" json:"has_slots"`
	CreatedAt             time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt             time.Time   `bson:"updated_at" json:"updated_at"`

	// MultiSlotTiers discount a participant who books several slots together.
	MultiSlotTiers []MultiSlotTier `bson:"multi_slot_tiers,omitempty" json:"multi_slot_tiers,omitempty"`
}

// SessionDetails are the organizer-entered fields that accompany a slot draft on save.
type SessionDetails struct {
	Title                 string      `json:"title" binding:"required"`
	Description           string      `json:"description"`
	Location              string      `json:"location" binding:"required"`
	Address               string      `json:"address"`
	MaxParticipants       int         `json:"max_participants"`
	PricePerPerson        int64       `json:"price_per_person"`
	BookingType           BookingType `json:"booking_type" binding:"required"`
	AllowMultipleBookings bool        `json:"allow_multiple_bookings"`
	ImageURLs             []string    `json:"image_urls"`

	MultiSlotTiers []MultiSlotTier `json:"multi_slot_tiers"`
}

// MultiSlotTier discounts the total when at least MinSlots slots are booked together.
type MultiSlotTier struct {
	MinSlots      int          `bson:"min_slots" json:"min_slots"`
	DiscountType  DiscountType `bson:"discount_type" json:"discount_type"`
	DiscountValue int64        `bson:"discount_value" json:"discount_value"`
}

// PriceQuote prices a set of slots in one session before anything is booked.
type PriceQuote struct {
	SessionID string         `json:"session_id"`
	SlotIDs   []string       `json:"slot_ids"`
	Prices    []int64        `json:"prices"`
	Subtotal  int64          `json:"subtotal"`
	Tier      *MultiSlotTier `json:"tier,omitempty"`
	Total     int64          `json:"total"`
	Fees      FeeBreakdown   `json:"fees"`
}

// PhotoSessionWithSlots is the read model served to the booking flow.
type PhotoSessionWithSlots struct {
	Session PhotoSession       `json:"session"`
	Slots   []PhotoSessionSlot `json:"slots"`
}
