package slot

import (
	"time"

	"studiobook/models"
	"studiobook/services/pricing"
)

// Validate checks a single slot before it enters a working list.
func Validate(s models.PhotoSessionSlot) error {
	if s.SlotNumber < 1 {
		return fieldErr("slot_number", ErrInvalidSlotNumber)
	}
	if !s.StartTime.Before(s.EndTime) {
		return fieldErr("end_time", ErrInvalidTimeRange)
	}
	if s.BreakDurationMinutes < 0 {
		return fieldErr("break_duration_minutes", ErrInvalidBreak)
	}
	if s.MaxParticipants < 1 {
		return fieldErr("max_participants", ErrInvalidCapacity)
	}
	if s.PricePerPerson < 0 {
		return fieldErr("price_per_person", ErrInvalidPrice)
	}
	if s.DiscountValue < 0 {
		return fieldErr("discount_value", ErrInvalidDiscount)
	}
	if !pricing.ValidDiscountType(s.DiscountType) {
		return fieldErr("discount_type", pricing.ErrInvalidDiscountType)
	}
	return nil
}

// ValidateSet checks the invariants that only hold across a whole session.
// Overlapping slots are allowed.
func ValidateSet(slots []models.PhotoSessionSlot) error {
	seen := make(map[int]struct{}, len(slots))
	for _, s := range slots {
		if err := Validate(s); err != nil {
			return err
		}
		if _, dup := seen[s.SlotNumber]; dup {
			return fieldErr("slot_number", ErrDuplicateSlotNumber)
		}
		seen[s.SlotNumber] = struct{}{}
	}
	return nil
}

// SuggestNext proposes the time range of the slot that follows prev: it starts after
// prev's break and lasts as long as prev. Callers may override it freely.
func SuggestNext(prev models.PhotoSessionSlot) (start, end time.Time) {
	start = prev.EndTime.Add(prev.Break())
	return start, start.Add(prev.Duration())
}
