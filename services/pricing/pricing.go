package pricing

import (
	"errors"
	"fmt"

	"studiobook/models"
)

var ErrInvalidDiscountType = errors.New("invalid discount type")

// DiscountedPrice applies a slot discount to a whole-yen base price.
// Percentages are not clamped here; results are floored at zero.
func DiscountedPrice(base int64, discountType models.DiscountType, value int64) (int64, error) {
	switch discountType {
	case models.DiscountNone, "":
		return base, nil
	case models.DiscountPercentage:
		return max(base-base*value/100, 0), nil
	case models.DiscountFixedAmount:
		return max(base-value, 0), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDiscountType, discountType)
	}
}

// ValidDiscountType reports whether t is understood by DiscountedPrice.
func ValidDiscountType(t models.DiscountType) bool {
	switch t {
	case models.DiscountNone, models.DiscountPercentage, models.DiscountFixedAmount, "":
		return true
	}
	return false
}

// SlotPrice is the per-person price a participant pays for slot.
func SlotPrice(slot models.PhotoSessionSlot) (int64, error) {
	return DiscountedPrice(slot.PricePerPerson, slot.DiscountType, slot.DiscountValue)
}

// BookingAmount is what a booking is charged: the discounted slot price when a slot
// is chosen, otherwise the session's per-person price.
func BookingAmount(session models.PhotoSession, slot *models.PhotoSessionSlot) (int64, error) {
	if slot == nil {
		return session.PricePerPerson, nil
	}
	return SlotPrice(*slot)
}
