package pricing

import "studiobook/models"

// ApplicableTier returns the tier with the highest threshold that n reaches.
func ApplicableTier(tiers []models.MultiSlotTier, n int) (models.MultiSlotTier, bool) {
	var best models.MultiSlotTier
	found := false
	for _, t := range tiers {
		if t.MinSlots <= 0 || n < t.MinSlots {
			continue
		}
		if !found || t.MinSlots > best.MinSlots {
			best = t
			found = true
		}
	}
	return best, found
}

// MultiSlotTotal sums per-slot prices and applies the best reached tier to the sum.
func MultiSlotTotal(prices []int64, tiers []models.MultiSlotTier) (int64, error) {
	var total int64
	for _, p := range prices {
		total += p
	}
	tier, ok := ApplicableTier(tiers, len(prices))
	if !ok {
		return total, nil
	}
	return DiscountedPrice(total, tier.DiscountType, tier.DiscountValue)
}

// Quote prices slots of session as one purchase: each slot at its own discounted
// price, then the session's best reached tier on the sum.
func Quote(session models.PhotoSession, slots []models.PhotoSessionSlot) (models.PriceQuote, error) {
	q := models.PriceQuote{
		SessionID: session.ID,
		SlotIDs:   make([]string, 0, len(slots)),
		Prices:    make([]int64, 0, len(slots)),
	}
	for _, sl := range slots {
		price, err := SlotPrice(sl)
		if err != nil {
			return models.PriceQuote{}, err
		}
		q.SlotIDs = append(q.SlotIDs, sl.ID)
		q.Prices = append(q.Prices, price)
		q.Subtotal += price
	}
	total, err := MultiSlotTotal(q.Prices, session.MultiSlotTiers)
	if err != nil {
		return models.PriceQuote{}, err
	}
	if tier, ok := ApplicableTier(session.MultiSlotTiers, len(slots)); ok {
		q.Tier = &tier
	}
	q.Total = total
	q.Fees = Fees(total)
	return q, nil
}
