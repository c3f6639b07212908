package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiobook/models"
)

func TestDiscountedPrice(t *testing.T) {
	tests := []struct {
		name  string
		base  int64
		dt    models.DiscountType
		value int64
		want  int64
	}{
		{name: "none ignores value", base: 5000, dt: models.DiscountNone, value: 999, want: 5000},
		{name: "empty type is none", base: 5000, dt: "", value: 10, want: 5000},
		{name: "ten percent", base: 5000, dt: models.DiscountPercentage, value: 10, want: 4500},
		{name: "zero percent", base: 5000, dt: models.DiscountPercentage, value: 0, want: 5000},
		{name: "full percent", base: 5000, dt: models.DiscountPercentage, value: 100, want: 0},
		{name: "percent over 100 floors at zero", base: 5000, dt: models.DiscountPercentage, value: 150, want: 0},
		{name: "fixed amount", base: 5000, dt: models.DiscountFixedAmount, value: 800, want: 4200},
		{name: "fixed amount floors at zero", base: 500, dt: models.DiscountFixedAmount, value: 800, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DiscountedPrice(tt.base, tt.dt, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiscountedPriceProperties(t *testing.T) {
	bases := []int64{0, 1, 99, 3333, 5000, 123457}
	for _, base := range bases {
		for value := int64(0); value <= 100; value++ {
			none, err := DiscountedPrice(base, models.DiscountNone, value)
			require.NoError(t, err)
			assert.Equal(t, base, none)

			pct, err := DiscountedPrice(base, models.DiscountPercentage, value)
			require.NoError(t, err)
			assert.Equal(t, base-base*value/100, pct)
			assert.GreaterOrEqual(t, pct, int64(0))

			fixed, err := DiscountedPrice(base, models.DiscountFixedAmount, value*100)
			require.NoError(t, err)
			assert.Equal(t, max(base-value*100, 0), fixed)
		}
	}
}

func TestDiscountedPriceRejectsUnknownType(t *testing.T) {
	_, err := DiscountedPrice(5000, models.DiscountType("bogo"), 1)
	assert.ErrorIs(t, err, ErrInvalidDiscountType)
	assert.False(t, ValidDiscountType("bogo"))
}

func TestBookingAmount(t *testing.T) {
	session := models.PhotoSession{PricePerPerson: 8000}
	slot := models.PhotoSessionSlot{PricePerPerson: 5000, DiscountType: models.DiscountPercentage, DiscountValue: 10}

	amount, err := BookingAmount(session, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(8000), amount)

	amount, err = BookingAmount(session, &slot)
	require.NoError(t, err)
	assert.Equal(t, int64(4500), amount)
}

func TestMultiSlotTotal(t *testing.T) {
	tiers := []models.MultiSlotTier{
		{MinSlots: 2, DiscountType: models.DiscountFixedAmount, DiscountValue: 500},
		{MinSlots: 3, DiscountType: models.DiscountPercentage, DiscountValue: 10},
	}

	t.Run("below every threshold", func(t *testing.T) {
		total, err := MultiSlotTotal([]int64{5000}, tiers)
		require.NoError(t, err)
		assert.Equal(t, int64(5000), total)
	})

	t.Run("first threshold", func(t *testing.T) {
		total, err := MultiSlotTotal([]int64{5000, 5000}, tiers)
		require.NoError(t, err)
		assert.Equal(t, int64(9500), total)
	})

	t.Run("highest reached threshold wins", func(t *testing.T) {
		total, err := MultiSlotTotal([]int64{5000, 5000, 5000, 5000}, tiers)
		require.NoError(t, err)
		assert.Equal(t, int64(18000), total)
	})
}

func TestQuote(t *testing.T) {
	session := models.PhotoSession{ID: "sess-1"}
	session.MultiSlotTiers = []models.MultiSlotTier{
		{MinSlots: 2, DiscountType: models.DiscountPercentage, DiscountValue: 10},
	}
	discounted := models.PhotoSessionSlot{ID: "a", PricePerPerson: 5000, DiscountType: models.DiscountFixedAmount, DiscountValue: 1000}
	plain := models.PhotoSessionSlot{ID: "b", PricePerPerson: 6000, DiscountType: models.DiscountNone}

	tests := []struct {
		name     string
		slots    []models.PhotoSessionSlot
		subtotal int64
		total    int64
		tiered   bool
	}{
		{"single slot pays its own price", []models.PhotoSessionSlot{discounted}, 4000, 4000, false},
		{"two slots reach the tier", []models.PhotoSessionSlot{discounted, plain}, 10000, 9000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Quote(session, tt.slots)
			require.NoError(t, err)
			assert.Equal(t, tt.subtotal, q.Subtotal)
			assert.Equal(t, tt.total, q.Total)
			assert.Equal(t, tt.total, q.Fees.Amount)
			assert.Equal(t, tt.tiered, q.Tier != nil)
			assert.Len(t, q.Prices, len(tt.slots))
		})
	}

	bad := plain
	bad.DiscountType = "bogus"
	_, err := Quote(session, []models.PhotoSessionSlot{bad})
	assert.ErrorIs(t, err, ErrInvalidDiscountType)
}

func TestFees(t *testing.T) {
	fees := Fees(5000)
	assert.Equal(t, int64(5000), fees.Amount)
	assert.Equal(t, int64(500), fees.PlatformFee)
	assert.Equal(t, int64(180), fees.ProcessorFee)

	// 0.036 * 1234 = 44.424
	assert.Equal(t, int64(44), Fees(1234).ProcessorFee)
}
