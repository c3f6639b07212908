package slot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiobook/models"
	"studiobook/services/pricing"
)

var day = time.Date(2026, 11, 3, 0, 0, 0, 0, time.FixedZone("JST", 9*60*60))

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func validSlot(number int, startH, startM, endH, endM int) models.PhotoSessionSlot {
	return models.PhotoSessionSlot{
		SlotNumber:      number,
		StartTime:       at(startH, startM),
		EndTime:         at(endH, endM),
		MaxParticipants: 3,
		PricePerPerson:  5000,
		DiscountType:    models.DiscountNone,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.PhotoSessionSlot)
		want   error
		field  string
	}{
		{name: "valid", mutate: func(*models.PhotoSessionSlot) {}},
		{name: "end equals start", mutate: func(s *models.PhotoSessionSlot) { s.EndTime = s.StartTime }, want: ErrInvalidTimeRange, field: "end_time"},
		{name: "end before start", mutate: func(s *models.PhotoSessionSlot) { s.EndTime = s.StartTime.Add(-time.Minute) }, want: ErrInvalidTimeRange, field: "end_time"},
		{name: "zero capacity", mutate: func(s *models.PhotoSessionSlot) { s.MaxParticipants = 0 }, want: ErrInvalidCapacity, field: "max_participants"},
		{name: "negative capacity", mutate: func(s *models.PhotoSessionSlot) { s.MaxParticipants = -2 }, want: ErrInvalidCapacity, field: "max_participants"},
		{name: "negative price", mutate: func(s *models.PhotoSessionSlot) { s.PricePerPerson = -1 }, want: ErrInvalidPrice, field: "price_per_person"},
		{name: "negative discount", mutate: func(s *models.PhotoSessionSlot) { s.DiscountValue = -5 }, want: ErrInvalidDiscount, field: "discount_value"},
		{name: "zero slot number", mutate: func(s *models.PhotoSessionSlot) { s.SlotNumber = 0 }, want: ErrInvalidSlotNumber, field: "slot_number"},
		{name: "negative break", mutate: func(s *models.PhotoSessionSlot) { s.BreakDurationMinutes = -1 }, want: ErrInvalidBreak, field: "break_duration_minutes"},
		{name: "unknown discount type", mutate: func(s *models.PhotoSessionSlot) { s.DiscountType = "bulk" }, want: pricing.ErrInvalidDiscountType, field: "discount_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSlot(1, 10, 0, 11, 0)
			tt.mutate(&s)
			err := Validate(s)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestValidateSet(t *testing.T) {
	a := validSlot(1, 10, 0, 11, 0)
	b := validSlot(2, 10, 30, 11, 30) // overlaps a

	assert.NoError(t, ValidateSet([]models.PhotoSessionSlot{a, b}), "overlaps are allowed")

	b.SlotNumber = 1
	assert.ErrorIs(t, ValidateSet([]models.PhotoSessionSlot{a, b}), ErrDuplicateSlotNumber)
}

func TestSuggestNext(t *testing.T) {
	prev := validSlot(2, 19, 0, 19, 50)
	prev.BreakDurationMinutes = 10

	start, end := SuggestNext(prev)
	assert.Equal(t, at(20, 0), start)
	assert.Equal(t, at(20, 50), end)
}
