package booking

import (
	"context"
	"errors"

	"studiobook/models"
	"studiobook/services/pricing"
)

// Presentation picks the wizard layout for a viewport width in CSS pixels.
func Presentation(width, breakpoint int) models.Presentation {
	if width > 0 && width < breakpoint {
		return models.PresentationActionSheet
	}
	return models.PresentationStepper
}

// Options lists the slots of a session as the select step shows them.
func Options(slots []models.PhotoSessionSlot) []models.SlotOption {
	out := make([]models.SlotOption, 0, len(slots))
	for _, s := range slots {
		price, err := pricing.SlotPrice(s)
		if err != nil {
			price = s.PricePerPerson
		}
		out = append(out, models.SlotOption{
			Slot:            s,
			DiscountedPrice: price,
			Remaining:       max(s.MaxParticipants-s.CurrentParticipants, 0),
			Selectable:      !s.IsFull(),
		})
	}
	return out
}

// NewFlow starts a flow at the select step.
func NewFlow(id string, session models.PhotoSession, userID string, p models.Presentation) models.BookingFlow {
	return models.BookingFlow{
		ID:             id,
		PhotoSessionID: session.ID,
		UserID:         userID,
		Step:           models.StepSelect,
		Presentation:   p,
	}
}

// SelectSlot moves select → confirm. Sessions with slots need a slot with a free seat;
// sessions without slots take none.
func SelectSlot(f models.BookingFlow, session models.PhotoSession, slots []models.PhotoSessionSlot, slotID string) (models.BookingFlow, error) {
	if f.Step != models.StepSelect {
		return f, ErrFlowStep
	}

	next := f
	next.Error = ""
	if len(slots) == 0 {
		if slotID != "" {
			return f, ErrSlotNotFound
		}
		next.SelectedSlotID = ""
		next.Price = session.PricePerPerson
		next.Step = models.StepConfirm
		return next, nil
	}

	if slotID == "" {
		return f, ErrSlotRequired
	}
	for _, s := range slots {
		if s.ID != slotID {
			continue
		}
		if s.IsFull() {
			return f, ErrSlotNotSelectable
		}
		price, err := pricing.SlotPrice(s)
		if err != nil {
			return f, err
		}
		next.SelectedSlotID = s.ID
		next.Price = price
		next.Step = models.StepConfirm
		return next, nil
	}
	return f, ErrSlotNotFound
}

// Back returns confirm → select. Nothing leaves complete.
func Back(f models.BookingFlow) (models.BookingFlow, error) {
	if f.Step != models.StepConfirm {
		return f, ErrFlowStep
	}
	next := f
	next.Step = models.StepSelect
	next.Error = ""
	return next, nil
}

// BookFunc performs the booking for a confirmed flow and returns the booking ID.
type BookFunc func(ctx context.Context, f models.BookingFlow) (string, error)

// Confirm runs book once. Success completes the flow; failure keeps it in confirm
// with the failure message recorded, and book's error is returned.
func Confirm(ctx context.Context, f models.BookingFlow, book BookFunc) (models.BookingFlow, error) {
	if f.Step != models.StepConfirm {
		return f, ErrFlowStep
	}
	next := f
	id, err := book(ctx, f)
	if err == nil && id == "" {
		err = errors.New("booking returned no id")
	}
	if err != nil {
		next.Error = Message(err)
		return next, err
	}
	next.BookingID = id
	next.Error = ""
	next.Step = models.StepComplete
	return next, nil
}
