package models

import "time"

// FlowStep is a step of the booking selection wizard.
type FlowStep string

const (
	StepSelect   FlowStep = "select"
	StepConfirm  FlowStep = "confirm"
	StepComplete FlowStep = "complete"
)

// Presentation is how a client lays out the wizard; both drive the same steps.
type Presentation string

const (
	PresentationActionSheet Presentation = "action_sheet"
	PresentationStepper     Presentation = "stepper"
)

// BookingFlow holds a user's progress through select → confirm → complete.
type BookingFlow struct {
	ID             string       `json:"id"`
	PhotoSessionID string       `json:"photo_session_id"`
	UserID         string       `json:"user_id"`
	Step           FlowStep     `json:"step"`
	SelectedSlotID string       `json:"selected_slot_id,omitempty"`
	Price          int64        `json:"price"`
	BookingID      string       `json:"booking_id,omitempty"`
	Error          string       `json:"error,omitempty"`
	Presentation   Presentation `json:"presentation"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// SlotOption is one row of the select step.
type SlotOption struct {
	Slot            PhotoSessionSlot `json:"slot"`
	DiscountedPrice int64            `json:"discounted_price"`
	Remaining       int              `json:"remaining"`
	Selectable      bool             `json:"selectable"`
}

// FlowView is what the client renders for the current step.
type FlowView struct {
	Flow    BookingFlow  `json:"flow"`
	Options []SlotOption `json:"options,omitempty"`
}
