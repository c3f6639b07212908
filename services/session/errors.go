package session

import "errors"

var (
	ErrNotFound           = errors.New("photo session not found")
	ErrNotOrganizer       = errors.New("only the organizer can change this photo session")
	ErrInvalidBookingType = errors.New("unknown booking type")
	ErrInvalidSchedule    = errors.New("session end time must be after its start time")
	ErrInvalidCapacity    = errors.New("session must admit at least one participant")
	ErrInvalidPrice       = errors.New("session price must not be negative")
	ErrDraftMismatch      = errors.New("slot draft belongs to another photo session")
	ErrSlotHasBookings    = errors.New("slots with participants cannot be removed")
	ErrInvalidTier        = errors.New("multi-slot tiers need distinct thresholds of at least two slots and a valid discount")
	ErrNoSlotsSelected    = errors.New("choose at least one slot to price")
	ErrSlotNotInSession   = errors.New("slot does not belong to this photo session")
)
