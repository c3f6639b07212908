package slot

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTimeRange    = errors.New("slot end time must be after its start time")
	ErrInvalidCapacity     = errors.New("slot must admit at least one participant")
	ErrInvalidPrice        = errors.New("slot price must not be negative")
	ErrInvalidDiscount     = errors.New("slot discount value must not be negative")
	ErrInvalidSlotNumber   = errors.New("slot number must be positive")
	ErrInvalidBreak        = errors.New("break duration must not be negative")
	ErrDuplicateSlotNumber = errors.New("slot number is already used in this session")
	ErrSlotNotFound        = errors.New("slot not found in draft")
	ErrSlotHasBookings     = errors.New("slot already has participants")
	ErrDraftNotFound       = errors.New("slot draft not found or expired")
	ErrImageUpload         = errors.New("costume image upload failed")
)

// FieldError ties a validation failure to the form field that caused it.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldErr(field string, err error) error {
	return &FieldError{Field: field, Err: err}
}
