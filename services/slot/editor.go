package slot

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"studiobook/models"
)

// EditorState is the working set of slots for one session before it is saved.
// It only changes through Reduce.
type EditorState struct {
	DraftID   string                    `json:"draft_id"`
	OwnerID   string                    `json:"owner_id"`
	SessionID string                    `json:"session_id,omitempty"`
	Slots     []models.PhotoSessionSlot `json:"slots"`
	Draft     models.PhotoSessionSlot   `json:"draft"`
	EditingID string                    `json:"editing_id,omitempty"`
	Manual    models.ManualSchedule     `json:"manual"`
	Schedule  models.ScheduleView       `json:"schedule"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

// Action is one editor operation.
type Action interface {
	apply(s EditorState) (EditorState, error)
}

// AddOrUpdate appends Slot, or replaces the slot being edited.
type AddOrUpdate struct {
	Slot models.PhotoSessionSlot
}

// BeginEdit loads an existing slot into the form.
type BeginEdit struct {
	SlotID string
}

// CancelEdit abandons the slot being edited.
type CancelEdit struct{}

// Remove drops a slot from the working list.
type Remove struct {
	SlotID string
}

// AttachImage records an uploaded costume image on the form.
type AttachImage struct {
	URL string
}

// SetManualSchedule sets the times used while the session has no slots.
type SetManualSchedule struct {
	Start time.Time
	End   time.Time
}

// NewEditorState starts a working list, optionally seeded with persisted slots.
func NewEditorState(draftID, ownerID, sessionID string, manual models.ManualSchedule, slots []models.PhotoSessionSlot) EditorState {
	s := EditorState{
		DraftID:   draftID,
		OwnerID:   ownerID,
		SessionID: sessionID,
		Slots:     slices.Clone(slots),
		Manual:    manual,
	}
	if s.Slots == nil {
		s.Slots = []models.PhotoSessionSlot{}
	}
	s.Draft = freshDraft(s.Slots)
	return withSchedule(s)
}

// Reduce applies action to a copy of state. On error the original state is returned.
func Reduce(state EditorState, action Action) (EditorState, error) {
	next := state
	next.Slots = slices.Clone(state.Slots)
	next, err := action.apply(next)
	if err != nil {
		return state, err
	}
	return withSchedule(next), nil
}

func (a AddOrUpdate) apply(s EditorState) (EditorState, error) {
	candidate := a.Slot
	if err := Validate(candidate); err != nil {
		return s, err
	}

	if s.EditingID != "" {
		idx := indexOf(s.Slots, s.EditingID)
		if idx < 0 {
			return s, ErrSlotNotFound
		}
		existing := s.Slots[idx]
		candidate.ID = existing.ID
		candidate.PhotoSessionID = existing.PhotoSessionID
		candidate.CurrentParticipants = existing.CurrentParticipants
		if candidate.MaxParticipants < existing.CurrentParticipants {
			return s, fieldErr("max_participants", ErrInvalidCapacity)
		}
		s.Slots[idx] = candidate
	} else {
		candidate.ID = uuid.New().String()
		candidate.PhotoSessionID = s.SessionID
		candidate.CurrentParticipants = 0
		s.Slots = append(s.Slots, candidate)
	}

	s.EditingID = ""
	s.Draft = freshDraft(s.Slots)
	return s, nil
}

func (a BeginEdit) apply(s EditorState) (EditorState, error) {
	idx := indexOf(s.Slots, a.SlotID)
	if idx < 0 {
		return s, ErrSlotNotFound
	}
	s.EditingID = a.SlotID
	s.Draft = s.Slots[idx]
	return s, nil
}

func (CancelEdit) apply(s EditorState) (EditorState, error) {
	s.EditingID = ""
	s.Draft = freshDraft(s.Slots)
	return s, nil
}

func (a Remove) apply(s EditorState) (EditorState, error) {
	idx := indexOf(s.Slots, a.SlotID)
	if idx < 0 {
		return s, ErrSlotNotFound
	}
	if s.Slots[idx].CurrentParticipants > 0 {
		return s, ErrSlotHasBookings
	}
	s.Slots = slices.Delete(s.Slots, idx, idx+1)
	if s.EditingID == a.SlotID || s.EditingID == "" {
		s.EditingID = ""
		s.Draft = freshDraft(s.Slots)
	}
	return s, nil
}

func (a AttachImage) apply(s EditorState) (EditorState, error) {
	s.Draft.CostumeImageURL = a.URL
	return s, nil
}

func (a SetManualSchedule) apply(s EditorState) (EditorState, error) {
	if !a.Start.Before(a.End) {
		return s, fieldErr("end_time", ErrInvalidTimeRange)
	}
	s.Manual = models.ManualSchedule{Start: a.Start, End: a.End}
	return s, nil
}

// freshDraft numbers the next slot and chains its times after the last one.
func freshDraft(slots []models.PhotoSessionSlot) models.PhotoSessionSlot {
	d := models.PhotoSessionSlot{
		SlotNumber:      len(slots) + 1,
		MaxParticipants: 1,
		DiscountType:    models.DiscountNone,
	}
	if n := len(slots); n > 0 {
		prev := slots[n-1]
		d.StartTime, d.EndTime = SuggestNext(prev)
		d.BreakDurationMinutes = prev.BreakDurationMinutes
		d.MaxParticipants = prev.MaxParticipants
		d.PricePerPerson = prev.PricePerPerson
	}
	return d
}

func withSchedule(s EditorState) EditorState {
	s.Schedule = models.ViewSchedule(models.ResolveSchedule(s.Manual, s.Slots))
	return s
}

func indexOf(slots []models.PhotoSessionSlot, id string) int {
	return slices.IndexFunc(slots, func(s models.PhotoSessionSlot) bool { return s.ID == id })
}
