package slot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiobook/models"
)

func assertScheduleMatchesSlots(t *testing.T, s EditorState) {
	t.Helper()
	if len(s.Slots) == 0 {
		assert.False(t, s.Schedule.Derived)
		assert.Equal(t, s.Manual.Start, s.Schedule.Start)
		assert.Equal(t, s.Manual.End, s.Schedule.End)
		return
	}
	minStart, maxEnd := s.Slots[0].StartTime, s.Slots[0].EndTime
	for _, sl := range s.Slots {
		if sl.StartTime.Before(minStart) {
			minStart = sl.StartTime
		}
		if sl.EndTime.After(maxEnd) {
			maxEnd = sl.EndTime
		}
	}
	assert.True(t, s.Schedule.Derived)
	assert.Equal(t, minStart, s.Schedule.Start)
	assert.Equal(t, maxEnd, s.Schedule.End)
}

func TestReduceAddAppendsAndResetsDraft(t *testing.T) {
	state := NewEditorState("d1", "u1", "", models.ManualSchedule{}, nil)
	assert.Equal(t, 1, state.Draft.SlotNumber)

	first := validSlot(1, 18, 0, 18, 50)
	first.BreakDurationMinutes = 10
	state, err := Reduce(state, AddOrUpdate{Slot: first})
	require.NoError(t, err)
	require.Len(t, state.Slots, 1)
	assert.NotEmpty(t, state.Slots[0].ID)
	assert.Equal(t, 2, state.Draft.SlotNumber)
	assertScheduleMatchesSlots(t, state)

	second := validSlot(2, 19, 0, 19, 50)
	second.BreakDurationMinutes = 10
	state, err = Reduce(state, AddOrUpdate{Slot: second})
	require.NoError(t, err)
	require.Len(t, state.Slots, 2)

	assert.Equal(t, 3, state.Draft.SlotNumber)
	assert.Equal(t, at(20, 0), state.Draft.StartTime, "next slot starts after the break")
	assertScheduleMatchesSlots(t, state)
}

func TestReduceRejectsInvalidSlotWithoutChangingState(t *testing.T) {
	state := NewEditorState("d1", "u1", "", models.ManualSchedule{}, nil)
	bad := validSlot(1, 11, 0, 10, 0)

	next, err := Reduce(state, AddOrUpdate{Slot: bad})
	assert.ErrorIs(t, err, ErrInvalidTimeRange)
	assert.Empty(t, next.Slots)
	assert.Equal(t, state.Draft, next.Draft)

	bad = validSlot(1, 10, 0, 11, 0)
	bad.MaxParticipants = 0
	_, err = Reduce(state, AddOrUpdate{Slot: bad})
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestReduceEditReplacesInPlace(t *testing.T) {
	state := NewEditorState("d1", "u1", "s1", models.ManualSchedule{}, nil)
	state, err := Reduce(state, AddOrUpdate{Slot: validSlot(1, 10, 0, 11, 0)})
	require.NoError(t, err)
	state, err = Reduce(state, AddOrUpdate{Slot: validSlot(2, 11, 10, 12, 0)})
	require.NoError(t, err)
	id := state.Slots[0].ID

	state, err = Reduce(state, BeginEdit{SlotID: id})
	require.NoError(t, err)
	assert.Equal(t, id, state.EditingID)
	assert.Equal(t, state.Slots[0], state.Draft)

	edited := state.Draft
	edited.StartTime = at(9, 0)
	edited.PricePerPerson = 6000
	state, err = Reduce(state, AddOrUpdate{Slot: edited})
	require.NoError(t, err)

	require.Len(t, state.Slots, 2)
	assert.Equal(t, id, state.Slots[0].ID)
	assert.Equal(t, "s1", state.Slots[0].PhotoSessionID)
	assert.Equal(t, int64(6000), state.Slots[0].PricePerPerson)
	assert.Empty(t, state.EditingID)
	assert.Equal(t, at(9, 0), state.Schedule.Start)
	assertScheduleMatchesSlots(t, state)
}

func TestReduceEditKeepsParticipants(t *testing.T) {
	persisted := validSlot(1, 10, 0, 11, 0)
	persisted.ID = "slot-1"
	persisted.CurrentParticipants = 2
	state := NewEditorState("d1", "u1", "s1", models.ManualSchedule{}, []models.PhotoSessionSlot{persisted})

	state, err := Reduce(state, BeginEdit{SlotID: "slot-1"})
	require.NoError(t, err)

	edited := state.Draft
	edited.CurrentParticipants = 0
	edited.MaxParticipants = 1
	_, err = Reduce(state, AddOrUpdate{Slot: edited})
	assert.ErrorIs(t, err, ErrInvalidCapacity, "capacity cannot drop below booked seats")

	edited.MaxParticipants = 4
	state, err = Reduce(state, AddOrUpdate{Slot: edited})
	require.NoError(t, err)
	assert.Equal(t, 2, state.Slots[0].CurrentParticipants)
}

func TestReduceRemove(t *testing.T) {
	manual := models.ManualSchedule{Start: at(9, 0), End: at(17, 0)}
	state := NewEditorState("d1", "u1", "", manual, nil)
	assertScheduleMatchesSlots(t, state)

	state, err := Reduce(state, AddOrUpdate{Slot: validSlot(1, 10, 0, 11, 0)})
	require.NoError(t, err)
	state, err = Reduce(state, AddOrUpdate{Slot: validSlot(2, 13, 0, 14, 0)})
	require.NoError(t, err)
	assert.Equal(t, at(14, 0), state.Schedule.End)

	state, err = Reduce(state, Remove{SlotID: state.Slots[1].ID})
	require.NoError(t, err)
	require.Len(t, state.Slots, 1)
	assert.Equal(t, at(11, 0), state.Schedule.End)
	assertScheduleMatchesSlots(t, state)

	state, err = Reduce(state, Remove{SlotID: state.Slots[0].ID})
	require.NoError(t, err)
	assert.Empty(t, state.Slots)
	assertScheduleMatchesSlots(t, state)

	_, err = Reduce(state, Remove{SlotID: "missing"})
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestReduceRemoveRefusesBookedSlot(t *testing.T) {
	booked := validSlot(1, 10, 0, 11, 0)
	booked.ID = "slot-1"
	booked.CurrentParticipants = 1
	state := NewEditorState("d1", "u1", "s1", models.ManualSchedule{}, []models.PhotoSessionSlot{booked})

	_, err := Reduce(state, Remove{SlotID: "slot-1"})
	assert.ErrorIs(t, err, ErrSlotHasBookings)
}

func TestReduceDoesNotAliasPreviousState(t *testing.T) {
	state := NewEditorState("d1", "u1", "", models.ManualSchedule{}, nil)
	state, err := Reduce(state, AddOrUpdate{Slot: validSlot(1, 10, 0, 11, 0)})
	require.NoError(t, err)

	before := state
	_, err = Reduce(state, Remove{SlotID: state.Slots[0].ID})
	require.NoError(t, err)
	assert.Len(t, before.Slots, 1)
}

func TestReduceManualSchedule(t *testing.T) {
	state := NewEditorState("d1", "u1", "", models.ManualSchedule{}, nil)

	_, err := Reduce(state, SetManualSchedule{Start: at(12, 0), End: at(11, 0)})
	assert.ErrorIs(t, err, ErrInvalidTimeRange)

	state, err = Reduce(state, SetManualSchedule{Start: at(9, 0), End: at(12, 0)})
	require.NoError(t, err)
	assert.Equal(t, at(9, 0), state.Schedule.Start)

	// slots take precedence over manual times
	state, err = Reduce(state, AddOrUpdate{Slot: validSlot(1, 13, 0, 14, 0)})
	require.NoError(t, err)
	assert.Equal(t, at(13, 0), state.Schedule.Start)
	assert.Equal(t, at(14, 0), state.Schedule.End)
	assert.True(t, state.Schedule.Derived)
	assert.Equal(t, 3*time.Hour, state.Manual.End.Sub(state.Manual.Start))
}

func TestReduceAttachImage(t *testing.T) {
	state := NewEditorState("d1", "u1", "", models.ManualSchedule{}, nil)
	state, err := Reduce(state, AttachImage{URL: "https://img.example/costume.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/costume.jpg", state.Draft.CostumeImageURL)
}
