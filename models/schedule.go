package models

import "time"

// Schedule is where a session's start and end come from: entered by the organizer,
// or derived from its slots.
type Schedule interface {
	Bounds() (start, end time.Time)
	Derived() bool
}

// ManualSchedule is entered by hand for sessions without slots.
type ManualSchedule struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (m ManualSchedule) Bounds() (time.Time, time.Time) { return m.Start, m.End }
func (m ManualSchedule) Derived() bool                  { return false }

// DerivedSchedule spans the earliest slot start to the latest slot end.
type DerivedSchedule struct {
	Slots []PhotoSessionSlot
}

func (d DerivedSchedule) Bounds() (time.Time, time.Time) {
	var start, end time.Time
	for i, s := range d.Slots {
		if i == 0 || s.StartTime.Before(start) {
			start = s.StartTime
		}
		if i == 0 || s.EndTime.After(end) {
			end = s.EndTime
		}
	}
	return start, end
}

func (d DerivedSchedule) Derived() bool { return true }

// ResolveSchedule picks the derived schedule whenever slots exist.
func ResolveSchedule(manual ManualSchedule, slots []PhotoSessionSlot) Schedule {
	if len(slots) > 0 {
		return DerivedSchedule{Slots: slots}
	}
	return manual
}

// ScheduleView is the wire form of a Schedule.
type ScheduleView struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Derived bool      `json:"derived"`
}

func ViewSchedule(s Schedule) ScheduleView {
	start, end := s.Bounds()
	return ScheduleView{Start: start, End: end, Derived: s.Derived()}
}
