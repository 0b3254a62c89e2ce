package models

import "strings"

// DaySchedule holds the attendance windows for one weekday. Times are local
// HH:mm strings, lexically comparable.
type DaySchedule struct {
	Active        bool   `json:"active"`
	CheckInStart  string `json:"check_in_start"`
	CheckInEnd    string `json:"check_in_end"`
	CheckOutStart string `json:"check_out_start"`
	CheckOutEnd   string `json:"check_out_end"`
}

// WeekSchedule maps a lowercase weekday name to its schedule. A missing
// weekday resolves to the default active schedule.
type WeekSchedule map[string]DaySchedule

// DefaultDaySchedule is used when no schedule is configured for a weekday.
func DefaultDaySchedule() DaySchedule {
	return DaySchedule{
		Active:        true,
		CheckInStart:  "06:30",
		CheckInEnd:    "07:30",
		CheckOutStart: "14:00",
		CheckOutEnd:   "15:00",
	}
}

// Resolve returns the schedule for the given weekday name.
func (w WeekSchedule) Resolve(weekday string) DaySchedule {
	if w == nil {
		return DefaultDaySchedule()
	}
	day, ok := w[strings.ToLower(weekday)]
	if !ok {
		return DefaultDaySchedule()
	}
	if day.CheckInEnd == "" {
		day.CheckInEnd = DefaultDaySchedule().CheckInEnd
	}
	return day
}
