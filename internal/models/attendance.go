package models

import "strings"

// AttendanceStatus is the recorded outcome for one student on one day.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "Present"
	StatusSick    AttendanceStatus = "Sick"
	StatusLeave   AttendanceStatus = "Leave"
	StatusAbsent  AttendanceStatus = "Absent"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusPresent, StatusSick, StatusLeave, StatusAbsent:
		return true
	default:
		return false
	}
}

// Classification tags carried in the note column.
const (
	TagOnTime = "OnTime"
	TagLate   = "Late"
)

// Event types reported back to the client and carried on notifications.
const (
	EventCheckIn  = "checkin"
	EventCheckOut = "checkout"
	EventManual   = "manual"
)

// AttendanceEvent is one ledger row: at most one per (date, nis) across the
// live table and all partitions. Date is dd/MM/yyyy, times are HH:mm.
type AttendanceEvent struct {
	Date         string           `json:"date"`
	NIS          string           `json:"nis"`
	Name         string           `json:"nama"`
	Status       AttendanceStatus `json:"status"`
	CheckInTime  string           `json:"check_in_time,omitempty"`
	CheckOutTime string           `json:"check_out_time,omitempty"`
	Note         string           `json:"note,omitempty"`
}

// Late reports whether the note column carries the late marker.
func (e AttendanceEvent) Late() bool {
	return strings.Contains(strings.ToLower(e.Note), strings.ToLower(TagLate))
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
