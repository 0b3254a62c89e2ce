package models

// NotificationIntent is an ephemeral request to message a guardian. It is
// queued on the attendance write path and consumed once by the flush.
type NotificationIntent struct {
	NIS       string           `json:"nis"`
	Name      string           `json:"nama"`
	Type      string           `json:"type"`
	Status    AttendanceStatus `json:"status"`
	Timestamp int64            `json:"timestamp"`
}
