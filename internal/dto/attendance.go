package dto

// ScanRequest is the POST /attendance/scan payload. Status is optional; an
// empty status or "Present" records a scan, anything else a manual entry.
type ScanRequest struct {
	NIS    string `json:"nis" binding:"required"`
	Status string `json:"status" binding:"omitempty,oneof=Present Sick Leave Absent"`
	Note   string `json:"note"`
}
