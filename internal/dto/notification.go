package dto

// TestSendRequest triggers a test notification for one student.
type TestSendRequest struct {
	NIS  string `json:"nis" binding:"required"`
	Name string `json:"nama"`
}
