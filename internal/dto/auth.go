package dto

import "time"

// TokenRequest exchanges the operator access key for a token.
type TokenRequest struct {
	AccessKey string `json:"access_key" binding:"required"`
	Operator  string `json:"operator"`
}

// TokenResponse carries the issued operator token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
