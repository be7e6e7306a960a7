package model

import "time"

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationDeclined VerificationStatus = "declined"
	VerificationResubmit VerificationStatus = "resubmit"
	VerificationExpired  VerificationStatus = "expired"
	VerificationUnknown  VerificationStatus = "unknown"
)

type VerificationAttempt struct {
	SessionID string             `json:"session_id"`
	UserID    string             `json:"user_id"`
	Status    VerificationStatus `json:"status"`
	UpdatedAt time.Time          `json:"updated_at"`
}
