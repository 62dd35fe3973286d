package models

import (
	"time"

	"github.com/google/uuid"
)

// Submission status enums. A submission leaves PENDING the moment the
// evaluator decides; only manual moderation changes it afterwards.
const (
	SubmissionStatusPending  = "PENDING"
	SubmissionStatusApproved = "APPROVED"
	SubmissionStatusRejected = "REJECTED"
)

type Submission struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	TaskID       uuid.UUID `json:"task_id"`
	TypedContent string    `json:"typed_content"`
	DocLink      *string   `json:"doc_link,omitempty"`
	MatchScore   float64   `json:"match_score"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}
