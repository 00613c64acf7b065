package models

import "time"

// Task is an admin-defined action users can claim points for.
type Task struct {
	ID          string `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Points      int64  `gorm:"not null" json:"points"`
	IsActive    bool   `gorm:"not null;index" json:"is_active"`

	Timestamps
}

// SubmissionStatus is the review state of a TaskSubmission
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// TaskSubmission is a user's claim that they completed a task. Task fields are
// snapshotted at submission time so later task edits don't change the payout.
type TaskSubmission struct {
	ID        string `gorm:"primaryKey" json:"id"`
	UserID    string `gorm:"index;not null" json:"user_id"`
	UserEmail string `json:"user_email"`

	TaskID    string `gorm:"index;not null" json:"task_id"`
	TaskTitle string `json:"task_title"`
	Points    int64  `json:"points"`

	Proof    string `gorm:"type:text;not null" json:"proof"`
	ProofURL string `gorm:"type:text" json:"proof_url,omitempty"`

	Status     SubmissionStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	CreatedAt  time.Time        `gorm:"autoCreateTime" json:"created_at"`
	ReviewedAt *time.Time       `json:"reviewed_at,omitempty"`
	ReviewedBy *string          `json:"reviewed_by,omitempty"`
}
