package models

import "time"

type PointSource string

const (
	PointSourceReferral PointSource = "referral"
	PointSourceTask     PointSource = "task"
	PointSourceAdmin    PointSource = "admin"
)

// PointTransaction records a single change to a user's balance.
type PointTransaction struct {
	ID          string      `gorm:"primaryKey" json:"id"`
	UserID      string      `gorm:"index;not null" json:"user_id"`
	Delta       int64       `gorm:"not null" json:"delta"`
	Source      PointSource `gorm:"type:varchar(16);not null" json:"source"`
	Reason      string      `json:"reason,omitempty"`
	ActorID     string      `json:"actor_id,omitempty"`     // admin or referred user, if any
	ReferenceID string      `json:"reference_id,omitempty"` // submission / event id
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`
}
