package models

import "time"

// ReferralCode maps a public code to the user who owns it.
type ReferralCode struct {
	Code      string    `gorm:"primaryKey" json:"code"`
	UserID    string    `gorm:"index;not null" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type ReferralSource string

const (
	ReferralSourceSignup ReferralSource = "signup"
	ReferralSourceRedeem ReferralSource = "redeem"
	ReferralSourceShare  ReferralSource = "share"
)

// ReferralEvent is written once per attribution credited to OwnerID.
type ReferralEvent struct {
	ID         string         `gorm:"primaryKey" json:"id"`
	Code       string         `gorm:"index;not null" json:"code"`
	OwnerID    string         `gorm:"index;not null" json:"owner_id"`
	Source     ReferralSource `gorm:"type:varchar(16);not null" json:"source"`
	ReferredID *string        `gorm:"uniqueIndex" json:"referred_id,omitempty"` // signup only
	VisitorID  string         `gorm:"index" json:"visitor_id,omitempty"`
	Bonus      int64          `json:"bonus"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}
