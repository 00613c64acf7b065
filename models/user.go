package models

import (
	"time"

	"gorm.io/gorm"
)

// UserProfile is the ledger record for one account. Points and ReferralCount
// only ever move through additive increments.
type UserProfile struct {
	ID            string  `gorm:"primaryKey" json:"id"` // account identifier from the identity provider
	Email         string  `gorm:"index;not null" json:"email"`
	Points        int64   `gorm:"not null;default:0;index" json:"points"`
	ReferralCount int64   `gorm:"not null;default:0" json:"referral_count"`
	ReferralCode  string  `gorm:"uniqueIndex;not null" json:"referral_code"`
	ReferredBy    *string `gorm:"index" json:"referred_by"` // set once at signup

	Timestamps
}

func (UserProfile) TableName() string { return "users" }

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
