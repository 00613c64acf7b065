package models

import "time"

// LeaderboardEntry is one row of the periodically refreshed ranking snapshot.
type LeaderboardEntry struct {
	UserID        string    `gorm:"primaryKey" json:"user_id"`
	Email         string    `json:"email"`
	Points        int64     `json:"points"`
	ReferralCount int64     `json:"referral_count"`
	Rank          int       `gorm:"index" json:"rank"`
	RefreshedAt   time.Time `json:"refreshed_at"`
}

// All lists every model the service migrates.
func All() []interface{} {
	return []interface{}{
		&UserProfile{},
		&ReferralCode{},
		&ReferralEvent{},
		&PointTransaction{},
		&Task{},
		&TaskSubmission{},
		&Video{},
		&Share{},
		&LeaderboardEntry{},
	}
}
