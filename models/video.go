package models

import "time"

// Video is a promoted YouTube video.
type Video struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	VideoID      string    `gorm:"index;not null" json:"video_id"` // YouTube id
	Title        string    `gorm:"not null" json:"title"`
	Slug         string    `gorm:"index" json:"slug"`
	CreatedByUID *string   `json:"created_by_uid,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Share is a short redirect token tying a video to the user who shared it.
type Share struct {
	ID            string     `gorm:"primaryKey" json:"id"`
	ShareID       string     `gorm:"uniqueIndex;not null" json:"share_id"`
	VideoID       string     `gorm:"index;not null" json:"video_id"`
	ReferrerUID   string     `gorm:"index;not null" json:"referrer_uid"`
	ClickCount    int64      `gorm:"not null;default:0" json:"click_count"`
	LastClickedAt *time.Time `json:"last_clicked_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
