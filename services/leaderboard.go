package services

import (
	"context"
	"errors"
	"time"

	"thunderbloop/models"

	"gorm.io/gorm"
)

// RefreshLeaderboard rebuilds the rank snapshot from current balances.
// Equal points share a rank (1, 2, 2, 4).
func (s *LedgerService) RefreshLeaderboard(ctx context.Context) (int, error) {
	var users []models.UserProfile
	err := s.DB.WithContext(ctx).
		Order("points DESC").
		Order("created_at ASC").
		Find(&users).Error
	if err != nil {
		return 0, err
	}

	now := time.Now()
	entries := make([]models.LeaderboardEntry, len(users))
	for i, u := range users {
		rank := i + 1
		if i > 0 && u.Points == users[i-1].Points {
			rank = entries[i-1].Rank
		}
		entries[i] = models.LeaderboardEntry{
			UserID:        u.ID,
			Email:         u.Email,
			Points:        u.Points,
			ReferralCount: u.ReferralCount,
			Rank:          rank,
			RefreshedAt:   now,
		}
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.LeaderboardEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.CreateInBatches(entries, 200).Error
	})
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// RankOf returns the caller's row from the latest snapshot.
func (s *LedgerService) RankOf(ctx context.Context, userID string) (*models.LeaderboardEntry, error) {
	var entry models.LeaderboardEntry
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
