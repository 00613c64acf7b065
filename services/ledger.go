package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"thunderbloop/config"
	"thunderbloop/models"
	"thunderbloop/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxLeaderboardSize = 100

// LedgerService owns point balances and referral attribution.
type LedgerService struct {
	DB     *gorm.DB
	Config config.LedgerConfig
}

func NewLedgerService(db *gorm.DB, cfg config.LedgerConfig) *LedgerService {
	return &LedgerService{DB: db, Config: cfg}
}

type SignupRequest struct {
	UserID        string
	Email         string
	ReferralToken string
}

// CreateAccount creates the caller's profile and, when the referral token
// resolves to an existing user, credits that referrer. Both happen in one
// transaction. An unknown token is ignored.
func (s *LedgerService) CreateAccount(ctx context.Context, req SignupRequest) (*models.UserProfile, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, fmt.Errorf("%w: missing account id", ErrInvalidInput)
	}
	token := strings.TrimSpace(req.ReferralToken)

	var profile models.UserProfile
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Unscoped().Model(&models.UserProfile{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrProfileExists
		}

		var referrer *models.UserProfile
		if token != "" && token != userID {
			var err error
			if referrer, err = findReferrer(tx, token); err != nil {
				return err
			}
		}

		profile = models.UserProfile{
			ID:           userID,
			Email:        strings.TrimSpace(req.Email),
			ReferralCode: userID,
		}
		if referrer != nil {
			profile.ReferredBy = &referrer.ID
		}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.ReferralCode{Code: userID, UserID: userID}).Error; err != nil {
			return err
		}

		if referrer == nil {
			return nil
		}
		return s.attribute(tx, referrer.ID, token, models.ReferralSourceSignup, s.Config.SignupReferralBonus, &profile.ID, "")
	})
	if err != nil {
		if !errors.Is(err, ErrProfileExists) {
			utils.Log.Errorw("❌ signup failed", "user_id", userID, "error", err)
		}
		return nil, err
	}

	if profile.ReferredBy != nil {
		utils.Log.Infow("🎉 signup with referral", "user_id", userID, "referrer", *profile.ReferredBy)
	} else {
		utils.Log.Infow("👤 signup", "user_id", userID, "ref_token_ignored", token != "")
	}
	return s.GetProfile(ctx, userID)
}

type RedeemStatus string

const (
	RedeemCredited  RedeemStatus = "ok"
	RedeemInvalid   RedeemStatus = "invalid"
	RedeemDuplicate RedeemStatus = "duplicate"
)

type RedeemRequest struct {
	Code      string
	VisitorID string
}

type RedeemResult struct {
	Status  RedeemStatus `json:"status"`
	OwnerID string       `json:"owner_id,omitempty"`
	VideoID string       `json:"video_id,omitempty"`
	Bonus   int64        `json:"bonus"`
}

// RedeemCode credits the owner of a referral or share code. Every visit
// counts unless RedeemOncePerVisitor is set and the visitor identifies
// itself. Share clicks are counted by ResolveShare, not here.
func (s *LedgerService) RedeemCode(ctx context.Context, req RedeemRequest) (*RedeemResult, error) {
	code := strings.TrimSpace(req.Code)
	visitor := strings.TrimSpace(req.VisitorID)
	result := &RedeemResult{Status: RedeemInvalid}
	if code == "" {
		return result, nil
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		source := models.ReferralSourceRedeem
		owner, err := findReferrer(tx, code)
		if err != nil {
			return err
		}
		if owner == nil {
			share, err := findShare(tx, code)
			if err != nil || share == nil {
				return err
			}
			if owner, err = findProfile(tx, share.ReferrerUID); err != nil || owner == nil {
				return err
			}
			source = models.ReferralSourceShare
			result.VideoID = share.VideoID
		}
		result.OwnerID = owner.ID

		if s.Config.RedeemOncePerVisitor && visitor != "" {
			var seen int64
			if err := tx.Model(&models.ReferralEvent{}).
				Where("code = ? AND visitor_id = ?", code, visitor).
				Count(&seen).Error; err != nil {
				return err
			}
			if seen > 0 {
				result.Status = RedeemDuplicate
				return nil
			}
		}

		if err := s.attribute(tx, owner.ID, code, source, s.Config.RedemptionBonus, nil, visitor); err != nil {
			return err
		}
		result.Status = RedeemCredited
		result.Bonus = s.Config.RedemptionBonus
		return nil
	})
	if err != nil {
		utils.Log.Errorw("❌ referral redemption failed", "code", code, "error", err)
		return nil, err
	}

	utils.Log.Infow("🔗 referral code redeemed", "code", code, "status", result.Status, "owner", result.OwnerID)
	return result, nil
}

// AdjustPoints applies a signed admin correction. Balances may go negative.
func (s *LedgerService) AdjustPoints(ctx context.Context, actor Identity, userID string, delta int64, reason string) (*models.UserProfile, error) {
	if delta == 0 {
		return nil, fmt.Errorf("%w: delta must be non-zero", ErrInvalidInput)
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return applyPoints(tx, userID, delta, 0, models.PointTransaction{
			Source:  models.PointSourceAdmin,
			Reason:  reason,
			ActorID: actor.UserID,
		})
	})
	if err != nil {
		return nil, err
	}

	utils.Log.Infow("🛠️ points adjusted", "user_id", userID, "delta", delta, "by", actor.UserID)
	return s.GetProfile(ctx, userID)
}

func (s *LedgerService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile, err := findProfile(s.DB.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrNotFound
	}
	return profile, nil
}

// Leaderboard returns the top profiles by points, ordered by the store.
func (s *LedgerService) Leaderboard(ctx context.Context, limit int) ([]models.UserProfile, error) {
	if limit <= 0 {
		limit = s.Config.DefaultLeaderboardTop
	}
	if limit <= 0 || limit > maxLeaderboardSize {
		limit = maxLeaderboardSize
	}

	var users []models.UserProfile
	err := s.DB.WithContext(ctx).
		Order("points DESC").
		Order("created_at ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

// ListUsers returns every profile sorted by points, highest first.
func (s *LedgerService) ListUsers(ctx context.Context) ([]models.UserProfile, error) {
	var users []models.UserProfile
	if err := s.DB.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, err
	}
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].Points > users[j].Points
	})
	return users, nil
}

// PointHistory lists a user's balance changes, newest first.
func (s *LedgerService) PointHistory(ctx context.Context, userID string, limit int) ([]models.PointTransaction, error) {
	if limit <= 0 || limit > maxLeaderboardSize {
		limit = maxLeaderboardSize
	}
	var txns []models.PointTransaction
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txns).Error
	return txns, err
}

// attribute credits one referral to ownerID and records the event.
func (s *LedgerService) attribute(tx *gorm.DB, ownerID, code string, source models.ReferralSource, bonus int64, referredID *string, visitor string) error {
	event := models.ReferralEvent{
		ID:         uuid.NewString(),
		Code:       code,
		OwnerID:    ownerID,
		Source:     source,
		ReferredID: referredID,
		VisitorID:  visitor,
		Bonus:      bonus,
	}
	if err := tx.Create(&event).Error; err != nil {
		return err
	}

	return applyPoints(tx, ownerID, bonus, 1, models.PointTransaction{
		Source:      models.PointSourceReferral,
		Reason:      fmt.Sprintf("referral_%s", source),
		ReferenceID: event.ID,
		ActorID:     derefString(referredID),
	})
}

// applyPoints increments points (and optionally referral_count) in place and
// writes the audit row when the balance actually moves.
func applyPoints(tx *gorm.DB, userID string, delta, referralDelta int64, entry models.PointTransaction) error {
	updates := map[string]interface{}{
		"points": gorm.Expr("points + ?", delta),
	}
	if referralDelta != 0 {
		updates["referral_count"] = gorm.Expr("referral_count + ?", referralDelta)
	}

	res := tx.Model(&models.UserProfile{}).Where("id = ?", userID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("profile %s: %w", userID, ErrNotFound)
	}

	if delta == 0 {
		return nil
	}
	entry.ID = uuid.NewString()
	entry.UserID = userID
	entry.Delta = delta
	return tx.Create(&entry).Error
}

// findReferrer resolves a referral code to its owner: the referral_codes
// table first, then users.referral_code. Returns nil when nothing matches.
func findReferrer(tx *gorm.DB, code string) (*models.UserProfile, error) {
	var rc models.ReferralCode
	err := tx.Where("code = ?", code).Take(&rc).Error
	switch {
	case err == nil:
		return findProfile(tx, rc.UserID)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	var profile models.UserProfile
	err = tx.Where("referral_code = ?", code).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func findProfile(tx *gorm.DB, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := tx.Where("id = ?", userID).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func findShare(tx *gorm.DB, shareID string) (*models.Share, error) {
	var share models.Share
	err := tx.Where("share_id = ?", shareID).Take(&share).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &share, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
