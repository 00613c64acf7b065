package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"thunderbloop/models"
	"thunderbloop/utils"

	"github.com/dchest/uniuri"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

const (
	shareIDLength   = 8
	shareIDAttempts = 3
)

// Tried in order; the first capture group is the video id.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[?&]v=([^&]+)`),
	regexp.MustCompile(`youtu\.be/([^?&]+)`),
	regexp.MustCompile(`youtube\.com/embed/([^?&]+)`),
}

// ExtractVideoID pulls the YouTube video id out of a watch, short or embed URL.
func ExtractVideoID(rawURL string) (string, error) {
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return m[1], nil
		}
	}
	return "", ErrInvalidVideoURL
}

type VideoService struct {
	DB *gorm.DB
}

func NewVideoService(db *gorm.DB) *VideoService {
	return &VideoService{DB: db}
}

func (s *VideoService) AddVideo(ctx context.Context, creator Identity, title, youtubeURL string) (*models.Video, error) {
	videoID, err := ExtractVideoID(youtubeURL)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	video := &models.Video{
		ID:      uuid.NewString(),
		VideoID: videoID,
		Title:   title,
		Slug:    slug.Make(title),
	}
	if creator.UserID != "" {
		video.CreatedByUID = &creator.UserID
	}
	if err := s.DB.WithContext(ctx).Create(video).Error; err != nil {
		return nil, err
	}

	utils.Log.Infow("🎬 video added", "id", video.ID, "video_id", video.VideoID)
	return video, nil
}

func (s *VideoService) ListVideos(ctx context.Context) ([]models.Video, error) {
	var videos []models.Video
	err := s.DB.WithContext(ctx).Order("created_at DESC").Find(&videos).Error
	return videos, err
}

// CreateShare issues a short share id for a video, owned by referrer. The
// video may be given by row id or YouTube id.
func (s *VideoService) CreateShare(ctx context.Context, referrer Identity, video string) (*models.Share, error) {
	db := s.DB.WithContext(ctx)

	owner, err := findProfile(db, referrer.UserID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, ErrNoProfile
	}

	var v models.Video
	if err := db.Where("id = ? OR video_id = ?", video, video).Order("created_at DESC").Take(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	for attempt := 0; attempt < shareIDAttempts; attempt++ {
		shareID := uniuri.NewLen(shareIDLength)

		var taken int64
		if err := db.Model(&models.Share{}).Where("share_id = ?", shareID).Count(&taken).Error; err != nil {
			return nil, err
		}
		if taken > 0 {
			continue
		}

		share := &models.Share{
			ID:          uuid.NewString(),
			ShareID:     shareID,
			VideoID:     v.VideoID,
			ReferrerUID: referrer.UserID,
		}
		if err := db.Create(share).Error; err != nil {
			return nil, err
		}
		utils.Log.Infow("📤 share created", "share_id", share.ShareID, "video_id", share.VideoID, "referrer", referrer.UserID)
		return share, nil
	}
	return nil, fmt.Errorf("could not allocate a unique share id after %d attempts", shareIDAttempts)
}

// ResolveShare looks up a share id and records the click.
func (s *VideoService) ResolveShare(ctx context.Context, shareID string) (*models.Share, error) {
	var share models.Share
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := findShare(tx, shareID)
		if err != nil {
			return err
		}
		if found == nil {
			return ErrNotFound
		}

		if err := recordShareClick(tx, found.ID); err != nil {
			return err
		}
		return tx.Where("id = ?", found.ID).Take(&share).Error
	})
	if err != nil {
		return nil, err
	}
	return &share, nil
}

func recordShareClick(tx *gorm.DB, id string) error {
	return tx.Model(&models.Share{}).Where("id = ?", id).Updates(map[string]interface{}{
		"click_count":     gorm.Expr("click_count + ?", 1),
		"last_clicked_at": time.Now(),
	}).Error
}
