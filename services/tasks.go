package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"thunderbloop/models"
	"thunderbloop/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskService struct {
	DB *gorm.DB
}

func NewTaskService(db *gorm.DB) *TaskService {
	return &TaskService{DB: db}
}

// --- Task catalogue ---

type CreateTaskInput struct {
	Title       string
	Description string
	Points      int64
}

func (s *TaskService) CreateTask(ctx context.Context, in CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Points <= 0 {
		return nil, fmt.Errorf("%w: points must be positive", ErrInvalidInput)
	}

	task := &models.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Points:      in.Points,
		IsActive:    true,
	}
	if err := s.DB.WithContext(ctx).Create(task).Error; err != nil {
		return nil, err
	}
	utils.Log.Infow("📋 task created", "task_id", task.ID, "points", task.Points)
	return task, nil
}

func (s *TaskService) ListTasks(ctx context.Context, includeInactive bool) ([]models.Task, error) {
	q := s.DB.WithContext(ctx).Order("created_at DESC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	var tasks []models.Task
	err := q.Find(&tasks).Error
	return tasks, err
}

func (s *TaskService) SetTaskActive(ctx context.Context, taskID string, active bool) (*models.Task, error) {
	db := s.DB.WithContext(ctx)
	res := db.Model(&models.Task{}).Where("id = ?", taskID).Update("is_active", active)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var task models.Task
	if err := db.Where("id = ?", taskID).Take(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// --- Submissions ---

type SubmitTaskInput struct {
	TaskID   string
	Proof    string
	ProofURL string
}

// CheckSubmittable returns the task if submitter may claim it now: the
// submitter has a profile and the task exists and is active.
func (s *TaskService) CheckSubmittable(ctx context.Context, submitter Identity, taskID string) (*models.Task, error) {
	db := s.DB.WithContext(ctx)

	profile, err := findProfile(db, submitter.UserID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrNoProfile
	}

	var task models.Task
	if err := db.Where("id = ?", taskID).Take(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !task.IsActive {
		return nil, ErrTaskInactive
	}
	return &task, nil
}

// SubmitTask stores a pending claim. Points are not touched until review.
func (s *TaskService) SubmitTask(ctx context.Context, submitter Identity, in SubmitTaskInput) (*models.TaskSubmission, error) {
	proof := strings.TrimSpace(in.Proof)
	if proof == "" {
		return nil, ErrEmptyProof
	}

	task, err := s.CheckSubmittable(ctx, submitter, in.TaskID)
	if err != nil {
		return nil, err
	}

	sub := &models.TaskSubmission{
		ID:        uuid.NewString(),
		UserID:    submitter.UserID,
		UserEmail: submitter.Email,
		TaskID:    task.ID,
		TaskTitle: task.Title,
		Points:    task.Points,
		Proof:     proof,
		ProofURL:  in.ProofURL,
		Status:    models.SubmissionPending,
	}
	if err := s.DB.WithContext(ctx).Create(sub).Error; err != nil {
		utils.Log.Errorw("❌ task submission failed", "user_id", submitter.UserID, "task_id", task.ID, "error", err)
		return nil, err
	}

	utils.Log.Infow("📝 task submitted", "submission_id", sub.ID, "user_id", sub.UserID, "task_id", sub.TaskID)
	return sub, nil
}

// ListSubmissions returns every submission for review: pending first, then
// newest first.
func (s *TaskService) ListSubmissions(ctx context.Context) ([]models.TaskSubmission, error) {
	var subs []models.TaskSubmission
	if err := s.DB.WithContext(ctx).Find(&subs).Error; err != nil {
		return nil, err
	}
	sort.SliceStable(subs, func(i, j int) bool {
		pi := subs[i].Status == models.SubmissionPending
		pj := subs[j].Status == models.SubmissionPending
		if pi != pj {
			return pi
		}
		return subs[i].CreatedAt.After(subs[j].CreatedAt)
	})
	return subs, nil
}

func (s *TaskService) ListUserSubmissions(ctx context.Context, userID string) ([]models.TaskSubmission, error) {
	var subs []models.TaskSubmission
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&subs).Error
	return subs, err
}

// ReviewSubmission moves a pending submission to approved or rejected. An
// approval credits the snapshot points to the submitter in the same
// transaction. Submissions that already left pending are refused.
func (s *TaskService) ReviewSubmission(ctx context.Context, reviewer Identity, submissionID string, decision models.SubmissionStatus) (*models.TaskSubmission, error) {
	if decision != models.SubmissionApproved && decision != models.SubmissionRejected {
		return nil, ErrInvalidDecision
	}

	var sub models.TaskSubmission
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", submissionID).Take(&sub).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		now := time.Now()
		res := tx.Model(&models.TaskSubmission{}).
			Where("id = ? AND status = ?", submissionID, models.SubmissionPending).
			Updates(map[string]interface{}{
				"status":      decision,
				"reviewed_at": now,
				"reviewed_by": reviewer.UserID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyReviewed
		}

		if decision == models.SubmissionApproved && sub.UserID != "" && sub.Points > 0 {
			if err := applyPoints(tx, sub.UserID, sub.Points, 0, models.PointTransaction{
				Source:      models.PointSourceTask,
				Reason:      fmt.Sprintf("task_%s", sub.TaskID),
				ActorID:     reviewer.UserID,
				ReferenceID: sub.ID,
			}); err != nil {
				return err
			}
		}

		return tx.Where("id = ?", submissionID).Take(&sub).Error
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrAlreadyReviewed) {
			utils.Log.Errorw("❌ submission review failed", "submission_id", submissionID, "error", err)
		}
		return nil, err
	}

	utils.Log.Infow("✅ submission reviewed", "submission_id", sub.ID, "status", sub.Status, "by", reviewer.UserID)
	return &sub, nil
}
