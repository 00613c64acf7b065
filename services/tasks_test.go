package services

import (
	"context"
	"testing"
	"time"

	"thunderbloop/config"
	"thunderbloop/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reviewer = Identity{UserID: "admin-1", Email: "admin@example.com", Roles: []string{RoleAdmin}}

func newTask(t *testing.T, svc *TaskService, title string, points int64) *models.Task {
	t.Helper()
	task, err := svc.CreateTask(context.Background(), CreateTaskInput{Title: title, Points: points})
	require.NoError(t, err)
	return task
}

func TestCreateTask_Validation(t *testing.T) {
	ledger, _ := newLedger(t)
	svc := NewTaskService(ledger.DB)
	ctx := context.Background()

	_, err := svc.CreateTask(ctx, CreateTaskInput{Title: "  ", Points: 5})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateTask(ctx, CreateTaskInput{Title: "Follow us", Points: 0})
	assert.ErrorIs(t, err, ErrInvalidInput)

	task := newTask(t, svc, " Follow us ", 5)
	assert.Equal(t, "Follow us", task.Title)
	assert.True(t, task.IsActive)
}

func TestListTasks_ActiveOnly(t *testing.T) {
	ledger, _ := newLedger(t)
	svc := NewTaskService(ledger.DB)
	ctx := context.Background()

	keep := newTask(t, svc, "Subscribe", 10)
	hide := newTask(t, svc, "Old task", 10)

	updated, err := svc.SetTaskActive(ctx, hide.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	active, err := svc.ListTasks(ctx, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, keep.ID, active[0].ID)

	all, err := svc.ListTasks(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.SetTaskActive(ctx, "missing", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitTask(t *testing.T) {
	ledger, _ := newLedger(t)
	svc := NewTaskService(ledger.DB)
	ctx := context.Background()
	signup(t, ledger, "bob", "")
	bob := Identity{UserID: "bob", Email: "bob@example.com"}
	task := newTask(t, svc, "Watch the video", 20)

	_, err := svc.SubmitTask(ctx, bob, SubmitTaskInput{TaskID: task.ID, Proof: "   "})
	assert.ErrorIs(t, err, ErrEmptyProof)

	_, err = svc.SubmitTask(ctx, bob, SubmitTaskInput{TaskID: "missing", Proof: "done"})
	assert.ErrorIs(t, err, ErrNotFound)

	sub, err := svc.SubmitTask(ctx, bob, SubmitTaskInput{TaskID: task.ID, Proof: " done "})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionPending, sub.Status)
	assert.Equal(t, int64(20), sub.Points)
	assert.Equal(t, "Watch the video", sub.TaskTitle)
	assert.Equal(t, "done", sub.Proof)
	assert.Equal(t, "bob@example.com", sub.UserEmail)

	profile, err := ledger.GetProfile(ctx, "bob")
	require.NoError(t, err)
	assert.Zero(t, profile.Points, "submitting must not credit points")

	_, err = svc.SetTaskActive(ctx, task.ID, false)
	require.NoError(t, err)
	_, err = svc.SubmitTask(ctx, bob, SubmitTaskInput{TaskID: task.ID, Proof: "again"})
	assert.ErrorIs(t, err, ErrTaskInactive)
}

func TestSubmitTask_RequiresProfile(t *testing.T) {
	ledger, db := newLedger(t)
	svc := NewTaskService(ledger.DB)
	ctx := context.Background()
	task := newTask(t, svc, "Watch", 10)
	ghost := Identity{UserID: "ghost"}

	_, err := svc.CheckSubmittable(ctx, ghost, task.ID)
	assert.ErrorIs(t, err, ErrNoProfile)

	_, err = svc.SubmitTask(ctx, ghost, SubmitTaskInput{TaskID: task.ID, Proof: "done"})
	assert.ErrorIs(t, err, ErrNoProfile)

	var n int64
	require.NoError(t, db.Model(&models.TaskSubmission{}).Count(&n).Error)
	assert.Zero(t, n, "no submission is stored for a user without a profile")

	signup(t, ledger, "ghost", "")
	checked, err := svc.CheckSubmittable(ctx, ghost, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, checked.ID)
}

func TestReviewSubmission_ApproveCreditsOnce(t *testing.T) {
	ledger, _ := newLedger(t)
	svc := NewTaskService(ledger.DB)
	ctx := context.Background()
	signup(t, ledger, "bob", "")
	task := newTask(t, svc, "Share", 20)

	sub, err := svc.SubmitTask(ctx, Identity{UserID: "bob"}, SubmitTaskInput{TaskID: task.ID, Proof: "done"})
	require.NoError(t, err)

	reviewed, err := svc.ReviewSubmission(ctx, reviewer, sub.ID, models.SubmissionApproved)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedAt)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, "admin-1", *reviewed.ReviewedBy)

	_, err = svc.ReviewSubmission(ctx, reviewer, sub.ID, models.SubmissionApproved)
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
	_, err = svc.ReviewSubmission(ctx, reviewer, sub.ID, models.SubmissionRejected)
	assert.ErrorIs(t, err, ErrAlreadyReviewed)

	bob, err := ledger.GetProfile(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(20), bob.Points)

	history, err := ledger.PointHistory(ctx, "bob", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.PointSourceTask, history[0].Source)
	assert.Equal(t, sub.ID, history[0].ReferenceID)
}

func TestReviewSubmission_RejectLeavesPoints(t *testing.T) {
	ledger, _ := newLedger(t)
	svc := NewTaskService(ledger.DB)
	ctx := context.Background()
	signup(t, ledger, "bob", "")
	task := newTask(t, svc, "Comment", 15)

	sub, err := svc.SubmitTask(ctx, Identity{UserID: "bob"}, SubmitTaskInput{TaskID: task.ID, Proof: "link"})
	require.NoError(t, err)

	reviewed, err := svc.ReviewSubmission(ctx, reviewer, sub.ID, models.SubmissionRejected)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionRejected, reviewed.Status)

	bob, err := ledger.GetProfile(ctx, "bob")
	require.NoError(t, err)
	assert.Zero(t, bob.Points)
}

func TestReviewSubmission_Errors(t *testing.T) {
	ledger, _ := newLedger(t)
	svc := NewTaskService(ledger.DB)
	ctx := context.Background()

	_, err := svc.ReviewSubmission(ctx, reviewer, "whatever", models.SubmissionPending)
	assert.ErrorIs(t, err, ErrInvalidDecision)

	_, err = svc.ReviewSubmission(ctx, reviewer, "missing", models.SubmissionApproved)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReviewSubmission_MissingSubmitterRollsBack(t *testing.T) {
	ledger, db := newLedger(t)
	svc := NewTaskService(ledger.DB)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.TaskSubmission{
		ID: "orphan", UserID: "gone", TaskID: "t", Points: 10, Proof: "x", Status: models.SubmissionPending,
	}).Error)

	_, err := svc.ReviewSubmission(ctx, reviewer, "orphan", models.SubmissionApproved)
	assert.ErrorIs(t, err, ErrNotFound)

	var sub models.TaskSubmission
	require.NoError(t, db.Where("id = ?", "orphan").Take(&sub).Error)
	assert.Equal(t, models.SubmissionPending, sub.Status, "status update must roll back with the failed credit")
}

func TestListSubmissions_PendingFirst(t *testing.T) {
	ledger, db := newLedger(t)
	svc := NewTaskService(ledger.DB)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	rows := []models.TaskSubmission{
		{ID: "old-pending", UserID: "u", TaskID: "t", Proof: "p", Status: models.SubmissionPending, CreatedAt: base},
		{ID: "new-approved", UserID: "u", TaskID: "t", Proof: "p", Status: models.SubmissionApproved, CreatedAt: base.Add(30 * time.Minute)},
		{ID: "new-pending", UserID: "v", TaskID: "t", Proof: "p", Status: models.SubmissionPending, CreatedAt: base.Add(20 * time.Minute)},
		{ID: "old-rejected", UserID: "u", TaskID: "t", Proof: "p", Status: models.SubmissionRejected, CreatedAt: base.Add(time.Minute)},
	}
	require.NoError(t, db.Create(&rows).Error)

	subs, err := svc.ListSubmissions(ctx)
	require.NoError(t, err)
	ids := make([]string, len(subs))
	for i, s := range subs {
		ids[i] = s.ID
	}
	assert.Equal(t, []string{"new-pending", "old-pending", "new-approved", "old-rejected"}, ids)

	mine, err := svc.ListUserSubmissions(ctx, "v")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "new-pending", mine[0].ID)
}

// The end-to-end walk-through: A signs up, B joins via A, B's task is
// approved, another submission is rejected.
func TestLedgerScenario(t *testing.T) {
	ledger, _ := newLedger(t)
	tasks := NewTaskService(ledger.DB)
	ctx := context.Background()
	bonus := config.DefaultLedger.SignupReferralBonus

	a := signup(t, ledger, "A", "")
	assert.Zero(t, a.Points)
	assert.Zero(t, a.ReferralCount)
	assert.Nil(t, a.ReferredBy)

	b := signup(t, ledger, "B", "A")
	require.NotNil(t, b.ReferredBy)
	assert.Equal(t, "A", *b.ReferredBy)

	a, err := ledger.GetProfile(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.ReferralCount)
	assert.Equal(t, bonus, a.Points)

	worth20 := newTask(t, tasks, "Worth 20", 20)
	worth15 := newTask(t, tasks, "Worth 15", 15)
	identityB := Identity{UserID: "B", Email: "B@example.com"}

	sub20, err := tasks.SubmitTask(ctx, identityB, SubmitTaskInput{TaskID: worth20.ID, Proof: "done"})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionPending, sub20.Status)
	assert.Equal(t, int64(20), sub20.Points)
	sub15, err := tasks.SubmitTask(ctx, identityB, SubmitTaskInput{TaskID: worth15.ID, Proof: "done too"})
	require.NoError(t, err)

	b, err = ledger.GetProfile(ctx, "B")
	require.NoError(t, err)
	assert.Zero(t, b.Points)

	approved, err := tasks.ReviewSubmission(ctx, reviewer, sub20.ID, models.SubmissionApproved)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionApproved, approved.Status)

	rejected, err := tasks.ReviewSubmission(ctx, reviewer, sub15.ID, models.SubmissionRejected)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionRejected, rejected.Status)

	b, err = ledger.GetProfile(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, int64(20), b.Points)

	a, err = ledger.GetProfile(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, bonus, a.Points)
}
