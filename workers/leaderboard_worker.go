// workers/leaderboard_worker.go
package workers

import (
	"context"
	"fmt"
	"time"

	"thunderbloop/services"
	"thunderbloop/utils"

	"github.com/go-co-op/gocron/v2"
)

// LeaderboardWorker periodically rebuilds the leaderboard rank snapshot.
type LeaderboardWorker struct {
	ledger    *services.LedgerService
	interval  time.Duration
	scheduler gocron.Scheduler
}

func NewLeaderboardWorker(ledger *services.LedgerService, interval time.Duration) *LeaderboardWorker {
	return &LeaderboardWorker{
		ledger:   ledger,
		interval: interval,
	}
}

// Start schedules the refresh job, running it once immediately. Jobs never
// overlap; a slow refresh pushes the next one back.
func (w *LeaderboardWorker) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() { w.refresh(ctx) }),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("schedule leaderboard refresh: %w", err)
	}

	w.scheduler = sched
	sched.Start()
	utils.Log.Infow("🔁 leaderboard worker started", "interval", w.interval.String())
	return nil
}

func (w *LeaderboardWorker) Stop() error {
	if w.scheduler == nil {
		return nil
	}
	utils.Log.Infow("⏹️ leaderboard worker stopped")
	return w.scheduler.Shutdown()
}

func (w *LeaderboardWorker) refresh(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	n, err := w.ledger.RefreshLeaderboard(ctx)
	if err != nil {
		utils.Log.Errorw("❌ leaderboard refresh failed", "error", err)
		return
	}
	utils.Log.Debugw("🏆 leaderboard refreshed", "entries", n)
}
