package reward

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"cashbux/internal/logger"
	"cashbux/internal/storage"
)

func nowUTC() time.Time {
	return time.Now().UTC()
}

// resetCountersTx zeroes the user's daily counters inside the caller's
// transaction when the stored reset date is not today (UTC). The passed
// user struct is updated in place so later precondition checks see the
// reset values.
func resetCountersTx(tx *sql.Tx, u *storage.User) error {
	today := storage.Today()
	if u.CountersResetDate == today {
		return nil
	}
	_, err := tx.Exec(`
		UPDATE users
		SET ads_watched_today = 0,
		    tasks_completed_today_for_spin = 0,
		    friends_invited_today_for_spin = 0,
		    counters_reset_date = ?
		WHERE id = ?
	`, today, u.ID)
	if err != nil {
		return fmt.Errorf("failed to reset daily counters: %w", err)
	}
	u.AdsWatchedToday = 0
	u.TasksDoneToday = 0
	u.FriendsToday = 0
	u.CountersResetDate = today
	return nil
}

// ResetAllDailyCounters zeroes the daily counters of every user whose
// stored reset date is stale. Safe to run at any time; users already
// reset today are untouched.
func ResetAllDailyCounters() (int64, error) {
	db := storage.DB()
	if db == nil {
		return 0, fmt.Errorf("database not initialized")
	}
	today := storage.Today()
	res, err := db.Exec(`
		UPDATE users
		SET ads_watched_today = 0,
		    tasks_completed_today_for_spin = 0,
		    friends_invited_today_for_spin = 0,
		    counters_reset_date = ?
		WHERE counters_reset_date <> ?
	`, today, today)
	if err != nil {
		return 0, fmt.Errorf("failed to reset daily counters: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

// ResetWorker runs the nightly counter sweep at 00:00 UTC. The lazy
// in-transaction reset already keeps individual users correct; the
// sweep keeps the table clean for users who never log in.
type ResetWorker struct {
	cron *cron.Cron
}

func NewResetWorker() *ResetWorker {
	return &ResetWorker{cron: cron.New(cron.WithLocation(time.UTC))}
}

// Start schedules the sweep and launches the cron scheduler.
func (w *ResetWorker) Start() error {
	_, err := w.cron.AddFunc("0 0 * * *", func() {
		n, err := ResetAllDailyCounters()
		if err != nil {
			logger.Error(0, "daily_reset", err)
			return
		}
		logger.Info(0, "daily_reset", fmt.Sprintf("users_reset=%d", n))
	})
	if err != nil {
		return fmt.Errorf("failed to schedule daily reset: %w", err)
	}
	w.cron.Start()
	logger.Info(0, "daily_reset_worker_started", "schedule=00:00 UTC")
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (w *ResetWorker) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
	logger.Info(0, "daily_reset_worker_stopped", "")
}
