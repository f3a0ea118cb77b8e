package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"overtimepay/calendar"
	"overtimepay/models"
)

// Syncer recomputes one daily overtime summary.
type Syncer interface {
	Sync(ctx context.Context, store models.Store, userID uint, date time.Time) (*models.DailyOvertime, error)
}

// Reconciler re-syncs every (user, day) with entries or a non-zero summary in
// the recent past so summaries left stale by writes outside the API converge.
type Reconciler struct {
	store    models.Store
	syncer   Syncer
	lookback int
	now      func() time.Time
	log      *slog.Logger
}

func NewReconciler(store models.Store, syncer Syncer, lookbackDays int, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{store: store, syncer: syncer, lookback: lookbackDays, now: time.Now, log: log}
}

// WithClock replaces the reference time that ends the lookback window.
func (r *Reconciler) WithClock(now func() time.Time) *Reconciler {
	r.now = now
	return r
}

func (r *Reconciler) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("reconcile_overtime_summaries", interval, r.Run)
}

// staleCandidates returns the (user, day) keys in [from, to) that have
// entries, followed by the keys whose summary still carries overtime although
// every entry of that day is gone.
func (r *Reconciler) staleCandidates(ctx context.Context, from, to time.Time) ([]models.UserDay, error) {
	days, err := r.store.TimeEntries().UserDays(ctx, nil, from, to)
	if err != nil {
		return nil, err
	}
	rows, err := r.store.DailyOvertime().List(ctx, models.RangeFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}

	seen := make(map[models.UserDay]struct{}, len(days))
	for _, key := range days {
		seen[key] = struct{}{}
	}
	for _, row := range rows {
		if row.OvertimeHours.IsZero() && row.OvertimePay.IsZero() {
			continue
		}
		key := models.UserDay{UserID: row.UserID, Date: calendar.StartOfDay(row.Date)}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		days = append(days, key)
	}
	return days, nil
}

// Run syncs each key in its own transaction. A failing key is logged and
// does not stop the others; the joined errors are returned.
func (r *Reconciler) Run(ctx context.Context) error {
	to := calendar.StartOfDay(r.now()).AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -r.lookback)

	days, err := r.staleCandidates(ctx, from, to)
	if err != nil {
		return err
	}

	var errs []error
	for _, key := range days {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := r.store.Transaction(ctx, func(tx models.Store) error {
			_, err := r.syncer.Sync(ctx, tx, key.UserID, key.Date)
			return err
		})
		if err != nil {
			r.log.WarnContext(ctx, "overtime reconcile failed",
				slog.Uint64("user_id", uint64(key.UserID)),
				slog.String("date", calendar.FormatDate(key.Date)),
				slog.Any("error", err),
			)
			errs = append(errs, err)
		}
	}

	r.log.InfoContext(ctx, "overtime summaries reconciled",
		slog.Int("days", len(days)),
		slog.Int("failed", len(errs)),
	)
	return errors.Join(errs...)
}
