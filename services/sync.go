// Package services holds the overtime use cases: entry submission with its
// summary sync, the report aggregations, user administration and dashboards.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"overtimepay/apperror"
	"overtimepay/calendar"
	"overtimepay/models"
	"overtimepay/overtime"
)

const (
	DefaultSyncAttempts = 3
	DefaultSyncBackoff  = 10 * time.Millisecond
)

// Syncer recomputes the daily overtime summary of one user and day from the
// stored time entries and the user's hourly rate.
type Syncer struct {
	maxAttempts int
	backoff     time.Duration
	log         *slog.Logger
}

func NewSyncer(maxAttempts int, backoff time.Duration, log *slog.Logger) *Syncer {
	if maxAttempts < 1 {
		maxAttempts = DefaultSyncAttempts
	}
	if log == nil {
		log = slog.Default()
	}
	return &Syncer{maxAttempts: maxAttempts, backoff: backoff, log: log}
}

// Sync writes the summary for (userID, date) through store. Callers that
// change entries pass the transaction-bound store so the summary commits with
// the entries.
func (s *Syncer) Sync(ctx context.Context, store models.Store, userID uint, date time.Time) (*models.DailyOvertime, error) {
	day := calendar.StartOfDay(date)

	entries, err := store.TimeEntries().ListByUserAndDay(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Hours)
	}

	rate, err := store.Users().HourlyRate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rate.IsZero() {
		return nil, apperror.Wrap(apperror.CodeInternal,
			fmt.Sprintf("hourly rate is not set for user %d", userID), overtime.ErrMissingRate).
			WithDetail("user_id", userID)
	}

	result, err := overtime.Compute(total, rate)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeInternal,
			fmt.Sprintf("cannot compute overtime for user %d", userID), err)
	}

	row := &models.DailyOvertime{
		UserID:        userID,
		Date:          day,
		OvertimeHours: result.OvertimeHours,
		OvertimePay:   result.OvertimePay,
	}
	if err := s.upsert(ctx, store, row); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *Syncer) upsert(ctx context.Context, store models.Store, row *models.DailyOvertime) error {
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = store.DailyOvertime().Upsert(ctx, row)
		if err == nil {
			return nil
		}
		if !apperror.IsCode(err, apperror.CodeConflict) {
			return err
		}

		s.log.WarnContext(ctx, "overtime summary upsert conflict",
			slog.Uint64("user_id", uint64(row.UserID)),
			slog.String("date", calendar.FormatDate(row.Date)),
			slog.Int("attempt", attempt),
		)
		if attempt == s.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return apperror.Database("overtime summary sync cancelled", ctx.Err()).
				WithDetail("transient", true)
		case <-time.After(s.backoff * time.Duration(attempt)):
		}
	}

	return apperror.Database(
		fmt.Sprintf("overtime summary sync failed after %d attempts", s.maxAttempts), err).
		WithDetail("transient", true)
}

// affected collects the (user, day) keys touched by a write, in first-seen
// order.
type affected struct {
	seen map[models.UserDay]struct{}
	keys []models.UserDay
}

func newAffected() *affected {
	return &affected{seen: make(map[models.UserDay]struct{})}
}

func (a *affected) add(userID uint, date time.Time) {
	key := models.UserDay{UserID: userID, Date: calendar.StartOfDay(date)}
	if _, ok := a.seen[key]; ok {
		return
	}
	a.seen[key] = struct{}{}
	a.keys = append(a.keys, key)
}

// syncAll re-syncs every key, stopping at the first failure.
func (s *Syncer) syncAll(ctx context.Context, store models.Store, keys []models.UserDay) error {
	for _, key := range keys {
		if _, err := s.Sync(ctx, store, key.UserID, key.Date); err != nil {
			return err
		}
	}
	return nil
}
