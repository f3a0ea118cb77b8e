package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"overtimepay/models"
	"overtimepay/services"
)

// flakyStore fails the first failures summary upserts with err.
type flakyStore struct {
	models.Store
	overtime *flakyOvertime
}

func (s *flakyStore) DailyOvertime() models.DailyOvertimeRepository {
	return s.overtime
}

type flakyOvertime struct {
	models.DailyOvertimeRepository
	failures int
	calls    int
	err      error
}

func (f *flakyOvertime) Upsert(ctx context.Context, row *models.DailyOvertime) error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return f.DailyOvertimeRepository.Upsert(ctx, row)
}

func newFlaky(store models.Store, failures int, err error) *flakyStore {
	return &flakyStore{
		Store:    store,
		overtime: &flakyOvertime{DailyOvertimeRepository: store.DailyOvertime(), failures: failures, err: err},
	}
}

func newSyncer() *services.Syncer {
	return services.NewSyncer(services.DefaultSyncAttempts, 0, nil)
}

func summaryOf(t *testing.T, store models.Store, userID uint, day time.Time) *models.DailyOvertime {
	t.Helper()
	row, err := store.DailyOvertime().Find(context.Background(), userID, day)
	require.NoError(t, err)
	return row
}

func entryID(id uint) *uint {
	return &id
}
