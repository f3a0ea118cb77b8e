package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"overtimepay/apperror"
	"overtimepay/calendar"
	"overtimepay/models"
)

type DailyOvertimeRepository struct {
	db *gorm.DB
}

// Upsert runs in its own transaction, which becomes a savepoint when the
// repository is already bound to one, so a failed attempt can be retried.
func (r *DailyOvertimeRepository) Upsert(ctx context.Context, row *models.DailyOvertime) error {
	row.Date = calendar.StartOfDay(row.Date)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"overtime_hours", "overtime_pay"}),
		}).Create(row).Error
	})
	return apperror.FromDB(err, "daily overtime")
}

func (r *DailyOvertimeRepository) Find(ctx context.Context, userID uint, day time.Time) (*models.DailyOvertime, error) {
	start, end := calendar.DayRange(day)
	var row models.DailyOvertime
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.FromDB(err, "daily overtime")
	}
	return &row, nil
}

func (r *DailyOvertimeRepository) List(ctx context.Context, filter models.RangeFilter) ([]models.DailyOvertime, error) {
	if filter.UserIDs != nil && len(filter.UserIDs) == 0 {
		return nil, nil
	}
	query := r.db.WithContext(ctx).Where("date >= ? AND date < ?", filter.From, filter.To)
	if filter.UserIDs != nil {
		query = query.Where("user_id IN ?", filter.UserIDs)
	}
	var rows []models.DailyOvertime
	err := query.Order("date asc, user_id asc").Find(&rows).Error
	return rows, apperror.FromDB(err, "daily overtime")
}
