package repository

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"overtimepay/apperror"
	"overtimepay/calendar"
	"overtimepay/models"
)

type TimeEntryRepository struct {
	db *gorm.DB
}

func (r *TimeEntryRepository) ListByUserAndDay(ctx context.Context, userID uint, day time.Time) ([]models.TimeEntry, error) {
	start, end := calendar.DayRange(day)
	var entries []models.TimeEntry
	err := r.db.WithContext(ctx).Preload("Project").
		Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		Order("id asc").
		Find(&entries).Error
	return entries, apperror.FromDB(err, "time entry")
}

func (r *TimeEntryRepository) List(ctx context.Context, filter models.RangeFilter) ([]models.TimeEntry, error) {
	if filter.UserIDs != nil && len(filter.UserIDs) == 0 {
		return nil, nil
	}
	query := r.db.WithContext(ctx).Where("date >= ? AND date < ?", filter.From, filter.To)
	if filter.UserIDs != nil {
		query = query.Where("user_id IN ?", filter.UserIDs)
	}
	var entries []models.TimeEntry
	err := query.Order("date asc, user_id asc, id asc").Find(&entries).Error
	return entries, apperror.FromDB(err, "time entry")
}

func (r *TimeEntryRepository) GetByID(ctx context.Context, id uint) (*models.TimeEntry, error) {
	var entry models.TimeEntry
	if err := r.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		return nil, apperror.FromDB(err, "time entry")
	}
	return &entry, nil
}

func (r *TimeEntryRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.TimeEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var entries []models.TimeEntry
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&entries).Error
	return entries, apperror.FromDB(err, "time entry")
}

func (r *TimeEntryRepository) CreateIfAbsent(ctx context.Context, entry *models.TimeEntry) (bool, error) {
	entry.Date = calendar.StartOfDay(entry.Date)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "project_id"}, {Name: "date"}},
			DoNothing: true,
		}).
		Create(entry)
	if result.Error != nil {
		return false, apperror.FromDB(result.Error, "time entry")
	}
	return result.RowsAffected > 0, nil
}

func (r *TimeEntryRepository) Update(ctx context.Context, entry *models.TimeEntry) error {
	entry.Date = calendar.StartOfDay(entry.Date)
	result := r.db.WithContext(ctx).Model(entry).
		Select("user_id", "project_id", "date", "hours", "updated_at").
		Updates(entry)
	if result.Error != nil {
		return apperror.FromDB(result.Error, "time entry")
	}
	if result.RowsAffected == 0 {
		return apperror.Newf(apperror.CodeNotFound, "time entry %d not found", entry.ID)
	}
	return nil
}

func (r *TimeEntryRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.TimeEntry{}, id)
	if result.Error != nil {
		return apperror.FromDB(result.Error, "time entry")
	}
	if result.RowsAffected == 0 {
		return apperror.Newf(apperror.CodeNotFound, "time entry %d not found", id)
	}
	return nil
}

func (r *TimeEntryRepository) UserDays(ctx context.Context, userID *uint, from, to time.Time) ([]models.UserDay, error) {
	query := r.db.WithContext(ctx).Model(&models.TimeEntry{}).Select("user_id", "date")
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	if !from.IsZero() {
		query = query.Where("date >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("date < ?", to)
	}

	var rows []models.TimeEntry
	if err := query.Find(&rows).Error; err != nil {
		return nil, apperror.FromDB(err, "time entry")
	}
	return distinctUserDays(rows), nil
}

func distinctUserDays(rows []models.TimeEntry) []models.UserDay {
	seen := make(map[models.UserDay]struct{}, len(rows))
	days := make([]models.UserDay, 0, len(rows))
	for _, row := range rows {
		key := models.UserDay{UserID: row.UserID, Date: calendar.StartOfDay(row.Date)}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		days = append(days, key)
	}
	sort.Slice(days, func(i, j int) bool {
		if !days[i].Date.Equal(days[j].Date) {
			return days[i].Date.Before(days[j].Date)
		}
		return days[i].UserID < days[j].UserID
	})
	return days
}
