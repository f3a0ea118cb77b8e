// Package repository implements the models repositories on top of gorm.
package repository

import (
	"context"

	"gorm.io/gorm"

	"overtimepay/models"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Transaction(ctx context.Context, fn func(tx models.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) TimeEntries() models.TimeEntryRepository {
	return &TimeEntryRepository{db: s.db}
}

func (s *Store) DailyOvertime() models.DailyOvertimeRepository {
	return &DailyOvertimeRepository{db: s.db}
}

func (s *Store) Users() models.UserRepository {
	return &UserRepository{db: s.db}
}

func (s *Store) Teams() models.TeamRepository {
	return &TeamRepository{db: s.db}
}

func (s *Store) Projects() models.ProjectRepository {
	return &ProjectRepository{db: s.db}
}
