package repository

import (
	"context"

	"gorm.io/gorm"

	"overtimepay/apperror"
	"overtimepay/models"
)

type TeamRepository struct {
	db *gorm.DB
}

func (r *TeamRepository) GetByID(ctx context.Context, id uint) (*models.Team, error) {
	var team models.Team
	if err := r.db.WithContext(ctx).First(&team, id).Error; err != nil {
		return nil, apperror.FromDB(err, "team")
	}
	return &team, nil
}

func (r *TeamRepository) List(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	err := r.db.WithContext(ctx).Order("name asc").Find(&teams).Error
	return teams, apperror.FromDB(err, "team")
}

func (r *TeamRepository) ListByManager(ctx context.Context, managerID uint) ([]models.Team, error) {
	var teams []models.Team
	err := r.db.WithContext(ctx).Where("manager_id = ?", managerID).Order("name asc").Find(&teams).Error
	return teams, apperror.FromDB(err, "team")
}

func (r *TeamRepository) Create(ctx context.Context, team *models.Team) error {
	return apperror.FromDB(r.db.WithContext(ctx).Create(team).Error, "team")
}

func (r *TeamRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Team{}).Count(&count).Error
	return count, apperror.FromDB(err, "team")
}
