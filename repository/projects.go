package repository

import (
	"context"

	"gorm.io/gorm"

	"overtimepay/apperror"
	"overtimepay/models"
)

type ProjectRepository struct {
	db *gorm.DB
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, id).Error; err != nil {
		return nil, apperror.FromDB(err, "project")
	}
	return &project, nil
}

func (r *ProjectRepository) ListActive(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name asc").Find(&projects).Error
	return projects, apperror.FromDB(err, "project")
}

func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	return apperror.FromDB(r.db.WithContext(ctx).Create(project).Error, "project")
}

func (r *ProjectRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Project{}).Count(&count).Error
	return count, apperror.FromDB(err, "project")
}
