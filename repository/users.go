package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"overtimepay/apperror"
	"overtimepay/models"
)

type UserRepository struct {
	db *gorm.DB
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Team").First(&user, id).Error; err != nil {
		return nil, apperror.FromDB(err, "user")
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, apperror.FromDB(err, "user")
	}
	return &user, nil
}

func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Preload("Team").Order("last_name asc, first_name asc, id asc").Find(&users).Error
	return users, apperror.FromDB(err, "user")
}

func (r *UserRepository) ListActiveByTeam(ctx context.Context, teamID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND is_active = ?", teamID, true).
		Order("id asc").
		Find(&users).Error
	return users, apperror.FromDB(err, "user")
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return apperror.FromDB(r.db.WithContext(ctx).Create(user).Error, "user")
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Model(user).
		Select("first_name", "last_name", "role", "team_id", "hire_date", "monthly_salary",
			"hourly_rate", "is_active", "password_hash", "must_change_password", "updated_at").
		Updates(user).Error
	return apperror.FromDB(err, "user")
}

func (r *UserRepository) HourlyRate(ctx context.Context, id uint) (decimal.Decimal, error) {
	var user models.User
	err := r.db.WithContext(ctx).Select("id", "hourly_rate").First(&user, id).Error
	if err != nil {
		return decimal.Zero, apperror.FromDB(err, "user")
	}
	return user.HourlyRate, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, apperror.FromDB(err, "user")
}
