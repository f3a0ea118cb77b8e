// Package fixtures builds in-memory stores and seed records for tests.
package fixtures

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"overtimepay/database"
	"overtimepay/models"
	"overtimepay/repository"
)

const Password = "password123"

// NewDB opens a migrated in-memory database private to t.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenInMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func NewStore(t *testing.T) (*repository.Store, *gorm.DB) {
	t.Helper()
	db := NewDB(t)
	return repository.NewStore(db), db
}

func Day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type UserOption func(*models.User)

func WithRole(role models.Role) UserOption {
	return func(u *models.User) { u.Role = role }
}

func WithTeam(teamID uint) UserOption {
	return func(u *models.User) { u.TeamID = &teamID }
}

// WithSalary sets the monthly salary and the hourly rate derived from it.
func WithSalary(monthly string) UserOption {
	return func(u *models.User) { u.SetMonthlySalary(Dec(monthly)) }
}

// WithRate sets the hourly rate directly. A rate of "0" leaves the user
// without a usable rate.
func WithRate(rate string) UserOption {
	return func(u *models.User) { u.HourlyRate = Dec(rate) }
}

func Inactive() UserOption {
	return func(u *models.User) { u.IsActive = false }
}

// DefaultSalary gives fixture users an hourly rate of 100.
const DefaultSalary = "24000"

// User creates an active employee with a known password and DefaultSalary.
func User(t *testing.T, store models.Store, email string, opts ...UserOption) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)

	u := &models.User{
		FirstName:    "Test",
		LastName:     email,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleEmployee,
		IsActive:     true,
	}
	u.SetMonthlySalary(Dec(DefaultSalary))
	for _, opt := range opts {
		opt(u)
	}
	active := u.IsActive

	ctx := context.Background()
	require.NoError(t, store.Users().Create(ctx, u))
	if !active || !u.MustChangePassword {
		// zero values are skipped on create in favour of column defaults
		u.IsActive = active
		u.MustChangePassword = false
		require.NoError(t, store.Users().Update(ctx, u))
	}
	return u
}

func Team(t *testing.T, store models.Store, name string, managerID *uint) *models.Team {
	t.Helper()
	team := &models.Team{Name: name, ManagerID: managerID}
	require.NoError(t, store.Teams().Create(context.Background(), team))
	return team
}

func Project(t *testing.T, store models.Store, name string) *models.Project {
	t.Helper()
	p := &models.Project{Name: name, IsActive: true}
	require.NoError(t, store.Projects().Create(context.Background(), p))
	return p
}

// Entry inserts a time entry directly, bypassing the overtime sync.
func Entry(t *testing.T, store models.Store, userID, projectID uint, day time.Time, hours string) *models.TimeEntry {
	t.Helper()
	e := &models.TimeEntry{UserID: userID, ProjectID: projectID, Date: day, Hours: Dec(hours)}
	created, err := store.TimeEntries().CreateIfAbsent(context.Background(), e)
	require.NoError(t, err)
	require.True(t, created)
	return e
}

// Overtime writes a summary row directly.
func Overtime(t *testing.T, store models.Store, userID uint, day time.Time, hours, pay string) {
	t.Helper()
	require.NoError(t, store.DailyOvertime().Upsert(context.Background(), &models.DailyOvertime{
		UserID:        userID,
		Date:          day,
		OvertimeHours: Dec(hours),
		OvertimePay:   Dec(pay),
	}))
}
