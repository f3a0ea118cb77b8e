package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Role string

const (
	RoleEmployee      Role = "EMPLOYEE"
	RoleManager       Role = "MANAGER"
	RoleAdministrator Role = "ADMINISTRATOR"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleAdministrator:
		return true
	}
	return false
}

type User struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	DeletedAt          gorm.DeletedAt  `gorm:"index" json:"-"`
	FirstName          string          `gorm:"not null;size:100" json:"first_name"`
	LastName           string          `gorm:"not null;size:100" json:"last_name"`
	Email              string          `gorm:"uniqueIndex;not null;size:200" json:"email"`
	PasswordHash       string          `gorm:"not null" json:"-"`
	Role               Role            `gorm:"not null;size:20" json:"role"`
	TeamID             *uint           `gorm:"index" json:"team_id"`
	Team               *Team           `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	HireDate           *time.Time      `gorm:"type:date" json:"hire_date"`
	MonthlySalary      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"monthly_salary"`
	HourlyRate         decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0" json:"hourly_rate"`
	IsActive           bool            `gorm:"not null;default:true" json:"is_active"`
	MustChangePassword bool            `gorm:"default:true" json:"must_change_password"`
}

var (
	salaryDaysPerMonth = decimal.NewFromInt(30)
	salaryHoursPerDay  = decimal.NewFromInt(8)
)

// HourlyRateFromSalary derives the hourly rate used for overtime pay:
// monthly salary / 30 days / 8 hours.
func HourlyRateFromSalary(monthly decimal.Decimal) decimal.Decimal {
	return monthly.DivRound(salaryDaysPerMonth.Mul(salaryHoursPerDay), 4)
}

// SetMonthlySalary updates the salary and keeps HourlyRate in step with it.
func (u *User) SetMonthlySalary(monthly decimal.Decimal) {
	u.MonthlySalary = monthly
	u.HourlyRate = HourlyRateFromSalary(monthly)
}

func (u *User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdministrator
}

func (u *User) IsManager() bool {
	return u.Role == RoleManager
}

func (u *User) IsEmployee() bool {
	return u.Role == RoleEmployee
}

// CanManageEntriesFor reports whether u may create, edit or delete time
// entries owned by userID.
func (u *User) CanManageEntriesFor(userID uint) bool {
	if u.IsAdmin() {
		return true
	}
	return u.ID == userID
}

func (u *User) CanManageUsers() bool {
	return u.IsAdmin()
}

func (u *User) CanViewTeams() bool {
	return u.IsAdmin() || u.IsManager()
}
