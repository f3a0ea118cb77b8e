package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"overtimepay/calendar"
)

// TimeEntry is one (user, project, day) fact logged by an employee.
type TimeEntry struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	UserID    uint            `gorm:"not null;uniqueIndex:idx_time_entries_user_project_date,priority:1;index" json:"user_id"`
	ProjectID uint            `gorm:"not null;uniqueIndex:idx_time_entries_user_project_date,priority:2" json:"project_id"`
	Project   *Project        `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Date      time.Time       `gorm:"not null;type:date;uniqueIndex:idx_time_entries_user_project_date,priority:3;index" json:"date"`
	Hours     decimal.Decimal `gorm:"not null;type:decimal(5,2)" json:"hours"`
}

// UserDay identifies the grain of the daily overtime summary.
type UserDay struct {
	UserID uint
	Date   time.Time
}

// MarshalJSON writes Date as a calendar date (YYYY-MM-DD).
func (e TimeEntry) MarshalJSON() ([]byte, error) {
	type plain TimeEntry
	return json.Marshal(struct {
		plain
		Date string `json:"date"`
	}{plain(e), calendar.FormatDate(e.Date)})
}

func (e *TimeEntry) UnmarshalJSON(data []byte) error {
	type plain TimeEntry
	var aux struct {
		plain
		Date string `json:"date"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*e = TimeEntry(aux.plain)
	return decodeDate(aux.Date, &e.Date)
}

func decodeDate(s string, dst *time.Time) error {
	if s == "" {
		*dst = time.Time{}
		return nil
	}
	d, err := calendar.ParseDate(s)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
