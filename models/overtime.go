package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"overtimepay/calendar"
)

// DailyOvertime is the materialised overtime figure for one user and day.
// It is derived from the day's time entries and the user's hourly rate and is
// never edited directly.
type DailyOvertime struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	UserID        uint            `gorm:"not null;uniqueIndex:idx_daily_overtimes_user_date,priority:1" json:"user_id"`
	Date          time.Time       `gorm:"not null;type:date;uniqueIndex:idx_daily_overtimes_user_date,priority:2;index" json:"date"`
	OvertimeHours decimal.Decimal `gorm:"not null;type:decimal(6,2)" json:"overtime_hours"`
	OvertimePay   decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"overtime_pay"`
}

// MarshalJSON writes Date as a calendar date (YYYY-MM-DD).
func (o DailyOvertime) MarshalJSON() ([]byte, error) {
	type plain DailyOvertime
	return json.Marshal(struct {
		plain
		Date string `json:"date"`
	}{plain(o), calendar.FormatDate(o.Date)})
}

func (o *DailyOvertime) UnmarshalJSON(data []byte) error {
	type plain DailyOvertime
	var aux struct {
		plain
		Date string `json:"date"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*o = DailyOvertime(aux.plain)
	return decodeDate(aux.Date, &o.Date)
}
