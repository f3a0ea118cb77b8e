package validator

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		result[err.Field] = err.Message
	}
	return result
}

// Add records a failure for field.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, ValidationError{Field: field, Message: message})
}

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// Date validation
func IsValidDate(dateStr string) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", dateStr)
	return date, err == nil
}

// MaxDailyHours caps a single entry and the total logged by one user per day.
var MaxDailyHours = decimal.NewFromInt(24)

// IsValidHours accepts 0 < hours <= 24 with at most two decimal places.
func IsValidHours(hours decimal.Decimal) bool {
	if !hours.IsPositive() || hours.GreaterThan(MaxDailyHours) {
		return false
	}
	return hours.Equal(hours.Round(2))
}

func IsValidPassword(password string) bool {
	return len(password) >= 8
}
