package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RangeFilter selects rows for a set of users whose date falls in the
// half-open range [From, To).
type RangeFilter struct {
	UserIDs []uint
	From    time.Time
	To      time.Time
}

type TimeEntryRepository interface {
	// ListByUserAndDay returns the user's entries for the calendar day of
	// day, with their projects loaded.
	ListByUserAndDay(ctx context.Context, userID uint, day time.Time) ([]TimeEntry, error)
	List(ctx context.Context, filter RangeFilter) ([]TimeEntry, error)
	GetByID(ctx context.Context, id uint) (*TimeEntry, error)
	FindByIDs(ctx context.Context, ids []uint) ([]TimeEntry, error)
	// CreateIfAbsent inserts entry unless one already exists for the same
	// user, project and day. It reports whether a row was inserted.
	CreateIfAbsent(ctx context.Context, entry *TimeEntry) (bool, error)
	Update(ctx context.Context, entry *TimeEntry) error
	Delete(ctx context.Context, id uint) error
	// UserDays returns the distinct (user, day) pairs that have entries in
	// [from, to). A zero from or to leaves that side open.
	UserDays(ctx context.Context, userID *uint, from, to time.Time) ([]UserDay, error)
}

type DailyOvertimeRepository interface {
	// Upsert atomically replaces the summary for (row.UserID, row.Date).
	Upsert(ctx context.Context, row *DailyOvertime) error
	// Find returns nil when no summary exists for the day.
	Find(ctx context.Context, userID uint, day time.Time) (*DailyOvertime, error)
	List(ctx context.Context, filter RangeFilter) ([]DailyOvertime, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	ListActiveByTeam(ctx context.Context, teamID uint) ([]User, error)
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	HourlyRate(ctx context.Context, id uint) (decimal.Decimal, error)
	Count(ctx context.Context) (int64, error)
}

type TeamRepository interface {
	GetByID(ctx context.Context, id uint) (*Team, error)
	List(ctx context.Context) ([]Team, error)
	ListByManager(ctx context.Context, managerID uint) ([]Team, error)
	Create(ctx context.Context, team *Team) error
	Count(ctx context.Context) (int64, error)
}

type ProjectRepository interface {
	GetByID(ctx context.Context, id uint) (*Project, error)
	ListActive(ctx context.Context) ([]Project, error)
	Create(ctx context.Context, project *Project) error
	Count(ctx context.Context) (int64, error)
}

// Store groups the repositories. Transaction runs fn against a Store bound to
// a single database transaction; fn's error rolls everything back.
type Store interface {
	Transaction(ctx context.Context, fn func(tx Store) error) error
	TimeEntries() TimeEntryRepository
	DailyOvertime() DailyOvertimeRepository
	Users() UserRepository
	Teams() TeamRepository
	Projects() ProjectRepository
}
