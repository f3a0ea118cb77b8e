package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"overtimepay/apperror"
	"overtimepay/calendar"
	"overtimepay/models"
	"overtimepay/validator"
)

// EntryInput is one row of a batch submission. Rows without ID are creates;
// rows with ID update that entry. UserID defaults to the submitting user.
type EntryInput struct {
	ID        *uint           `json:"id,omitempty"`
	UserID    uint            `json:"user_id,omitempty"`
	ProjectID uint            `json:"project_id"`
	Date      string          `json:"date"`
	Hours     decimal.Decimal `json:"hours"`
}

// SkippedEntry is a create that matched an existing (user, project, date).
type SkippedEntry struct {
	Index     int    `json:"index"`
	UserID    uint   `json:"user_id"`
	ProjectID uint   `json:"project_id"`
	Date      string `json:"date"`
	Reason    string `json:"reason"`
}

type BatchResult struct {
	Created []models.TimeEntry `json:"created"`
	Updated []models.TimeEntry `json:"updated"`
	Skipped []SkippedEntry     `json:"skipped"`
}

type EntryService struct {
	store  models.Store
	syncer *Syncer
	log    *slog.Logger
}

func NewEntryService(store models.Store, syncer *Syncer, log *slog.Logger) *EntryService {
	if log == nil {
		log = slog.Default()
	}
	return &EntryService{store: store, syncer: syncer, log: log}
}

// List returns userID's entries for the calendar day of day.
func (s *EntryService) List(ctx context.Context, actor *models.User, userID uint, day time.Time) ([]models.TimeEntry, error) {
	if err := authorizeView(ctx, s.store, actor, userID); err != nil {
		return nil, err
	}
	return s.store.TimeEntries().ListByUserAndDay(ctx, userID, day)
}

type parsedInput struct {
	index int
	input EntryInput
	user  uint
	date  time.Time
}

func (s *EntryService) validate(actor *models.User, inputs []EntryInput) ([]parsedInput, error) {
	var errs validator.ValidationErrors
	if len(inputs) == 0 {
		errs.Add("entries", "at least one entry is required")
		return nil, apperror.Validation(errs.ToMap())
	}

	parsed := make([]parsedInput, 0, len(inputs))
	for i, in := range inputs {
		field := func(name string) string { return fmt.Sprintf("entries[%d].%s", i, name) }

		p := parsedInput{index: i, input: in, user: in.UserID}
		if p.user == 0 {
			p.user = actor.ID
		}
		if in.ID != nil && *in.ID == 0 {
			errs.Add(field("id"), "id must be positive")
		}
		if in.ProjectID == 0 {
			errs.Add(field("project_id"), "project is required")
		}
		if validator.IsEmpty(in.Date) {
			errs.Add(field("date"), "date is required")
		} else if d, ok := validator.IsValidDate(in.Date); !ok {
			errs.Add(field("date"), "date must be YYYY-MM-DD")
		} else {
			p.date = calendar.StartOfDay(d)
		}
		if !validator.IsValidHours(in.Hours) {
			errs.Add(field("hours"), "hours must be greater than 0 and at most 24, with up to 2 decimals")
		}
		parsed = append(parsed, p)
	}
	if errs.HasErrors() {
		return nil, apperror.Validation(errs.ToMap())
	}

	for _, p := range parsed {
		if p.input.ID == nil && !actor.CanManageEntriesFor(p.user) {
			return nil, apperror.Forbidden("you can only log time for yourself")
		}
	}
	return parsed, nil
}

// Submit applies a batch of creates and updates in one transaction and
// re-syncs the overtime summary of every affected user and day before
// committing. Any failure leaves the store untouched.
func (s *EntryService) Submit(ctx context.Context, actor *models.User, inputs []EntryInput) (*BatchResult, error) {
	parsed, err := s.validate(actor, inputs)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{
		Created: []models.TimeEntry{},
		Updated: []models.TimeEntry{},
		Skipped: []SkippedEntry{},
	}

	err = s.store.Transaction(ctx, func(tx models.Store) error {
		if err := checkProjects(ctx, tx, parsed); err != nil {
			return err
		}
		existing, err := loadUpdateTargets(ctx, tx, parsed)
		if err != nil {
			return err
		}

		touched := newAffected()
		for _, p := range parsed {
			if p.input.ID != nil {
				entry := existing[*p.input.ID]
				if !actor.CanManageEntriesFor(entry.UserID) {
					return apperror.Forbidden("you can only edit your own entries")
				}
				touched.add(entry.UserID, entry.Date)

				entry.ProjectID = p.input.ProjectID
				entry.Date = p.date
				entry.Hours = p.input.Hours
				if err := tx.TimeEntries().Update(ctx, &entry); err != nil {
					return err
				}
				touched.add(entry.UserID, entry.Date)
				result.Updated = append(result.Updated, entry)
				continue
			}

			entry := models.TimeEntry{
				UserID:    p.user,
				ProjectID: p.input.ProjectID,
				Date:      p.date,
				Hours:     p.input.Hours,
			}
			created, err := tx.TimeEntries().CreateIfAbsent(ctx, &entry)
			if err != nil {
				return err
			}
			if !created {
				result.Skipped = append(result.Skipped, SkippedEntry{
					Index:     p.index,
					UserID:    p.user,
					ProjectID: p.input.ProjectID,
					Date:      calendar.FormatDate(p.date),
					Reason:    "an entry for this project and date already exists",
				})
				continue
			}
			touched.add(entry.UserID, entry.Date)
			result.Created = append(result.Created, entry)
		}

		if err := checkDayTotals(ctx, tx, touched.keys); err != nil {
			return err
		}
		return s.syncer.syncAll(ctx, tx, touched.keys)
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "time entries submitted",
		slog.Uint64("actor_id", uint64(actor.ID)),
		slog.Int("created", len(result.Created)),
		slog.Int("updated", len(result.Updated)),
		slog.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// Delete removes an entry and re-syncs its day.
func (s *EntryService) Delete(ctx context.Context, actor *models.User, id uint) error {
	return s.store.Transaction(ctx, func(tx models.Store) error {
		entry, err := tx.TimeEntries().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !actor.CanManageEntriesFor(entry.UserID) {
			return apperror.Forbidden("you can only delete your own entries")
		}
		if err := tx.TimeEntries().Delete(ctx, id); err != nil {
			return err
		}
		_, err = s.syncer.Sync(ctx, tx, entry.UserID, entry.Date)
		return err
	})
}

// checkDayTotals rejects the batch when any affected day ends up with more
// than MaxDailyHours logged across projects.
func checkDayTotals(ctx context.Context, tx models.Store, keys []models.UserDay) error {
	var errs validator.ValidationErrors
	for _, key := range keys {
		entries, err := tx.TimeEntries().ListByUserAndDay(ctx, key.UserID, key.Date)
		if err != nil {
			return err
		}
		total := decimal.Zero
		for _, e := range entries {
			total = total.Add(e.Hours)
		}
		if total.GreaterThan(validator.MaxDailyHours) {
			errs.Add(fmt.Sprintf("days[%s].hours", calendar.FormatDate(key.Date)),
				fmt.Sprintf("user %d would log %s hours, more than %s in one day", key.UserID, total, validator.MaxDailyHours))
		}
	}
	if errs.HasErrors() {
		return apperror.Validation(errs.ToMap())
	}
	return nil
}

func checkProjects(ctx context.Context, tx models.Store, parsed []parsedInput) error {
	var errs validator.ValidationErrors
	known := make(map[uint]bool)
	for _, p := range parsed {
		id := p.input.ProjectID
		ok, checked := known[id]
		if !checked {
			_, err := tx.Projects().GetByID(ctx, id)
			switch {
			case err == nil:
				ok = true
			case apperror.IsCode(err, apperror.CodeNotFound):
				ok = false
			default:
				return err
			}
			known[id] = ok
		}
		if !ok {
			errs.Add(fmt.Sprintf("entries[%d].project_id", p.index), "project not found")
		}
	}
	if errs.HasErrors() {
		return apperror.Validation(errs.ToMap())
	}
	return nil
}

// loadUpdateTargets fetches every entry referenced by an update and reports
// all missing ids in a single NOT_FOUND error.
func loadUpdateTargets(ctx context.Context, tx models.Store, parsed []parsedInput) (map[uint]models.TimeEntry, error) {
	var ids []uint
	for _, p := range parsed {
		if p.input.ID != nil {
			ids = append(ids, *p.input.ID)
		}
	}
	found, err := tx.TimeEntries().FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]models.TimeEntry, len(found))
	for _, e := range found {
		byID[e.ID] = e
	}
	var missing []uint
	seen := make(map[uint]bool)
	for _, id := range ids {
		if _, ok := byID[id]; !ok && !seen[id] {
			missing = append(missing, id)
			seen[id] = true
		}
	}
	if len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
		return nil, apperror.Newf(apperror.CodeNotFound, "time entries not found: %v", missing).
			WithDetail("ids", missing)
	}
	return byID, nil
}
