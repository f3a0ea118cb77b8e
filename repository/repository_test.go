package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overtimepay/apperror"
	"overtimepay/fixtures"
	"overtimepay/models"
)

func TestTimeEntries_ListByUserAndDay(t *testing.T) {
	store, _ := fixtures.NewStore(t)
	ctx := context.Background()
	user := fixtures.User(t, store, "ana@example.com")
	other := fixtures.User(t, store, "ben@example.com")
	p1 := fixtures.Project(t, store, "Apollo")
	p2 := fixtures.Project(t, store, "Gemini")

	day := fixtures.Day(2025, 3, 10)
	fixtures.Entry(t, store, user.ID, p1.ID, day, "5")
	fixtures.Entry(t, store, user.ID, p2.ID, day, "4.5")
	fixtures.Entry(t, store, user.ID, p1.ID, day.AddDate(0, 0, 1), "8")
	fixtures.Entry(t, store, other.ID, p1.ID, day, "3")

	// a reference time late in the day still selects the whole calendar day
	entries, err := store.TimeEntries().ListByUserAndDay(ctx, user.ID, day.Add(17*time.Hour))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Apollo", entries[0].Project.Name)
	assert.Equal(t, "Gemini", entries[1].Project.Name)
	assert.True(t, fixtures.Dec("4.5").Equal(entries[1].Hours))
}

func TestTimeEntries_CreateIfAbsentSkipsDuplicates(t *testing.T) {
	store, _ := fixtures.NewStore(t)
	ctx := context.Background()
	user := fixtures.User(t, store, "ana@example.com")
	project := fixtures.Project(t, store, "Apollo")
	day := fixtures.Day(2025, 3, 10)

	fixtures.Entry(t, store, user.ID, project.ID, day, "5")

	created, err := store.TimeEntries().CreateIfAbsent(ctx, &models.TimeEntry{
		UserID: user.ID, ProjectID: project.ID, Date: day, Hours: fixtures.Dec("2"),
	})
	require.NoError(t, err)
	assert.False(t, created)

	entries, err := store.TimeEntries().ListByUserAndDay(ctx, user.ID, day)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, fixtures.Dec("5").Equal(entries[0].Hours))
}

func TestTimeEntries_UpdateAndDelete(t *testing.T) {
	store, _ := fixtures.NewStore(t)
	ctx := context.Background()
	user := fixtures.User(t, store, "ana@example.com")
	project := fixtures.Project(t, store, "Apollo")
	entry := fixtures.Entry(t, store, user.ID, project.ID, fixtures.Day(2025, 3, 10), "5")

	entry.Hours = fixtures.Dec("6.25")
	entry.Date = fixtures.Day(2025, 3, 11)
	require.NoError(t, store.TimeEntries().Update(ctx, entry))

	got, err := store.TimeEntries().GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, fixtures.Dec("6.25").Equal(got.Hours))
	assert.Equal(t, "2025-03-11", got.Date.UTC().Format("2006-01-02"))

	require.NoError(t, store.TimeEntries().Delete(ctx, entry.ID))
	_, err = store.TimeEntries().GetByID(ctx, entry.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))

	err = store.TimeEntries().Delete(ctx, entry.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))

	err = store.TimeEntries().Update(ctx, &models.TimeEntry{ID: 999, UserID: user.ID, ProjectID: project.ID, Date: fixtures.Day(2025, 3, 1), Hours: fixtures.Dec("1")})
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
}

func TestTimeEntries_ListAndUserDays(t *testing.T) {
	store, _ := fixtures.NewStore(t)
	ctx := context.Background()
	ana := fixtures.User(t, store, "ana@example.com")
	ben := fixtures.User(t, store, "ben@example.com")
	p1 := fixtures.Project(t, store, "Apollo")
	p2 := fixtures.Project(t, store, "Gemini")

	fixtures.Entry(t, store, ana.ID, p1.ID, fixtures.Day(2025, 2, 28), "8")
	fixtures.Entry(t, store, ana.ID, p1.ID, fixtures.Day(2025, 3, 3), "8")
	fixtures.Entry(t, store, ana.ID, p2.ID, fixtures.Day(2025, 3, 3), "2")
	fixtures.Entry(t, store, ben.ID, p1.ID, fixtures.Day(2025, 3, 31), "9")
	fixtures.Entry(t, store, ben.ID, p1.ID, fixtures.Day(2025, 4, 1), "9")

	from, to := fixtures.Day(2025, 3, 1), fixtures.Day(2025, 4, 1)

	entries, err := store.TimeEntries().List(ctx, models.RangeFilter{UserIDs: []uint{ana.ID, ben.ID}, From: from, To: to})
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	entries, err = store.TimeEntries().List(ctx, models.RangeFilter{UserIDs: []uint{}, From: from, To: to})
	require.NoError(t, err)
	assert.Empty(t, entries)

	days, err := store.TimeEntries().UserDays(ctx, nil, from, to)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, models.UserDay{UserID: ana.ID, Date: fixtures.Day(2025, 3, 3)}, days[0])
	assert.Equal(t, models.UserDay{UserID: ben.ID, Date: fixtures.Day(2025, 3, 31)}, days[1])

	days, err = store.TimeEntries().UserDays(ctx, &ana.ID, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, days, 2)
}

func TestDailyOvertime_UpsertReplaces(t *testing.T) {
	store, _ := fixtures.NewStore(t)
	ctx := context.Background()
	user := fixtures.User(t, store, "ana@example.com")
	day := fixtures.Day(2025, 3, 10)

	fixtures.Overtime(t, store, user.ID, day, "3", "324")
	fixtures.Overtime(t, store, user.ID, day, "1", "99.75")

	row, err := store.DailyOvertime().Find(ctx, user.ID, day.Add(9*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.True(t, fixtures.Dec("1").Equal(row.OvertimeHours))
	assert.True(t, fixtures.Dec("99.75").Equal(row.OvertimePay))

	rows, err := store.DailyOvertime().List(ctx, models.RangeFilter{UserIDs: []uint{user.ID}, From: day, To: day.AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	missing, err := store.DailyOvertime().Find(ctx, user.ID, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDailyOvertime_UpsertInsideTransaction(t *testing.T) {
	store, _ := fixtures.NewStore(t)
	ctx := context.Background()
	user := fixtures.User(t, store, "ana@example.com")
	day := fixtures.Day(2025, 3, 10)

	err := store.Transaction(ctx, func(tx models.Store) error {
		require.NoError(t, tx.DailyOvertime().Upsert(ctx, &models.DailyOvertime{
			UserID: user.ID, Date: day, OvertimeHours: fixtures.Dec("2"), OvertimePay: fixtures.Dec("172.9"),
		}))
		return apperror.Conflict("abort")
	})
	require.Error(t, err)

	row, err := store.DailyOvertime().Find(ctx, user.ID, day)
	require.NoError(t, err)
	assert.Nil(t, row, "rolled back with the outer transaction")
}

func TestUsers(t *testing.T) {
	store, _ := fixtures.NewStore(t)
	ctx := context.Background()
	team := fixtures.Team(t, store, "Platform", nil)
	ana := fixtures.User(t, store, "ana@example.com", fixtures.WithTeam(team.ID), fixtures.WithSalary("18000"))
	fixtures.User(t, store, "ben@example.com", fixtures.WithTeam(team.ID), fixtures.Inactive())
	fixtures.User(t, store, "cy@example.com")

	rate, err := store.Users().HourlyRate(ctx, ana.ID)
	require.NoError(t, err)
	assert.True(t, fixtures.Dec("75").Equal(rate))

	_, err = store.Users().HourlyRate(ctx, 9999)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))

	members, err := store.Users().ListActiveByTeam(ctx, team.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, ana.ID, members[0].ID)

	got, err := store.Users().GetByEmail(ctx, "ben@example.com")
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	count, err := store.Users().Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	err = store.Users().Create(ctx, &models.User{Email: "ana@example.com", Role: models.RoleEmployee, PasswordHash: "x"})
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict))
}

func TestTeamsAndProjects(t *testing.T) {
	store, _ := fixtures.NewStore(t)
	ctx := context.Background()
	manager := fixtures.User(t, store, "mia@example.com", fixtures.WithRole(models.RoleManager))
	fixtures.Team(t, store, "Platform", &manager.ID)
	fixtures.Team(t, store, "Billing", nil)
	fixtures.Project(t, store, "Apollo")

	teams, err := store.Teams().ListByManager(ctx, manager.ID)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, "Platform", teams[0].Name)
	assert.True(t, teams[0].IsManagedBy(manager.ID))

	all, err := store.Teams().List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	projects, err := store.Projects().ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, projects, 1)

	_, err = store.Projects().GetByID(ctx, 42)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
}
