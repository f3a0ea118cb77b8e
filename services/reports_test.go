package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overtimepay/apperror"
	"overtimepay/calendar"
	"overtimepay/fixtures"
	"overtimepay/models"
	"overtimepay/services"
)

// Wednesday; the last seven workdays are 2025-01-07 to 2025-01-15.
var reportClock = time.Date(2025, time.January, 15, 14, 30, 0, 0, time.UTC)

func newReports(store models.Store, holidays ...time.Time) *services.ReportService {
	return services.NewReportService(store, calendar.New(holidays)).
		WithClock(func() time.Time { return reportClock })
}

func TestReports_DailySummaryGroupsProjects(t *testing.T) {
	store, _ := fixtures.NewStore(t)
	ctx := context.Background()
	user := fixtures.User(t, store, "ana@example.com", fixtures.WithSalary("18000"))
	apollo := fixtures.Project(t, store, "Apollo")
	gemini := fixtures.Project(t, store, "Gemini")
	entries := services.NewEntryService(store, newSyncer(), nil)

	_, err := entries.Submit(ctx, user, []services.EntryInput{
		{ProjectID: apollo.ID, Date: "2025-03-10", Hours: fixtures.Dec("6.5")},
		{ProjectID: gemini.ID, Date: "2025-03-10", Hours: fixtures.Dec("4.5")},
	})
	require.NoError(t, err)

	summary, err := newReports(store).DailySummary(ctx, user, user.ID, fixtures.Day(2025, 3, 10))
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", summary.Date)
	assert.True(t, fixtures.Dec("11").Equal(summary.TotalHours))
	assert.True(t, fixtures.Dec("8").Equal(summary.RegularHours))
	assert.True(t, fixtures.Dec("3").Equal(summary.OvertimeHours))
	assert.True(t, fixtures.Dec("324").Equal(summary.OvertimePay))
	require.Len(t, summary.Projects, 2)
	assert.Equal(t, "Apollo", summary.Projects[0].ProjectName)
	assert.True(t, fixtures.Dec("4.5").Equal(summary.Projects[1].Hours))
}

func TestReports_DailySummaryWithoutData(t *testing.T) {
	store, _ := fixtures.NewStore(t)
	user := fixtures.User(t, store, "ana@example.com")

	summary, err := newReports(store).DailySummary(context.Background(), user, user.ID, fixtures.Day(2025, 3, 10))
	require.NoError(t, err)
	assert.True(t, summary.TotalHours.IsZero())
	assert.True(t, summary.OvertimePay.IsZero())
	assert.Empty(t, summary.Projects)
}

func TestReports_MonthlyOverview(t *testing.T) {
	store, _ := fixtures.NewStore(t)
	ctx := context.Background()
	user := fixtures.User(t, store, "ana@example.com", fixtures.WithSalary("18000"))
	apollo := fixtures.Project(t, store, "Apollo")
	gemini := fixtures.Project(t, store, "Gemini")
	entries := services.NewEntryService(store, newSyncer(), nil)

	_, err := entries.Submit(ctx, user, []services.EntryInput{
		{ProjectID: apollo.ID, Date: "2025-02-28", Hours: fixtures.Dec("12")},
		{ProjectID: apollo.ID, Date: "2025-03-03", Hours: fixtures.Dec("6")},
		{ProjectID: gemini.ID, Date: "2025-03-03", Hours: fixtures.Dec("5")},
		{ProjectID: apollo.ID, Date: "2025-03-04", Hours: fixtures.Dec("7.5")},
		{ProjectID: apollo.ID, Date: "2025-03-31", Hours: fixtures.Dec("10")},
		{ProjectID: apollo.ID, Date: "2025-04-01", Hours: fixtures.Dec("12")},
	})
	require.NoError(t, err)

	reports := newReports(store)
	month, err := calendar.NewMonth(2025, 3)
	require.NoError(t, err)

	overview, err := reports.MonthlyOverview(ctx, user, user.ID, month)
	require.NoError(t, err)
	assert.Equal(t, 2025, overview.Year)
	assert.Equal(t, 3, overview.Month)
	assert.Equal(t, 3, overview.DaysWorked)
	assert.Equal(t, 46, overview.OvertimeLimit)
	assert.True(t, fixtures.Dec("28.5").Equal(overview.TotalHours))
	assert.True(t, fixtures.Dec("23.5").Equal(overview.RegularHours))
	assert.True(t, fixtures.Dec("5").Equal(overview.OvertimeHours))
	// 324 for the 11h day, 199.5 for the 10h day
	assert.True(t, fixtures.Dec("523.5").Equal(overview.OvertimePay))

	// the monthly figure is the sum of the daily ones
	dailySum := decimal.Zero
	from, to := month.Range()
	for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
		daily, err := reports.DailySummary(ctx, user, user.ID, day)
		require.NoError(t, err)
		dailySum = dailySum.Add(daily.OvertimeHours)
	}
	assert.True(t, dailySum.Equal(overview.OvertimeHours))
}

func TestReports_ResolveTeams(t *testing.T) {
	store, _ := fixtures.NewStore(t)
	ctx := context.Background()
	mia := fixtures.User(t, store, "mia@example.com", fixtures.WithRole(models.RoleManager))
	otto := fixtures.User(t, store, "otto@example.com", fixtures.WithRole(models.RoleManager))
	admin := fixtures.User(t, store, "root@example.com", fixtures.WithRole(models.RoleAdministrator))
	employee := fixtures.User(t, store, "ana@example.com")
	platform := fixtures.Team(t, store, "Platform", &mia.ID)
	billing := fixtures.Team(t, store, "Billing", nil)
	reports := newReports(store)

	teams, err := reports.ResolveTeams(ctx, mia, nil)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, platform.ID, teams[0].ID)

	_, err = reports.ResolveTeams(ctx, mia, []uint{billing.ID})
	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))

	_, err = reports.ResolveTeams(ctx, otto, nil)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))

	_, err = reports.ResolveTeams(ctx, employee, nil)
	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))

	teams, err = reports.ResolveTeams(ctx, admin, nil)
	require.NoError(t, err)
	assert.Len(t, teams, 2)

	teams, err = reports.ResolveTeams(ctx, admin, []uint{billing.ID})
	require.NoError(t, err)
	assert.Equal(t, "Billing", teams[0].Name)

	_, err = reports.ResolveTeams(ctx, admin, []uint{999})
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
}

func TestReports_TeamSummaryAveragesPerWorkedDay(t *testing.T) {
	store, _ := fixtures.NewStore(t)
	ctx := context.Background()
	team := fixtures.Team(t, store, "Platform", nil)
	ana := fixtures.User(t, store, "ana@example.com", fixtures.WithTeam(team.ID), fixtures.WithSalary("18000"))
	ben := fixtures.User(t, store, "ben@example.com", fixtures.WithTeam(team.ID), fixtures.WithSalary("18000"))
	gone := fixtures.User(t, store, "gone@example.com", fixtures.WithTeam(team.ID), fixtures.WithSalary("18000"), fixtures.Inactive())
	apollo := fixtures.Project(t, store, "Apollo")

	// Mar 3: ana 11h (3 OT), ben 10h (2 OT); Mar 4: ben 8h; Mar 5: inactive member only
	fixtures.Entry(t, store, ana.ID, apollo.ID, fixtures.Day(2025, 3, 3), "11")
	fixtures.Entry(t, store, ben.ID, apollo.ID, fixtures.Day(2025, 3, 3), "10")
	fixtures.Entry(t, store, ben.ID, apollo.ID, fixtures.Day(2025, 3, 4), "8")
	fixtures.Entry(t, store, gone.ID, apollo.ID, fixtures.Day(2025, 3, 5), "12")
	fixtures.Overtime(t, store, ana.ID, fixtures.Day(2025, 3, 3), "3", "324")
	fixtures.Overtime(t, store, ben.ID, fixtures.Day(2025, 3, 3), "2", "199.5")
	fixtures.Overtime(t, store, ben.ID, fixtures.Day(2025, 3, 4), "0", "0")
	fixtures.Overtime(t, store, gone.ID, fixtures.Day(2025, 3, 5), "4", "431.4")

	empty := fixtures.Team(t, store, "Empty", nil)

	month, err := calendar.ParseMonth("2025-03")
	require.NoError(t, err)
	summaries, err := newReports(store).TeamSummaries(ctx, []models.Team{*team, *empty}, month)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	s := summaries[0]
	assert.Equal(t, team.ID, s.TeamID)
	assert.Equal(t, "2025-03", s.Month)
	assert.True(t, fixtures.Dec("5").Equal(s.TotalOvertime))
	assert.True(t, fixtures.Dec("523.5").Equal(s.TotalOTCost))
	// 5 overtime hours over 2 distinct worked dates
	assert.True(t, fixtures.Dec("2.5").Equal(s.AvgDailyOvertime))

	assert.True(t, summaries[1].TotalOvertime.IsZero())
	assert.True(t, summaries[1].AvgDailyOvertime.IsZero())
}

func TestReports_TeamEntriesLastSevenWorkdays(t *testing.T) {
	store, _ := fixtures.NewStore(t)
	ctx := context.Background()
	team := fixtures.Team(t, store, "Platform", nil)
	ana := fixtures.User(t, store, "ana@example.com", fixtures.WithTeam(team.ID))
	ben := fixtures.User(t, store, "ben@example.com", fixtures.WithTeam(team.ID))
	apollo := fixtures.Project(t, store, "Apollo")
	gemini := fixtures.Project(t, store, "Gemini")

	fixtures.Entry(t, store, ana.ID, apollo.ID, fixtures.Day(2025, 1, 6), "12") // before the window
	fixtures.Entry(t, store, ana.ID, apollo.ID, fixtures.Day(2025, 1, 8), "6")
	fixtures.Entry(t, store, ana.ID, gemini.ID, fixtures.Day(2025, 1, 8), "4")
	fixtures.Entry(t, store, ana.ID, apollo.ID, fixtures.Day(2025, 1, 9), "6")
	fixtures.Entry(t, store, ana.ID, apollo.ID, fixtures.Day(2025, 1, 11), "5") // Saturday
	fixtures.Overtime(t, store, ana.ID, fixtures.Day(2025, 1, 8), "2", "0")
	fixtures.Overtime(t, store, ana.ID, fixtures.Day(2024, 12, 30), "4", "0")

	month := calendar.MonthOf(reportClock)
	overviews, err := newReports(store).TeamEntries(ctx, []models.Team{*team}, month)
	require.NoError(t, err)
	require.Len(t, overviews, 1)

	o := overviews[0]
	assert.Equal(t, "2025-01", o.Month)
	assert.Equal(t, services.DateRange{Start: "2025-01-07", End: "2025-01-15"}, o.Last7WorkdaysRange)
	require.Len(t, o.Members, 2)

	assert.Equal(t, ana.ID, o.Members[0].UserID)
	assert.True(t, fixtures.Dec("8").Equal(o.Members[0].Last7WorkdaysAvgHours), "16h over 2 worked workdays")
	assert.True(t, fixtures.Dec("2").Equal(o.Members[0].MonthlyOvertime))

	assert.Equal(t, ben.ID, o.Members[1].UserID)
	assert.True(t, o.Members[1].Last7WorkdaysAvgHours.IsZero())
	assert.True(t, o.Members[1].MonthlyOvertime.IsZero())
}

func TestReports_TeamEntriesSkipsHolidays(t *testing.T) {
	store, _ := fixtures.NewStore(t)
	team := fixtures.Team(t, store, "Platform", nil)
	fixtures.User(t, store, "ana@example.com", fixtures.WithTeam(team.ID))

	reports := newReports(store, fixtures.Day(2025, 1, 13))
	overviews, err := reports.TeamEntries(context.Background(), []models.Team{*team}, calendar.MonthOf(reportClock))
	require.NoError(t, err)
	assert.Equal(t, "2025-01-06", overviews[0].Last7WorkdaysRange.Start)
	assert.Equal(t, "2025-01-15", overviews[0].Last7WorkdaysRange.End)
}

func TestReports_HourlyRate(t *testing.T) {
	store, _ := fixtures.NewStore(t)
	ctx := context.Background()
	ana := fixtures.User(t, store, "ana@example.com", fixtures.WithSalary("10000"))
	ben := fixtures.User(t, store, "ben@example.com")
	reports := newReports(store)

	rate, err := reports.HourlyRate(ctx, ana, ana.ID)
	require.NoError(t, err)
	assert.True(t, fixtures.Dec("41.6667").Equal(rate))

	_, err = reports.HourlyRate(ctx, ben, ana.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))
}

func TestReports_MonthlyExport(t *testing.T) {
	store, _ := fixtures.NewStore(t)
	ctx := context.Background()
	team := fixtures.Team(t, store, "Platform", nil)
	ana := fixtures.User(t, store, "ana@example.com", fixtures.WithTeam(team.ID), fixtures.WithSalary("18000"))
	apollo := fixtures.Project(t, store, "Apollo")
	gemini := fixtures.Project(t, store, "Gemini")
	entries := services.NewEntryService(store, newSyncer(), nil)

	_, err := entries.Submit(ctx, ana, []services.EntryInput{
		{ProjectID: apollo.ID, Date: "2025-03-04", Hours: fixtures.Dec("6")},
		{ProjectID: gemini.ID, Date: "2025-03-04", Hours: fixtures.Dec("5")},
		{ProjectID: apollo.ID, Date: "2025-03-03", Hours: fixtures.Dec("7")},
		{ProjectID: apollo.ID, Date: "2025-04-01", Hours: fixtures.Dec("7")},
	})
	require.NoError(t, err)

	month, err := calendar.ParseMonth("2025-03")
	require.NoError(t, err)
	rows, err := newReports(store).MonthlyExport(ctx, []models.Team{*team}, month)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, fixtures.Day(2025, 3, 3), rows[0].Date)
	assert.True(t, rows[0].OvertimeHours.IsZero())
	assert.Equal(t, "Platform", rows[1].Team)
	assert.True(t, fixtures.Dec("11").Equal(rows[1].TotalHours))
	assert.True(t, fixtures.Dec("8").Equal(rows[1].RegularHours))
	assert.True(t, fixtures.Dec("324").Equal(rows[1].OvertimePay))
}
