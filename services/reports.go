package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"overtimepay/apperror"
	"overtimepay/calendar"
	"overtimepay/models"
	"overtimepay/overtime"
)

// LastWorkdays is the size of the window behind the team members' average
// daily hours.
const LastWorkdays = 7

const averageScale = 2

type ProjectHours struct {
	ProjectID   uint            `json:"project_id"`
	ProjectName string          `json:"project_name"`
	Hours       decimal.Decimal `json:"hours"`
}

type DailySummary struct {
	UserID        uint            `json:"user_id"`
	Date          string          `json:"date"`
	TotalHours    decimal.Decimal `json:"total_hours"`
	RegularHours  decimal.Decimal `json:"regular_hours"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
	OvertimePay   decimal.Decimal `json:"overtime_pay"`
	Projects      []ProjectHours  `json:"projects"`
}

type MonthlyOverview struct {
	UserID        uint            `json:"user_id"`
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	DaysWorked    int             `json:"days_worked"`
	TotalHours    decimal.Decimal `json:"total_hours"`
	RegularHours  decimal.Decimal `json:"regular_hours"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
	OvertimePay   decimal.Decimal `json:"overtime_pay"`
	OvertimeLimit int             `json:"overtime_limit"`
}

type TeamSummary struct {
	TeamID           uint            `json:"team_id"`
	TeamName         string          `json:"team_name"`
	Month            string          `json:"month"`
	TotalOvertime    decimal.Decimal `json:"total_overtime"`
	AvgDailyOvertime decimal.Decimal `json:"avg_daily_overtime"`
	TotalOTCost      decimal.Decimal `json:"total_ot_cost"`
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type TeamMemberOverview struct {
	UserID                uint            `json:"user_id"`
	Name                  string          `json:"name"`
	MonthlyOvertime       decimal.Decimal `json:"monthly_overtime"`
	Last7WorkdaysAvgHours decimal.Decimal `json:"last_7_workdays_avg_hours"`
}

type TeamEntries struct {
	TeamID             uint                 `json:"team_id"`
	TeamName           string               `json:"team_name"`
	Month              string               `json:"month"`
	Last7WorkdaysRange DateRange            `json:"last_7_workdays_range"`
	Members            []TeamMemberOverview `json:"members"`
}

type TeamMember struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ReportService answers the read-only overtime queries. It never writes.
type ReportService struct {
	store    models.Store
	calendar *calendar.Calendar
	now      func() time.Time
}

func NewReportService(store models.Store, cal *calendar.Calendar) *ReportService {
	if cal == nil {
		cal = calendar.New(nil)
	}
	return &ReportService{store: store, calendar: cal, now: time.Now}
}

// WithClock replaces the reference time used for "today" and the current
// month.
func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	return s
}

func (s *ReportService) Today() time.Time {
	return calendar.StartOfDay(s.now())
}

func (s *ReportService) CurrentMonth() calendar.Month {
	return calendar.MonthOf(s.now())
}

func (s *ReportService) DailySummary(ctx context.Context, actor *models.User, userID uint, day time.Time) (*DailySummary, error) {
	if err := authorizeView(ctx, s.store, actor, userID); err != nil {
		return nil, err
	}

	entries, err := s.store.TimeEntries().ListByUserAndDay(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	row, err := s.store.DailyOvertime().Find(ctx, userID, day)
	if err != nil {
		return nil, err
	}

	summary := &DailySummary{
		UserID:        userID,
		Date:          calendar.FormatDate(calendar.StartOfDay(day)),
		TotalHours:    decimal.Zero,
		OvertimeHours: decimal.Zero,
		OvertimePay:   decimal.Zero,
		Projects:      []ProjectHours{},
	}

	byProject := make(map[uint]int)
	for _, e := range entries {
		summary.TotalHours = summary.TotalHours.Add(e.Hours)
		i, ok := byProject[e.ProjectID]
		if !ok {
			name := ""
			if e.Project != nil {
				name = e.Project.Name
			}
			summary.Projects = append(summary.Projects, ProjectHours{ProjectID: e.ProjectID, ProjectName: name, Hours: decimal.Zero})
			i = len(summary.Projects) - 1
			byProject[e.ProjectID] = i
		}
		summary.Projects[i].Hours = summary.Projects[i].Hours.Add(e.Hours)
	}
	summary.RegularHours = overtime.RegularHours(summary.TotalHours)
	if row != nil {
		summary.OvertimeHours = row.OvertimeHours
		summary.OvertimePay = row.OvertimePay
	}
	return summary, nil
}

func (s *ReportService) MonthlyOverview(ctx context.Context, actor *models.User, userID uint, month calendar.Month) (*MonthlyOverview, error) {
	if err := authorizeView(ctx, s.store, actor, userID); err != nil {
		return nil, err
	}

	from, to := month.Range()
	filter := models.RangeFilter{UserIDs: []uint{userID}, From: from, To: to}
	entries, err := s.store.TimeEntries().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.DailyOvertime().List(ctx, filter)
	if err != nil {
		return nil, err
	}

	overview := &MonthlyOverview{
		UserID:        userID,
		Year:          month.Year,
		Month:         int(month.Month),
		TotalHours:    decimal.Zero,
		RegularHours:  decimal.Zero,
		OvertimeHours: decimal.Zero,
		OvertimePay:   decimal.Zero,
		OvertimeLimit: overtime.MonthlyLimitHours,
	}

	dayTotals := hoursByDay(entries)
	overview.DaysWorked = len(dayTotals)
	for _, total := range dayTotals {
		overview.TotalHours = overview.TotalHours.Add(total)
		overview.RegularHours = overview.RegularHours.Add(overtime.RegularHours(total))
	}
	for _, r := range rows {
		overview.OvertimeHours = overview.OvertimeHours.Add(r.OvertimeHours)
		overview.OvertimePay = overview.OvertimePay.Add(r.OvertimePay)
	}
	return overview, nil
}

// Teams lists the teams actor can report on.
func (s *ReportService) Teams(ctx context.Context, actor *models.User) ([]models.Team, error) {
	switch actor.Role {
	case models.RoleAdministrator:
		return s.store.Teams().List(ctx)
	case models.RoleManager:
		return s.store.Teams().ListByManager(ctx, actor.ID)
	default:
		return nil, apperror.Forbidden("only managers and administrators can view teams")
	}
}

// ResolveTeams returns the requested teams after checking access. With no ids
// it falls back to every team actor can report on.
func (s *ReportService) ResolveTeams(ctx context.Context, actor *models.User, teamIDs []uint) ([]models.Team, error) {
	if !actor.CanViewTeams() {
		return nil, apperror.Forbidden("only managers and administrators can view teams")
	}

	if len(teamIDs) == 0 {
		teams, err := s.Teams(ctx, actor)
		if err != nil {
			return nil, err
		}
		if len(teams) == 0 {
			return nil, apperror.NotFound("no teams found")
		}
		return teams, nil
	}

	teams := make([]models.Team, 0, len(teamIDs))
	for _, id := range teamIDs {
		team, err := s.store.Teams().GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !actor.IsAdmin() && !team.IsManagedBy(actor.ID) {
			return nil, apperror.Forbidden("you do not manage this team").WithDetail("team_id", id)
		}
		teams = append(teams, *team)
	}
	return teams, nil
}

func (s *ReportService) TeamMembers(ctx context.Context, team models.Team) ([]TeamMember, error) {
	users, err := s.store.Users().ListActiveByTeam(ctx, team.ID)
	if err != nil {
		return nil, err
	}
	members := make([]TeamMember, 0, len(users))
	for _, u := range users {
		members = append(members, TeamMember{ID: u.ID, Name: u.DisplayName(), Email: u.Email})
	}
	return members, nil
}

// TeamSummaries computes each team's monthly overtime roll-up over its active
// members. AvgDailyOvertime is the team's overtime hours divided by the number
// of distinct dates on which any member logged time.
func (s *ReportService) TeamSummaries(ctx context.Context, teams []models.Team, month calendar.Month) ([]TeamSummary, error) {
	out := make([]TeamSummary, len(teams))
	g, gctx := errgroup.WithContext(ctx)
	for i, team := range teams {
		i, team := i, team // per-iteration copies (go directive < 1.22)
		g.Go(func() error {
			summary, err := s.teamSummary(gctx, team, month)
			if err != nil {
				return err
			}
			out[i] = *summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ReportService) teamSummary(ctx context.Context, team models.Team, month calendar.Month) (*TeamSummary, error) {
	ids, _, err := s.activeMembers(ctx, team.ID)
	if err != nil {
		return nil, err
	}

	from, to := month.Range()
	filter := models.RangeFilter{UserIDs: ids, From: from, To: to}
	rows, err := s.store.DailyOvertime().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.TimeEntries().List(ctx, filter)
	if err != nil {
		return nil, err
	}

	summary := &TeamSummary{
		TeamID:           team.ID,
		TeamName:         team.Name,
		Month:            month.String(),
		TotalOvertime:    decimal.Zero,
		AvgDailyOvertime: decimal.Zero,
		TotalOTCost:      decimal.Zero,
	}
	for _, r := range rows {
		summary.TotalOvertime = summary.TotalOvertime.Add(r.OvertimeHours)
		summary.TotalOTCost = summary.TotalOTCost.Add(r.OvertimePay)
	}

	days := make(map[time.Time]struct{})
	for _, e := range entries {
		days[calendar.StartOfDay(e.Date)] = struct{}{}
	}
	if len(days) > 0 {
		summary.AvgDailyOvertime = summary.TotalOvertime.DivRound(decimal.NewFromInt(int64(len(days))), averageScale)
	}
	return summary, nil
}

// TeamEntries builds the manager overview of each team's active members: the
// month's overtime and the average daily hours over the last seven workdays
// before today.
func (s *ReportService) TeamEntries(ctx context.Context, teams []models.Team, month calendar.Month) ([]TeamEntries, error) {
	workdays, err := s.calendar.LastNWorkdays(s.Today(), LastWorkdays)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeInternal, "cannot compute workdays", err)
	}

	out := make([]TeamEntries, len(teams))
	g, gctx := errgroup.WithContext(ctx)
	for i, team := range teams {
		i, team := i, team // per-iteration copies (go directive < 1.22)
		g.Go(func() error {
			overview, err := s.teamEntries(gctx, team, month, workdays)
			if err != nil {
				return err
			}
			out[i] = *overview
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ReportService) teamEntries(ctx context.Context, team models.Team, month calendar.Month, workdays []time.Time) (*TeamEntries, error) {
	ids, users, err := s.activeMembers(ctx, team.ID)
	if err != nil {
		return nil, err
	}

	overview := &TeamEntries{
		TeamID:   team.ID,
		TeamName: team.Name,
		Month:    month.String(),
		Members:  make([]TeamMemberOverview, 0, len(users)),
	}
	if len(workdays) > 0 {
		overview.Last7WorkdaysRange = DateRange{
			Start: calendar.FormatDate(workdays[0]),
			End:   calendar.FormatDate(workdays[len(workdays)-1]),
		}
	}

	from, to := month.Range()
	rows, err := s.store.DailyOvertime().List(ctx, models.RangeFilter{UserIDs: ids, From: from, To: to})
	if err != nil {
		return nil, err
	}
	monthly := make(map[uint]decimal.Decimal, len(users))
	for _, r := range rows {
		monthly[r.UserID] = monthly[r.UserID].Add(r.OvertimeHours)
	}

	averages := map[uint]decimal.Decimal{}
	if len(workdays) > 0 {
		windowEnd := workdays[len(workdays)-1].AddDate(0, 0, 1)
		entries, err := s.store.TimeEntries().List(ctx, models.RangeFilter{UserIDs: ids, From: workdays[0], To: windowEnd})
		if err != nil {
			return nil, err
		}
		averages = averageWorkdayHours(entries, workdays)
	}

	for _, u := range users {
		overview.Members = append(overview.Members, TeamMemberOverview{
			UserID:                u.ID,
			Name:                  u.DisplayName(),
			MonthlyOvertime:       monthly[u.ID],
			Last7WorkdaysAvgHours: averages[u.ID],
		})
	}
	return overview, nil
}

// averageWorkdayHours is, per user, the hours logged on the given workdays
// divided by the number of those workdays with entries. Entries on other days
// inside the window, such as weekends, are ignored entirely.
func averageWorkdayHours(entries []models.TimeEntry, workdays []time.Time) map[uint]decimal.Decimal {
	inWindow := make(map[time.Time]struct{}, len(workdays))
	for _, d := range workdays {
		inWindow[calendar.StartOfDay(d)] = struct{}{}
	}

	totals := make(map[uint]decimal.Decimal)
	days := make(map[uint]map[time.Time]struct{})
	for _, e := range entries {
		day := calendar.StartOfDay(e.Date)
		if _, ok := inWindow[day]; !ok {
			continue
		}
		totals[e.UserID] = totals[e.UserID].Add(e.Hours)
		if days[e.UserID] == nil {
			days[e.UserID] = make(map[time.Time]struct{})
		}
		days[e.UserID][day] = struct{}{}
	}

	out := make(map[uint]decimal.Decimal, len(totals))
	for userID, total := range totals {
		out[userID] = total.DivRound(decimal.NewFromInt(int64(len(days[userID]))), averageScale)
	}
	return out
}

func (s *ReportService) activeMembers(ctx context.Context, teamID uint) ([]uint, []models.User, error) {
	users, err := s.store.Users().ListActiveByTeam(ctx, teamID)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, users, nil
}

// HourlyRate returns the rate used to price userID's overtime.
func (s *ReportService) HourlyRate(ctx context.Context, actor *models.User, userID uint) (decimal.Decimal, error) {
	if err := authorizeView(ctx, s.store, actor, userID); err != nil {
		return decimal.Zero, err
	}
	return s.store.Users().HourlyRate(ctx, userID)
}

// hoursByDay sums entry hours per calendar day.
func hoursByDay(entries []models.TimeEntry) map[time.Time]decimal.Decimal {
	totals := make(map[time.Time]decimal.Decimal)
	for _, e := range entries {
		day := calendar.StartOfDay(e.Date)
		totals[day] = totals[day].Add(e.Hours)
	}
	return totals
}

// ExportRow is one worked day of one team member.
type ExportRow struct {
	Employee      string
	Email         string
	Team          string
	Date          time.Time
	TotalHours    decimal.Decimal
	RegularHours  decimal.Decimal
	OvertimeHours decimal.Decimal
	OvertimePay   decimal.Decimal
}

// MonthlyExport lists every worked day in month for the active members of
// teams, ordered by team, member and date.
func (s *ReportService) MonthlyExport(ctx context.Context, teams []models.Team, month calendar.Month) ([]ExportRow, error) {
	from, to := month.Range()
	var rows []ExportRow
	for _, team := range teams {
		ids, users, err := s.activeMembers(ctx, team.ID)
		if err != nil {
			return nil, err
		}
		filter := models.RangeFilter{UserIDs: ids, From: from, To: to}
		entries, err := s.store.TimeEntries().List(ctx, filter)
		if err != nil {
			return nil, err
		}
		summaries, err := s.store.DailyOvertime().List(ctx, filter)
		if err != nil {
			return nil, err
		}

		byKey := make(map[models.UserDay]models.DailyOvertime, len(summaries))
		for _, d := range summaries {
			byKey[models.UserDay{UserID: d.UserID, Date: calendar.StartOfDay(d.Date)}] = d
		}
		totals := make(map[models.UserDay]decimal.Decimal)
		for _, e := range entries {
			key := models.UserDay{UserID: e.UserID, Date: calendar.StartOfDay(e.Date)}
			totals[key] = totals[key].Add(e.Hours)
		}

		for _, u := range users {
			for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
				key := models.UserDay{UserID: u.ID, Date: day}
				total, ok := totals[key]
				if !ok {
					continue
				}
				summary := byKey[key]
				rows = append(rows, ExportRow{
					Employee:      u.DisplayName(),
					Email:         u.Email,
					Team:          team.Name,
					Date:          day,
					TotalHours:    total,
					RegularHours:  overtime.RegularHours(total),
					OvertimeHours: summary.OvertimeHours,
					OvertimePay:   summary.OvertimePay,
				})
			}
		}
	}
	return rows, nil
}
