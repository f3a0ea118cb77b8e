package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"

	"overtimepay/calendar"
	"overtimepay/handlers/response"
	"overtimepay/middleware"
	"overtimepay/models"
	"overtimepay/services"
)

// ManagerHandler serves the team roll-ups to managers and administrators.
type ManagerHandler struct {
	reports *services.ReportService
}

func NewManagerHandler(reports *services.ReportService) *ManagerHandler {
	return &ManagerHandler{reports: reports}
}

type teamMembers struct {
	TeamID   uint                  `json:"team_id"`
	TeamName string                `json:"team_name"`
	Members  []services.TeamMember `json:"members"`
}

func (h *ManagerHandler) Teams(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	teams, err := h.reports.Teams(r.Context(), user)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.Success(w, teams)
}

// resolve reads ?teamId= and ?month= and checks team access.
func (h *ManagerHandler) resolve(r *http.Request) ([]models.Team, calendar.Month, error) {
	user := middleware.GetUserFromContext(r.Context())
	ids, err := queryTeamIDs(r)
	if err != nil {
		return nil, calendar.Month{}, err
	}
	month, err := queryMonth(r, h.reports.CurrentMonth())
	if err != nil {
		return nil, calendar.Month{}, err
	}
	teams, err := h.reports.ResolveTeams(r.Context(), user, ids)
	if err != nil {
		return nil, calendar.Month{}, err
	}
	return teams, month, nil
}

func (h *ManagerHandler) TeamMembers(w http.ResponseWriter, r *http.Request) {
	teams, _, err := h.resolve(r)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	out := make([]teamMembers, 0, len(teams))
	for _, team := range teams {
		members, err := h.reports.TeamMembers(r.Context(), team)
		if err != nil {
			response.HandleError(w, r, err)
			return
		}
		out = append(out, teamMembers{TeamID: team.ID, TeamName: team.Name, Members: members})
	}
	response.Success(w, out)
}

func (h *ManagerHandler) TeamSummary(w http.ResponseWriter, r *http.Request) {
	teams, month, err := h.resolve(r)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	summaries, err := h.reports.TeamSummaries(r.Context(), teams, month)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.Success(w, summaries)
}

func (h *ManagerHandler) TeamEntries(w http.ResponseWriter, r *http.Request) {
	teams, month, err := h.resolve(r)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	overviews, err := h.reports.TeamEntries(r.Context(), teams, month)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.Success(w, overviews)
}

// ExportCSV streams the month's worked days of the selected teams.
func (h *ManagerHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	teams, month, err := h.resolve(r)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	rows, err := h.reports.MonthlyExport(r.Context(), teams, month)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	filename := fmt.Sprintf("overtime_%s.csv", month)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	writer := csv.NewWriter(w)
	defer writer.Flush()

	writer.Write([]string{"Employee", "Email", "Team", "Date", "Total Hours", "Regular Hours", "Overtime Hours", "Overtime Pay"})
	for _, row := range rows {
		writer.Write([]string{
			row.Employee,
			row.Email,
			row.Team,
			calendar.FormatDate(row.Date),
			row.TotalHours.StringFixed(2),
			row.RegularHours.StringFixed(2),
			row.OvertimeHours.StringFixed(2),
			row.OvertimePay.StringFixed(2),
		})
	}
}
