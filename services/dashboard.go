package services

import (
	"context"
	"fmt"

	"overtimepay/models"
)

type Counts struct {
	Users    int64 `json:"users"`
	Teams    int64 `json:"teams"`
	Projects int64 `json:"projects"`
}

// Dashboard is the role-specific landing view. Role decides which optional
// sections are filled.
type Dashboard struct {
	Role   models.Role      `json:"role"`
	Today  *DailySummary    `json:"today"`
	Month  *MonthlyOverview `json:"month"`
	Teams  []TeamSummary    `json:"teams,omitempty"`
	Counts *Counts          `json:"counts,omitempty"`
}

type DashboardService struct {
	store   models.Store
	reports *ReportService
}

func NewDashboardService(store models.Store, reports *ReportService) *DashboardService {
	return &DashboardService{store: store, reports: reports}
}

func (s *DashboardService) Build(ctx context.Context, actor *models.User) (*Dashboard, error) {
	today, err := s.reports.DailySummary(ctx, actor, actor.ID, s.reports.Today())
	if err != nil {
		return nil, err
	}
	month, err := s.reports.MonthlyOverview(ctx, actor, actor.ID, s.reports.CurrentMonth())
	if err != nil {
		return nil, err
	}
	dash := &Dashboard{Role: actor.Role, Today: today, Month: month}

	switch actor.Role {
	case models.RoleEmployee:
		return dash, nil

	case models.RoleManager:
		teams, err := s.reports.Teams(ctx, actor)
		if err != nil {
			return nil, err
		}
		dash.Teams, err = s.reports.TeamSummaries(ctx, teams, s.reports.CurrentMonth())
		if err != nil {
			return nil, err
		}
		return dash, nil

	case models.RoleAdministrator:
		counts, err := s.counts(ctx)
		if err != nil {
			return nil, err
		}
		dash.Counts = counts
		return dash, nil

	default:
		return nil, fmt.Errorf("dashboard: unknown role %q", actor.Role)
	}
}

func (s *DashboardService) counts(ctx context.Context) (*Counts, error) {
	var c Counts
	var err error
	if c.Users, err = s.store.Users().Count(ctx); err != nil {
		return nil, err
	}
	if c.Teams, err = s.store.Teams().Count(ctx); err != nil {
		return nil, err
	}
	if c.Projects, err = s.store.Projects().Count(ctx); err != nil {
		return nil, err
	}
	return &c, nil
}
