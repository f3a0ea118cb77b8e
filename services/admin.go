package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"overtimepay/apperror"
	"overtimepay/calendar"
	"overtimepay/models"
	"overtimepay/validator"
)

type RegisterUserInput struct {
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	Email         string          `json:"email"`
	Role          models.Role     `json:"role"`
	TeamID        *uint           `json:"team_id"`
	HireDate      string          `json:"hire_date"`
	MonthlySalary decimal.Decimal `json:"monthly_salary"`
}

// RegisteredUser carries the generated password, which is shown only once.
type RegisteredUser struct {
	User              *models.User `json:"user"`
	TemporaryPassword string       `json:"temporary_password"`
}

// UpdateUserInput applies only the fields that are set. ClearTeam removes the
// user from their team.
type UpdateUserInput struct {
	FirstName     *string          `json:"first_name"`
	LastName      *string          `json:"last_name"`
	Role          *models.Role     `json:"role"`
	TeamID        *uint            `json:"team_id"`
	ClearTeam     bool             `json:"clear_team"`
	HireDate      *string          `json:"hire_date"`
	MonthlySalary *decimal.Decimal `json:"monthly_salary"`
	IsActive      *bool            `json:"is_active"`
}

type CreateTeamInput struct {
	Name      string `json:"name"`
	ManagerID *uint  `json:"manager_id"`
}

type CreateProjectInput struct {
	Name string `json:"name"`
}

// AdminService manages users, teams and projects. Salary changes re-sync the
// user's overtime summaries in the same transaction.
type AdminService struct {
	store  models.Store
	syncer *Syncer
	log    *slog.Logger
}

func NewAdminService(store models.Store, syncer *Syncer, log *slog.Logger) *AdminService {
	if log == nil {
		log = slog.Default()
	}
	return &AdminService{store: store, syncer: syncer, log: log}
}

func requireAdmin(actor *models.User) error {
	if !actor.CanManageUsers() {
		return apperror.Forbidden("administrator role required")
	}
	return nil
}

func (s *AdminService) RegisterUser(ctx context.Context, actor *models.User, in RegisterUserInput) (*RegisteredUser, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var errs validator.ValidationErrors
	if validator.IsEmpty(in.FirstName) {
		errs.Add("first_name", "first name is required")
	}
	if validator.IsEmpty(in.LastName) {
		errs.Add("last_name", "last name is required")
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if !validator.IsValidEmail(in.Email) {
		errs.Add("email", "email is invalid")
	}
	if in.Role == "" {
		in.Role = models.RoleEmployee
	}
	if !in.Role.Valid() {
		errs.Add("role", "role must be EMPLOYEE, MANAGER or ADMINISTRATOR")
	}
	if !in.MonthlySalary.IsPositive() {
		errs.Add("monthly_salary", "monthly salary must be greater than 0")
	}
	hireDate := parseOptionalDate(&errs, "hire_date", in.HireDate)
	if errs.HasErrors() {
		return nil, apperror.Validation(errs.ToMap())
	}

	password, err := generatePassword()
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeInternal, "failed to generate password", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeInternal, "failed to hash password", err)
	}

	user := &models.User{
		FirstName:          strings.TrimSpace(in.FirstName),
		LastName:           strings.TrimSpace(in.LastName),
		Email:              in.Email,
		PasswordHash:       string(hash),
		Role:               in.Role,
		TeamID:             in.TeamID,
		HireDate:           hireDate,
		IsActive:           true,
		MustChangePassword: true,
	}
	user.SetMonthlySalary(in.MonthlySalary)

	err = s.store.Transaction(ctx, func(tx models.Store) error {
		if in.TeamID != nil {
			if _, err := tx.Teams().GetByID(ctx, *in.TeamID); err != nil {
				return err
			}
		}
		return tx.Users().Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "user registered",
		slog.Uint64("user_id", uint64(user.ID)),
		slog.String("role", string(user.Role)),
	)
	return &RegisteredUser{User: user, TemporaryPassword: password}, nil
}

func (s *AdminService) UpdateUser(ctx context.Context, actor *models.User, id uint, in UpdateUserInput) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var errs validator.ValidationErrors
	if in.FirstName != nil && validator.IsEmpty(*in.FirstName) {
		errs.Add("first_name", "first name must not be empty")
	}
	if in.LastName != nil && validator.IsEmpty(*in.LastName) {
		errs.Add("last_name", "last name must not be empty")
	}
	if in.Role != nil && !in.Role.Valid() {
		errs.Add("role", "role must be EMPLOYEE, MANAGER or ADMINISTRATOR")
	}
	if in.MonthlySalary != nil && !in.MonthlySalary.IsPositive() {
		errs.Add("monthly_salary", "monthly salary must be greater than 0")
	}
	var hireDate *time.Time
	if in.HireDate != nil {
		hireDate = parseOptionalDate(&errs, "hire_date", *in.HireDate)
	}
	if errs.HasErrors() {
		return nil, apperror.Validation(errs.ToMap())
	}

	var updated *models.User
	err := s.store.Transaction(ctx, func(tx models.Store) error {
		user, err := tx.Users().GetByID(ctx, id)
		if err != nil {
			return err
		}

		if in.FirstName != nil {
			user.FirstName = strings.TrimSpace(*in.FirstName)
		}
		if in.LastName != nil {
			user.LastName = strings.TrimSpace(*in.LastName)
		}
		if in.Role != nil {
			user.Role = *in.Role
		}
		switch {
		case in.ClearTeam:
			user.TeamID = nil
		case in.TeamID != nil:
			if _, err := tx.Teams().GetByID(ctx, *in.TeamID); err != nil {
				return err
			}
			user.TeamID = in.TeamID
		}
		if in.HireDate != nil {
			user.HireDate = hireDate
		}
		if in.IsActive != nil {
			user.IsActive = *in.IsActive
		}

		rateChanged := false
		if in.MonthlySalary != nil && !in.MonthlySalary.Equal(user.MonthlySalary) {
			previous := user.HourlyRate
			user.SetMonthlySalary(*in.MonthlySalary)
			rateChanged = !previous.Equal(user.HourlyRate)
		}
		user.Team = nil

		if err := tx.Users().Update(ctx, user); err != nil {
			return err
		}
		if rateChanged {
			if err := s.resyncUser(ctx, tx, user.ID); err != nil {
				return err
			}
		}

		updated, err = tx.Users().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// resyncUser recomputes every summary of userID, used after a rate change.
func (s *AdminService) resyncUser(ctx context.Context, tx models.Store, userID uint) error {
	days, err := tx.TimeEntries().UserDays(ctx, &userID, time.Time{}, time.Time{})
	if err != nil {
		return err
	}
	if err := s.syncer.syncAll(ctx, tx, days); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "overtime re-synced after rate change",
		slog.Uint64("user_id", uint64(userID)),
		slog.Int("days", len(days)),
	)
	return nil
}

func (s *AdminService) ListUsers(ctx context.Context, actor *models.User) ([]models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.store.Users().List(ctx)
}

func (s *AdminService) GetUser(ctx context.Context, actor *models.User, id uint) (*models.User, error) {
	if err := authorizeView(ctx, s.store, actor, id); err != nil {
		return nil, err
	}
	return s.store.Users().GetByID(ctx, id)
}

func (s *AdminService) CreateTeam(ctx context.Context, actor *models.User, in CreateTeamInput) (*models.Team, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if validator.IsEmpty(in.Name) {
		return nil, apperror.Validation(map[string]string{"name": "team name is required"})
	}

	team := &models.Team{Name: strings.TrimSpace(in.Name), ManagerID: in.ManagerID}
	err := s.store.Transaction(ctx, func(tx models.Store) error {
		if in.ManagerID != nil {
			manager, err := tx.Users().GetByID(ctx, *in.ManagerID)
			if err != nil {
				return err
			}
			if !manager.CanViewTeams() {
				return apperror.Validation(map[string]string{"manager_id": "user is not a manager"})
			}
		}
		return tx.Teams().Create(ctx, team)
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (s *AdminService) ListProjects(ctx context.Context) ([]models.Project, error) {
	return s.store.Projects().ListActive(ctx)
}

func (s *AdminService) GetProject(ctx context.Context, id uint) (*models.Project, error) {
	return s.store.Projects().GetByID(ctx, id)
}

func (s *AdminService) CreateProject(ctx context.Context, actor *models.User, in CreateProjectInput) (*models.Project, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if validator.IsEmpty(in.Name) {
		return nil, apperror.Validation(map[string]string{"name": "project name is required"})
	}
	project := &models.Project{Name: strings.TrimSpace(in.Name), IsActive: true}
	if err := s.store.Projects().Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func parseOptionalDate(errs *validator.ValidationErrors, field, value string) *time.Time {
	if validator.IsEmpty(value) {
		return nil
	}
	d, ok := validator.IsValidDate(value)
	if !ok {
		errs.Add(field, "date must be YYYY-MM-DD")
		return nil
	}
	d = calendar.StartOfDay(d)
	return &d
}

// generatePassword returns a random 12 character hex password.
func generatePassword() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
