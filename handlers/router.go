package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"

	"overtimepay/middleware"
	"overtimepay/models"
)

type RouterConfig struct {
	Logger      *slog.Logger
	LogLevel    slog.Level
	CORSOrigins []string
}

func NewRouter(
	cfg RouterConfig,
	auth *middleware.Auth,
	authHandler *AuthHandler,
	overtimeHandler *OvertimeHandler,
	managerHandler *ManagerHandler,
	dashboardHandler *DashboardHandler,
) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:           300,
	}))
	router.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))
	router.Use(chimiddleware.CleanPath)
	router.Use(chimiddleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	router.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware)

			// reachable while a password change is pending
			r.Get("/auth/me", authHandler.Me)
			r.Post("/auth/password", authHandler.ChangePassword)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePasswordChange)

				r.Get("/dashboard", dashboardHandler.Dashboard)

				r.Get("/entries", overtimeHandler.ListEntries)
				r.Post("/entries", overtimeHandler.SubmitEntries)
				r.Delete("/entries/{id}", overtimeHandler.DeleteEntry)
				r.Get("/entries/user/{userId}", overtimeHandler.ListUserEntries)
				r.Get("/entries/summary", overtimeHandler.DailySummary)
				r.Get("/entries/monthly-overview", overtimeHandler.MonthlyOverview)

				r.Get("/projects", authHandler.ListProjects)
				r.Get("/projects/{id}", authHandler.GetProject)
				r.Get("/users/{id}", authHandler.GetUser)
				r.Get("/users/{id}/hourly-rate", overtimeHandler.HourlyRate)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(models.RoleManager, models.RoleAdministrator))
					r.Get("/manager/teams", managerHandler.Teams)
					r.Get("/manager/team-members", managerHandler.TeamMembers)
					r.Get("/manager/team-summary", managerHandler.TeamSummary)
					r.Get("/manager/team-entries", managerHandler.TeamEntries)
					r.Get("/manager/export", managerHandler.ExportCSV)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(models.RoleAdministrator))
					r.Get("/users", authHandler.ListUsers)
					r.Post("/users", authHandler.RegisterUser)
					r.Put("/users/{id}", authHandler.UpdateUser)
					r.Post("/teams", authHandler.CreateTeam)
					r.Post("/projects", authHandler.CreateProject)
				})
			})
		})
	})

	return router
}
