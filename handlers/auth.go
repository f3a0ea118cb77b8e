package handlers

import (
	"net/http"

	"overtimepay/apperror"
	"overtimepay/handlers/response"
	"overtimepay/middleware"
	"overtimepay/services"
)

// AuthHandler covers sessions plus the administrator's user, team and project
// records.
type AuthHandler struct {
	auth    *middleware.Auth
	service *services.AuthService
	admin   *services.AdminService
}

func NewAuthHandler(auth *middleware.Auth, service *services.AuthService, admin *services.AdminService) *AuthHandler {
	return &AuthHandler{auth: auth, service: service, admin: admin}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		response.HandleError(w, r, err)
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	token, err := h.auth.GenerateToken(user)
	if err != nil {
		response.HandleError(w, r, apperror.Wrap(apperror.CodeInternal, "failed to generate token", err))
		return
	}
	h.auth.SetCookie(w, token)

	response.SuccessWithMessage(w, "logged in", map[string]any{
		"user":                 user,
		"token":                token,
		"must_change_password": user.MustChangePassword,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearCookie(w)
	response.SuccessWithMessage(w, "logged out", nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	response.Success(w, middleware.GetUserFromContext(r.Context()))
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		response.HandleError(w, r, err)
		return
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.NewPassword {
		response.HandleError(w, r, apperror.Validation(map[string]string{"confirm_password": "passwords do not match"}))
		return
	}

	if err := h.service.ChangePassword(r.Context(), user, req.CurrentPassword, req.NewPassword); err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.SuccessWithMessage(w, "password changed", nil)
}

func (h *AuthHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var req services.RegisterUserInput
	if err := decodeJSON(r, &req); err != nil {
		response.HandleError(w, r, err)
		return
	}

	registered, err := h.admin.RegisterUser(r.Context(), user, req)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.Created(w, "user registered", registered)
}

func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	users, err := h.admin.ListUsers(r.Context(), user)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.Success(w, users)
}

func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	found, err := h.admin.GetUser(r.Context(), user, id)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.Success(w, found)
}

func (h *AuthHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	var req services.UpdateUserInput
	if err := decodeJSON(r, &req); err != nil {
		response.HandleError(w, r, err)
		return
	}

	updated, err := h.admin.UpdateUser(r.Context(), user, id, req)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.SuccessWithMessage(w, "user updated", updated)
}

func (h *AuthHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var req services.CreateTeamInput
	if err := decodeJSON(r, &req); err != nil {
		response.HandleError(w, r, err)
		return
	}

	team, err := h.admin.CreateTeam(r.Context(), user, req)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.Created(w, "team created", team)
}

func (h *AuthHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.admin.ListProjects(r.Context())
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.Success(w, projects)
}

func (h *AuthHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	project, err := h.admin.GetProject(r.Context(), id)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.Success(w, project)
}

func (h *AuthHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var req services.CreateProjectInput
	if err := decodeJSON(r, &req); err != nil {
		response.HandleError(w, r, err)
		return
	}

	project, err := h.admin.CreateProject(r.Context(), user, req)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.Created(w, "project created", project)
}
