package handlers

import (
	"net/http"

	"overtimepay/handlers/response"
	"overtimepay/middleware"
	"overtimepay/services"
)

type DashboardHandler struct {
	dashboards *services.DashboardService
}

func NewDashboardHandler(dashboards *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards}
}

func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	dash, err := h.dashboards.Build(r.Context(), user)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.Success(w, dash)
}
