package handlers

import (
	"net/http"

	"overtimepay/handlers/response"
	"overtimepay/middleware"
	"overtimepay/services"
)

type OvertimeHandler struct {
	entries *services.EntryService
	reports *services.ReportService
}

func NewOvertimeHandler(entries *services.EntryService, reports *services.ReportService) *OvertimeHandler {
	return &OvertimeHandler{entries: entries, reports: reports}
}

type submitEntriesRequest struct {
	Entries []services.EntryInput `json:"entries"`
}

// ListEntries returns the caller's entries for ?date=.
func (h *OvertimeHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	day, err := queryDate(r, h.reports.Today())
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	entries, err := h.entries.List(r.Context(), user, user.ID, day)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.Success(w, entries)
}

func (h *OvertimeHandler) ListUserEntries(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	userID, err := pathID(r, "userId")
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	day, err := queryDate(r, h.reports.Today())
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	entries, err := h.entries.List(r.Context(), user, userID, day)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.Success(w, entries)
}

// SubmitEntries creates and updates a batch of entries atomically.
func (h *OvertimeHandler) SubmitEntries(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var req submitEntriesRequest
	if err := decodeJSON(r, &req); err != nil {
		response.HandleError(w, r, err)
		return
	}

	result, err := h.entries.Submit(r.Context(), user, req.Entries)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.SuccessWithMessage(w, "entries saved", result)
}

func (h *OvertimeHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	if err := h.entries.Delete(r.Context(), user, id); err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.SuccessWithMessage(w, "entry deleted", nil)
}

func (h *OvertimeHandler) DailySummary(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	userID, err := queryUserID(r, user)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	day, err := queryDate(r, h.reports.Today())
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	summary, err := h.reports.DailySummary(r.Context(), user, userID, day)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.Success(w, summary)
}

func (h *OvertimeHandler) MonthlyOverview(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	userID, err := queryUserID(r, user)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	month, err := queryYearMonth(r, h.reports.CurrentMonth())
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	overview, err := h.reports.MonthlyOverview(r.Context(), user, userID, month)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.Success(w, overview)
}

func (h *OvertimeHandler) HourlyRate(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	userID, err := pathID(r, "id")
	if err != nil {
		response.HandleError(w, r, err)
		return
	}

	rate, err := h.reports.HourlyRate(r.Context(), user, userID)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.Success(w, map[string]any{"user_id": userID, "hourly_rate": rate})
}
