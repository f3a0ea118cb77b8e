package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"overtimepay/apperror"
	"overtimepay/calendar"
	"overtimepay/models"
)

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperror.Wrap(apperror.CodeBadRequest, "invalid request body", err)
	}
	return nil
}

func parseID(s, field string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil || id == 0 {
		return 0, apperror.Validation(map[string]string{field: "must be a positive integer"})
	}
	return uint(id), nil
}

func pathID(r *http.Request, name string) (uint, error) {
	return parseID(chi.URLParam(r, name), name)
}

// queryUserID reads ?userId=, defaulting to the caller.
func queryUserID(r *http.Request, actor *models.User) (uint, error) {
	raw := r.URL.Query().Get("userId")
	if raw == "" {
		return actor.ID, nil
	}
	return parseID(raw, "userId")
}

// queryDate reads ?date=YYYY-MM-DD, defaulting to today.
func queryDate(r *http.Request, today time.Time) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return today, nil
	}
	day, err := calendar.ParseDate(raw)
	if err != nil {
		return time.Time{}, apperror.Validation(map[string]string{"date": err.Error()})
	}
	return day, nil
}

// queryYearMonth reads ?year=&month= as numbers, each defaulting to the
// current month's.
func queryYearMonth(r *http.Request, current calendar.Month) (calendar.Month, error) {
	q := r.URL.Query()
	year, month := current.Year, int(current.Month)
	var err error
	if raw := q.Get("year"); raw != "" {
		if year, err = strconv.Atoi(raw); err != nil {
			return calendar.Month{}, apperror.Validation(map[string]string{"year": "must be a number"})
		}
	}
	if raw := q.Get("month"); raw != "" {
		if month, err = strconv.Atoi(raw); err != nil {
			return calendar.Month{}, apperror.Validation(map[string]string{"month": "must be a number"})
		}
	}
	m, err := calendar.NewMonth(year, month)
	if err != nil {
		return calendar.Month{}, apperror.Validation(map[string]string{"month": err.Error()})
	}
	return m, nil
}

// queryMonth reads ?month=YYYY-MM, defaulting to the current month.
func queryMonth(r *http.Request, current calendar.Month) (calendar.Month, error) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		return current, nil
	}
	m, err := calendar.ParseMonth(raw)
	if err != nil {
		return calendar.Month{}, apperror.Validation(map[string]string{"month": err.Error()})
	}
	return m, nil
}

// queryTeamIDs reads ?teamId=, repeated or comma separated.
func queryTeamIDs(r *http.Request) ([]uint, error) {
	var ids []uint
	for _, raw := range r.URL.Query()["teamId"] {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			id, err := parseID(part, "teamId")
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
