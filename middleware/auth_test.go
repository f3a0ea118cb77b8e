package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overtimepay/fixtures"
	"overtimepay/handlers/response"
	"overtimepay/middleware"
	"overtimepay/models"
)

const testSecret = "test-secret"

func okHandler(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	response.Success(w, map[string]any{"id": user.ID})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *response.ErrorDetail {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	require.NotNil(t, body.Error)
	return body.Error
}

func TestAuth_TokenRoundTrip(t *testing.T) {
	auth := middleware.NewAuth(testSecret, time.Hour, nil)
	user := &models.User{ID: 7, Email: "ana@example.com", Role: models.RoleManager}

	token, err := auth.GenerateToken(user)
	require.NoError(t, err)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, models.RoleManager, claims.Role)
}

func TestAuth_ValidateTokenRejects(t *testing.T) {
	auth := middleware.NewAuth(testSecret, time.Hour, nil)
	user := &models.User{ID: 7, Role: models.RoleEmployee}

	other, err := middleware.NewAuth("another-secret", time.Hour, nil).GenerateToken(user)
	require.NoError(t, err)
	_, err = auth.ValidateToken(other)
	assert.Error(t, err)

	expired, err := middleware.NewAuth(testSecret, -time.Minute, nil).GenerateToken(user)
	require.NoError(t, err)
	_, err = auth.ValidateToken(expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &middleware.Claims{UserID: 7}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = auth.ValidateToken(unsigned)
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	store, _ := fixtures.NewStore(t)
	auth := middleware.NewAuth(testSecret, time.Hour, store.Users())
	user := fixtures.User(t, store, "ana@example.com")
	inactive := fixtures.User(t, store, "gone@example.com", fixtures.Inactive())
	handler := auth.AuthMiddleware(http.HandlerFunc(okHandler))

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "SESSION_EXPIRED", decodeError(t, rec).Code)
	})

	t.Run("cookie", func(t *testing.T) {
		token, err := auth.GenerateToken(user)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: token})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("bearer header", func(t *testing.T) {
		token, err := auth.GenerateToken(user)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid session", decodeError(t, rec).Message)
	})

	t.Run("inactive user", func(t *testing.T) {
		token, err := auth.GenerateToken(inactive)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("deleted user", func(t *testing.T) {
		token, err := auth.GenerateToken(&models.User{ID: 9999, Role: models.RoleEmployee})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func withUser(r *http.Request, user *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.UserContextKey, user))
}

func TestRequireRole(t *testing.T) {
	handler := middleware.RequireRole(models.RoleManager, models.RoleAdministrator)(http.HandlerFunc(okHandler))

	tests := []struct {
		role   models.Role
		status int
	}{
		{models.RoleEmployee, http.StatusForbidden},
		{models.RoleManager, http.StatusOK},
		{models.RoleAdministrator, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			req := withUser(httptest.NewRequest(http.MethodGet, "/", nil), &models.User{ID: 1, Role: tt.role})
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequirePasswordChange(t *testing.T) {
	handler := middleware.RequirePasswordChange(http.HandlerFunc(okHandler))
	pending := &models.User{ID: 1, Role: models.RoleEmployee, MustChangePassword: true}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/dashboard", nil), pending))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	detail := decodeError(t, rec)
	assert.Equal(t, middleware.ChangePasswordPath, detail.Details["change_password"])

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodPost, middleware.ChangePasswordPath, nil), pending))
	assert.Equal(t, http.StatusOK, rec.Code)

	settled := &models.User{ID: 2, Role: models.RoleEmployee}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/dashboard", nil), settled))
	assert.Equal(t, http.StatusOK, rec.Code)
}
