package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overtimepay/apperror"
	"overtimepay/fixtures"
	"overtimepay/services"
)

func TestAuth_Authenticate(t *testing.T) {
	store, _ := fixtures.NewStore(t)
	ctx := context.Background()
	user := fixtures.User(t, store, "ana@example.com")
	fixtures.User(t, store, "gone@example.com", fixtures.Inactive())
	auth := services.NewAuthService(store.Users(), nil)

	got, err := auth.Authenticate(ctx, "ana@example.com", fixtures.Password)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "ana@example.com", "nope-nope"},
		{"unknown email", "nobody@example.com", fixtures.Password},
		{"inactive account", "gone@example.com", fixtures.Password},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Authenticate(ctx, tt.email, tt.password)
			assert.True(t, apperror.IsCode(err, apperror.CodeInvalidCredentials))
		})
	}
}

func TestAuth_ChangePassword(t *testing.T) {
	store, _ := fixtures.NewStore(t)
	ctx := context.Background()
	user := fixtures.User(t, store, "ana@example.com")
	auth := services.NewAuthService(store.Users(), nil)

	err := auth.ChangePassword(ctx, user, "wrong-password", "new-password-1")
	assert.True(t, apperror.IsCode(err, apperror.CodeValidationFailed))

	err = auth.ChangePassword(ctx, user, fixtures.Password, "short")
	assert.True(t, apperror.IsCode(err, apperror.CodeValidationFailed))

	err = auth.ChangePassword(ctx, user, fixtures.Password, fixtures.Password)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidationFailed))

	require.NoError(t, auth.ChangePassword(ctx, user, fixtures.Password, "new-password-1"))

	_, err = auth.Authenticate(ctx, "ana@example.com", fixtures.Password)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidCredentials))
	got, err := auth.Authenticate(ctx, "ana@example.com", "new-password-1")
	require.NoError(t, err)
	assert.False(t, got.MustChangePassword)
}
