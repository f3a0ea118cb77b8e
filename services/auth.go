package services

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"overtimepay/apperror"
	"overtimepay/models"
	"overtimepay/validator"
)

type AuthService struct {
	users models.UserRepository
	log   *slog.Logger
}

func NewAuthService(users models.UserRepository, log *slog.Logger) *AuthService {
	if log == nil {
		log = slog.Default()
	}
	return &AuthService{users: users, log: log}
}

// Authenticate checks an email and password pair. Unknown emails, wrong
// passwords and deactivated accounts all fail the same way.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	invalid := apperror.New(apperror.CodeInvalidCredentials, "invalid email or password")

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperror.IsCode(err, apperror.CodeNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, invalid
	}
	if !user.IsActive {
		s.log.WarnContext(ctx, "login attempt on inactive account", slog.Uint64("user_id", uint64(user.ID)))
		return nil, invalid
	}
	return user, nil
}

// ChangePassword replaces user's password after checking the current one and
// clears the forced change flag.
func (s *AuthService) ChangePassword(ctx context.Context, user *models.User, current, next string) error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(current) {
		errs.Add("current_password", "current password is required")
	}
	if !validator.IsValidPassword(next) {
		errs.Add("new_password", "password must be at least 8 characters")
	}
	if errs.HasErrors() {
		return apperror.Validation(errs.ToMap())
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return apperror.Validation(map[string]string{"current_password": "current password is incorrect"})
	}
	if current == next {
		return apperror.Validation(map[string]string{"new_password": "new password must differ from the current one"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return apperror.Wrap(apperror.CodeInternal, "failed to hash password", err)
	}
	user.PasswordHash = string(hash)
	user.MustChangePassword = false
	return s.users.Update(ctx, user)
}
