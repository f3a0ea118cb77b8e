package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"overtimepay/apperror"
	"overtimepay/handlers/response"
	"overtimepay/models"
)

type contextKey string

const UserContextKey contextKey = "user"

const CookieName = "token"

// ChangePasswordPath stays reachable while a password change is pending.
const ChangePasswordPath = "/api/auth/password"

type Claims struct {
	UserID uint        `json:"user_id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

type Auth struct {
	secret     []byte
	expiration time.Duration
	users      models.UserRepository
}

func NewAuth(secret string, expiration time.Duration, users models.UserRepository) *Auth {
	return &Auth{secret: []byte(secret), expiration: expiration, users: users}
}

func (a *Auth) Expiration() time.Duration {
	return a.expiration
}

func (a *Auth) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *Auth) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}

// SetCookie stores token in the session cookie.
func (a *Auth) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(a.expiration.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// AuthMiddleware loads the user named by the session token into the request
// context.
func (a *Auth) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := tokenFromRequest(r)
		if tokenString == "" {
			response.HandleError(w, r, apperror.New(apperror.CodeSessionExpired, "authentication required"))
			return
		}

		claims, err := a.ValidateToken(tokenString)
		if err != nil {
			ClearCookie(w)
			message := "invalid session"
			if errors.Is(err, jwt.ErrTokenExpired) {
				message = "session expired"
			}
			response.HandleError(w, r, apperror.New(apperror.CodeSessionExpired, message))
			return
		}

		user, err := a.users.GetByID(r.Context(), claims.UserID)
		if err != nil {
			if apperror.IsCode(err, apperror.CodeNotFound) {
				ClearCookie(w)
				response.HandleError(w, r, apperror.New(apperror.CodeSessionExpired, "invalid session"))
				return
			}
			response.HandleError(w, r, err)
			return
		}
		if !user.IsActive {
			ClearCookie(w)
			response.HandleError(w, r, apperror.New(apperror.CodeSessionExpired, "account is inactive"))
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func RequirePasswordChange(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user != nil && user.MustChangePassword && r.URL.Path != ChangePasswordPath {
			response.HandleError(w, r, apperror.Forbidden("password change required").
				WithDetail("change_password", ChangePasswordPath))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUserFromContext(r.Context())
			if user == nil {
				response.HandleError(w, r, apperror.New(apperror.CodeSessionExpired, "authentication required"))
				return
			}

			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			response.HandleError(w, r, apperror.Forbidden("insufficient role"))
		})
	}
}

func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}
