package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/facetrack/facetrackbackend/models"
	"github.com/facetrack/facetrackbackend/repository"
)

type contextKey string

// AdminContextKey is the context key under which the authenticated admin is stored.
const AdminContextKey contextKey = "admin"

// AdminClaims are the JWT claims issued for an authenticated admin session.
type AdminClaims struct {
	AdminID  uint   `json:"admin_id"`
	IsHR     bool   `json:"is_hr"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the bearer token and loads the admin into the request context.
type AuthMiddleware struct {
	adminRepo repository.AdminRepositoryInterface
	jwtKey    []byte
}

func NewAuthMiddleware(adminRepo repository.AdminRepositoryInterface, jwtKey []byte) *AuthMiddleware {
	return &AuthMiddleware{adminRepo: adminRepo, jwtKey: jwtKey}
}

// IssueToken signs a session token for the given admin, valid for 24 hours.
func (m *AuthMiddleware) IssueToken(admin *models.Admin) (string, error) {
	claims := AdminClaims{
		AdminID:  admin.ID,
		IsHR:     admin.IsHR,
		Username: admin.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.jwtKey)
}

// RequireAuth rejects requests without a valid bearer token.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			WriteAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or malformed Authorization header")
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		claims := &AdminClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return m.jwtKey, nil
		})
		if err != nil || !token.Valid {
			WriteAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
			return
		}

		admin, err := m.adminRepo.GetByID(claims.AdminID)
		if err != nil {
			WriteAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Admin account no longer exists")
			return
		}

		ctx := context.WithValue(r.Context(), AdminContextKey, admin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireHR rejects authenticated requests from admins without the HR role.
func (m *AuthMiddleware) RequireHR(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin := AdminFromContext(r.Context())
		if admin == nil || !admin.IsHR {
			WriteAPIError(w, http.StatusForbidden, "FORBIDDEN", "HR role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminFromContext returns the authenticated admin, or nil if the request is unauthenticated.
func AdminFromContext(ctx context.Context) *models.Admin {
	admin, _ := ctx.Value(AdminContextKey).(*models.Admin)
	return admin
}
