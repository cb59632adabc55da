package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/facetrack/facetrackbackend/models"
	"github.com/facetrack/facetrackbackend/repository"
)

// AuthHandler serves admin login and password management.
type AuthHandler struct {
	adminRepo repository.AdminRepositoryInterface
	auditRepo repository.AuditLogRepositoryInterface
	auth      *AuthMiddleware
}

func NewAuthHandler(adminRepo repository.AdminRepositoryInterface, auditRepo repository.AuditLogRepositoryInterface, auth *AuthMiddleware) *AuthHandler {
	return &AuthHandler{adminRepo: adminRepo, auditRepo: auditRepo, auth: auth}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	IsHR  bool   `json:"is_hr"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Username and password are required")
		return
	}

	admin, err := h.adminRepo.GetByUsername(req.Username)
	if err != nil || !admin.CheckPassword(req.Password) {
		WriteAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid credentials")
		return
	}

	token, err := h.auth.IssueToken(admin)
	if err != nil {
		log.Printf("Error signing session token for %s: %v", admin.Username, err)
		WriteAPIError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Failed to create session")
		return
	}

	h.audit(admin.Username, "login", "")
	writeJSON(w, http.StatusOK, loginResponse{Token: token, IsHR: admin.IsHR})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword handles POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	admin := AdminFromContext(r.Context())
	if admin == nil {
		WriteAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}
	if len(req.NewPassword) < 8 {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "New password must be at least 8 characters")
		return
	}
	if !admin.CheckPassword(req.CurrentPassword) {
		WriteAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Current password is incorrect")
		return
	}

	if err := admin.SetPassword(req.NewPassword); err != nil {
		log.Printf("Error hashing password for %s: %v", admin.Username, err)
		WriteAPIError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Failed to update password")
		return
	}
	if err := h.adminRepo.Update(admin); err != nil {
		log.Printf("Error updating admin %s: %v", admin.Username, err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update password")
		return
	}

	h.audit(admin.Username, "change_password", "")
	writeJSON(w, http.StatusOK, map[string]string{"status": "password_changed"})
}

func (h *AuthHandler) audit(actor, action, detail string) {
	if h.auditRepo == nil {
		return
	}
	entry := &models.AuditLog{Actor: actor, Action: action, Detail: detail}
	if err := h.auditRepo.Append(entry); err != nil {
		log.Printf("Error appending audit entry: %v", err)
	}
}
