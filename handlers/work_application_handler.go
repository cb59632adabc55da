package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/facetrack/facetrackbackend/models"
	"github.com/facetrack/facetrackbackend/repository"
)

// WorkApplicationHandler serves leave/remote/overtime requests and HR decisions.
type WorkApplicationHandler struct {
	appRepo   repository.WorkApplicationRepositoryInterface
	auditRepo repository.AuditLogRepositoryInterface
}

func NewWorkApplicationHandler(appRepo repository.WorkApplicationRepositoryInterface, auditRepo repository.AuditLogRepositoryInterface) *WorkApplicationHandler {
	return &WorkApplicationHandler{appRepo: appRepo, auditRepo: auditRepo}
}

type createApplicationRequest struct {
	UserID    uint   `json:"user_id"`
	Type      string `json:"type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
}

// Create handles POST /api/applications
func (h *WorkApplicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}
	if req.UserID == 0 || req.Type == "" {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "user_id and type are required")
		return
	}
	start, err := time.Parse(models.DateLayout, req.StartDate)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "start_date must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse(models.DateLayout, req.EndDate)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "end_date must be YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "end_date must not precede start_date")
		return
	}

	app := &models.WorkApplication{
		UserID:    req.UserID,
		Type:      req.Type,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Reason:    req.Reason,
		Status:    models.ApplicationPending,
	}
	if err := h.appRepo.Create(app); err != nil {
		log.Printf("Error creating work application for user %d: %v", req.UserID, err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create application")
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

// ListByUser handles GET /api/applications/user/{userID}
func (h *WorkApplicationHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUintParam(chi.URLParam(r, "userID"))
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid user ID")
		return
	}
	apps, err := h.appRepo.ListByUser(userID)
	if err != nil {
		log.Printf("Error listing applications for user %d: %v", userID, err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list applications")
		return
	}
	if apps == nil {
		apps = []models.WorkApplication{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"applications": apps})
}

// ListPending handles GET /api/applications/pending
func (h *WorkApplicationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	apps, err := h.appRepo.ListPending()
	if err != nil {
		log.Printf("Error listing pending applications: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list applications")
		return
	}
	if apps == nil {
		apps = []models.WorkApplication{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"applications": apps})
}

type decideApplicationRequest struct {
	Status string `json:"status"`
}

// Decide handles POST /api/applications/{id}/decide
func (h *WorkApplicationHandler) Decide(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(chi.URLParam(r, "id"))
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid application ID")
		return
	}

	var req decideApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}
	if req.Status != models.ApplicationApproved && req.Status != models.ApplicationRejected {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Status must be approved or rejected")
		return
	}

	decidedBy := "system"
	if admin := AdminFromContext(r.Context()); admin != nil {
		decidedBy = admin.Username
	}

	if err := h.appRepo.Decide(id, req.Status, decidedBy); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "NOT_FOUND", "Application not found or already decided")
			return
		}
		log.Printf("Error deciding application %d: %v", id, err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to decide application")
		return
	}

	if h.auditRepo != nil {
		entry := &models.AuditLog{Actor: decidedBy, Action: "application_" + req.Status, Detail: chi.URLParam(r, "id")}
		if err := h.auditRepo.Append(entry); err != nil {
			log.Printf("Error appending audit entry: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}
