package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/facetrack/facetrackbackend/models"
	"github.com/facetrack/facetrackbackend/repository"
)

// HolidayHandler serves company holidays and per-user paid holiday grants.
type HolidayHandler struct {
	holidayRepo repository.HolidayRepositoryInterface
}

func NewHolidayHandler(holidayRepo repository.HolidayRepositoryInterface) *HolidayHandler {
	return &HolidayHandler{holidayRepo: holidayRepo}
}

type createHolidayRequest struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

// Create handles POST /api/holidays
func (h *HolidayHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}
	if _, err := time.Parse(models.DateLayout, req.Date); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Date must be YYYY-MM-DD")
		return
	}
	if req.Name == "" {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Name is required")
		return
	}

	holiday := &models.Holiday{Date: req.Date, Name: req.Name}
	if err := h.holidayRepo.Create(holiday); err != nil {
		log.Printf("Error creating holiday %s: %v", req.Date, err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create holiday")
		return
	}
	writeJSON(w, http.StatusCreated, holiday)
}

// List handles GET /api/holidays
func (h *HolidayHandler) List(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.holidayRepo.ListAll()
	if err != nil {
		log.Printf("Error listing holidays: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list holidays")
		return
	}
	if holidays == nil {
		holidays = []models.Holiday{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"holidays": holidays})
}

// Delete handles DELETE /api/holidays/{id}
func (h *HolidayHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(chi.URLParam(r, "id"))
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid holiday ID")
		return
	}
	if err := h.holidayRepo.Delete(id); err != nil {
		log.Printf("Error deleting holiday %d: %v", id, err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete holiday")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type grantPaidHolidayRequest struct {
	UserID uint   `json:"user_id"`
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

// GrantPaid handles POST /api/holidays/paid
func (h *HolidayHandler) GrantPaid(w http.ResponseWriter, r *http.Request) {
	var req grantPaidHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}
	if req.UserID == 0 {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "user_id is required")
		return
	}
	if _, err := time.Parse(models.DateLayout, req.Date); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Date must be YYYY-MM-DD")
		return
	}

	grantedBy := "system"
	if admin := AdminFromContext(r.Context()); admin != nil {
		grantedBy = admin.Username
	}

	paid := &models.PaidHoliday{
		UserID:    req.UserID,
		Date:      req.Date,
		Reason:    req.Reason,
		GrantedBy: grantedBy,
	}
	if err := h.holidayRepo.CreatePaid(paid); err != nil {
		log.Printf("Error granting paid holiday for user %d: %v", req.UserID, err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to grant paid holiday")
		return
	}
	writeJSON(w, http.StatusCreated, paid)
}

// ListPaid handles GET /api/holidays/paid/{userID}
func (h *HolidayHandler) ListPaid(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUintParam(chi.URLParam(r, "userID"))
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid user ID")
		return
	}
	grants, err := h.holidayRepo.ListPaidByUser(userID)
	if err != nil {
		log.Printf("Error listing paid holidays for user %d: %v", userID, err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list paid holidays")
		return
	}
	if grants == nil {
		grants = []models.PaidHoliday{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"paid_holidays": grants})
}

// DeletePaid handles DELETE /api/holidays/paid/{id}
func (h *HolidayHandler) DeletePaid(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(chi.URLParam(r, "id"))
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid grant ID")
		return
	}
	if err := h.holidayRepo.DeletePaid(id); err != nil {
		log.Printf("Error deleting paid holiday %d: %v", id, err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete paid holiday")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
