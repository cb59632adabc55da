package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/facetrack/facetrackbackend/models"
	"github.com/facetrack/facetrackbackend/repository"
)

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ShiftHandler serves shift definitions and user shift assignments.
type ShiftHandler struct {
	shiftRepo repository.ShiftRepositoryInterface
}

func NewShiftHandler(shiftRepo repository.ShiftRepositoryInterface) *ShiftHandler {
	return &ShiftHandler{shiftRepo: shiftRepo}
}

type shiftRequest struct {
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (req *shiftRequest) validate() string {
	if req.Name == "" {
		return "Name is required"
	}
	if !clockPattern.MatchString(req.StartTime) || !clockPattern.MatchString(req.EndTime) {
		return "start_time and end_time must be HH:MM"
	}
	return ""
}

// Create handles POST /api/shifts
func (h *ShiftHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req shiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", msg)
		return
	}

	shift := &models.Shift{Name: req.Name, StartTime: req.StartTime, EndTime: req.EndTime}
	if err := h.shiftRepo.Create(shift); err != nil {
		log.Printf("Error creating shift %s: %v", req.Name, err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create shift")
		return
	}
	writeJSON(w, http.StatusCreated, shift)
}

// List handles GET /api/shifts
func (h *ShiftHandler) List(w http.ResponseWriter, r *http.Request) {
	shifts, err := h.shiftRepo.ListAll()
	if err != nil {
		log.Printf("Error listing shifts: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list shifts")
		return
	}
	if shifts == nil {
		shifts = []models.Shift{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"shifts": shifts})
}

// Update handles PUT /api/shifts/{id}
func (h *ShiftHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(chi.URLParam(r, "id"))
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid shift ID")
		return
	}

	var req shiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", msg)
		return
	}

	shift := &models.Shift{ID: id, Name: req.Name, StartTime: req.StartTime, EndTime: req.EndTime}
	if err := h.shiftRepo.Update(shift); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "NOT_FOUND", "Shift not found")
			return
		}
		log.Printf("Error updating shift %d: %v", id, err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update shift")
		return
	}
	writeJSON(w, http.StatusOK, shift)
}

// Delete handles DELETE /api/shifts/{id}
func (h *ShiftHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(chi.URLParam(r, "id"))
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid shift ID")
		return
	}
	if err := h.shiftRepo.Delete(id); err != nil {
		log.Printf("Error deleting shift %d: %v", id, err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete shift")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type assignShiftRequest struct {
	UserID  uint `json:"user_id"`
	ShiftID uint `json:"shift_id"`
}

// Assign handles POST /api/shifts/assign
func (h *ShiftHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}
	if req.UserID == 0 || req.ShiftID == 0 {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "user_id and shift_id are required")
		return
	}

	assignment := &models.ShiftAssignment{UserID: req.UserID, ShiftID: req.ShiftID}
	if err := h.shiftRepo.Assign(assignment); err != nil {
		log.Printf("Error assigning shift %d to user %d: %v", req.ShiftID, req.UserID, err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to assign shift")
		return
	}
	writeJSON(w, http.StatusCreated, assignment)
}

// GetAssignment handles GET /api/shifts/assignment/{userID}
func (h *ShiftHandler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUintParam(chi.URLParam(r, "userID"))
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid user ID")
		return
	}

	assignment, err := h.shiftRepo.GetAssignmentForUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "NOT_FOUND", "No shift assigned")
			return
		}
		log.Printf("Error fetching shift assignment for user %d: %v", userID, err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch assignment")
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}
