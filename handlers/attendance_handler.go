package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/facetrack/facetrackbackend/models"
	"github.com/facetrack/facetrackbackend/recognition"
	"github.com/facetrack/facetrackbackend/repository"
	"github.com/facetrack/facetrackbackend/services"
)

// AttendanceHandler serves the recognition endpoints the terminal drives and
// the attendance log queries the dashboard reads.
type AttendanceHandler struct {
	service        *services.RecognitionService
	attendanceRepo repository.AttendanceRepositoryInterface
	auditRepo      repository.AuditLogRepositoryInterface
}

func NewAttendanceHandler(service *services.RecognitionService, attendanceRepo repository.AttendanceRepositoryInterface, auditRepo repository.AuditLogRepositoryInterface) *AttendanceHandler {
	return &AttendanceHandler{service: service, attendanceRepo: attendanceRepo, auditRepo: auditRepo}
}

type frameRequest struct {
	Detections []recognition.Detection `json:"detections"`
}

type markRequest struct {
	Action     string                  `json:"action"`
	Detections []recognition.Detection `json:"detections"`
}

// Preview handles POST /api/recognition/preview
func (h *AttendanceHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req frameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}

	results := h.service.PreviewFrame(req.Detections)
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// Mark handles POST /api/recognition/mark
func (h *AttendanceHandler) Mark(w http.ResponseWriter, r *http.Request) {
	var req markRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}

	results, err := h.service.MarkAttendance(req.Action, req.Detections)
	if err != nil {
		if errors.Is(err, services.ErrInvalidAction) {
			WriteAPIError(w, http.StatusBadRequest, "INVALID_ACTION", "Unrecognized attendance action: "+req.Action)
			return
		}
		log.Printf("Error marking attendance: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record attendance")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// ListLogs handles GET /api/attendance/logs
func (h *AttendanceHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	filter := repository.AttendanceLogFilter{
		FromDate: r.URL.Query().Get("from"),
		ToDate:   r.URL.Query().Get("to"),
	}
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := parseUintParam(raw)
		if err != nil {
			WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid user_id filter")
			return
		}
		filter.UserID = &id
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid limit")
			return
		}
		filter.Limit = limit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid offset")
			return
		}
		filter.Offset = offset
	}

	records, err := h.attendanceRepo.ListFiltered(filter)
	if err != nil {
		log.Printf("Error listing attendance logs: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query attendance logs")
		return
	}
	if records == nil {
		records = []models.Attendance{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": records})
}

// ToggleAutoTrain handles POST /api/recognition/autotrain/toggle
func (h *AttendanceHandler) ToggleAutoTrain(w http.ResponseWriter, r *http.Request) {
	enabled := h.service.ToggleAutoTrain()

	actor := "system"
	if admin := AdminFromContext(r.Context()); admin != nil {
		actor = admin.Username
	}
	h.audit(actor, "autotrain_toggle", strconv.FormatBool(enabled))

	writeJSON(w, http.StatusOK, map[string]bool{"enabled": enabled})
}

// AutoTrainStatus handles GET /api/recognition/autotrain
func (h *AttendanceHandler) AutoTrainStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": h.service.AutoTrainStatus()})
}

// IndexStats handles GET /api/recognition/stats
func (h *AttendanceHandler) IndexStats(w http.ResponseWriter, r *http.Request) {
	identities, samples := h.service.IndexStats()
	writeJSON(w, http.StatusOK, map[string]int{
		"identities": identities,
		"samples":    samples,
	})
}

// RefreshIndex handles POST /api/recognition/refresh
func (h *AttendanceHandler) RefreshIndex(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RefreshEmbeddings(); err != nil {
		log.Printf("Error refreshing embedding index: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to reload embeddings")
		return
	}
	identities, samples := h.service.IndexStats()
	writeJSON(w, http.StatusOK, map[string]int{
		"identities": identities,
		"samples":    samples,
	})
}

func (h *AttendanceHandler) audit(actor, action, detail string) {
	if h.auditRepo == nil {
		return
	}
	if err := h.auditRepo.Append(&models.AuditLog{Actor: actor, Action: action, Detail: detail}); err != nil {
		log.Printf("Error appending audit entry: %v", err)
	}
}
