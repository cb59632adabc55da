package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/facetrack/facetrackbackend/models"
	"github.com/facetrack/facetrackbackend/repository"
)

// AuditHandler exposes the recent audit trail to HR admins.
type AuditHandler struct {
	auditRepo repository.AuditLogRepositoryInterface
}

func NewAuditHandler(auditRepo repository.AuditLogRepositoryInterface) *AuditHandler {
	return &AuditHandler{auditRepo: auditRepo}
}

// ListRecent handles GET /api/audit
func (h *AuditHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid limit")
			return
		}
		limit = parsed
	}

	entries, err := h.auditRepo.ListRecent(limit)
	if err != nil {
		log.Printf("Error listing audit entries: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list audit entries")
		return
	}
	if entries == nil {
		entries = []models.AuditLog{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}
