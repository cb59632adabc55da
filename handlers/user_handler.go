package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sort"

	"github.com/facette/natsort"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/facetrack/facetrackbackend/models"
	"github.com/facetrack/facetrackbackend/repository"
	"github.com/facetrack/facetrackbackend/services"
)

// UserHandler serves enrollment and user management endpoints.
type UserHandler struct {
	userRepo   repository.UserRepositoryInterface
	service    *services.RecognitionService
	auditRepo  repository.AuditLogRepositoryInterface
	maxSamples int
}

func NewUserHandler(userRepo repository.UserRepositoryInterface, service *services.RecognitionService, auditRepo repository.AuditLogRepositoryInterface, maxSamples int) *UserHandler {
	return &UserHandler{userRepo: userRepo, service: service, auditRepo: auditRepo, maxSamples: maxSamples}
}

type createUserRequest struct {
	EmployeeID string      `json:"employee_id"`
	Name       string      `json:"name"`
	Department string      `json:"department"`
	Embeddings [][]float64 `json:"embeddings"`
}

// Create handles POST /api/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}
	if req.Name == "" {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Name is required")
		return
	}

	user := &models.User{
		EmployeeID: req.EmployeeID,
		Name:       req.Name,
		Department: req.Department,
		IsActive:   true,
	}
	if len(req.Embeddings) > 0 {
		bank, err := models.EncodeEmbeddingBank(req.Embeddings)
		if err != nil {
			WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid embedding payload")
			return
		}
		user.EmbeddingBank = bank
	}

	if err := h.userRepo.Create(user); err != nil {
		log.Printf("Error creating user %s: %v", req.Name, err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create user")
		return
	}

	h.refreshIndex()
	h.audit(r, "user_create", user.Name)
	writeJSON(w, http.StatusCreated, user)
}

// List handles GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	users, err := h.userRepo.ListAll(activeOnly)
	if err != nil {
		log.Printf("Error listing users: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list users")
		return
	}

	// Natural ordering so EMP2 sorts before EMP10.
	sort.SliceStable(users, func(i, j int) bool {
		return natsort.Compare(users[i].EmployeeID, users[j].EmployeeID)
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

// Get handles GET /api/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(chi.URLParam(r, "id"))
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid user ID")
		return
	}

	user, err := h.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
			return
		}
		log.Printf("Error fetching user %d: %v", id, err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type updateUserRequest struct {
	EmployeeID *string `json:"employee_id"`
	Name       *string `json:"name"`
	Department *string `json:"department"`
	IsActive   *bool   `json:"is_active"`
}

// Update handles PUT /api/users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(chi.URLParam(r, "id"))
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid user ID")
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}

	user, err := h.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
			return
		}
		log.Printf("Error fetching user %d: %v", id, err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch user")
		return
	}

	if req.EmployeeID != nil {
		user.EmployeeID = *req.EmployeeID
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Department != nil {
		user.Department = *req.Department
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := h.userRepo.Update(user); err != nil {
		log.Printf("Error updating user %d: %v", id, err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update user")
		return
	}

	h.refreshIndex()
	h.audit(r, "user_update", user.Name)
	writeJSON(w, http.StatusOK, user)
}

// Deactivate handles DELETE /api/users/{id}
func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(chi.URLParam(r, "id"))
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid user ID")
		return
	}

	if err := h.userRepo.Deactivate(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
			return
		}
		log.Printf("Error deactivating user %d: %v", id, err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to deactivate user")
		return
	}

	h.refreshIndex()
	h.audit(r, "user_deactivate", chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

type registerEmbeddingRequest struct {
	Embedding []float64 `json:"embedding"`
}

// RegisterEmbedding handles POST /api/users/{id}/embeddings
func (h *UserHandler) RegisterEmbedding(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(chi.URLParam(r, "id"))
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid user ID")
		return
	}

	var req registerEmbeddingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}
	if len(req.Embedding) == 0 {
		WriteAPIError(w, http.StatusBadRequest, "INVALID_INPUT", "Embedding vector is required")
		return
	}

	if err := h.userRepo.AppendEmbedding(id, req.Embedding, h.maxSamples); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
			return
		}
		log.Printf("Error appending embedding for user %d: %v", id, err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to register embedding")
		return
	}

	h.refreshIndex()
	h.audit(r, "embedding_register", chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, map[string]string{"status": "embedding_registered"})
}

// embeddingFeedEntry is one identity in the bulk embedding export consumed
// by on-device matchers.
type embeddingFeedEntry struct {
	ID         uint        `json:"id"`
	Name       string      `json:"name"`
	Embeddings [][]float64 `json:"embeddings"`
	Threshold  float64     `json:"threshold"`
}

// EmbeddingFeed handles GET /api/users/embeddings
func (h *UserHandler) EmbeddingFeed(w http.ResponseWriter, r *http.Request) {
	identities, err := h.userRepo.LoadActiveIdentities()
	if err != nil {
		log.Printf("Error loading embedding feed: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load embeddings")
		return
	}

	feed := make([]embeddingFeedEntry, 0, len(identities))
	for _, ident := range identities {
		feed = append(feed, embeddingFeedEntry{
			ID:         ident.ID,
			Name:       ident.Name,
			Embeddings: ident.Samples,
			Threshold:  ident.Threshold,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"identities": feed})
}

func (h *UserHandler) refreshIndex() {
	if h.service == nil {
		return
	}
	if err := h.service.RefreshEmbeddings(); err != nil {
		log.Printf("Error refreshing embedding index after user change: %v", err)
	}
}

func (h *UserHandler) audit(r *http.Request, action, detail string) {
	if h.auditRepo == nil {
		return
	}
	actor := "system"
	if admin := AdminFromContext(r.Context()); admin != nil {
		actor = admin.Username
	}
	if err := h.auditRepo.Append(&models.AuditLog{Actor: actor, Action: action, Detail: detail}); err != nil {
		log.Printf("Error appending audit entry: %v", err)
	}
}
