package handlers

import (
	"encoding/json"
	"net/http"

	"secondbrain/internal/engine/agent"
	"secondbrain/internal/pkg/errors"
	"secondbrain/internal/platform/repositories"
)

type UserHandler struct {
	userRepo       *repositories.UserRepository
	membershipRepo *repositories.MembershipRepository
}

func NewUserHandler(userRepo *repositories.UserRepository, membershipRepo *repositories.MembershipRepository) *UserHandler {
	return &UserHandler{
		userRepo:       userRepo,
		membershipRepo: membershipRepo,
	}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	user, err := h.userRepo.GetByID(claims.UserID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if user == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "User not found", nil)
		return
	}

	memberships, err := h.membershipRepo.ListForUser(user.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	user.Memberships = memberships

	writeJSON(w, http.StatusOK, user)
}

type UpdateProfileRequest struct {
	Name      *string `json:"name"`
	AvatarURL *string `json:"avatar_url"`
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Name == nil && req.AvatarURL == nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "No fields to update", nil)
		return
	}
	if req.Name != nil && *req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Name cannot be empty", nil)
		return
	}

	if err := h.userRepo.UpdateProfile(claims.UserID, req.Name, req.AvatarURL); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	user, err := h.userRepo.GetByID(claims.UserID)
	if err != nil || user == nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// APIKeys reports which agent provider keys are stored. Key material is
// never echoed back.
func (h *UserHandler) APIKeys(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	user, err := h.userRepo.GetByID(claims.UserID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if user == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "User not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{
		"openai": user.APIKeyOpenAI != "",
		"gemini": user.APIKeyGemini != "",
	})
}

type SetAPIKeyRequest struct {
	Provider string `json:"provider"`
	Key      string `json:"key"`
}

func (h *UserHandler) SetAPIKey(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	var req SetAPIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	switch agent.Provider(req.Provider) {
	case agent.ProviderOpenAI, agent.ProviderGemini:
	default:
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Unknown provider", nil)
		return
	}

	if err := h.userRepo.SetAPIKey(claims.UserID, req.Provider, req.Key); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "API key updated"})
}
