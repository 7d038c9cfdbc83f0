package handlers

import (
	"encoding/json"
	"net/http"

	"secondbrain/internal/engine/agent"
	"secondbrain/internal/pkg/errors"
	"secondbrain/internal/platform/repositories"
)

type AgentHandler struct {
	userRepo *repositories.UserRepository
	svc      *agent.Service
}

func NewAgentHandler(userRepo *repositories.UserRepository, svc *agent.Service) *AgentHandler {
	return &AgentHandler{userRepo: userRepo, svc: svc}
}

type ChatRequest struct {
	Provider agent.Provider `json:"provider"`
	Prompt   string         `json:"prompt"`
	APIKey   string         `json:"api_key"`
}

type ChatResponse struct {
	Text string `json:"text"`
}

func (h *AgentHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Prompt == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Missing prompt", nil)
		return
	}
	if !req.Provider.Valid() {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Unknown provider", nil)
		return
	}

	key, ok := h.resolveKey(w, r, req.Provider, req.APIKey)
	if !ok {
		return
	}

	text, err := h.svc.ChatText(r.Context(), req.Provider, req.Prompt, key)
	if err != nil {
		h.writeAgentError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{Text: text})
}

type ImageRequest struct {
	Prompt string             `json:"prompt"`
	Images []agent.ImageInput `json:"images"`
	APIKey string             `json:"api_key"`
}

func (h *AgentHandler) Image(w http.ResponseWriter, r *http.Request) {
	var req ImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Prompt == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Missing prompt", nil)
		return
	}

	key, ok := h.resolveKey(w, r, agent.ProviderGemini, req.APIKey)
	if !ok {
		return
	}

	result, err := h.svc.GenerateImage(r.Context(), req.Prompt, req.Images, key)
	if err != nil {
		h.writeAgentError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// resolveKey loads the caller and picks their stored provider key, falling
// back to a key passed in the request. On failure the error is written and
// ok is false.
func (h *AgentHandler) resolveKey(w http.ResponseWriter, r *http.Request, provider agent.Provider, requestKey string) (string, bool) {
	claims := claimsFrom(r)

	user, err := h.userRepo.GetByID(claims.UserID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return "", false
	}
	if user == nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "User not found", nil)
		return "", false
	}

	stored := user.APIKeyOpenAI
	if provider == agent.ProviderGemini {
		stored = user.APIKeyGemini
	}

	key, err := agent.ResolveKey(stored, requestKey, provider)
	if err != nil {
		errors.WriteServiceError(w, err)
		return "", false
	}
	return key, true
}

// writeAgentError surfaces upstream provider failures with their original
// status code instead of collapsing everything to 500.
func (h *AgentHandler) writeAgentError(w http.ResponseWriter, err error) {
	if ue, ok := err.(*agent.UpstreamError); ok {
		errors.WriteError(w, ue.Status, errors.ErrCodeUpstream, "Provider request failed", map[string]interface{}{
			"upstream": ue.Body,
		})
		return
	}
	errors.WriteServiceError(w, err)
}
