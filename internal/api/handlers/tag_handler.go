package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"secondbrain/internal/pkg/errors"
	"secondbrain/internal/platform/models"
	"secondbrain/internal/platform/repositories"
)

type TagHandler struct {
	tagRepo        *repositories.TagRepository
	membershipRepo *repositories.MembershipRepository
}

func NewTagHandler(tagRepo *repositories.TagRepository, membershipRepo *repositories.MembershipRepository) *TagHandler {
	return &TagHandler{
		tagRepo:        tagRepo,
		membershipRepo: membershipRepo,
	}
}

type CreateTagRequest struct {
	Name           string `json:"name"`
	OrganizationID string `json:"organization_id"`
}

func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	var req CreateTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Missing tag name", nil)
		return
	}

	// Org-scoped tags require membership in that organization. Any role
	// will do; the scoping rule on attach is what keeps tags contained.
	if req.OrganizationID != "" {
		m, err := h.membershipRepo.Get(claims.UserID, req.OrganizationID)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
			return
		}
		if m == nil {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Not a member of this organization", nil)
			return
		}
	}

	tag := &models.Tag{
		ID:             "tag_" + uuid.NewString(),
		Name:           name,
		OrganizationID: req.OrganizationID,
		CreatedAt:      time.Now().Unix(),
	}
	if err := h.tagRepo.Create(tag); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create tag", nil)
		return
	}

	writeJSON(w, http.StatusCreated, tag)
}

// List returns global tags plus, when ?organization_id= is given, that
// organization's tags.
func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	orgID := r.URL.Query().Get("organization_id")

	if orgID != "" {
		m, err := h.membershipRepo.Get(claims.UserID, orgID)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
			return
		}
		if m == nil {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Not a member of this organization", nil)
			return
		}
	}

	tags, err := h.tagRepo.List(orgID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	writeJSON(w, http.StatusOK, tags)
}
