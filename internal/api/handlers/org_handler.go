package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"secondbrain/internal/engine/policy"
	"secondbrain/internal/pkg/errors"
	"secondbrain/internal/platform/models"
	"secondbrain/internal/platform/repositories"
)

type OrgHandler struct {
	orgRepo        *repositories.OrganizationRepository
	userRepo       *repositories.UserRepository
	membershipRepo *repositories.MembershipRepository
}

func NewOrgHandler(orgRepo *repositories.OrganizationRepository, userRepo *repositories.UserRepository, membershipRepo *repositories.MembershipRepository) *OrgHandler {
	return &OrgHandler{
		orgRepo:        orgRepo,
		userRepo:       userRepo,
		membershipRepo: membershipRepo,
	}
}

type CreateOrgRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (h *OrgHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	var req CreateOrgRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Missing organization name", nil)
		return
	}

	slug := req.Slug
	if slug == "" {
		slug = slugify(req.Name)
	}
	if slug == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid slug", nil)
		return
	}

	existing, err := h.orgRepo.GetBySlug(slug)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if existing != nil {
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "Slug already in use", nil)
		return
	}

	now := time.Now().Unix()
	org := &models.Organization{
		ID:        "org_" + uuid.NewString(),
		Name:      req.Name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// The creator becomes OWNER in the same transaction so an organization
	// can never exist without one.
	tx, err := h.orgRepo.BeginTx()
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	defer tx.Rollback()

	if err := h.orgRepo.CreateTx(tx, org); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create organization", nil)
		return
	}
	membership := &models.Membership{
		UserID:         claims.UserID,
		OrganizationID: org.ID,
		Role:           policy.RoleOwner,
		CreatedAt:      now,
	}
	if err := h.membershipRepo.CreateTx(tx, membership); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create membership", nil)
		return
	}
	if err := tx.Commit(); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	writeJSON(w, http.StatusCreated, org)
}

func (h *OrgHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	memberships, err := h.membershipRepo.ListForUser(claims.UserID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	writeJSON(w, http.StatusOK, memberships)
}

func (h *OrgHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	orgID := paramFrom(r, "id")

	if _, err := h.requireRole(claims.UserID, orgID, policy.RoleMember); err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	org, err := h.orgRepo.GetByID(orgID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if org == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Organization not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, org)
}

func (h *OrgHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	orgID := paramFrom(r, "id")

	if _, err := h.requireRole(claims.UserID, orgID, policy.RoleMember); err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	members, err := h.membershipRepo.ListForOrganization(orgID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	writeJSON(w, http.StatusOK, members)
}

type AddMemberRequest struct {
	Email string      `json:"email"`
	Role  policy.Role `json:"role"`
}

func (h *OrgHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	orgID := paramFrom(r, "id")

	if _, err := h.requireRole(claims.UserID, orgID, policy.RoleAdmin); err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Role == "" {
		req.Role = policy.RoleMember
	}
	if !req.Role.Valid() {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid role", nil)
		return
	}

	user, err := h.userRepo.GetByEmail(req.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if user == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "User not found", nil)
		return
	}

	existing, err := h.membershipRepo.Get(user.ID, orgID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if existing != nil {
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "User is already a member", nil)
		return
	}

	membership := &models.Membership{
		UserID:         user.ID,
		OrganizationID: orgID,
		Role:           req.Role,
		CreatedAt:      time.Now().Unix(),
	}
	if err := h.membershipRepo.Create(membership); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to add member", nil)
		return
	}

	writeJSON(w, http.StatusCreated, membership)
}

type UpdateMemberRequest struct {
	Role policy.Role `json:"role"`
}

func (h *OrgHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	orgID := paramFrom(r, "id")
	userID := paramFrom(r, "userId")

	if _, err := h.requireRole(claims.UserID, orgID, policy.RoleOwner); err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	var req UpdateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if !req.Role.Valid() {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid role", nil)
		return
	}

	if userID == claims.UserID && req.Role != policy.RoleOwner {
		if err := h.ensureAnotherOwner(orgID, userID); err != nil {
			errors.WriteServiceError(w, err)
			return
		}
	}

	if err := h.membershipRepo.UpdateRole(userID, orgID, req.Role); err != nil {
		if err == sql.ErrNoRows {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Membership not found", nil)
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Role updated"})
}

func (h *OrgHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	orgID := paramFrom(r, "id")
	userID := paramFrom(r, "userId")

	// Members may leave on their own; removing anyone else takes OWNER.
	if userID != claims.UserID {
		if _, err := h.requireRole(claims.UserID, orgID, policy.RoleOwner); err != nil {
			errors.WriteServiceError(w, err)
			return
		}
	}

	target, err := h.membershipRepo.Get(userID, orgID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if target == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Membership not found", nil)
		return
	}
	if target.Role == policy.RoleOwner {
		if err := h.ensureAnotherOwner(orgID, userID); err != nil {
			errors.WriteServiceError(w, err)
			return
		}
	}

	if err := h.membershipRepo.Delete(userID, orgID); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// requireRole loads the caller's membership and checks it clears the
// floor role. MEMBER < ADMIN < OWNER.
func (h *OrgHandler) requireRole(userID, orgID string, floor policy.Role) (*models.Membership, error) {
	m, err := h.membershipRepo.Get(userID, orgID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errors.Wrap(errors.ErrForbidden, "not a member of this organization")
	}
	if rolePriority(m.Role) < rolePriority(floor) {
		return nil, errors.Wrap(errors.ErrForbidden, "insufficient role")
	}
	return m, nil
}

func (h *OrgHandler) ensureAnotherOwner(orgID, excludeUserID string) error {
	members, err := h.membershipRepo.ListForOrganization(orgID)
	if err != nil {
		return err
	}
	for _, m := range members {
		if m.Role == policy.RoleOwner && m.UserID != excludeUserID {
			return nil
		}
	}
	return errors.Wrap(errors.ErrConflict, "organization must keep at least one owner")
}

func rolePriority(r policy.Role) int {
	switch r {
	case policy.RoleOwner:
		return 3
	case policy.RoleAdmin:
		return 2
	case policy.RoleMember:
		return 1
	}
	return 0
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	s := slugPattern.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}
