package content

import (
	"time"

	"github.com/google/uuid"

	"secondbrain/internal/engine/policy"
	apperrors "secondbrain/internal/pkg/errors"
	"secondbrain/internal/platform/models"
)

// MembershipSource resolves an actor's organization roles. Satisfied by
// repositories.MembershipRepository.
type MembershipSource interface {
	RolesForUser(userID string) (policy.Memberships, error)
}

// TagSource looks up tags for attach-at-creation validation.
type TagSource interface {
	GetByID(id string) (*models.Tag, error)
}

type Service struct {
	repo        *Repository
	memberships MembershipSource
	tags        TagSource
}

func NewService(repo *Repository, memberships MembershipSource, tags TagSource) *Service {
	return &Service{repo: repo, memberships: memberships, tags: tags}
}

type CreateRequest struct {
	Title          string                 `json:"title"`
	Excerpt        string                 `json:"excerpt"`
	Content        string                 `json:"content"`
	URL            string                 `json:"url"`
	Type           ContentType            `json:"type"`
	Visibility     policy.Visibility      `json:"visibility"`
	OrganizationID string                 `json:"organization_id"`
	Pinned         bool                   `json:"pinned"`
	Archived       bool                   `json:"archived"`
	Published      bool                   `json:"published"`
	Metadata       map[string]interface{} `json:"metadata"`
	TagIDs         []string               `json:"tag_ids"`
}

func (s *Service) Create(actor *policy.Actor, req *CreateRequest) (*Item, error) {
	if actor == nil {
		return nil, apperrors.Wrap(apperrors.ErrUnauthenticated, "authentication required")
	}
	if req.Title == "" {
		return nil, apperrors.Wrap(apperrors.ErrValidation, "title is required")
	}
	if !req.Type.Valid() {
		return nil, apperrors.Wrap(apperrors.ErrValidation, "invalid or missing content type")
	}
	if req.Visibility == "" {
		req.Visibility = policy.VisibilityPrivate
	}
	if !req.Visibility.Valid() {
		return nil, apperrors.Wrap(apperrors.ErrValidation, "invalid visibility")
	}
	if req.Visibility == policy.VisibilityOrganization && req.OrganizationID == "" {
		return nil, apperrors.Wrap(apperrors.ErrValidation, "organization visibility requires an organization")
	}

	if req.OrganizationID != "" {
		roles, err := s.memberships.RolesForUser(actor.ID)
		if err != nil {
			return nil, err
		}
		if _, ok := roles[req.OrganizationID]; !ok {
			return nil, apperrors.Wrap(apperrors.ErrForbidden, "you are not a member of the specified organization")
		}
	}

	now := time.Now().Unix()
	item := &Item{
		ID:             "cnt_" + uuid.NewString(),
		Title:          req.Title,
		Excerpt:        req.Excerpt,
		Content:        req.Content,
		URL:            req.URL,
		Type:           req.Type,
		Visibility:     req.Visibility,
		OwnerID:        actor.ID,
		OrganizationID: req.OrganizationID,
		Pinned:         req.Pinned,
		Archived:       req.Archived,
		Published:      req.Published,
		Metadata:       req.Metadata,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if item.Published {
		item.PublishedAt = &now
	}

	tagIDs, err := s.validateTagIDs(item, req.TagIDs)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(item); err != nil {
		return nil, err
	}
	if len(tagIDs) > 0 {
		if err := s.repo.attachTags(item.ID, tagIDs); err != nil {
			return nil, err
		}
	}

	return s.repo.GetByID(item.ID)
}

// validateTagIDs checks every tag exists and satisfies the org-scoping rule
// before the item row is written.
func (s *Service) validateTagIDs(item *Item, tagIDs []string) ([]string, error) {
	seen := make(map[string]bool, len(tagIDs))
	var out []string
	for _, id := range tagIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		tag, err := s.tags.GetByID(id)
		if err != nil {
			return nil, err
		}
		if tag == nil {
			return nil, apperrors.Wrap(apperrors.ErrNotFound, "tag not found")
		}
		if !policy.TagScopeAllowed(item.OrganizationID, tag.OrganizationID) {
			return nil, apperrors.Wrap(apperrors.ErrValidation, "tag belongs to a different organization")
		}
		out = append(out, id)
	}
	return out, nil
}

func (s *Service) Get(actor *policy.Actor, id string) (*Item, error) {
	item, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "content not found")
	}

	roles, err := s.rolesFor(actor)
	if err != nil {
		return nil, err
	}
	if !policy.CanRead(actor, item.Snapshot(), roles) {
		if actor == nil {
			return nil, apperrors.Wrap(apperrors.ErrUnauthenticated, "authentication required")
		}
		return nil, apperrors.Wrap(apperrors.ErrForbidden, "you cannot access this content")
	}
	return item, nil
}

// UpdateRequest uses pointer fields so absent and zero values stay distinct.
type UpdateRequest struct {
	Title          *string                 `json:"title"`
	Excerpt        *string                 `json:"excerpt"`
	Content        *string                 `json:"content"`
	URL            *string                 `json:"url"`
	Type           *ContentType            `json:"type"`
	Visibility     *policy.Visibility      `json:"visibility"`
	OrganizationID *string                 `json:"organization_id"`
	Pinned         *bool                   `json:"pinned"`
	Archived       *bool                   `json:"archived"`
	Published      *bool                   `json:"published"`
	Metadata       *map[string]interface{} `json:"metadata"`
}

// AuthorizeWrite checks that the actor may modify the item without writing
// the row. Handlers use it to gate side effects such as attachment uploads.
func (s *Service) AuthorizeWrite(actor *policy.Actor, id string) (*Item, error) {
	item, _, err := s.writableItem(actor, id)
	return item, err
}

// writableItem loads the item and applies the write policy, returning the
// actor's roles so callers can run further checks without a second lookup.
func (s *Service) writableItem(actor *policy.Actor, id string) (*Item, policy.Memberships, error) {
	if actor == nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrUnauthenticated, "authentication required")
	}

	item, err := s.repo.GetByID(id)
	if err != nil {
		return nil, nil, err
	}
	if item == nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrNotFound, "content not found")
	}

	roles, err := s.memberships.RolesForUser(actor.ID)
	if err != nil {
		return nil, nil, err
	}
	if !policy.CanWrite(actor, item.Snapshot(), roles) {
		return nil, nil, apperrors.Wrap(apperrors.ErrForbidden, "you cannot modify this content")
	}
	return item, roles, nil
}

func (s *Service) Update(actor *policy.Actor, id string, req *UpdateRequest) (*Item, error) {
	item, roles, err := s.writableItem(actor, id)
	if err != nil {
		return nil, err
	}

	if req.OrganizationID != nil && *req.OrganizationID != item.OrganizationID {
		if !policy.CanReassign(actor, item.Snapshot(), roles, *req.OrganizationID) {
			return nil, apperrors.Wrap(apperrors.ErrForbidden, "you are not a member of the new organization")
		}
		item.OrganizationID = *req.OrganizationID
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, apperrors.Wrap(apperrors.ErrValidation, "title cannot be empty")
		}
		item.Title = *req.Title
	}
	if req.Excerpt != nil {
		item.Excerpt = *req.Excerpt
	}
	if req.Content != nil {
		item.Content = *req.Content
	}
	if req.URL != nil {
		item.URL = *req.URL
	}
	if req.Type != nil {
		if !req.Type.Valid() {
			return nil, apperrors.Wrap(apperrors.ErrValidation, "invalid content type")
		}
		item.Type = *req.Type
	}
	if req.Visibility != nil {
		if !req.Visibility.Valid() {
			return nil, apperrors.Wrap(apperrors.ErrValidation, "invalid visibility")
		}
		item.Visibility = *req.Visibility
	}
	if req.Pinned != nil {
		item.Pinned = *req.Pinned
	}
	if req.Archived != nil {
		item.Archived = *req.Archived
	}
	if req.Published != nil {
		item.Published = *req.Published
		if item.Published && item.PublishedAt == nil {
			now := time.Now().Unix()
			item.PublishedAt = &now
		}
	}
	if req.Metadata != nil {
		item.Metadata = *req.Metadata
	}

	if item.Visibility == policy.VisibilityOrganization && item.OrganizationID == "" {
		return nil, apperrors.Wrap(apperrors.ErrValidation, "organization visibility requires an organization")
	}

	if err := s.repo.Update(item); err != nil {
		return nil, err
	}
	return s.repo.GetByID(id)
}

func (s *Service) Delete(actor *policy.Actor, id string) error {
	if actor == nil {
		return apperrors.Wrap(apperrors.ErrUnauthenticated, "authentication required")
	}

	item, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if item == nil {
		return apperrors.Wrap(apperrors.ErrNotFound, "content not found")
	}

	roles, err := s.memberships.RolesForUser(actor.ID)
	if err != nil {
		return err
	}
	if !policy.CanDelete(actor, item.Snapshot(), roles) {
		return apperrors.Wrap(apperrors.ErrForbidden, "you cannot delete this content")
	}

	return s.repo.SoftDelete(id)
}

type Page struct {
	Data []*Item  `json:"data"`
	Meta PageMeta `json:"meta"`
}

type PageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}

// List applies the implicit visibility gate for the actor and then the
// explicit filters on top of it. Explicit owner or organization filters
// never widen what the actor is allowed to see.
func (s *Service) List(actor *policy.Actor, f Filter) (*Page, error) {
	roles, err := s.rolesFor(actor)
	if err != nil {
		return nil, err
	}
	f.Scope = policy.ScopeFor(actor, roles)
	f.normalize()

	items, err := s.repo.List(f)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(f)
	if err != nil {
		return nil, err
	}

	totalPages := (total + f.PerPage - 1) / f.PerPage
	return &Page{
		Data: items,
		Meta: PageMeta{Total: total, Page: f.Page, PerPage: f.PerPage, TotalPages: totalPages},
	}, nil
}

func (s *Service) rolesFor(actor *policy.Actor) (policy.Memberships, error) {
	if actor == nil {
		return nil, nil
	}
	return s.memberships.RolesForUser(actor.ID)
}
