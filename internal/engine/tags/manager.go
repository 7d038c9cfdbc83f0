// Package tags implements the tag association manager: attaching and
// detaching tags on content items under the org-scoping rule.
package tags

import (
	"database/sql"
	"strings"
	"time"

	"secondbrain/internal/engine/content"
	"secondbrain/internal/engine/policy"
	apperrors "secondbrain/internal/pkg/errors"
	"secondbrain/internal/platform/models"
)

type MembershipSource interface {
	RolesForUser(userID string) (policy.Memberships, error)
}

type TagSource interface {
	GetByID(id string) (*models.Tag, error)
}

type Manager struct {
	db          *sql.DB
	contentRepo *content.Repository
	tags        TagSource
	memberships MembershipSource
}

func NewManager(db *sql.DB, contentRepo *content.Repository, tags TagSource, memberships MembershipSource) *Manager {
	return &Manager{db: db, contentRepo: contentRepo, tags: tags, memberships: memberships}
}

// Attachment is a join record with the tag expanded, as returned to callers.
type Attachment struct {
	ContentItemID string      `json:"content_item_id"`
	TagID         string      `json:"tag_id"`
	CreatedAt     int64       `json:"created_at"`
	Tag           *models.Tag `json:"tag"`
}

// Attach creates the (content, tag) join. Duplicate pairs are a Conflict,
// not a silent success. The tag must be global or scoped to the item's
// organization.
func (m *Manager) Attach(actor *policy.Actor, contentID, tagID string) (*Attachment, error) {
	item, err := m.authorize(actor, contentID)
	if err != nil {
		return nil, err
	}

	tag, err := m.tags.GetByID(tagID)
	if err != nil {
		return nil, err
	}
	if tag == nil {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "tag not found")
	}
	if !policy.TagScopeAllowed(item.OrganizationID, tag.OrganizationID) {
		return nil, apperrors.Wrap(apperrors.ErrValidation, "tag belongs to a different organization")
	}

	now := time.Now().Unix()
	_, err = m.db.Exec(`
		INSERT INTO content_item_tags (content_item_id, tag_id, created_at)
		VALUES (?, ?, ?)
	`, contentID, tagID, now)
	if err != nil {
		// Concurrent attaches race on the UNIQUE(content_item_id, tag_id)
		// constraint; both orderings resolve to Conflict.
		if isUniqueViolation(err) {
			return nil, apperrors.Wrap(apperrors.ErrConflict, "tag already attached")
		}
		return nil, err
	}

	return &Attachment{ContentItemID: contentID, TagID: tagID, CreatedAt: now, Tag: tag}, nil
}

// Detach removes the join. A missing pair is NotFound.
func (m *Manager) Detach(actor *policy.Actor, contentID, tagID string) error {
	if _, err := m.authorize(actor, contentID); err != nil {
		return err
	}

	res, err := m.db.Exec(`
		DELETE FROM content_item_tags WHERE content_item_id = ? AND tag_id = ?
	`, contentID, tagID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.Wrap(apperrors.ErrNotFound, "tag attachment not found")
	}
	return nil
}

// authorize loads the item and checks tag-management permission: owner, or
// ADMIN/OWNER of the item's organization.
func (m *Manager) authorize(actor *policy.Actor, contentID string) (*content.Item, error) {
	if actor == nil {
		return nil, apperrors.Wrap(apperrors.ErrUnauthenticated, "authentication required")
	}

	item, err := m.contentRepo.GetByID(contentID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "content not found")
	}

	roles, err := m.memberships.RolesForUser(actor.ID)
	if err != nil {
		return nil, err
	}
	if !policy.CanManageTags(actor, item.Snapshot(), roles) {
		return nil, apperrors.Wrap(apperrors.ErrForbidden, "you cannot modify tags on this content")
	}
	return item, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
