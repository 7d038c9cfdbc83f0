package content

import (
	"secondbrain/internal/engine/policy"
	"secondbrain/internal/platform/models"
)

type ContentType string

const (
	TypeNote     ContentType = "NOTE"
	TypeTweet    ContentType = "TWEET"
	TypeVideo    ContentType = "VIDEO"
	TypeDocument ContentType = "DOCUMENT"
	TypeLink     ContentType = "LINK"
	TypeImage    ContentType = "IMAGE"
)

func (t ContentType) Valid() bool {
	switch t {
	case TypeNote, TypeTweet, TypeVideo, TypeDocument, TypeLink, TypeImage:
		return true
	}
	return false
}

// Item is the central entity: one unit of captured content. An item is
// owned by exactly one user and associated with at most one organization
// at a time.
type Item struct {
	ID             string                 `json:"id"`
	Title          string                 `json:"title"`
	Excerpt        string                 `json:"excerpt,omitempty"`
	Content        string                 `json:"content,omitempty"`
	URL            string                 `json:"url,omitempty"`
	Type           ContentType            `json:"type"`
	Visibility     policy.Visibility      `json:"visibility"`
	OwnerID        string                 `json:"owner_id"`
	OrganizationID string                 `json:"organization_id,omitempty"`
	Pinned         bool                   `json:"pinned"`
	Archived       bool                   `json:"archived"`
	Published      bool                   `json:"published"`
	PublishedAt    *int64                 `json:"published_at,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt      int64                  `json:"created_at"`
	UpdatedAt      int64                  `json:"updated_at"`
	DeletedAt      *int64                 `json:"-"`

	Tags        []*models.Tag        `json:"tags,omitempty"`
	Attachments []*models.Attachment `json:"attachments,omitempty"`
}

// Snapshot extracts the fields the policy evaluator needs.
func (i *Item) Snapshot() policy.Resource {
	return policy.Resource{
		OwnerID:        i.OwnerID,
		OrganizationID: i.OrganizationID,
		Visibility:     i.Visibility,
	}
}
