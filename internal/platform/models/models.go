package models

import "secondbrain/internal/engine/policy"

type User struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	EmailVerifiedAt *int64 `json:"email_verified_at,omitempty"`
	PasswordHash    string `json:"-"`
	Name            string `json:"name"`
	AvatarURL       string `json:"avatar_url,omitempty"`
	APIKeyOpenAI    string `json:"-"`
	APIKeyGemini    string `json:"-"`
	CreatedAt       int64  `json:"created_at"`
	UpdatedAt       int64  `json:"updated_at"`

	Memberships []*Membership `json:"memberships,omitempty"`
}

type Organization struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type Membership struct {
	UserID         string      `json:"user_id"`
	OrganizationID string      `json:"organization_id"`
	Role           policy.Role `json:"role"`
	CreatedAt      int64       `json:"created_at"`

	Organization *Organization `json:"organization,omitempty"`
}

type Tag struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	OrganizationID string `json:"organization_id,omitempty"` // empty means global
	CreatedAt      int64  `json:"created_at"`
}

// Attachment is uploaded-file metadata owned by a content item. Rows are
// created at upload time and never mutated.
type Attachment struct {
	ID            string `json:"id"`
	ContentItemID string `json:"content_item_id"`
	URL           string `json:"url"`
	Filename      string `json:"filename"`
	MimeType      string `json:"mime_type"`
	Size          int64  `json:"size"`
	UploadedBy    string `json:"uploaded_by"`
	CreatedAt     int64  `json:"created_at"`
}
