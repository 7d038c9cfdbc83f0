package repositories

import (
	"database/sql"

	"secondbrain/internal/platform/models"
)

type AttachmentRepository struct {
	db *sql.DB
}

func NewAttachmentRepository(db *sql.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

func (r *AttachmentRepository) Create(a *models.Attachment) error {
	_, err := r.db.Exec(`
		INSERT INTO attachments (id, content_item_id, url, filename, mime_type, size, uploaded_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.ContentItemID, a.URL, a.Filename, a.MimeType, a.Size, a.UploadedBy, a.CreatedAt)
	return err
}
