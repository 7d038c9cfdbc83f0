package repositories

import (
	"database/sql"

	"secondbrain/internal/platform/models"
)

type TagRepository struct {
	db *sql.DB
}

func NewTagRepository(db *sql.DB) *TagRepository {
	return &TagRepository{db: db}
}

func (r *TagRepository) Create(tag *models.Tag) error {
	var orgID interface{}
	if tag.OrganizationID != "" {
		orgID = tag.OrganizationID
	}
	_, err := r.db.Exec(`
		INSERT INTO tags (id, name, organization_id, created_at)
		VALUES (?, ?, ?, ?)
	`, tag.ID, tag.Name, orgID, tag.CreatedAt)
	return err
}

func (r *TagRepository) GetByID(id string) (*models.Tag, error) {
	tag := &models.Tag{}
	var orgID sql.NullString
	err := r.db.QueryRow(`
		SELECT id, name, organization_id, created_at FROM tags WHERE id = ?
	`, id).Scan(&tag.ID, &tag.Name, &orgID, &tag.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	tag.OrganizationID = orgID.String
	return tag, nil
}

// List returns global tags plus, when orgID is set, that organization's tags.
func (r *TagRepository) List(orgID string) ([]*models.Tag, error) {
	query := `SELECT id, name, organization_id, created_at FROM tags WHERE organization_id IS NULL`
	args := []interface{}{}
	if orgID != "" {
		query += ` OR organization_id = ?`
		args = append(args, orgID)
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		tag := &models.Tag{}
		var org sql.NullString
		if err := rows.Scan(&tag.ID, &tag.Name, &org, &tag.CreatedAt); err != nil {
			return nil, err
		}
		tag.OrganizationID = org.String
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
