package content

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"secondbrain/internal/engine/policy"
	"secondbrain/internal/platform/models"
)

const (
	defaultPerPage = 20
	minPerPage     = 5
	maxPerPage     = 100
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const itemColumns = `id, title, excerpt, content, url, type, visibility, owner_id, organization_id,
	pinned, archived, published, published_at, metadata, created_at, updated_at, deleted_at`

func (r *Repository) Create(item *Item) error {
	metaJSON, _ := json.Marshal(item.Metadata)

	var orgID interface{}
	if item.OrganizationID != "" {
		orgID = item.OrganizationID
	}

	_, err := r.db.Exec(`
		INSERT INTO content_items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.Title, item.Excerpt, item.Content, item.URL, string(item.Type),
		string(item.Visibility), item.OwnerID, orgID, item.Pinned, item.Archived,
		item.Published, item.PublishedAt, string(metaJSON), item.CreatedAt, item.UpdatedAt, item.DeletedAt)
	return err
}

// GetByID returns the item with tags and attachments expanded, or nil when
// absent or soft-deleted.
func (r *Repository) GetByID(id string) (*Item, error) {
	row := r.db.QueryRow(`
		SELECT `+itemColumns+` FROM content_items WHERE id = ? AND deleted_at IS NULL
	`, id)
	item, err := scanItem(row)
	if err != nil || item == nil {
		return nil, err
	}
	if err := r.expand([]*Item{item}); err != nil {
		return nil, err
	}
	return item, nil
}

func (r *Repository) Update(item *Item) error {
	metaJSON, _ := json.Marshal(item.Metadata)

	var orgID interface{}
	if item.OrganizationID != "" {
		orgID = item.OrganizationID
	}

	_, err := r.db.Exec(`
		UPDATE content_items SET
			title = ?, excerpt = ?, content = ?, url = ?, type = ?, visibility = ?,
			organization_id = ?, pinned = ?, archived = ?, published = ?,
			published_at = ?, metadata = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, item.Title, item.Excerpt, item.Content, item.URL, string(item.Type),
		string(item.Visibility), orgID, item.Pinned, item.Archived, item.Published,
		item.PublishedAt, string(metaJSON), time.Now().Unix(), item.ID)
	return err
}

// SoftDelete stamps the tombstone. The worker purges tombstoned rows later.
func (r *Repository) SoftDelete(id string) error {
	now := time.Now().Unix()
	_, err := r.db.Exec(`
		UPDATE content_items SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL
	`, now, now, id)
	return err
}

// PurgeDeletedBefore hard-deletes items tombstoned before cutoff together
// with their tag joins and attachment rows. Returns the number of items
// removed.
func (r *Repository) PurgeDeletedBefore(cutoff int64) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM content_item_tags WHERE content_item_id IN
			(SELECT id FROM content_items WHERE deleted_at IS NOT NULL AND deleted_at < ?)
	`, cutoff); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(`
		DELETE FROM attachments WHERE content_item_id IN
			(SELECT id FROM content_items WHERE deleted_at IS NOT NULL AND deleted_at < ?)
	`, cutoff); err != nil {
		return 0, err
	}
	res, err := tx.Exec(`
		DELETE FROM content_items WHERE deleted_at IS NOT NULL AND deleted_at < ?
	`, cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, tx.Commit()
}

// attachTags writes tag joins during item creation. Tag existence and
// scoping are validated by the caller.
func (r *Repository) attachTags(itemID string, tagIDs []string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, tagID := range tagIDs {
		if _, err := tx.Exec(`
			INSERT INTO content_item_tags (content_item_id, tag_id, created_at)
			VALUES (?, ?, ?)
		`, itemID, tagID, time.Now().Unix()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Filter describes a listing request. Scope carries the visibility gate and
// is always applied; the explicit fields only narrow the result further.
type Filter struct {
	Page           int
	PerPage        int
	Query          string
	Type           ContentType
	OwnerID        string
	OrganizationID string
	Visibility     policy.Visibility
	Tag            string // tag id, or case-insensitive name fragment

	Scope policy.ListScope
}

func (f *Filter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage == 0 {
		f.PerPage = defaultPerPage
	}
	if f.PerPage < minPerPage {
		f.PerPage = minPerPage
	}
	if f.PerPage > maxPerPage {
		f.PerPage = maxPerPage
	}
}

func (f *Filter) buildWhere() (string, []interface{}) {
	// Archived and deleted items never appear in listings.
	conds := []string{"deleted_at IS NULL", "archived = 0"}
	var args []interface{}

	if f.Scope.PublicOnly {
		conds = append(conds, "visibility = ?")
		args = append(args, string(policy.VisibilityPublic))
	} else {
		or := []string{"visibility = ?", "owner_id = ?"}
		args = append(args, string(policy.VisibilityPublic), f.Scope.ActorID)
		if len(f.Scope.OrgIDs) > 0 {
			placeholders := strings.TrimSuffix(strings.Repeat("?,", len(f.Scope.OrgIDs)), ",")
			or = append(or, "(visibility = ? AND organization_id IN ("+placeholders+"))")
			args = append(args, string(policy.VisibilityOrganization))
			for _, id := range f.Scope.OrgIDs {
				args = append(args, id)
			}
		}
		conds = append(conds, "("+strings.Join(or, " OR ")+")")
	}

	if f.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.OwnerID != "" {
		conds = append(conds, "owner_id = ?")
		args = append(args, f.OwnerID)
	}
	if f.OrganizationID != "" {
		conds = append(conds, "organization_id = ?")
		args = append(args, f.OrganizationID)
	}
	if f.Visibility != "" {
		conds = append(conds, "visibility = ?")
		args = append(args, string(f.Visibility))
	}
	if f.Query != "" {
		needle := "%" + strings.ToLower(f.Query) + "%"
		conds = append(conds, "(LOWER(title) LIKE ? OR LOWER(excerpt) LIKE ? OR LOWER(content) LIKE ?)")
		args = append(args, needle, needle, needle)
	}
	if f.Tag != "" {
		conds = append(conds, `id IN (
			SELECT ct.content_item_id FROM content_item_tags ct
			JOIN tags t ON t.id = ct.tag_id
			WHERE t.id = ? OR LOWER(t.name) LIKE ?)`)
		args = append(args, f.Tag, "%"+strings.ToLower(f.Tag)+"%")
	}

	return strings.Join(conds, " AND "), args
}

func (r *Repository) List(f Filter) ([]*Item, error) {
	f.normalize()
	where, args := f.buildWhere()

	query := fmt.Sprintf(`
		SELECT %s FROM content_items
		WHERE %s
		ORDER BY pinned DESC, updated_at DESC
		LIMIT ? OFFSET ?
	`, itemColumns, where)
	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.expand(items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repository) Count(f Filter) (int, error) {
	f.normalize()
	where, args := f.buildWhere()

	var total int
	err := r.db.QueryRow("SELECT COUNT(*) FROM content_items WHERE "+where, args...).Scan(&total)
	return total, err
}

// expand loads tags and attachments for a batch of items.
func (r *Repository) expand(items []*Item) error {
	if len(items) == 0 {
		return nil
	}
	byID := make(map[string]*Item, len(items))
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(items)), ",")
	ids := make([]interface{}, 0, len(items))
	for _, item := range items {
		byID[item.ID] = item
		ids = append(ids, item.ID)
	}

	rows, err := r.db.Query(`
		SELECT ct.content_item_id, t.id, t.name, t.organization_id, t.created_at
		FROM content_item_tags ct
		JOIN tags t ON t.id = ct.tag_id
		WHERE ct.content_item_id IN (`+placeholders+`)
		ORDER BY t.name
	`, ids...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var itemID string
		tag := &models.Tag{}
		var orgID sql.NullString
		if err := rows.Scan(&itemID, &tag.ID, &tag.Name, &orgID, &tag.CreatedAt); err != nil {
			return err
		}
		tag.OrganizationID = orgID.String
		byID[itemID].Tags = append(byID[itemID].Tags, tag)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	arows, err := r.db.Query(`
		SELECT id, content_item_id, url, filename, mime_type, size, uploaded_by, created_at
		FROM attachments
		WHERE content_item_id IN (`+placeholders+`)
		ORDER BY created_at
	`, ids...)
	if err != nil {
		return err
	}
	defer arows.Close()
	for arows.Next() {
		a := &models.Attachment{}
		if err := arows.Scan(&a.ID, &a.ContentItemID, &a.URL, &a.Filename, &a.MimeType, &a.Size, &a.UploadedBy, &a.CreatedAt); err != nil {
			return err
		}
		byID[a.ContentItemID].Attachments = append(byID[a.ContentItemID].Attachments, a)
	}
	return arows.Err()
}

func scanItem(s interface {
	Scan(dest ...interface{}) error
}) (*Item, error) {
	var item Item
	var itemType, visibility string
	var orgID sql.NullString
	var publishedAt, deletedAt sql.NullInt64
	var metaRaw []byte

	err := s.Scan(
		&item.ID, &item.Title, &item.Excerpt, &item.Content, &item.URL,
		&itemType, &visibility, &item.OwnerID, &orgID,
		&item.Pinned, &item.Archived, &item.Published, &publishedAt,
		&metaRaw, &item.CreatedAt, &item.UpdatedAt, &deletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	item.Type = ContentType(itemType)
	item.Visibility = policy.Visibility(visibility)
	item.OrganizationID = orgID.String
	if publishedAt.Valid {
		val := publishedAt.Int64
		item.PublishedAt = &val
	}
	if deletedAt.Valid {
		val := deletedAt.Int64
		item.DeletedAt = &val
	}
	if len(metaRaw) > 0 {
		json.Unmarshal(metaRaw, &item.Metadata)
	}

	return &item, nil
}
