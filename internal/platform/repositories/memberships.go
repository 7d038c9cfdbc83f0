package repositories

import (
	"database/sql"

	"secondbrain/internal/engine/policy"
	"secondbrain/internal/platform/models"
)

type MembershipRepository struct {
	db *sql.DB
}

func NewMembershipRepository(db *sql.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Create inserts a role binding. The schema's UNIQUE(user_id,
// organization_id) keeps one role per pair; a duplicate surfaces as a
// constraint error.
func (r *MembershipRepository) Create(m *models.Membership) error {
	_, err := r.db.Exec(`
		INSERT INTO memberships (user_id, organization_id, role, created_at)
		VALUES (?, ?, ?, ?)
	`, m.UserID, m.OrganizationID, string(m.Role), m.CreatedAt)
	return err
}

func (r *MembershipRepository) CreateTx(tx *sql.Tx, m *models.Membership) error {
	_, err := tx.Exec(`
		INSERT INTO memberships (user_id, organization_id, role, created_at)
		VALUES (?, ?, ?, ?)
	`, m.UserID, m.OrganizationID, string(m.Role), m.CreatedAt)
	return err
}

func (r *MembershipRepository) Get(userID, orgID string) (*models.Membership, error) {
	m := &models.Membership{}
	var role string
	err := r.db.QueryRow(`
		SELECT user_id, organization_id, role, created_at
		FROM memberships WHERE user_id = ? AND organization_id = ?
	`, userID, orgID).Scan(&m.UserID, &m.OrganizationID, &role, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	m.Role = policy.Role(role)
	return m, nil
}

func (r *MembershipRepository) UpdateRole(userID, orgID string, role policy.Role) error {
	res, err := r.db.Exec(`
		UPDATE memberships SET role = ? WHERE user_id = ? AND organization_id = ?
	`, string(role), userID, orgID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *MembershipRepository) Delete(userID, orgID string) error {
	res, err := r.db.Exec(`
		DELETE FROM memberships WHERE user_id = ? AND organization_id = ?
	`, userID, orgID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RolesForUser returns the actor's organization roles as the policy
// evaluator consumes them.
func (r *MembershipRepository) RolesForUser(userID string) (policy.Memberships, error) {
	rows, err := r.db.Query(`
		SELECT organization_id, role FROM memberships WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := policy.Memberships{}
	for rows.Next() {
		var orgID, role string
		if err := rows.Scan(&orgID, &role); err != nil {
			return nil, err
		}
		roles[orgID] = policy.Role(role)
	}
	return roles, rows.Err()
}

// ListForUser expands each membership with its organization, for profile
// responses.
func (r *MembershipRepository) ListForUser(userID string) ([]*models.Membership, error) {
	rows, err := r.db.Query(`
		SELECT m.user_id, m.organization_id, m.role, m.created_at,
		       o.id, o.name, o.slug, o.created_at, o.updated_at
		FROM memberships m
		JOIN organizations o ON o.id = m.organization_id
		WHERE m.user_id = ?
		ORDER BY m.created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Membership
	for rows.Next() {
		m := &models.Membership{Organization: &models.Organization{}}
		var role string
		if err := rows.Scan(&m.UserID, &m.OrganizationID, &role, &m.CreatedAt,
			&m.Organization.ID, &m.Organization.Name, &m.Organization.Slug,
			&m.Organization.CreatedAt, &m.Organization.UpdatedAt); err != nil {
			return nil, err
		}
		m.Role = policy.Role(role)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MembershipRepository) ListForOrganization(orgID string) ([]*models.Membership, error) {
	rows, err := r.db.Query(`
		SELECT user_id, organization_id, role, created_at
		FROM memberships WHERE organization_id = ?
		ORDER BY created_at
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Membership
	for rows.Next() {
		m := &models.Membership{}
		var role string
		if err := rows.Scan(&m.UserID, &m.OrganizationID, &role, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Role = policy.Role(role)
		out = append(out, m)
	}
	return out, rows.Err()
}
