package repositories

import (
	"database/sql"
	"time"

	"secondbrain/internal/platform/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *models.User) error {
	_, err := r.db.Exec(`
		INSERT INTO users (id, email, email_verified_at, password_hash, name, avatar_url, api_key_openai, api_key_gemini, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, user.ID, user.Email, user.EmailVerifiedAt, user.PasswordHash, user.Name, user.AvatarURL, user.APIKeyOpenAI, user.APIKeyGemini, user.CreatedAt, user.UpdatedAt)
	return err
}

func (r *UserRepository) GetByID(id string) (*models.User, error) {
	return r.getOne(`SELECT id, email, email_verified_at, password_hash, name, avatar_url, api_key_openai, api_key_gemini, created_at, updated_at FROM users WHERE id = ?`, id)
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	return r.getOne(`SELECT id, email, email_verified_at, password_hash, name, avatar_url, api_key_openai, api_key_gemini, created_at, updated_at FROM users WHERE email = ?`, email)
}

func (r *UserRepository) getOne(query string, arg interface{}) (*models.User, error) {
	user := &models.User{}
	var verifiedAt sql.NullInt64
	err := r.db.QueryRow(query, arg).Scan(
		&user.ID, &user.Email, &verifiedAt, &user.PasswordHash, &user.Name,
		&user.AvatarURL, &user.APIKeyOpenAI, &user.APIKeyGemini, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if verifiedAt.Valid {
		val := verifiedAt.Int64
		user.EmailVerifiedAt = &val
	}
	return user, nil
}

func (r *UserRepository) UpdateProfile(id string, name, avatarURL *string) error {
	if name == nil && avatarURL == nil {
		return nil
	}
	query := `UPDATE users SET updated_at = ?`
	args := []interface{}{time.Now().Unix()}
	if name != nil {
		query += `, name = ?`
		args = append(args, *name)
	}
	if avatarURL != nil {
		query += `, avatar_url = ?`
		args = append(args, *avatarURL)
	}
	query += ` WHERE id = ?`
	args = append(args, id)
	_, err := r.db.Exec(query, args...)
	return err
}

func (r *UserRepository) MarkVerified(email string, timestamp int64) error {
	_, err := r.db.Exec(`UPDATE users SET email_verified_at = ?, updated_at = ? WHERE email = ?`, timestamp, timestamp, email)
	return err
}

// SetAPIKey stores a provider key for the user. Provider is "openai" or
// "gemini"; callers validate before reaching here.
func (r *UserRepository) SetAPIKey(id, provider, key string) error {
	column := "api_key_openai"
	if provider == "gemini" {
		column = "api_key_gemini"
	}
	_, err := r.db.Exec(`UPDATE users SET `+column+` = ?, updated_at = ? WHERE id = ?`, key, time.Now().Unix(), id)
	return err
}
