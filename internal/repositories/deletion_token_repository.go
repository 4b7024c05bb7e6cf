package repositories

import (
	"context"
	"time"

	"github.com/certistudy/deletion-service/internal/models"
)

// DeletionTokenRepository handles CRUD for pending account-deletion
// tokens.
type DeletionTokenRepository interface {
	Create(ctx context.Context, t *models.DeletionToken) error
	Get(ctx context.Context, token string) (*models.DeletionToken, error)
	Delete(ctx context.Context, token string) error

	// MarkUsed flips used false -> true. It reports false when the row
	// was already consumed (or gone), so a lost confirm race surfaces as
	// "already used" instead of a second deletion success.
	MarkUsed(ctx context.Context, token string, usedAt time.Time) (bool, error)
}

type deletionTokenRepository struct {
	db DB
}

// NewDeletionTokenRepository creates a new repository.
func NewDeletionTokenRepository(db DB) DeletionTokenRepository {
	return &deletionTokenRepository{db: db}
}

func (r *deletionTokenRepository) Create(ctx context.Context, t *models.DeletionToken) error {
	query := `
        INSERT INTO deletion_tokens (token, uid, email, created_at, expires_at, used)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err := r.db.Exec(ctx, query, t.Token, t.UID, t.Email, t.CreatedAt, t.ExpiresAt, t.Used)
	return err
}

func (r *deletionTokenRepository) Get(ctx context.Context, token string) (*models.DeletionToken, error) {
	query := `
        SELECT token, uid, email, created_at, expires_at, used, used_at
        FROM deletion_tokens
        WHERE token = $1
    `
	row := r.db.QueryRow(ctx, query, token)
	var t models.DeletionToken
	if err := row.Scan(&t.Token, &t.UID, &t.Email, &t.CreatedAt, &t.ExpiresAt, &t.Used, &t.UsedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *deletionTokenRepository) Delete(ctx context.Context, token string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM deletion_tokens WHERE token=$1`, token)
	return err
}

func (r *deletionTokenRepository) MarkUsed(ctx context.Context, token string, usedAt time.Time) (bool, error) {
	query := `
        UPDATE deletion_tokens
        SET used = TRUE, used_at = $2
        WHERE token = $1 AND used = FALSE
    `
	tag, err := r.db.Exec(ctx, query, token, usedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
