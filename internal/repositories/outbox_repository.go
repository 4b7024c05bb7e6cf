package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/certistudy/deletion-service/internal/models"
)

// OutboxRepository is the write side of the mail outbox. Enqueueing a
// row is all the deletion flow does; delivery happens out of band.
type OutboxRepository interface {
	Enqueue(ctx context.Context, to, subject, html string) error
	ListUnsent(ctx context.Context, limit int) ([]*models.OutboxEmail, error)
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
}

type outboxRepository struct {
	db DB
}

// NewOutboxRepository creates a new repository.
func NewOutboxRepository(db DB) OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) Enqueue(ctx context.Context, to, subject, html string) error {
	query := `
        INSERT INTO mail_outbox (id, to_email, subject, html, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `
	_, err := r.db.Exec(ctx, query, uuid.New(), to, subject, html, time.Now().UTC())
	return err
}

func (r *outboxRepository) ListUnsent(ctx context.Context, limit int) ([]*models.OutboxEmail, error) {
	query := `
        SELECT id, to_email, subject, html, created_at, sent_at
        FROM mail_outbox
        WHERE sent_at IS NULL
        ORDER BY created_at
        LIMIT $1
    `
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.OutboxEmail
	for rows.Next() {
		var e models.OutboxEmail
		if err := rows.Scan(&e.ID, &e.To, &e.Subject, &e.HTML, &e.CreatedAt, &e.SentAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *outboxRepository) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE mail_outbox SET sent_at=$2 WHERE id=$1`, id, sentAt)
	return err
}
