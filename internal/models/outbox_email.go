package models

import (
	"time"

	"github.com/google/uuid"
)

// OutboxEmail is one queued message in the mail outbox. Writing a row is
// the whole of the core's delivery responsibility; the dispatcher drains
// unsent rows out of band.
type OutboxEmail struct {
	ID        uuid.UUID  `db:"id"`
	To        string     `db:"to_email"`
	Subject   string     `db:"subject"`
	HTML      string     `db:"html"`
	CreatedAt time.Time  `db:"created_at"`
	SentAt    *time.Time `db:"sent_at"`
}
