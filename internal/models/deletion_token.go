package models

import (
	"time"

	"github.com/google/uuid"
)

// DeletionToken gates a pending account deletion. The token string is
// the record's primary key; Email is a snapshot of the address supplied
// at request time, not re-read at confirm time.
type DeletionToken struct {
	Token     string     `db:"token"`
	UID       uuid.UUID  `db:"uid"`
	Email     string     `db:"email"`
	CreatedAt time.Time  `db:"created_at"`
	ExpiresAt time.Time  `db:"expires_at"`
	Used      bool       `db:"used"`
	UsedAt    *time.Time `db:"used_at"`
}

// Expired reports whether the token's TTL has elapsed at the given time.
func (t *DeletionToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}
