package models

import (
	"github.com/google/uuid"
	"github.com/jackc/pgtype"
)

// Member is the profile document associated 1:1 with an identity. UID is
// the identity provider's stable key; MemberID is the user-chosen,
// unique external identifier. Email is stored AES-256-GCM encrypted at
// rest; the repository decrypts on read.
type Member struct {
	UID      uuid.UUID    `db:"uid"`
	MemberID string       `db:"member_id"`
	Email    string       `db:"email"`
	Profile  pgtype.JSONB `db:"profile"`
}
