package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/certistudy/deletion-service/internal/models"
	"github.com/certistudy/deletion-service/internal/utils"
)

// MemberRepository reads member profile documents and issues
// whole-record deletes. The deletion flow never mutates non-deletion
// fields.
type MemberRepository interface {
	Create(ctx context.Context, m *models.Member) error
	GetByMemberID(ctx context.Context, memberID string) (*models.Member, error)
	DeleteProfile(ctx context.Context, uid uuid.UUID) error
}

type memberRepository struct {
	db            DB
	encryptionKey []byte
}

// NewMemberRepository creates a new repository. Member emails are
// AES-256-GCM encrypted at rest with encryptionKey.
func NewMemberRepository(db DB, encryptionKey []byte) MemberRepository {
	return &memberRepository{db: db, encryptionKey: encryptionKey}
}

func (r *memberRepository) Create(ctx context.Context, m *models.Member) error {
	encryptedEmail, err := utils.Encrypt(r.encryptionKey, m.Email)
	if err != nil {
		return fmt.Errorf("failed to encrypt member email: %w", err)
	}

	query := `
        INSERT INTO members (uid, member_id, email, profile)
        VALUES ($1, $2, $3, $4)
    `
	_, err = r.db.Exec(ctx, query, m.UID, m.MemberID, encryptedEmail, m.Profile)
	return err
}

func (r *memberRepository) GetByMemberID(ctx context.Context, memberID string) (*models.Member, error) {
	query := `
        SELECT uid, member_id, email, profile
        FROM members
        WHERE member_id = $1
    `
	row := r.db.QueryRow(ctx, query, memberID)
	var m models.Member
	if err := row.Scan(&m.UID, &m.MemberID, &m.Email, &m.Profile); err != nil {
		return nil, err
	}

	decryptedEmail, err := utils.Decrypt(r.encryptionKey, m.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt member email: %w", err)
	}
	m.Email = decryptedEmail

	return &m, nil
}

func (r *memberRepository) DeleteProfile(ctx context.Context, uid uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM members WHERE uid=$1`, uid)
	return err
}
